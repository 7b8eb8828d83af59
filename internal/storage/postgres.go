package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fashionStudio/internal/garment"
	"fashionStudio/internal/generation"
)

// PostgresStore persists sessions in PostgreSQL. Structured fields are kept
// as JSONB columns.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const sessionColumns = `id, images, analysis, settings, results, epoch, created_at, updated_at`

// CreateSession stores the provided session in PostgreSQL.
func (s *PostgresStore) CreateSession(ctx context.Context, input Session) (Session, error) {
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if input.CreatedAt.IsZero() {
		input.CreatedAt = now
	}
	input.UpdatedAt = now
	if input.Images == nil {
		input.Images = []Asset{}
	}

	images, analysis, settings, results, err := marshalSession(input)
	if err != nil {
		return Session{}, err
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO studio_sessions (`+sessionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		input.ID, images, analysis, settings, results, input.Epoch, input.CreatedAt, input.UpdatedAt); err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return input, nil
}

// ListSessions returns the most recent sessions.
func (s *PostgresStore) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+sessionColumns+` FROM studio_sessions ORDER BY created_at DESC LIMIT 50`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// GetSession loads a session by ID.
func (s *PostgresStore) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM studio_sessions WHERE id = $1`, id)
	return scanSession(row)
}

// UpdateAnalysis locks the session row, applies mutate to the stored analysis
// and writes it back in one transaction.
func (s *PostgresStore) UpdateAnalysis(ctx context.Context, id string, mutate AnalysisMutation) (Session, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("begin analysis update: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		raw     []byte
		current garment.Analysis
	)
	err = tx.QueryRow(ctx, `SELECT analysis FROM studio_sessions WHERE id = $1 FOR UPDATE`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("lock session: %w", err)
	}
	if err := unmarshalJSON(raw, &current); err != nil {
		return Session{}, fmt.Errorf("decode analysis: %w", err)
	}

	raw, err = json.Marshal(mutate(current))
	if err != nil {
		return Session{}, fmt.Errorf("marshal analysis: %w", err)
	}
	sess, err := scanSession(tx.QueryRow(ctx,
		`UPDATE studio_sessions SET analysis = $2, updated_at = now() WHERE id = $1 RETURNING `+sessionColumns,
		id, raw))
	if err != nil {
		return Session{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Session{}, fmt.Errorf("commit analysis update: %w", err)
	}
	return sess, nil
}

// BeginGeneration increments the epoch in a single statement so concurrent
// generations always receive distinct epochs.
func (s *PostgresStore) BeginGeneration(ctx context.Context, id string, settings Settings) (int64, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return 0, fmt.Errorf("marshal settings: %w", err)
	}
	var epoch int64
	err = s.pool.QueryRow(ctx,
		`UPDATE studio_sessions SET epoch = epoch + 1, settings = $2, updated_at = now() WHERE id = $1 RETURNING epoch`,
		id, raw).Scan(&epoch)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("begin generation: %w", err)
	}
	return epoch, nil
}

// CommitResults writes results guarded by the epoch.
func (s *PostgresStore) CommitResults(ctx context.Context, id string, epoch int64, results []generation.PreviewResult) error {
	if results == nil {
		results = []generation.PreviewResult{}
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE studio_sessions SET results = $3, updated_at = now() WHERE id = $1 AND epoch = $2`,
		id, epoch, raw)
	if err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM studio_sessions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleEpoch
}

// DeleteSession removes a session.
func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM studio_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases database resources.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func marshalSession(sess Session) (images, analysis, settings, results []byte, err error) {
	if images, err = json.Marshal(sess.Images); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal images: %w", err)
	}
	if analysis, err = json.Marshal(sess.Analysis); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal analysis: %w", err)
	}
	if settings, err = json.Marshal(sess.Settings); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal settings: %w", err)
	}
	if sess.Results == nil {
		sess.Results = []generation.PreviewResult{}
	}
	if results, err = json.Marshal(sess.Results); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal results: %w", err)
	}
	return images, analysis, settings, results, nil
}

func scanSession(row pgx.Row) (Session, error) {
	var (
		sess                                Session
		images, analysis, settings, results []byte
	)
	if err := row.Scan(&sess.ID, &images, &analysis, &settings, &results, &sess.Epoch, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("scan session: %w", err)
	}
	if err := unmarshalJSON(images, &sess.Images); err != nil {
		return Session{}, fmt.Errorf("decode images: %w", err)
	}
	if err := unmarshalJSON(analysis, &sess.Analysis); err != nil {
		return Session{}, fmt.Errorf("decode analysis: %w", err)
	}
	if err := unmarshalJSON(settings, &sess.Settings); err != nil {
		return Session{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := unmarshalJSON(results, &sess.Results); err != nil {
		return Session{}, fmt.Errorf("decode results: %w", err)
	}
	return sess, nil
}

func unmarshalJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
