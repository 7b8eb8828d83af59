package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fashionStudio/internal/garment"
	"fashionStudio/internal/generation"
	"fashionStudio/internal/imagery"
	"fashionStudio/internal/prompts"
)

// ErrNotFound indicates that a session could not be located in the backing store.
var ErrNotFound = errors.New("session not found")

// ErrStaleEpoch is returned when results are committed for a generation that
// has since been superseded by a newer one.
var ErrStaleEpoch = errors.New("generation superseded")

// Session is one studio workspace: the uploads, the current analysis and the
// latest generation.
type Session struct {
	ID        string                     `json:"id"`
	Images    []Asset                    `json:"images"`
	Analysis  garment.Analysis           `json:"analysis"`
	Settings  Settings                   `json:"settings"`
	Results   []generation.PreviewResult `json:"results"`
	Epoch     int64                      `json:"epoch"`
	CreatedAt time.Time                  `json:"createdAt"`
	UpdatedAt time.Time                  `json:"updatedAt"`
}

// Asset is an uploaded reference image. Data is kept so generations can be
// re-run without downloading the file again.
type Asset struct {
	Role imagery.Role `json:"role"`
	Slot garment.Slot `json:"slot,omitempty"`
	MIME string       `json:"mime"`
	URL  string       `json:"url,omitempty"`
	Key  string       `json:"key,omitempty"`
	Data []byte       `json:"data,omitempty"`
}

// Settings is the generation configuration last used for a session.
type Settings struct {
	Lighting     prompts.Lighting     `json:"lighting"`
	Mannequin    prompts.Mannequin    `json:"mannequin"`
	Scene        prompts.Scene        `json:"scene"`
	Measurements prompts.Measurements `json:"measurements,omitempty"`
	Views        []generation.ECView  `json:"views,omitempty"`
	Purposes     []generation.Purpose `json:"purposes,omitempty"`
}

// ImageSet converts the stored assets into renderer references.
func (s Session) ImageSet() imagery.Set {
	set := make(imagery.Set, 0, len(s.Images))
	for _, a := range s.Images {
		set = append(set, imagery.Image{Role: a.Role, Slot: a.Slot, MIME: a.MIME, Data: a.Data})
	}
	return set
}

// clone returns a copy that shares no mutable state with s.
func (s Session) clone() Session {
	out := s
	out.Analysis = s.Analysis.Clone()
	out.Images = append([]Asset(nil), s.Images...)
	out.Results = append([]generation.PreviewResult(nil), s.Results...)
	out.Settings.Views = append([]generation.ECView(nil), s.Settings.Views...)
	out.Settings.Purposes = append([]generation.Purpose(nil), s.Settings.Purposes...)
	if s.Settings.Measurements != nil {
		out.Settings.Measurements = make(prompts.Measurements, len(s.Settings.Measurements))
		for k, v := range s.Settings.Measurements {
			out.Settings.Measurements[k] = v
		}
	}
	return out
}

// AnalysisMutation derives a new analysis from the stored one.
type AnalysisMutation func(garment.Analysis) garment.Analysis

// Store defines the persistence behaviors the application relies on.
type Store interface {
	CreateSession(ctx context.Context, input Session) (Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	// UpdateAnalysis applies mutate to the stored analysis atomically, so
	// concurrent updates of one session never overwrite each other.
	UpdateAnalysis(ctx context.Context, id string, mutate AnalysisMutation) (Session, error)
	// BeginGeneration records settings and returns the new epoch. Any
	// generation started earlier becomes stale.
	BeginGeneration(ctx context.Context, id string, settings Settings) (int64, error)
	// CommitResults stores results only while epoch is still current.
	CommitResults(ctx context.Context, id string, epoch int64, results []generation.PreviewResult) error
	DeleteSession(ctx context.Context, id string) error
	Close()
}

// NewStore selects a backing store based on whether a database URL is provided.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if databaseURL == "" {
		return NewInMemoryStore(), nil
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS studio_sessions (
		id TEXT PRIMARY KEY,
		images JSONB NOT NULL DEFAULT '[]'::jsonb,
		analysis JSONB NOT NULL DEFAULT '{}'::jsonb,
		settings JSONB NOT NULL DEFAULT '{}'::jsonb,
		results JSONB NOT NULL DEFAULT '[]'::jsonb,
		epoch BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("create studio_sessions table: %w", err)
	}

	var schemaAlters = []string{
		`ALTER TABLE studio_sessions ADD COLUMN IF NOT EXISTS settings JSONB NOT NULL DEFAULT '{}'::jsonb`,
		`ALTER TABLE studio_sessions ADD COLUMN IF NOT EXISTS epoch BIGINT NOT NULL DEFAULT 0`,
		`CREATE INDEX IF NOT EXISTS studio_sessions_created_at_idx ON studio_sessions (created_at DESC)`,
	}
	for _, stmt := range schemaAlters {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("alter studio_sessions table: %w", err)
		}
	}

	return nil
}
