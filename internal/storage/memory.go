package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"fashionStudio/internal/generation"
)

const maxMemorySessions = 50

// InMemoryStore is a thread-safe store used when a database is not configured.
// Sessions are kept newest first and copied on every read and write.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions []Session
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make([]Session, 0)}
}

// CreateSession prepends a session, evicting the oldest beyond the cap.
func (s *InMemoryStore) CreateSession(_ context.Context, input Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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

	stored := input.clone()
	s.sessions = append([]Session{stored}, s.sessions...)
	if len(s.sessions) > maxMemorySessions {
		s.sessions = s.sessions[:maxMemorySessions]
	}
	return stored.clone(), nil
}

// ListSessions returns a snapshot of stored sessions.
func (s *InMemoryStore) ListSessions(_ context.Context) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]Session, len(s.sessions))
	for i, sess := range s.sessions {
		snapshot[i] = sess.clone()
	}
	return snapshot, nil
}

// Close satisfies the Store interface.
func (s *InMemoryStore) Close() {}

// GetSession returns a session by ID.
func (s *InMemoryStore) GetSession(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.index(id); idx >= 0 {
		return s.sessions[idx].clone(), nil
	}
	return Session{}, ErrNotFound
}

// UpdateAnalysis applies mutate to the current analysis under the write lock.
func (s *InMemoryStore) UpdateAnalysis(_ context.Context, id string, mutate AnalysisMutation) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.index(id)
	if idx < 0 {
		return Session{}, ErrNotFound
	}
	s.sessions[idx].Analysis = mutate(s.sessions[idx].Analysis.Clone()).Clone()
	s.sessions[idx].UpdatedAt = time.Now().UTC()
	return s.sessions[idx].clone(), nil
}

// BeginGeneration bumps the session epoch and records the settings.
func (s *InMemoryStore) BeginGeneration(_ context.Context, id string, settings Settings) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.index(id)
	if idx < 0 {
		return 0, ErrNotFound
	}
	sess := &s.sessions[idx]
	sess.Epoch++
	sess.Settings = Session{Settings: settings}.clone().Settings
	sess.UpdatedAt = time.Now().UTC()
	return sess.Epoch, nil
}

// CommitResults stores results when epoch is still the session's epoch.
func (s *InMemoryStore) CommitResults(_ context.Context, id string, epoch int64, results []generation.PreviewResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.index(id)
	if idx < 0 {
		return ErrNotFound
	}
	sess := &s.sessions[idx]
	if sess.Epoch != epoch {
		return ErrStaleEpoch
	}
	sess.Results = append([]generation.PreviewResult(nil), results...)
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteSession removes a session by ID.
func (s *InMemoryStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.index(id)
	if idx < 0 {
		return ErrNotFound
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	return nil
}

func (s *InMemoryStore) index(id string) int {
	for idx, sess := range s.sessions {
		if sess.ID == id {
			return idx
		}
	}
	return -1
}
