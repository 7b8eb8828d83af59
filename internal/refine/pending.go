package refine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrInterpretationNotFound is returned for unknown, consumed or expired tokens.
var ErrInterpretationNotFound = errors.New("refine: interpretation not found")

// DefaultPendingTTL bounds how long an interpretation waits for confirmation.
const DefaultPendingTTL = 15 * time.Minute

// Pending holds interpretations between submit and confirm/cancel.
type Pending interface {
	Put(ctx context.Context, sessionID string, interp Interpretation) (string, error)
	Take(ctx context.Context, sessionID, token string) (Interpretation, error)
	// Restore puts a taken interpretation back under its token, used when
	// applying it failed.
	Restore(ctx context.Context, sessionID, token string, interp Interpretation) error
	Discard(ctx context.Context, sessionID, token string) error
}

func pendingKey(sessionID, token string) string {
	return "fashionstudio:refine:" + sessionID + ":" + token
}

// MemoryPending keeps interpretations in an in-process TTL cache.
type MemoryPending struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewMemoryPending constructs an in-process pending store.
func NewMemoryPending(ttl time.Duration) *MemoryPending {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &MemoryPending{cache: cache.New(ttl, 2*ttl)}
}

// Put stores interp and returns the confirmation token.
func (m *MemoryPending) Put(_ context.Context, sessionID string, interp Interpretation) (string, error) {
	token := uuid.NewString()
	m.cache.Set(pendingKey(sessionID, token), interp, cache.DefaultExpiration)
	return token, nil
}

// Take returns and removes the interpretation for token.
func (m *MemoryPending) Take(_ context.Context, sessionID, token string) (Interpretation, error) {
	key := pendingKey(sessionID, token)

	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.cache.Get(key)
	if !ok {
		return Interpretation{}, ErrInterpretationNotFound
	}
	m.cache.Delete(key)

	interp, ok := value.(Interpretation)
	if !ok {
		return Interpretation{}, ErrInterpretationNotFound
	}
	return interp, nil
}

// Restore stores interp under an existing token with a fresh expiry.
func (m *MemoryPending) Restore(_ context.Context, sessionID, token string, interp Interpretation) error {
	m.cache.Set(pendingKey(sessionID, token), interp, cache.DefaultExpiration)
	return nil
}

// Discard drops the interpretation for token.
func (m *MemoryPending) Discard(_ context.Context, sessionID, token string) error {
	key := pendingKey(sessionID, token)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cache.Get(key); !ok {
		return ErrInterpretationNotFound
	}
	m.cache.Delete(key)
	return nil
}

// RedisPending shares pending interpretations across API instances.
type RedisPending struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPending wraps an existing redis client.
func NewRedisPending(client *redis.Client, ttl time.Duration) *RedisPending {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &RedisPending{client: client, ttl: ttl}
}

// Put stores interp as JSON with the configured expiry.
func (r *RedisPending) Put(ctx context.Context, sessionID string, interp Interpretation) (string, error) {
	payload, err := json.Marshal(interp)
	if err != nil {
		return "", fmt.Errorf("refine: marshal interpretation: %w", err)
	}
	token := uuid.NewString()
	if err := r.client.Set(ctx, pendingKey(sessionID, token), payload, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("refine: store interpretation: %w", err)
	}
	return token, nil
}

// Take atomically reads and deletes the interpretation.
func (r *RedisPending) Take(ctx context.Context, sessionID, token string) (Interpretation, error) {
	payload, err := r.client.GetDel(ctx, pendingKey(sessionID, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Interpretation{}, ErrInterpretationNotFound
	}
	if err != nil {
		return Interpretation{}, fmt.Errorf("refine: load interpretation: %w", err)
	}

	var interp Interpretation
	if err := json.Unmarshal(payload, &interp); err != nil {
		return Interpretation{}, fmt.Errorf("refine: decode interpretation: %w", err)
	}
	return interp, nil
}

// Restore writes interp back under token with a fresh expiry.
func (r *RedisPending) Restore(ctx context.Context, sessionID, token string, interp Interpretation) error {
	payload, err := json.Marshal(interp)
	if err != nil {
		return fmt.Errorf("refine: marshal interpretation: %w", err)
	}
	if err := r.client.Set(ctx, pendingKey(sessionID, token), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("refine: restore interpretation: %w", err)
	}
	return nil
}

// Discard deletes the interpretation.
func (r *RedisPending) Discard(ctx context.Context, sessionID, token string) error {
	removed, err := r.client.Del(ctx, pendingKey(sessionID, token)).Result()
	if err != nil {
		return fmt.Errorf("refine: discard interpretation: %w", err)
	}
	if removed == 0 {
		return ErrInterpretationNotFound
	}
	return nil
}
