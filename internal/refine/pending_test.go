package refine

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPendingTakeConsumesOnce(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPending(time.Minute)
	interp := Interpretation{Request: Request{Target: TargetTops, ChangeType: ChangeColor, Value: "red"}, Summary: "Tops color to red"}

	token, err := p.Put(ctx, "s1", interp)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = p.Take(ctx, "s2", token)
	assert.ErrorIs(t, err, ErrInterpretationNotFound, "tokens are scoped to their session")

	got, err := p.Take(ctx, "s1", token)
	require.NoError(t, err)
	assert.Equal(t, interp, got)

	_, err = p.Take(ctx, "s1", token)
	assert.ErrorIs(t, err, ErrInterpretationNotFound)
}

func TestMemoryPendingDiscard(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPending(0)

	token, err := p.Put(ctx, "s1", Interpretation{Summary: "x"})
	require.NoError(t, err)
	require.NoError(t, p.Discard(ctx, "s1", token))
	assert.ErrorIs(t, p.Discard(ctx, "s1", token), ErrInterpretationNotFound)

	_, err = p.Take(ctx, "s1", token)
	assert.ErrorIs(t, err, ErrInterpretationNotFound)
}

func TestMemoryPendingConcurrentTake(t *testing.T) {
	ctx := context.Background()
	pending := NewMemoryPending(time.Minute)
	token, err := pending.Put(ctx, "s", Interpretation{Summary: "once"})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pending.Take(ctx, "s", token); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMemoryPendingRestore(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPending(time.Minute)
	interp := Interpretation{Request: Request{Target: TargetPants, ChangeType: ChangeMaterial, Value: "denim"}, Summary: "Pants material to denim"}

	token, err := p.Put(ctx, "s1", interp)
	require.NoError(t, err)
	taken, err := p.Take(ctx, "s1", token)
	require.NoError(t, err)

	require.NoError(t, p.Restore(ctx, "s1", token, taken))
	got, err := p.Take(ctx, "s1", token)
	require.NoError(t, err)
	assert.Equal(t, interp, got)
}

func TestMemoryPendingExpires(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPending(20 * time.Millisecond)

	token, err := p.Put(ctx, "s1", Interpretation{Summary: "x"})
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)

	_, err = p.Take(ctx, "s1", token)
	assert.ErrorIs(t, err, ErrInterpretationNotFound)
}

// TestRedisPending runs against a live server when REDIS_TEST_URL is set.
func TestRedisPending(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	p := NewRedisPending(client, time.Minute)
	interp := Interpretation{Request: Request{Target: TargetPose, ChangeType: ChangeCustom, Value: "hands in pockets"}, Prompt: "p"}

	token, err := p.Put(ctx, "s1", interp)
	require.NoError(t, err)
	got, err := p.Take(ctx, "s1", token)
	require.NoError(t, err)
	assert.Equal(t, interp, got)

	_, err = p.Take(ctx, "s1", token)
	assert.ErrorIs(t, err, ErrInterpretationNotFound)
	assert.ErrorIs(t, p.Discard(ctx, "s1", token), ErrInterpretationNotFound)

	require.NoError(t, p.Restore(ctx, "s1", token, got))
	require.NoError(t, p.Discard(ctx, "s1", token))
}
