package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"APP_PORT", "DATABASE_URL", "RENDERER_BACKEND", "GENERATION_PARALLELISM", "GENERATION_RATE_INTERVAL", "PENDING_TTL", "GEMINI_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 3, cfg.Generation.Parallelism)
	assert.Zero(t, cfg.Generation.RateInterval)
	assert.Equal(t, 15*time.Minute, cfg.PendingTTL)
	assert.Equal(t, 90*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.VisionModel)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_PORT", "9090")
	t.Setenv("S3_KEY_PREFIX", "/studio/")
	t.Setenv("S3_FORCE_PATH_STYLE", "true")
	t.Setenv("RENDERER_BACKEND", " Imagen ")
	t.Setenv("GENERATION_PARALLELISM", "0")
	t.Setenv("GENERATION_RATE_INTERVAL", "250ms")
	t.Setenv("PENDING_TTL", "60")

	cfg := FromEnv()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "studio", cfg.Media.KeyPrefix)
	assert.True(t, cfg.Media.ForcePathStyle)
	assert.Equal(t, "imagen", cfg.Generation.Renderer)
	assert.Equal(t, 1, cfg.Generation.Parallelism)
	assert.Equal(t, 250*time.Millisecond, cfg.Generation.RateInterval)
	assert.Equal(t, time.Minute, cfg.PendingTTL)
}

func TestGetenvHelpersFallBack(t *testing.T) {
	t.Setenv("BROKEN_INT", "many")
	t.Setenv("BROKEN_BOOL", "perhaps")
	t.Setenv("BROKEN_DURATION", "soon")

	assert.Equal(t, 7, getenvInt("BROKEN_INT", 7))
	assert.True(t, getenvBool("BROKEN_BOOL", true))
	assert.Equal(t, time.Second, getenvDuration("BROKEN_DURATION", time.Second))
}
