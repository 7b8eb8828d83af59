package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration values.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	SentryDSN   string
	Environment string
	Media       MediaConfig
	Gemini      GeminiConfig
	Imagen      ImagenConfig
	Generation  GenerationConfig
	PendingTTL  time.Duration
}

// MediaConfig describes S3/media related configuration.
type MediaConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	PublicURL       string
	KeyPrefix       string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
	LocalDir        string
}

// GeminiConfig configures garment analysis and image rendering.
type GeminiConfig struct {
	APIKey          string
	CredentialsFile string
	VisionModel     string
	ImageModel      string
	Timeout         time.Duration
}

// ImagenConfig configures the Vertex AI renderer.
type ImagenConfig struct {
	ProjectID       string
	Location        string
	Model           string
	CredentialsFile string
}

// GenerationConfig tunes the orchestrator.
type GenerationConfig struct {
	// Renderer is one of gemini, imagen or composite. Empty picks gemini when
	// a key is configured and composite otherwise.
	Renderer     string
	Parallelism  int
	RateInterval time.Duration
	RunTimeout   time.Duration
}

// FromEnv loads configuration from environment variables and applies defaults.
// A .env file in the working directory is read first when present.
func FromEnv() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := Config{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Environment: getenv("APP_ENV", "local"),
		Media: MediaConfig{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          os.Getenv("S3_REGION"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			PublicURL:       os.Getenv("S3_PUBLIC_URL"),
			KeyPrefix:       strings.Trim(os.Getenv("S3_KEY_PREFIX"), "/"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			ForcePathStyle:  getenvBool("S3_FORCE_PATH_STYLE", false),
			LocalDir:        os.Getenv("MEDIA_DIR"),
		},
		Gemini: GeminiConfig{
			APIKey:          os.Getenv("GEMINI_API_KEY"),
			CredentialsFile: os.Getenv("GEMINI_CREDENTIALS_FILE"),
			VisionModel:     getenv("GEMINI_VISION_MODEL", "gemini-2.5-flash"),
			ImageModel:      getenv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
			Timeout:         getenvDuration("GEMINI_TIMEOUT", 90*time.Second),
		},
		Imagen: ImagenConfig{
			ProjectID:       os.Getenv("IMAGEN_PROJECT"),
			Location:        getenv("IMAGEN_LOCATION", "us-central1"),
			Model:           getenv("IMAGEN_MODEL", "imagen-3.0-capability-001"),
			CredentialsFile: os.Getenv("IMAGEN_CREDENTIALS_FILE"),
		},
		Generation: GenerationConfig{
			Renderer:     strings.ToLower(strings.TrimSpace(os.Getenv("RENDERER_BACKEND"))),
			Parallelism:  getenvInt("GENERATION_PARALLELISM", 3),
			RateInterval: getenvDuration("GENERATION_RATE_INTERVAL", 0),
			RunTimeout:   getenvDuration("GENERATION_RUN_TIMEOUT", 10*time.Minute),
		},
		PendingTTL: getenvDuration("PENDING_TTL", 15*time.Minute),
	}

	if cfg.Port == "" {
		log.Fatal("APP_PORT cannot be empty")
	}
	if cfg.Generation.Parallelism <= 0 {
		cfg.Generation.Parallelism = 1
	}

	return cfg
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

func getenvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}

	return parsed
}

func getenvInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, using %d", key, val, fallback)
		return fallback
	}

	return parsed
}

// getenvDuration accepts Go durations ("90s") and bare seconds ("90").
func getenvDuration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}

	if parsed, err := time.ParseDuration(val); err == nil {
		return parsed
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}

	log.Printf("config: %s=%q is not a duration, using %s", key, val, fallback)
	return fallback
}
