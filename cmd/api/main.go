package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"

	"fashionStudio/internal/config"
	"fashionStudio/internal/events"
	"fashionStudio/internal/generation"
	"fashionStudio/internal/media"
	"fashionStudio/internal/refine"
	"fashionStudio/internal/server"
	"fashionStudio/internal/storage"
	"fashionStudio/internal/studio"
	"fashionStudio/internal/vision"
)

func main() {
	cfg := config.FromEnv()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Release:     "fashionstudio@1.0.0",
		}); err != nil {
			log.Fatalf("sentry.Init: %s", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	defer store.Close()

	var (
		uploader media.Uploader
		mediaFS  http.Handler
	)
	if cfg.Media.Bucket != "" && cfg.Media.Region != "" {
		uploader, err = media.NewUploader(ctx, media.Config{
			Bucket:          cfg.Media.Bucket,
			Region:          cfg.Media.Region,
			Endpoint:        cfg.Media.Endpoint,
			PublicURL:       cfg.Media.PublicURL,
			KeyPrefix:       cfg.Media.KeyPrefix,
			AccessKeyID:     cfg.Media.AccessKeyID,
			SecretAccessKey: cfg.Media.SecretAccessKey,
			ForcePathStyle:  cfg.Media.ForcePathStyle,
		})
		if err != nil {
			log.Fatalf("failed to init media uploader: %v", err)
		}
	} else {
		local, err := media.NewLocalUploader(cfg.Media.LocalDir, "/media")
		if err != nil {
			log.Fatalf("failed to init local media storage: %v", err)
		}
		uploader = local
		mediaFS = http.FileServer(http.Dir(local.BaseDir))
		log.Println("media uploader: using local storage in", local.BaseDir)
	}

	pending, closePending := newPending(ctx, cfg)
	defer closePending()

	orchestrator := generation.New(newAnalyzer(ctx, cfg), newRenderer(ctx, cfg), generation.Options{
		Parallelism:  cfg.Generation.Parallelism,
		RateInterval: cfg.Generation.RateInterval,
	})

	eventBroker := events.NewBroker()
	svc := studio.NewService(studio.Deps{
		Store:        store,
		Uploader:     uploader,
		Orchestrator: orchestrator,
		Pending:      pending,
		Events:       eventBroker,
		RunTimeout:   cfg.Generation.RunTimeout,
	})

	srv := server.New(cfg.Port, studio.NewHandler(svc), eventBroker, mediaFS)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}

	waitForGenerations(svc, 30*time.Second)
}

func waitForGenerations(svc *studio.Service, limit time.Duration) {
	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(limit):
		log.Println("generations still running at exit, their results are lost")
	}
}

func newPending(ctx context.Context, cfg config.Config) (refine.Pending, func()) {
	if cfg.RedisURL == "" {
		log.Println("pending refinements: in-process cache")
		return refine.NewMemoryPending(cfg.PendingTTL), func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to reach redis: %v", err)
	}
	log.Println("pending refinements: redis")
	return refine.NewRedisPending(client, cfg.PendingTTL), func() { _ = client.Close() }
}

func newAnalyzer(ctx context.Context, cfg config.Config) vision.Analyzer {
	var credentials []byte
	if cfg.Gemini.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.Gemini.CredentialsFile)
		if err != nil {
			log.Fatalf("failed to read GEMINI_CREDENTIALS_FILE: %v", err)
		}
		credentials = data
	}
	if cfg.Gemini.APIKey == "" && len(credentials) == 0 {
		log.Println("analyzer ready: heuristic fallback")
		return vision.HeuristicAnalyzer{}
	}

	analyzer, err := vision.NewGeminiAnalyzer(ctx, vision.GeminiAnalyzerConfig{
		APIKey:          cfg.Gemini.APIKey,
		CredentialsJSON: credentials,
		Model:           cfg.Gemini.VisionModel,
		Timeout:         cfg.Gemini.Timeout,
	})
	if err != nil {
		log.Fatalf("failed to init gemini analyzer: %v", err)
	}
	log.Println("analyzer ready: Gemini", cfg.Gemini.VisionModel)
	return analyzer
}

func newRenderer(ctx context.Context, cfg config.Config) vision.Renderer {
	switch cfg.Generation.Renderer {
	case "imagen":
		if cfg.Imagen.ProjectID == "" {
			log.Fatal("RENDERER_BACKEND=imagen requires IMAGEN_PROJECT")
		}
		log.Println("renderer ready: Vertex Imagen", cfg.Imagen.Model)
		return vision.NewVertexImagen(vision.VertexImagenConfig{
			ProjectID:      cfg.Imagen.ProjectID,
			Location:       cfg.Imagen.Location,
			Model:          cfg.Imagen.Model,
			ServiceAccount: cfg.Imagen.CredentialsFile,
		})
	case "composite":
		log.Println("renderer ready: composite")
		return vision.CompositeRenderer{}
	case "", "gemini":
		if cfg.Gemini.APIKey == "" {
			if cfg.Generation.Renderer == "gemini" {
				log.Fatal("RENDERER_BACKEND=gemini requires GEMINI_API_KEY")
			}
			log.Println("renderer ready: composite fallback (GEMINI_API_KEY missing)")
			return vision.CompositeRenderer{}
		}
		renderer, err := vision.NewGeminiRenderer(ctx, cfg.Gemini.APIKey, cfg.Gemini.ImageModel, cfg.Gemini.Timeout)
		if err != nil {
			log.Fatalf("failed to init gemini renderer: %v", err)
		}
		log.Println("renderer ready: Gemini", cfg.Gemini.ImageModel)
		return renderer
	}
	log.Fatalf("unknown RENDERER_BACKEND %q", cfg.Generation.Renderer)
	return nil
}
