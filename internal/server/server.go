package server

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fashionStudio/internal/events"
	"fashionStudio/internal/studio"
)

// New constructs the HTTP server with routes and middleware. mediaFS serves
// locally stored uploads and results under /media; it may be nil.
func New(port string, studioHandler studio.Handler, broker *events.Broker, mediaFS http.Handler) *http.Server {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      Router(studioHandler, broker, mediaFS),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Println("server ready on", srv.Addr)
	return srv
}

// Router builds the route tree.
func Router(studioHandler studio.Handler, broker *events.Broker, mediaFS http.Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Route("/api", func(r chi.Router) {
		r.Route("/sessions", studioHandler.Routes)
		r.Post("/prompt/preview", studioHandler.PreviewPrompt)
		r.Get("/events", broker.ServeSSE)
		r.Get("/events/ws", broker.ServeWS)
	})

	if mediaFS != nil {
		router.Handle("/media/*", http.StripPrefix("/media/", mediaFS))
	}

	return router
}
