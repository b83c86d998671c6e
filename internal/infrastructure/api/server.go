package api

import (
	"net/http"

	"store-order-hub/internal/application"
	"store-order-hub/internal/infrastructure/pubsub"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options configures the HTTP surface
type Options struct {
	JWTSecret      []byte
	CORSOrigins    []string
	MetricsHandler http.Handler
	// SwaggerFile is the path of the OpenAPI document served at /swagger/doc.json
	SwaggerFile string
}

// Server exposes the store, sync and feed services over HTTP
type Server struct {
	stores *application.StoreService
	syncs  *application.FeedService
	events *pubsub.SyncPubSub
	opts   Options
	logger zerolog.Logger
}

// NewServer creates a new API server
func NewServer(
	stores *application.StoreService,
	feeds *application.FeedService,
	events *pubsub.SyncPubSub,
	opts Options,
	logger zerolog.Logger,
) *Server {
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.SwaggerFile == "" {
		opts.SwaggerFile = "./docs/swagger.json"
	}
	return &Server{
		stores: stores,
		syncs:  feeds,
		events: events,
		opts:   opts,
		logger: logger,
	}
}

// Router builds the chi router with public and authenticated routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.MetricsHandler != nil {
		r.Handle("/metrics", s.opts.MetricsHandler)
	}
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, s.opts.SwaggerFile)
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Group(func(protected chi.Router) {
		protected.Use(RequireOwner(s.opts.JWTSecret))

		protected.Post("/stores", s.handleCreateStore)
		protected.Get("/stores", s.handleListStores)
		protected.Post("/stores/sync", s.handleSyncAll)
		protected.Get("/stores/events", s.handleEvents)
		protected.Post("/stores/{id}/sync", s.handleSyncStore)
		protected.Post("/stores/{id}/test", s.handleTestConnection)

		protected.Get("/orders", s.handleFeed)
		protected.Delete("/orders", s.handleClearFeed)
		protected.Get("/stats", s.handleStats)
	})

	return r
}
