package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/artifex/backend/internal/handler/studio"
	middlewarePkg "github.com/zhouzirui/artifex/backend/internal/middleware"
	studioService "github.com/zhouzirui/artifex/backend/internal/service/studio"
	"github.com/zhouzirui/artifex/backend/pkg/utils"
)

// RouterOptions configures the HTTP surface.
type RouterOptions struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	Logger         zerolog.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(sessions *studioService.Service, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(opts.AllowedOrigins))

	studioHandler := studio.New(sessions, studio.Options{
		MaxUploadBytes: opts.MaxUploadBytes,
		Logger:         &opts.Logger,
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":   "ok",
				"sessions": sessions.Len(),
			})
		})

		studioHandler.RegisterRoutes(api)
	})

	return r
}
