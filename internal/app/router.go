package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	authzhttp "github.com/meridian-sis/meridian/internal/authz/http"
	"github.com/meridian-sis/meridian/internal/observability"
	"github.com/meridian-sis/meridian/internal/platform/httpx"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Metrics       *observability.Metrics
	PolicyHandler *authzhttp.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/policies", params.PolicyHandler.MountRoutes)

	return r
}
