package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coreybb/bookforge/auth"
	rh "github.com/coreybb/bookforge/route-handlers"
	"github.com/coreybb/bookforge/webutil"
)

const (
	apiBasePath    = "/api"
	exportBasePath = "/export"
	usersMePath    = "/users/me"
)

const (
	paramID     = "id"
	paramFormat = "format"
)

// RouterConfig holds the tunable parts of the HTTP surface.
type RouterConfig struct {
	ExportRateLimit int           // requests per minute per IP
	RequestTimeout  time.Duration // non-export routes only; zero means 60s
}

func SetupRoutes(
	exportHandler *rh.ExportHandler,
	userHandler *rh.UserHandler,
	authenticator *auth.Authenticator,
	cfg RouterConfig,
) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Log every request
	r.Use(middleware.Recoverer) // Recover from panics
	r.Use(SetHeader("X-Content-Type-Options", "nosniff"))

	// Both prefixes share one per-IP budget.
	exportLimiter := RateLimitByIP(cfg.ExportRateLimit)
	exportRoutes := func(r chi.Router) {
		r.Use(exportLimiter)
		r.Use(authenticator.Middleware)
		r.Get(exportPath(), webutil.MakeHandler(exportHandler.HandleExport))
	}

	// No request timeout on exports: the body is streamed.
	r.Route(apiBasePath+exportBasePath, exportRoutes)
	r.Route(exportBasePath, exportRoutes)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		r.With(authenticator.Middleware).Get(apiBasePath+usersMePath, webutil.MakeHandler(userHandler.HandleGetCurrentUser))

		// Health check endpoint
		r.Get("/healthz", handleHealthCheck)
	})

	return r
}

// exportPath returns "/{id}/{format}".
func exportPath() string {
	return "/{" + paramID + "}/{" + paramFormat + "}"
}

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	webutil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
}
