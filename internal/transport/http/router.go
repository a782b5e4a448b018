// Package httptransport assembles the operator-facing HTTP surface. Route
// handlers live next to their services; this package only stacks middleware
// and mounts them.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	detectionhandler "scrutiny/internal/detection/handler"
	platformmw "scrutiny/internal/platform/middleware"
	"scrutiny/pkg/platform/httputil"
	"scrutiny/pkg/platform/middleware/auth"
	"scrutiny/pkg/platform/middleware/metadata"
)

// HealthChecker reports readiness of one backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Detection *detectionhandler.Handler
	Validator *auth.Validator
	Logger    *slog.Logger

	// Health checks by dependency name. Nil values are skipped.
	Health map[string]HealthChecker
}

// NewRouter builds the full router: public health and metrics endpoints plus
// the authenticated detection API.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(platformmw.RequestID)
	r.Use(platformmw.Recover(deps.Logger))
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", handleHealth(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireOperator(deps.Validator, deps.Logger))
		deps.Detection.Register(r)
	})

	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK
		result := make(map[string]string, len(checks)+1)
		result["status"] = "ok"
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				result["status"] = "degraded"
				continue
			}
			result[name] = "ok"
		}
		httputil.WriteJSON(w, status, result)
	}
}
