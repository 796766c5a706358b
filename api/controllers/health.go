package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/roofline-ai/roofline-backend/api/responses"
	"github.com/roofline-ai/roofline-backend/pkg/config"
	"github.com/roofline-ai/roofline-backend/pkg/logger"
)

// Pinger is anything whose readiness can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Roofline-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes the named dependencies and reports per-dependency
// status. Any failed probe turns the response into a 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		w.Header().Set("X-Roofline-Env", cfg.App.Env)

		status := make(map[string]string, len(deps)+1)
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				status[name] = "unavailable"
				healthy = false
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				if logg != nil {
					logg.Warn(ctx, "readiness probe failed: "+name)
				}
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "up"
		}

		if !healthy {
			status["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}
