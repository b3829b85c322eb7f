package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/aguilarsoft/cartsync/api/responses"
	"github.com/aguilarsoft/cartsync/pkg/config"
	"github.com/aguilarsoft/cartsync/pkg/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CartSync-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports degraded instead of failing the probe when the
// snapshot store is unreachable: the cart keeps working from memory.
func HealthReady(cfg *config.Config, logg *logger.Logger, kv Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CartSync-Env", cfg.App.Env)

		status := map[string]string{"status": "ready", "snapshots": "ok"}
		if kv != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := kv.Ping(ctx); err != nil {
				if logg != nil {
					logg.Warn(r.Context(), "snapshot store unreachable")
				}
				status["snapshots"] = "degraded"
			}
		}

		responses.WriteSuccess(w, status)
	}
}
