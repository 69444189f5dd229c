package controllers

import (
	"net/http"

	"github.com/riezafm/levelpos-backend/api/responses"
	"github.com/riezafm/levelpos-backend/pkg/config"
	"github.com/riezafm/levelpos-backend/pkg/db"
	pkgerrors "github.com/riezafm/levelpos-backend/pkg/errors"
	"github.com/riezafm/levelpos-backend/pkg/logger"
	pkgredis "github.com/riezafm/levelpos-backend/pkg/redis"
)

const envHeader = "X-LevelPOS-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency. A single failing ping fails
// the probe so the instance is pulled from rotation before it serves
// settlements it cannot persist.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["db"] = err.Error()
				healthy = false
			} else {
				checks["db"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
					WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
