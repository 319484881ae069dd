package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/rs/zerolog/log"
)

// Pinger is a dependency that can report its own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers the liveness and readiness probes. Liveness only
// proves the process serves HTTP; readiness checks the backing stores.
type HealthHandler struct {
	mongo Pinger
	redis Pinger
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(mongo, redis Pinger) *HealthHandler {
	return &HealthHandler{
		mongo: mongo,
		redis: redis,
	}
}

// Health is the liveness probe.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Ready is the readiness probe: both MongoDB and Redis must answer a
// ping within two seconds, otherwise the response is 503 naming the
// failing checks.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{
		"mongodb": "ok",
		"redis":   "ok",
	}
	healthy := true

	if err := h.mongo.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("MongoDB readiness check failed")
		checks["mongodb"] = err.Error()
		healthy = false
	}
	if err := h.redis.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Redis readiness check failed")
		checks["redis"] = err.Error()
		healthy = false
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	utils.RespondWithJSON(w, r, status, map[string]interface{}{
		"status": overall,
		"checks": checks,
	})
}
