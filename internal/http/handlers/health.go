package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pingers report whether a dependency is reachable.
type Pinger func() error

type HealthHandler struct {
	db    Pinger
	redis Pinger
}

func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Healthz is the liveness probe: process is up, nothing else checked.
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz pings Postgres and Redis and reports per-dependency status.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}

	if h.db != nil {
		if err := h.db(); err != nil {
			deps["database"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			deps["database"] = "up"
		}
	}

	if h.redis != nil {
		if err := h.redis(); err != nil {
			deps["cache"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			deps["cache"] = "up"
		}
	}

	overall := "ready"
	if status != http.StatusOK {
		overall = "degraded"
	}

	ctx.JSON(status, gin.H{"status": overall, "dependencies": deps})
}
