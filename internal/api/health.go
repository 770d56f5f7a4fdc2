package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/aumreport/internal/logger"
	"github.com/rs/zerolog"
)

// HealthHandler provides liveness and readiness endpoints for the service.
//
// Responsibilities:
//   - /healthz: Liveness check (always returns 200 OK).
//   - /readyz: Readiness check (depends on the snapshot source being reachable).
type HealthHandler struct {
	ready func() error // Checks the snapshot source (database ping or data directory)
	log   zerolog.Logger
}

// NewHealthHandler constructs a HealthHandler with the provided readiness check.
//
// Parameters:
//   - ready (func() error): Reports whether the snapshot source is reachable.
//     Typically db.Ping for Postgres, or a stat of the data directory. A nil
//     check is always ready.
//
// Returns:
//   - *HealthHandler: A new handler instance.
func NewHealthHandler(ready func() error) *HealthHandler {
	return &HealthHandler{ready: ready, log: logger.Named("health")}
}

// Register mounts the health and readiness endpoints into the provided Gin router.
//
// Routes:
//   - GET /healthz: Always returns 200 OK.
//   - GET /readyz: Returns 200 OK if the readiness check succeeds, 503 otherwise.
func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
}

// Healthz godoc
// @Summary      Liveness check
// @Description  Always returns OK if the service is running
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz godoc
// @Summary      Readiness check
// @Description  Returns ready if the snapshot source is reachable
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /readyz [get]
func (h *HealthHandler) Readyz(c *gin.Context) {
	if h.ready != nil {
		if err := h.ready(); err != nil {
			h.log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
