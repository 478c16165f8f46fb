package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"parsearena/internal/domain"
)

// DBPinger is the slice of *sqlx.DB the health checks need.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports process liveness and dependency readiness.
type HealthHandler struct {
	db        DBPinger
	providers []domain.ProviderID
}

// NewHealthHandler creates a new HealthHandler. providers is the set of
// adapters the registry was built with.
func NewHealthHandler(db DBPinger, providers []domain.ProviderID) *HealthHandler {
	return &HealthHandler{db: db, providers: providers}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "parsearena"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "database not reachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"providers": h.providers,
	})
}
