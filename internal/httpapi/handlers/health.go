package handlers

import (
	"github.com/finboard/finboard/internal/httpapi/envelope"
	"github.com/finboard/finboard/internal/models"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves the unauthenticated liveness probe.
type HealthHandler struct{}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// Health reports that the server is up.
func (h *HealthHandler) Health(c *gin.Context) {
	envelope.OK(c, gin.H{"status": "ok", "time": models.NowMillis()})
}
