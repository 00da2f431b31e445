package handlers

import (
	"time"

	"lifeos/internal/database"
	"lifeos/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db    *database.MongoDB
	redis *services.RedisService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.MongoDB, redis *services.RedisService) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	status := "healthy"
	mongo := "up"
	if err := h.db.Ping(c.Context()); err != nil {
		status, mongo = "degraded", "down"
	}
	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "up"
		if err := h.redis.Ping(c.Context()); err != nil {
			status, redisStatus = "degraded", "down"
		}
	}

	return c.JSON(fiber.Map{
		"status":    status,
		"mongo":     mongo,
		"redis":     redisStatus,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
