package handlers

import (
	"errors"
	"log"
	"time"

	"lifeos/internal/agents"
	"lifeos/internal/models"
	"lifeos/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CommitmentHandler handles commitment endpoints
type CommitmentHandler struct {
	agent *agents.CommitmentAgent
	store *services.CommitmentStore
}

// NewCommitmentHandler creates a new commitment handler
func NewCommitmentHandler(agent *agents.CommitmentAgent, store *services.CommitmentStore) *CommitmentHandler {
	return &CommitmentHandler{agent: agent, store: store}
}

// List returns the user's commitments, optionally filtered by status
// GET /api/commitments
func (h *CommitmentHandler) List(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	status := models.CommitmentStatus(c.Query("status"))

	commitments, err := h.store.ListByUser(c.Context(), userID, status)
	if err != nil {
		log.Printf("❌ [COMMITMENT] Failed to list commitments: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list commitments",
		})
	}
	return c.JSON(fiber.Map{"commitments": commitments})
}

// Confirm activates a detected commitment (the human confirmation path),
// optionally recording a target date for the integrity sweep
// POST /api/commitments/:id/confirm
func (h *CommitmentHandler) Confirm(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	commitmentID := c.Params("id")

	var req struct {
		TargetDate string `json:"target_date"`
	}
	_ = c.BodyParser(&req) // body is optional

	var targetDate *time.Time
	if req.TargetDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.TargetDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "target_date must be RFC3339",
			})
		}
		targetDate = &parsed
	}

	commitment, err := h.agent.Confirm(c.Context(), userID, commitmentID, targetDate)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Commitment not found",
			})
		case errors.Is(err, services.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Commitment is not awaiting confirmation",
			})
		default:
			log.Printf("❌ [COMMITMENT] Failed to confirm %s: %v", commitmentID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to confirm commitment",
			})
		}
	}
	return c.JSON(commitment)
}

// Cancel cancels a commitment
// POST /api/commitments/:id/cancel
func (h *CommitmentHandler) Cancel(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	commitmentID := c.Params("id")

	if err := h.agent.Cancel(c.Context(), userID, commitmentID); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Commitment not found",
			})
		case errors.Is(err, services.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Commitment is already settled",
			})
		default:
			log.Printf("❌ [COMMITMENT] Failed to cancel %s: %v", commitmentID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to cancel commitment",
			})
		}
	}
	return c.JSON(fiber.Map{"status": "cancelled"})
}
