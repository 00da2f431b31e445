package handlers

import (
	"errors"
	"log"

	"lifeos/internal/orchestrator"
	"lifeos/internal/services"

	"github.com/gofiber/fiber/v2"
)

// JobHandler handles job inspection and cancellation endpoints
type JobHandler struct {
	orch  *orchestrator.Orchestrator
	store *services.JobStore
}

// NewJobHandler creates a new job handler
func NewJobHandler(orch *orchestrator.Orchestrator, store *services.JobStore) *JobHandler {
	return &JobHandler{orch: orch, store: store}
}

// Get retrieves one job
// GET /api/jobs/:id
func (h *JobHandler) Get(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	jobID := c.Params("id")

	job, err := h.store.GetByID(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Job not found",
			})
		}
		log.Printf("❌ [JOB] Failed to get job %s: %v", jobID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get job",
		})
	}
	if job.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}
	return c.JSON(job)
}

// List returns the user's jobs
// GET /api/jobs
func (h *JobHandler) List(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	jobs, err := h.store.ListByUser(c.Context(), userID, int64(c.QueryInt("limit", 20)))
	if err != nil {
		log.Printf("❌ [JOB] Failed to list jobs: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list jobs",
		})
	}
	return c.JSON(fiber.Map{"jobs": jobs})
}

// Cancel cancels a job: immediately when ready, cooperatively when running
// POST /api/jobs/:id/cancel
func (h *JobHandler) Cancel(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	jobID := c.Params("id")

	job, err := h.store.GetByID(c.Context(), jobID)
	if err != nil || job.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}

	if err := h.orch.CancelJob(c.Context(), jobID); err != nil {
		if errors.Is(err, services.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Job already finished",
			})
		}
		log.Printf("❌ [JOB] Failed to cancel job %s: %v", jobID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to cancel job",
		})
	}
	return c.JSON(fiber.Map{"status": "cancel requested"})
}
