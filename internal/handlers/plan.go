package handlers

import (
	"errors"
	"log"
	"time"

	"lifeos/internal/planner"
	"lifeos/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PlanHandler handles plan endpoints
type PlanHandler struct {
	planner *planner.Planner
	store   *services.PlanStore
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(p *planner.Planner, store *services.PlanStore) *PlanHandler {
	return &PlanHandler{planner: p, store: store}
}

type createPlanRequest struct {
	Objective   string     `json:"objective"`
	Constraints []string   `json:"constraints"`
	Deadline    *time.Time `json:"deadline"`
	Priority    int        `json:"priority"`
}

// Create decomposes an objective into a plan and schedules its jobs
// POST /api/plans
func (h *PlanHandler) Create(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req createPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Objective == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Objective is required",
		})
	}

	plan, err := h.planner.BuildPlan(c.Context(), userID, req.Objective, req.Constraints, req.Deadline, req.Priority)
	if err != nil {
		var cycle *planner.CyclicDependencyError
		if errors.As(err, &cycle) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": cycle.Error(),
			})
		}
		log.Printf("❌ [PLAN] Failed to build plan: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build plan",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// Get retrieves one plan
// GET /api/plans/:id
func (h *PlanHandler) Get(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	planID := c.Params("id")

	plan, err := h.store.GetByID(c.Context(), planID, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Plan not found",
			})
		}
		log.Printf("❌ [PLAN] Failed to get plan %s: %v", planID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get plan",
		})
	}
	return c.JSON(plan)
}

// List returns the user's plans
// GET /api/plans
func (h *PlanHandler) List(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	plans, err := h.store.ListByUser(c.Context(), userID, int64(c.QueryInt("limit", 20)))
	if err != nil {
		log.Printf("❌ [PLAN] Failed to list plans: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list plans",
		})
	}
	return c.JSON(fiber.Map{"plans": plans})
}
