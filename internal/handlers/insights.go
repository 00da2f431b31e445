package handlers

import (
	"errors"
	"log"
	"time"

	"lifeos/internal/agents"
	"lifeos/internal/services"

	"github.com/gofiber/fiber/v2"
)

// InsightsHandler exposes the derived views: fulfilment scores, chapters,
// integrity issues and the transaction ledger.
type InsightsHandler struct {
	fulfilment   *services.FulfilmentStore
	chapters     *services.ChapterStore
	issues       *services.IssueStore
	transactions *services.TransactionStore
	narrative    *agents.NarrativeAgent
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(fs *services.FulfilmentStore, cs *services.ChapterStore, is *services.IssueStore, ts *services.TransactionStore, na *agents.NarrativeAgent) *InsightsHandler {
	return &InsightsHandler{fulfilment: fs, chapters: cs, issues: is, transactions: ts, narrative: na}
}

// GetScore returns one fulfilment rollup row
// GET /api/fulfilment/:area/:dimension?period=2026-08
func (h *InsightsHandler) GetScore(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	period := c.Query("period", agents.PeriodOf(time.Now().UTC()))

	score, err := h.fulfilment.GetScore(c.Context(), userID, c.Params("area"), c.Params("dimension"), period)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No score for that period",
			})
		}
		log.Printf("❌ [FULFILMENT] Failed to get score: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get fulfilment score",
		})
	}
	return c.JSON(score)
}

// GetChapter returns one autobiography chapter
// GET /api/chapters/:id
func (h *InsightsHandler) GetChapter(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	chapterID := c.Params("id")

	chapter, err := h.chapters.GetByID(c.Context(), userID, chapterID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Chapter not found",
			})
		}
		log.Printf("❌ [NARRATIVE] Failed to get chapter %s: %v", chapterID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get chapter",
		})
	}
	return c.JSON(chapter)
}

// RegenerateChapter rebuilds a chapter's narrative from its linked entries
// POST /api/chapters/:id/regenerate
func (h *InsightsHandler) RegenerateChapter(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	chapterID := c.Params("id")

	if err := h.narrative.Regenerate(c.Context(), userID, chapterID, nil); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Chapter not found",
			})
		}
		log.Printf("❌ [NARRATIVE] Failed to regenerate chapter %s: %v", chapterID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to regenerate chapter",
		})
	}
	chapter, err := h.chapters.GetByID(c.Context(), userID, chapterID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load chapter",
		})
	}
	return c.JSON(chapter)
}

// GetIntegrity returns the user's open issues and current score
// GET /api/integrity
func (h *InsightsHandler) GetIntegrity(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	issues, err := h.issues.ListOpenByUser(c.Context(), userID)
	if err != nil {
		log.Printf("❌ [INTEGRITY] Failed to list issues: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list integrity issues",
		})
	}
	return c.JSON(fiber.Map{
		"score":  agents.ScoreFromIssues(issues),
		"issues": issues,
	})
}

// ResolveIssue closes an integrity issue with a resolution note
// POST /api/integrity/:id/resolve
func (h *InsightsHandler) ResolveIssue(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	issueID := c.Params("id")

	var req struct {
		Resolution string `json:"resolution"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.issues.Resolve(c.Context(), userID, issueID, req.Resolution); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Issue not found",
			})
		case errors.Is(err, services.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Issue already settled",
			})
		default:
			log.Printf("❌ [INTEGRITY] Failed to resolve issue %s: %v", issueID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to resolve issue",
			})
		}
	}
	return c.JSON(fiber.Map{"status": "resolved"})
}

// ListTransactions returns the user's transaction ledger
// GET /api/transactions
func (h *InsightsHandler) ListTransactions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	txs, err := h.transactions.ListByUser(c.Context(), userID, time.Time{}, time.Time{}, int64(c.QueryInt("limit", 100)))
	if err != nil {
		log.Printf("❌ [FINANCE] Failed to list transactions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list transactions",
		})
	}
	return c.JSON(fiber.Map{"transactions": txs})
}
