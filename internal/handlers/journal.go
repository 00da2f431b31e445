package handlers

import (
	"errors"
	"log"
	"time"

	"lifeos/internal/agents"
	"lifeos/internal/services"

	"github.com/gofiber/fiber/v2"
)

// JournalHandler handles journal entry endpoints
type JournalHandler struct {
	agent *agents.JournalAgent
	store *services.JournalStore
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(agent *agents.JournalAgent, store *services.JournalStore) *JournalHandler {
	return &JournalHandler{agent: agent, store: store}
}

type createEntryRequest struct {
	Content   string     `json:"content"`
	EntryDate *time.Time `json:"entry_date"`
}

type editEntryRequest struct {
	Content string `json:"content"`
}

// Create ingests a new journal entry
// POST /api/journal
func (h *JournalHandler) Create(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req createEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Content is required",
		})
	}

	entryDate := time.Now().UTC()
	if req.EntryDate != nil {
		entryDate = *req.EntryDate
	}

	entry, err := h.agent.Ingest(c.Context(), userID, req.Content, entryDate)
	if err != nil {
		log.Printf("❌ [JOURNAL] Failed to ingest entry: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create journal entry",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// Edit updates an entry's text, subject to the time-lock policy
// PUT /api/journal/:id
func (h *JournalHandler) Edit(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	entryID := c.Params("id")

	var req editEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Content is required",
		})
	}

	entry, err := h.agent.EditEntry(c.Context(), userID, entryID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Journal entry not found",
			})
		case errors.Is(err, agents.ErrEntryLocked):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			log.Printf("❌ [JOURNAL] Failed to edit entry %s: %v", entryID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to edit journal entry",
			})
		}
	}
	return c.JSON(entry)
}

// Get retrieves one entry
// GET /api/journal/:id
func (h *JournalHandler) Get(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	entryID := c.Params("id")

	entry, err := h.store.GetByID(c.Context(), userID, entryID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Journal entry not found",
			})
		}
		log.Printf("❌ [JOURNAL] Failed to get entry %s: %v", entryID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get journal entry",
		})
	}
	return c.JSON(entry)
}

// List returns the user's entries, optionally bounded by from/to dates
// GET /api/journal
func (h *JournalHandler) List(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var from, to time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid from date",
			})
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid to date",
			})
		}
		to = t
	}

	entries, err := h.store.ListByUser(c.Context(), userID, from, to)
	if err != nil {
		log.Printf("❌ [JOURNAL] Failed to list entries: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list journal entries",
		})
	}
	return c.JSON(fiber.Map{"entries": entries})
}
