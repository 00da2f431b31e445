package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"lifeos/internal/bus"
	"lifeos/internal/config"
	"lifeos/internal/logging"
	"lifeos/internal/models"
	"lifeos/internal/services"
)

// maxChapterThemes caps the theme list regenerated for a chapter.
const maxChapterThemes = 5

// NarrativeAgent maintains the autobiography: entries accrue into chapters
// keyed by (era, area), and each membership change regenerates the
// chapter's summary, themes and coherence from scratch.
type NarrativeAgent struct {
	chapters   ChapterRepo
	journal    JournalRepo
	classifier services.Classifier
	bus        *bus.EventBus
	tunables   *config.Tunables
}

// NewNarrativeAgent wires a narrative agent.
func NewNarrativeAgent(cs ChapterRepo, js JournalRepo, cl services.Classifier, b *bus.EventBus, t *config.Tunables) *NarrativeAgent {
	return &NarrativeAgent{chapters: cs, journal: js, classifier: cl, bus: b, tunables: t}
}

// Type identifies this agent on the bus.
func (a *NarrativeAgent) Type() models.AgentType { return models.AgentNarrative }

// Handle files new journal entries into their era/area chapters.
func (a *NarrativeAgent) Handle(ctx context.Context, evt *models.DomainEvent) error {
	switch evt.Type {
	case models.EventJournalEntryCreated:
		p, ok := evt.Payload.(models.JournalEntryCreatedPayload)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", evt.Type)
		}
		return a.fileEntry(ctx, evt, p)
	default:
		return nil
	}
}

func (a *NarrativeAgent) fileEntry(ctx context.Context, evt *models.DomainEvent, p models.JournalEntryCreatedPayload) error {
	era, ok := a.EraFor(p.EntryDate.Year())
	if !ok {
		logging.WithUser(evt.UserID).Warn("entry year outside all eras, skipping",
			"entry_id", p.EntryID, "year", p.EntryDate.Year())
		return nil
	}

	for _, link := range p.Links {
		chapter, err := a.chapters.FindOrCreate(ctx, evt.UserID, era, link.AreaID)
		if err != nil {
			return err
		}
		if err := a.chapters.LinkEntry(ctx, chapter.ID, models.ChapterEntryLink{
			EntryID:   p.EntryID,
			Relevance: link.Confidence,
			LinkedAt:  p.EntryDate,
		}); err != nil {
			return err
		}
		if err := a.Regenerate(ctx, evt.UserID, chapter.ID, evt); err != nil {
			return err
		}
	}
	return nil
}

// Regenerate rebuilds a chapter's summary, themes and coherence from all of
// its linked entries and announces the update.
func (a *NarrativeAgent) Regenerate(ctx context.Context, userID, chapterID string, cause *models.DomainEvent) error {
	chapter, err := a.chapters.GetByID(ctx, userID, chapterID)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(chapter.Entries))
	for _, l := range chapter.Entries {
		ids = append(ids, l.EntryID)
	}
	entries, err := a.journal.ListByIDs(ctx, userID, ids)
	if err != nil {
		return err
	}
	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, e.Content)
	}

	summary, err := a.classifier.Summarize(ctx, texts)
	if err != nil {
		return fmt.Errorf("chapter summarization failed: %w", err)
	}
	coherence, err := a.classifier.Coherence(ctx, texts)
	if err != nil {
		return fmt.Errorf("chapter coherence scoring failed: %w", err)
	}
	themes := extractThemes(texts, maxChapterThemes)

	if err := a.chapters.UpdateNarrative(ctx, chapterID, summary, themes, coherence); err != nil {
		return err
	}

	evt := bus.NewEvent(models.EventChapterUpdated, userID, models.ChapterUpdatedPayload{
		ChapterID: chapterID,
		Era:       chapter.Era,
		AreaID:    chapter.AreaID,
		Entries:   len(chapter.Entries),
		Coherence: coherence,
	}, cause)
	if _, err := a.bus.Publish(ctx, evt); err != nil {
		logging.WithUser(userID).Error("publish narrative.chapter.updated failed", "error", err)
	}
	return nil
}

// EraFor maps a calendar year to its era via the configured birth year and
// age-range table.
func (a *NarrativeAgent) EraFor(year int) (string, bool) {
	age := year - a.tunables.BirthYear
	for _, era := range a.tunables.Eras {
		if era.Contains(age) {
			return era.Name, true
		}
	}
	return "", false
}

// extractThemes ranks the most frequent meaningful words across the texts.
func extractThemes(texts []string, limit int) []string {
	counts := make(map[string]int)
	for _, t := range texts {
		seen := make(map[string]bool)
		for _, w := range strings.Fields(strings.ToLower(t)) {
			w = strings.Trim(w, ".,!?;:\"'")
			if len(w) <= 3 || seen[w] {
				continue
			}
			seen[w] = true
			counts[w]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > limit {
		words = words[:limit]
	}
	return words
}
