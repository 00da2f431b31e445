package agents

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"lifeos/internal/bus"
	"lifeos/internal/logging"
	"lifeos/internal/models"
	"lifeos/internal/services"

	"github.com/google/uuid"
)

// rollupLockTTL bounds how long one rollup may hold its (user, period) lock.
const rollupLockTTL = 2 * time.Minute

// Score component weights: signal strength, action completion, sentiment.
// Weights renormalize when a component has no observations in the period.
const (
	weightSignal     = 0.4
	weightCompletion = 0.4
	weightSentiment  = 0.2
)

// FulfilmentAgent mirrors source records into per-area signal streams and
// computes the periodic rollup scores from them. Rollups are idempotent:
// re-running a period over the same entries yields the same rows.
type FulfilmentAgent struct {
	store   FulfilmentRepo
	bus     *bus.EventBus
	redis   *services.RedisService // nil in single-process deployments
	metrics *services.Metrics
}

// NewFulfilmentAgent wires a fulfilment agent. redis may be nil; the rollup
// lock then degrades to best-effort within one process.
func NewFulfilmentAgent(fs FulfilmentRepo, b *bus.EventBus, r *services.RedisService, m *services.Metrics) *FulfilmentAgent {
	return &FulfilmentAgent{store: fs, bus: b, redis: r, metrics: m}
}

// Type identifies this agent on the bus.
func (a *FulfilmentAgent) Type() models.AgentType { return models.AgentFulfilment }

// Handle mirrors journal and action facts into fulfilment entries and runs
// rollups on request.
func (a *FulfilmentAgent) Handle(ctx context.Context, evt *models.DomainEvent) error {
	switch evt.Type {
	case models.EventJournalEntryCreated:
		p, ok := evt.Payload.(models.JournalEntryCreatedPayload)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", evt.Type)
		}
		return a.mirrorEntry(ctx, evt.UserID, p)
	case models.EventActionCompleted, models.EventActionFailed:
		p, ok := evt.Payload.(models.ActionOutcomePayload)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", evt.Type)
		}
		return a.mirrorAction(ctx, evt.UserID, evt.Type, p)
	case models.EventRollupRequested:
		p, ok := evt.Payload.(models.RollupRequestedPayload)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", evt.Type)
		}
		return a.ComputeRollup(ctx, evt.UserID, p.Period, evt)
	default:
		return nil
	}
}

// mirrorEntry copies each classification link into the area's signal stream.
// The unique (user, area, source) index makes redelivery a no-op.
func (a *FulfilmentAgent) mirrorEntry(ctx context.Context, userID string, p models.JournalEntryCreatedPayload) error {
	for _, link := range p.Links {
		fe := &models.FulfilmentEntry{
			ID:          uuid.New().String(),
			UserID:      userID,
			LifeAreaID:  link.AreaID,
			DimensionID: link.DimensionID,
			SourceType:  "entry",
			SourceID:    p.EntryID,
			Signal:      link.Signal,
			Sentiment:   p.Sentiment,
		}
		if err := a.store.CreateEntry(ctx, fe); err != nil {
			if errors.Is(err, services.ErrConflict) {
				continue // already mirrored on a previous delivery
			}
			return err
		}
	}
	return nil
}

func (a *FulfilmentAgent) mirrorAction(ctx context.Context, userID string, evtType models.EventType, p models.ActionOutcomePayload) error {
	if p.AreaID == "" {
		return nil
	}
	completed := evtType == models.EventActionCompleted
	signal := 0.0
	if completed {
		signal = 5.0
	}
	fe := &models.FulfilmentEntry{
		ID:          uuid.New().String(),
		UserID:      userID,
		LifeAreaID:  p.AreaID,
		DimensionID: "actions",
		SourceType:  "action",
		SourceID:    p.ActionID,
		Signal:      signal,
		Completed:   &completed,
	}
	if err := a.store.CreateEntry(ctx, fe); err != nil && !errors.Is(err, services.ErrConflict) {
		return err
	}
	return nil
}

// ComputeRollup recomputes every (area, dimension) score row for one user
// and period. The per-(user, period) lock serializes concurrent triggers; a
// loser simply skips, since the winner computes the same result.
func (a *FulfilmentAgent) ComputeRollup(ctx context.Context, userID, period string, cause *models.DomainEvent) error {
	from, to, err := periodRange(period)
	if err != nil {
		return err
	}

	if a.redis != nil {
		lockKey := fmt.Sprintf("lock:rollup:%s:%s", userID, period)
		lockVal := uuid.New().String()
		got, err := a.redis.AcquireLock(ctx, lockKey, lockVal, rollupLockTTL)
		if err != nil {
			return fmt.Errorf("rollup lock: %w", err)
		}
		if !got {
			logging.WithUser(userID).Info("rollup already in progress, skipping", "period", period)
			if a.metrics != nil {
				a.metrics.RollupsDebounced.Inc()
			}
			return nil
		}
		defer a.redis.ReleaseLock(ctx, lockKey, lockVal)
	}

	started := time.Now()
	pairs, err := a.store.ListPairs(ctx, userID)
	if err != nil {
		return err
	}

	computed := 0
	for _, pair := range pairs {
		areaID, dimensionID := pair[0], pair[1]
		entries, err := a.store.ListEntries(ctx, userID, areaID, dimensionID, from, to)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			continue
		}

		score := ComputeScore(entries)
		confidence := Confidence(len(entries))
		trend := 0.0
		if prior, err := a.store.GetScore(ctx, userID, areaID, dimensionID, priorPeriod(period)); err == nil {
			trend = score - prior.Score
		}

		row := &models.FulfilmentScore{
			ID:           uuid.New().String(),
			UserID:       userID,
			AreaID:       areaID,
			DimensionID:  dimensionID,
			Period:       period,
			Score:        score,
			Confidence:   confidence,
			Trend:        trend,
			Observations: len(entries),
			ComputedAt:   time.Now().UTC(),
		}
		if err := a.store.UpsertScore(ctx, row); err != nil {
			return err
		}
		computed++
		if a.metrics != nil {
			a.metrics.RollupsComputed.Inc()
		}
	}

	logging.WithUser(userID).Info("rollup computed",
		"period", period, "pairs", computed, "duration", time.Since(started))

	done := bus.NewEvent(models.EventRollupCompleted, userID, models.RollupCompletedPayload{
		Period:    period,
		Pairs:     computed,
		Durations: time.Since(started).Milliseconds(),
	}, cause)
	if _, err := a.bus.Publish(ctx, done); err != nil {
		logging.WithUser(userID).Error("publish fulfilment.rollup.completed failed", "error", err)
	}
	return nil
}

// RunScheduledRollup sweeps every user with fulfilment entries for the
// given period. Used by the monthly scheduled job.
func (a *FulfilmentAgent) RunScheduledRollup(ctx context.Context, period string) error {
	users, err := a.store.ListUsersWithEntries(ctx)
	if err != nil {
		return err
	}
	for _, userID := range users {
		if err := a.ComputeRollup(ctx, userID, period, nil); err != nil {
			logging.WithUser(userID).Error("scheduled rollup failed", "period", period, "error", err)
		}
	}
	return nil
}

// ComputeScore blends the period's observations into a 0–5 score:
// 0.4·mean signal + 0.4·(completion rate·5) + 0.2·((mean sentiment+1)·2.5),
// with weights renormalized over the components actually observed.
func ComputeScore(entries []models.FulfilmentEntry) float64 {
	var signalSum float64
	var signalN int
	var completedN, actionN int
	var sentimentSum float64
	var sentimentN int

	for _, e := range entries {
		if e.Completed != nil {
			actionN++
			if *e.Completed {
				completedN++
			}
			continue
		}
		signalSum += e.Signal
		signalN++
		sentimentSum += e.Sentiment
		sentimentN++
	}

	var weighted, totalWeight float64
	if signalN > 0 {
		weighted += weightSignal * (signalSum / float64(signalN))
		totalWeight += weightSignal
	}
	if actionN > 0 {
		weighted += weightCompletion * (float64(completedN) / float64(actionN) * 5)
		totalWeight += weightCompletion
	}
	if sentimentN > 0 {
		weighted += weightSentiment * ((sentimentSum/float64(sentimentN) + 1) * 2.5)
		totalWeight += weightSentiment
	}
	if totalWeight == 0 {
		return 0
	}

	score := weighted / totalWeight
	if score < 0 {
		return 0
	}
	if score > 5 {
		return 5
	}
	return score
}

// Confidence grows with observation count and saturates at 1:
// min(1, ln(1+n)/3).
func Confidence(n int) float64 {
	c := math.Log(1+float64(n)) / 3
	if c > 1 {
		return 1
	}
	return c
}

func periodRange(period string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad rollup period %q: %w", period, err)
	}
	return start, start.AddDate(0, 1, 0), nil
}

func priorPeriod(period string) string {
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return ""
	}
	return start.AddDate(0, -1, 0).Format("2006-01")
}
