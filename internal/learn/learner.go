// Package learn closes the feedback loop: suggestion outcomes update
// pattern statistics, seed new patterns, and retire drifting ones.
package learn

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/config"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/service"
)

// Invalidator drops a cached pattern snapshot after a pattern write. The
// read-through cache in internal/match implements it.
type Invalidator interface {
	Invalidate()
}

// Learner consumes suggestion outcomes. Drift deactivation needs no
// separate sweep: it is evaluated inline on every recorded outcome, so
// the model corrects itself continuously without a scheduler.
type Learner struct {
	storage    service.Storage
	cache      Invalidator
	thresholds config.Thresholds
}

// NewLearner creates a feedback learner. cache may be nil.
func NewLearner(storage service.Storage, cache Invalidator, thresholds config.Thresholds) *Learner {
	return &Learner{
		storage:    storage,
		cache:      cache,
		thresholds: thresholds,
	}
}

// SuggestionSettled records the outcome of a settled suggestion against
// every pattern that contributed to its candidate. When a human confirmed
// a match that no pattern predicted (thread or code tiers, or a manual
// link), it seeds sender and domain patterns at a conservative confidence
// so the next record from this correspondent matches — but can never
// auto-apply until the pattern has earned it.
func (l *Learner) SuggestionSettled(ctx context.Context, suggestion *model.Suggestion, correct bool) {
	if len(suggestion.PatternIDs) > 0 {
		l.recordOutcomes(ctx, suggestion.PatternIDs, correct)
		return
	}

	if correct {
		l.seedPatterns(ctx, suggestion)
	}
}

func (l *Learner) recordOutcomes(ctx context.Context, patternIDs []int64, correct bool) {
	for _, id := range patternIDs {
		// Counter updates are single atomic statements; the retry covers
		// transient lock contention on the shared store.
		err := common.WithRetry(ctx, func() error {
			opErr := l.storage.RecordPatternOutcome(ctx, id, correct,
				l.thresholds.DriftMinSamples, l.thresholds.DriftMinAccuracy)
			if opErr != nil {
				return &common.RetryableError{Err: opErr, Retryable: true}
			}
			return nil
		}, service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 20 * time.Millisecond,
		})
		if err != nil {
			slog.Error("Failed to record pattern outcome",
				"pattern_id", id,
				"correct", correct,
				"error", err)
			continue
		}
		slog.Debug("Recorded pattern outcome",
			"pattern_id", id,
			"correct", correct)
	}
	l.invalidate()
}

func (l *Learner) seedPatterns(ctx context.Context, suggestion *model.Suggestion) {
	record, err := l.storage.GetRecord(ctx, suggestion.RecordID)
	if err != nil {
		slog.Error("Failed to load record for pattern seeding",
			"record_id", suggestion.RecordID,
			"error", err)
		return
	}

	seeded := false
	for _, seed := range []struct {
		patternType model.PatternType
		key         string
	}{
		{model.PatternSender, strings.ToLower(record.Sender)},
		{model.PatternDomain, strings.ToLower(record.Domain)},
	} {
		if seed.key == "" {
			continue
		}
		pattern := &model.Pattern{
			Type:       seed.patternType,
			Key:        seed.key,
			TargetType: suggestion.TargetType,
			TargetID:   suggestion.TargetID,
			Confidence: l.seedConfidence(),
		}
		if err := l.storage.UpsertPattern(ctx, pattern); err != nil {
			slog.Error("Failed to seed pattern",
				"type", seed.patternType,
				"key", seed.key,
				"error", err)
			continue
		}
		seeded = true
		slog.Info("Seeded pattern from confirmed link",
			"pattern_id", pattern.ID,
			"type", pattern.Type,
			"key", pattern.Key,
			"target_type", pattern.TargetType,
			"target_id", pattern.TargetID,
			"confidence", pattern.Confidence)
	}

	if seeded {
		l.invalidate()
	}
}

// seedConfidence keeps synthesized patterns strictly below the
// auto-apply cutoff.
func (l *Learner) seedConfidence() float64 {
	seed := l.thresholds.SeedConfidence
	if seed >= l.thresholds.AutoApplyMin {
		seed = l.thresholds.AutoApplyMin / 2
	}
	return model.ClampConfidence(seed)
}

func (l *Learner) invalidate() {
	if l.cache != nil {
		l.cache.Invalidate()
	}
}
