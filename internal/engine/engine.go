// Package engine orchestrates the resolution pipeline: record → candidate
// matcher → confidence classifier → link or suggestion.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/handler"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/match"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/service"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/suggest"
)

// Engine resolves unlinked records through the tiered pipeline.
type Engine struct {
	storage    service.Storage
	matcher    *match.Matcher
	classifier *match.Classifier
	manager    *suggest.Manager
	registry   *handler.Registry
	// OnRecord, if set, is called after each record is processed; the
	// CLI hangs its progress bar on it.
	OnRecord func(record model.Record, band match.Band)
}

// New creates an engine over the given collaborators.
func New(storage service.Storage, matcher *match.Matcher, classifier *match.Classifier, manager *suggest.Manager, registry *handler.Registry) *Engine {
	return &Engine{
		storage:    storage,
		matcher:    matcher,
		classifier: classifier,
		manager:    manager,
		registry:   registry,
	}
}

// ProcessRecords matches every unresolved record and routes each
// candidate by confidence band. Matching is read-only over a pattern
// snapshot; only the routing step writes.
func (e *Engine) ProcessRecords(ctx context.Context, limit int) (*service.MatchStats, error) {
	started := time.Now()

	records, err := e.storage.GetUnresolvedRecords(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load unresolved records: %w", err)
	}

	stats := &service.MatchStats{Total: len(records)}
	if len(records) == 0 {
		slog.Info("No unresolved records")
		stats.Duration = time.Since(started)
		return stats, nil
	}

	slog.Info("Starting matching run", "records", len(records))

	for _, record := range records {
		select {
		case <-ctx.Done():
			stats.Duration = time.Since(started)
			return stats, ctx.Err()
		default:
		}

		band, procErr := e.processRecord(ctx, record, stats)
		if procErr != nil {
			stats.Errors++
			slog.Error("Failed to process record",
				"record_id", record.ID,
				"error", procErr)
		}
		if e.OnRecord != nil {
			e.OnRecord(record, band)
		}
	}

	stats.Duration = time.Since(started)
	slog.Info("Matching run complete",
		"total", stats.Total,
		"auto_applied", stats.AutoApplied,
		"batched", stats.Batched,
		"individual", stats.Individual,
		"log_only", stats.LogOnly,
		"errors", stats.Errors,
		"duration", stats.Duration)

	return stats, nil
}

func (e *Engine) processRecord(ctx context.Context, record model.Record, stats *service.MatchStats) (match.Band, error) {
	candidate, err := e.matcher.Match(ctx, record)
	if err != nil {
		return match.BandLogOnly, err
	}

	if candidate == nil {
		// NoMatch is a valid terminal classification, logged for future
		// pattern discovery, never a suggestion.
		stats.LogOnly++
		slog.Info("No match for record",
			"record_id", record.ID,
			"sender", record.Sender,
			"domain", record.Domain)
		return match.BandLogOnly, nil
	}

	band := e.classifier.Classify(candidate.Confidence)
	switch band {
	case match.BandAutoApply:
		if err := e.autoApply(ctx, record, candidate); err != nil {
			return band, err
		}
		stats.AutoApplied++
	case match.BandBatchReview:
		if _, err := e.manager.Create(ctx, record, *candidate, band); err != nil {
			return band, err
		}
		stats.Batched++
	case match.BandIndividualReview:
		if _, err := e.manager.Create(ctx, record, *candidate, band); err != nil {
			return band, err
		}
		stats.Individual++
	case match.BandLogOnly:
		stats.LogOnly++
		slog.Info("Candidate below review floor",
			"record_id", record.ID,
			"target_type", candidate.Target.Type,
			"target_id", candidate.Target.ID,
			"confidence", candidate.Confidence)
	}

	return band, nil
}

// autoApply creates the link directly through the handler registry,
// bypassing human review. The dry-run validation still runs; a candidate
// that cannot be applied is absorbed with its evidence logged, exactly
// like a suggestion rejected at creation.
func (e *Engine) autoApply(ctx context.Context, record model.Record, candidate *match.Candidate) error {
	suggestion := &model.Suggestion{
		ID:         uuid.NewString(),
		Type:       model.SuggestionLink,
		RecordID:   record.ID,
		TargetType: candidate.Target.Type,
		TargetID:   candidate.Target.ID,
		Confidence: model.ClampConfidence(candidate.Confidence),
		Method:     candidate.Method,
		Status:     model.SuggestionPending,
		PatternIDs: candidate.PatternIDs,
	}

	h, err := e.registry.Get(suggestion.Type)
	if err != nil {
		return err
	}

	if validationErrs := h.Validate(ctx, suggestion); len(validationErrs) > 0 {
		slog.Warn("Auto-apply candidate failed validation",
			"record_id", record.ID,
			"target_type", candidate.Target.Type,
			"target_id", candidate.Target.ID,
			"errors", len(validationErrs))
		return nil
	}

	link, err := h.Apply(ctx, suggestion)
	if err != nil {
		return fmt.Errorf("auto-apply failed: %w", err)
	}

	slog.Info("Auto-applied link",
		"record_id", record.ID,
		"link_id", link.ID,
		"method", link.Method,
		"confidence", link.Confidence)

	return nil
}
