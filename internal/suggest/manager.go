// Package suggest owns the suggestion and batch lifecycle. It is the only
// mutation surface exposed to the review side: suggestions change state
// exclusively through Create, Approve, Reject and their batch variants.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/handler"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/match"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/service"
)

// OutcomeObserver is notified when a suggestion settles in a terminal
// state. The feedback learner implements this.
type OutcomeObserver interface {
	SuggestionSettled(ctx context.Context, suggestion *model.Suggestion, correct bool)
}

// Manager owns suggestion and batch state.
type Manager struct {
	storage  service.Storage
	registry *handler.Registry
	observer OutcomeObserver
}

// NewManager creates a suggestion manager. observer may be nil.
func NewManager(storage service.Storage, registry *handler.Registry, observer OutcomeObserver) *Manager {
	return &Manager{
		storage:  storage,
		registry: registry,
		observer: observer,
	}
}

// Create builds a suggestion for a candidate in a review band. Before
// anything is persisted the relevant handler validates the suggestion in
// dry-run mode; a validation failure means the suggestion is never
// created — the match is logged with the validation errors as evidence
// and the queue stays clean. Returns nil without error in that case.
//
// A concurrent duplicate for the same (record, target) pair resolves to
// the existing pending suggestion.
func (m *Manager) Create(ctx context.Context, record model.Record, candidate match.Candidate, band match.Band) (*model.Suggestion, error) {
	if band != match.BandBatchReview && band != match.BandIndividualReview {
		return nil, fmt.Errorf("band %s does not create suggestions", band)
	}

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
		CreatedAt:  time.Now().UTC(),
	}

	h, err := m.registry.Get(suggestion.Type)
	if err != nil {
		return nil, err
	}

	if validationErrs := h.Validate(ctx, suggestion); len(validationErrs) > 0 {
		slog.Info("Suggestion rejected at creation",
			"record_id", record.ID,
			"target_type", suggestion.TargetType,
			"target_id", suggestion.TargetID,
			"evidence", joinErrors(validationErrs))
		return nil, nil
	}

	if band == match.BandBatchReview {
		batchID, batchErr := m.findOrCreateBatch(ctx, record, candidate)
		if batchErr != nil {
			return nil, batchErr
		}
		suggestion.BatchID = &batchID
	}

	if err := m.storage.CreateSuggestion(ctx, suggestion); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			return m.storage.GetPendingSuggestion(ctx, record.ID, suggestion.TargetType, suggestion.TargetID)
		}
		return nil, err
	}

	slog.Info("Suggestion created",
		"suggestion_id", suggestion.ID,
		"record_id", record.ID,
		"band", band,
		"confidence", suggestion.Confidence)

	return suggestion, nil
}

// findOrCreateBatch groups batch-review suggestions by
// (sender-or-domain, proposed target) so one human decision fans out to
// every member.
func (m *Manager) findOrCreateBatch(ctx context.Context, record model.Record, candidate match.Candidate) (string, error) {
	groupKey := GroupKey(record)

	batch, err := m.storage.FindOpenBatch(ctx, groupKey, candidate.Target.Type, candidate.Target.ID)
	if err == nil {
		return batch.ID, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return "", err
	}

	batch = &model.Batch{
		ID:         uuid.NewString(),
		GroupKey:   groupKey,
		TargetType: candidate.Target.Type,
		TargetID:   candidate.Target.ID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := m.storage.CreateBatch(ctx, batch); err != nil {
		return "", err
	}
	return batch.ID, nil
}

// GroupKey derives the batch grouping key for a record: the sender when
// present, otherwise the domain.
func GroupKey(record model.Record) string {
	if record.Sender != "" {
		return "sender:" + strings.ToLower(record.Sender)
	}
	return "domain:" + strings.ToLower(record.Domain)
}

// Approve transitions a suggestion pending→approved and immediately
// attempts the apply, with one automatic retry. The suggestion always
// leaves this call terminal: applied with its link, or failed with the
// error captured as evidence and returned to the caller. Re-approving an
// already-applied suggestion is a no-op returning the existing link.
func (m *Manager) Approve(ctx context.Context, suggestionID string) (*model.Suggestion, *model.Link, error) {
	suggestion, err := m.storage.GetSuggestion(ctx, suggestionID)
	if err != nil {
		return nil, nil, err
	}

	if suggestion.Status == model.SuggestionApplied {
		link, linkErr := m.storage.GetActiveLink(ctx, suggestion.RecordID, suggestion.TargetType)
		if linkErr != nil && !errors.Is(linkErr, common.ErrNotFound) {
			return nil, nil, linkErr
		}
		return suggestion, link, nil
	}

	if err := suggestion.Transition(model.SuggestionApproved); err != nil {
		return nil, nil, err
	}
	if err := m.storage.UpdateSuggestionStatus(ctx, suggestion); err != nil {
		return nil, nil, err
	}

	h, err := m.registry.Get(suggestion.Type)
	if err != nil {
		return nil, nil, err
	}

	var link *model.Link
	applyErr := common.WithRetry(ctx, func() error {
		var opErr error
		link, opErr = h.Apply(ctx, suggestion)
		if opErr != nil {
			return &common.RetryableError{Err: opErr, Retryable: true}
		}
		return nil
	}, service.RetryOptions{
		MaxAttempts:  2, // one automatic retry, then terminal failure
		InitialDelay: 50 * time.Millisecond,
	})

	if applyErr != nil {
		suggestion.Evidence = appendEvidence(suggestion.Evidence, applyErr.Error())
		if err := suggestion.Transition(model.SuggestionFailed); err != nil {
			return nil, nil, err
		}
		if err := m.storage.UpdateSuggestionStatus(ctx, suggestion); err != nil {
			return nil, nil, err
		}
		m.notify(ctx, suggestion, false)
		slog.Warn("Suggestion apply failed",
			"suggestion_id", suggestion.ID,
			"error", applyErr)
		return suggestion, nil, fmt.Errorf("apply failed for suggestion %s: %w", suggestion.ID, applyErr)
	}

	if err := suggestion.Transition(model.SuggestionApplied); err != nil {
		return nil, nil, err
	}
	if err := m.storage.UpdateSuggestionStatus(ctx, suggestion); err != nil {
		return nil, nil, err
	}
	m.notify(ctx, suggestion, true)

	slog.Info("Suggestion applied",
		"suggestion_id", suggestion.ID,
		"link_id", link.ID)

	return suggestion, link, nil
}

// Reject settles a suggestion as rejected without any apply attempt.
// Rejecting an already-rejected suggestion is a no-op.
func (m *Manager) Reject(ctx context.Context, suggestionID string) (*model.Suggestion, error) {
	suggestion, err := m.storage.GetSuggestion(ctx, suggestionID)
	if err != nil {
		return nil, err
	}

	if suggestion.Status == model.SuggestionRejected {
		return suggestion, nil
	}

	if err := suggestion.Transition(model.SuggestionRejected); err != nil {
		return nil, err
	}
	if err := m.storage.UpdateSuggestionStatus(ctx, suggestion); err != nil {
		return nil, err
	}
	m.notify(ctx, suggestion, false)

	return suggestion, nil
}

// MemberResult is the outcome of one batch member's decision.
type MemberResult struct {
	Suggestion *model.Suggestion
	Link       *model.Link
	Err        error
}

// ApproveBatch approves every undecided member with independent
// outcomes: one member's apply failure settles that member as failed and
// never rolls back or blocks its siblings.
func (m *Manager) ApproveBatch(ctx context.Context, batchID string) ([]MemberResult, error) {
	members, err := m.storage.GetBatchMembers(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("batch %s has no members: %w", batchID, common.ErrNotFound)
	}

	results := make([]MemberResult, 0, len(members))
	for i := range members {
		member := &members[i]
		if member.Status == model.SuggestionRejected || member.Status == model.SuggestionFailed {
			results = append(results, MemberResult{Suggestion: member})
			continue
		}
		suggestion, link, approveErr := m.Approve(ctx, member.ID)
		results = append(results, MemberResult{
			Suggestion: suggestion,
			Link:       link,
			Err:        approveErr,
		})
	}
	return results, nil
}

// RejectBatch rejects every pending member.
func (m *Manager) RejectBatch(ctx context.Context, batchID string) ([]MemberResult, error) {
	members, err := m.storage.GetBatchMembers(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("batch %s has no members: %w", batchID, common.ErrNotFound)
	}

	results := make([]MemberResult, 0, len(members))
	for i := range members {
		member := &members[i]
		if member.Status.Terminal() {
			results = append(results, MemberResult{Suggestion: member})
			continue
		}
		suggestion, rejectErr := m.Reject(ctx, member.ID)
		results = append(results, MemberResult{Suggestion: suggestion, Err: rejectErr})
	}
	return results, nil
}

// ListPending returns pending suggestions matching the filter.
func (m *Manager) ListPending(ctx context.Context, filter service.SuggestionFilter) ([]model.Suggestion, error) {
	filter.Status = model.SuggestionPending
	return m.storage.ListSuggestions(ctx, filter)
}

func (m *Manager) notify(ctx context.Context, suggestion *model.Suggestion, correct bool) {
	if m.observer == nil {
		return
	}
	m.observer.SuggestionSettled(ctx, suggestion, correct)
}

func appendEvidence(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + "; " + addition
}

func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}
