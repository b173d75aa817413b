package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

// StatusUpdateHandler applies proposal status changes inferred from a
// record (e.g. a confirmation email moving a proposal to "confirmed").
// The new status travels in the suggestion's evidence field. On apply it
// also links the record to the proposal so the change stays traceable.
type StatusUpdateHandler struct {
	store Store
}

// NewStatusUpdateHandler creates the status update handler.
func NewStatusUpdateHandler(store Store) *StatusUpdateHandler {
	return &StatusUpdateHandler{store: store}
}

// Type implements Handler.
func (h *StatusUpdateHandler) Type() model.SuggestionType {
	return model.SuggestionStatusUpdate
}

// Validate checks the record, the proposal and the requested status.
func (h *StatusUpdateHandler) Validate(ctx context.Context, suggestion *model.Suggestion) []error {
	var errs []error

	if suggestion.RecordID == "" {
		errs = append(errs, errors.New("record ID is required"))
	} else if _, err := h.store.GetRecord(ctx, suggestion.RecordID); err != nil {
		errs = append(errs, fmt.Errorf("record %s is not resolvable: %w", suggestion.RecordID, err))
	}

	if suggestion.TargetType != model.TargetProposal {
		errs = append(errs, fmt.Errorf("status updates apply to proposals, not %s", suggestion.TargetType))
	} else if suggestion.TargetID == "" {
		errs = append(errs, errors.New("proposal ID is required"))
	} else if _, err := h.store.GetTarget(ctx, model.TargetProposal, suggestion.TargetID); err != nil {
		errs = append(errs, fmt.Errorf("proposal %s is not resolvable: %w", suggestion.TargetID, err))
	}

	if strings.TrimSpace(suggestion.Evidence) == "" {
		errs = append(errs, errors.New("new status value is required in evidence"))
	}

	return errs
}

// Apply sets the proposal status and links the record to the proposal.
// Both writes are individually idempotent, so a retry converges on the
// same end state.
func (h *StatusUpdateHandler) Apply(ctx context.Context, suggestion *model.Suggestion) (*model.Link, error) {
	status := strings.TrimSpace(suggestion.Evidence)
	if err := h.store.UpdateTargetStatus(ctx, model.TargetProposal, suggestion.TargetID, status); err != nil {
		return nil, fmt.Errorf("failed to update proposal status: %w", err)
	}

	return createLinkIdempotent(ctx, h.store, suggestion.RecordID, model.TargetRef{
		Type: model.TargetProposal,
		ID:   suggestion.TargetID,
	}, suggestion.Confidence, suggestion.Method)
}
