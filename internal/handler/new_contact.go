package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

// ContactHandler creates a contact target from a record's sender and
// links the record to it. The contact ID is derived deterministically
// from the sender address, so a retried apply upserts the same contact
// rather than minting a duplicate.
type ContactHandler struct {
	store Store
}

// NewContactHandler creates the new-contact handler.
func NewContactHandler(store Store) *ContactHandler {
	return &ContactHandler{store: store}
}

// Type implements Handler.
func (h *ContactHandler) Type() model.SuggestionType {
	return model.SuggestionNewContact
}

// ContactIDForSender derives the deterministic contact target ID for a
// sender address.
func ContactIDForSender(sender string) string {
	return "contact:" + strings.ToLower(strings.TrimSpace(sender))
}

// Validate checks that the record exists and carries a sender address.
func (h *ContactHandler) Validate(ctx context.Context, suggestion *model.Suggestion) []error {
	var errs []error

	if suggestion.RecordID == "" {
		errs = append(errs, errors.New("record ID is required"))
		return errs
	}

	record, err := h.store.GetRecord(ctx, suggestion.RecordID)
	if err != nil {
		errs = append(errs, fmt.Errorf("record %s is not resolvable: %w", suggestion.RecordID, err))
		return errs
	}
	if strings.TrimSpace(record.Sender) == "" {
		errs = append(errs, errors.New("record has no sender to create a contact from"))
	}
	if suggestion.TargetType != model.TargetContact {
		errs = append(errs, fmt.Errorf("new contact suggestions target contacts, not %s", suggestion.TargetType))
	}

	return errs
}

// Apply upserts the contact and links the record to it.
func (h *ContactHandler) Apply(ctx context.Context, suggestion *model.Suggestion) (*model.Link, error) {
	record, err := h.store.GetRecord(ctx, suggestion.RecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	contact := &model.Target{
		Type: model.TargetContact,
		ID:   ContactIDForSender(record.Sender),
		Name: record.Sender,
	}
	if err := h.store.SaveTarget(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	return createLinkIdempotent(ctx, h.store, record.ID, model.TargetRef{
		Type: model.TargetContact,
		ID:   contact.ID,
	}, suggestion.Confidence, suggestion.Method)
}
