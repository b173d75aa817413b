package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

// LinkHandler applies the core suggestion type: linking a record to its
// proposed target.
type LinkHandler struct {
	store Store
}

// NewLinkHandler creates the link handler.
func NewLinkHandler(store Store) *LinkHandler {
	return &LinkHandler{store: store}
}

// Type implements Handler.
func (h *LinkHandler) Type() model.SuggestionType {
	return model.SuggestionLink
}

// Validate checks that the record and target exist and that the record is
// not already actively linked to a different target of the same type.
func (h *LinkHandler) Validate(ctx context.Context, suggestion *model.Suggestion) []error {
	var errs []error

	if suggestion.RecordID == "" {
		errs = append(errs, errors.New("record ID is required"))
	} else if _, err := h.store.GetRecord(ctx, suggestion.RecordID); err != nil {
		errs = append(errs, fmt.Errorf("record %s is not resolvable: %w", suggestion.RecordID, err))
	}

	if !suggestion.TargetType.Valid() || suggestion.TargetID == "" {
		errs = append(errs, errors.New("target reference is required"))
	} else if _, err := h.store.GetTarget(ctx, suggestion.TargetType, suggestion.TargetID); err != nil {
		errs = append(errs, fmt.Errorf("target %s/%s is not resolvable: %w",
			suggestion.TargetType, suggestion.TargetID, err))
	}

	if suggestion.RecordID != "" && suggestion.TargetType.Valid() {
		existing, err := h.store.GetActiveLink(ctx, suggestion.RecordID, suggestion.TargetType)
		if err == nil && existing.TargetID != suggestion.TargetID {
			errs = append(errs, fmt.Errorf("record %s already holds an active %s link to %s",
				suggestion.RecordID, suggestion.TargetType, existing.TargetID))
		}
	}

	return errs
}

// Apply creates the link. Applying twice, or retrying after a partial
// failure, returns the already-created link instead of duplicating it.
func (h *LinkHandler) Apply(ctx context.Context, suggestion *model.Suggestion) (*model.Link, error) {
	return createLinkIdempotent(ctx, h.store, suggestion.RecordID, model.TargetRef{
		Type: suggestion.TargetType,
		ID:   suggestion.TargetID,
	}, suggestion.Confidence, suggestion.Method)
}

// createLinkIdempotent creates an active link, treating an existing link
// to the same target as success. A concurrent insert loses the race on
// the unique index and resolves the same way.
func createLinkIdempotent(ctx context.Context, store Store, recordID string, target model.TargetRef, confidence float64, method model.MatchMethod) (*model.Link, error) {
	if existing, err := store.GetActiveLink(ctx, recordID, target.Type); err == nil {
		if existing.TargetID == target.ID {
			return existing, nil
		}
		return nil, fmt.Errorf("record %s already holds an active %s link to %s",
			recordID, target.Type, existing.TargetID)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if method == "" {
		method = model.MethodManual
	}

	link := &model.Link{
		ID:         uuid.NewString(),
		RecordID:   recordID,
		TargetType: target.Type,
		TargetID:   target.ID,
		Confidence: model.ClampConfidence(confidence),
		Method:     method,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}

	if err := store.CreateLink(ctx, link); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			existing, getErr := store.GetActiveLink(ctx, recordID, target.Type)
			if getErr != nil {
				return nil, getErr
			}
			if existing.TargetID == target.ID {
				return existing, nil
			}
			return nil, fmt.Errorf("record %s already holds an active %s link to %s",
				recordID, target.Type, existing.TargetID)
		}
		return nil, err
	}

	return link, nil
}
