package model

import (
	"errors"
	"fmt"
	"time"
)

// SuggestionStatus is the closed lifecycle state of a suggestion.
type SuggestionStatus string

// Suggestion status constants. The only legal transitions are
// pending→approved, approved→applied, approved→failed and
// pending→rejected.
const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionApplied  SuggestionStatus = "applied"
	SuggestionFailed   SuggestionStatus = "failed"
	SuggestionRejected SuggestionStatus = "rejected"
)

// ErrInvalidTransition indicates an illegal suggestion status transition.
var ErrInvalidTransition = errors.New("invalid suggestion status transition")

// Valid reports whether the status is one of the known states.
func (s SuggestionStatus) Valid() bool {
	switch s {
	case SuggestionPending, SuggestionApproved, SuggestionApplied,
		SuggestionFailed, SuggestionRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s SuggestionStatus) Terminal() bool {
	switch s {
	case SuggestionApplied, SuggestionFailed, SuggestionRejected:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is legal.
func (s SuggestionStatus) CanTransition(next SuggestionStatus) bool {
	switch s {
	case SuggestionPending:
		return next == SuggestionApproved || next == SuggestionRejected
	case SuggestionApproved:
		return next == SuggestionApplied || next == SuggestionFailed
	}
	return false
}

// SuggestionType identifies which handler applies a suggestion.
type SuggestionType string

// Suggestion type constants.
const (
	SuggestionLink         SuggestionType = "link"
	SuggestionStatusUpdate SuggestionType = "status_update"
	SuggestionNewContact   SuggestionType = "new_contact"
)

// Suggestion is a proposed link awaiting a human decision. Suggestions are
// created by the classifier for the review bands and mutated only through
// the approve/reject entry points.
type Suggestion struct {
	CreatedAt  time.Time        `json:"created_at"`
	DecidedAt  *time.Time       `json:"decided_at,omitempty"`
	BatchID    *string          `json:"batch_id,omitempty"`
	ID         string           `json:"id"`
	Type       SuggestionType   `json:"type"`
	RecordID   string           `json:"record_id"`
	TargetType TargetType       `json:"target_type"`
	TargetID   string           `json:"target_id"`
	Method     MatchMethod      `json:"method"`
	Status     SuggestionStatus `json:"status"`
	Evidence   string           `json:"evidence,omitempty"`
	PatternIDs []int64          `json:"pattern_ids,omitempty"`
	Confidence float64          `json:"confidence"`
}

// Transition moves the suggestion to the next status, enforcing the state
// machine. Terminal statuses also stamp DecidedAt.
func (s *Suggestion) Transition(next SuggestionStatus) error {
	if !s.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, s.Status, next)
	}
	s.Status = next
	if next.Terminal() {
		now := time.Now().UTC()
		s.DecidedAt = &now
	}
	return nil
}
