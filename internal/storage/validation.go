// Package storage provides the data persistence layer for the linker.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrEmptySlice        = errors.New("slice cannot be empty")
	ErrInvalidRecord     = errors.New("invalid record")
	ErrInvalidTarget     = errors.New("invalid target")
	ErrInvalidPattern    = errors.New("invalid pattern")
	ErrInvalidSuggestion = errors.New("invalid suggestion")
	ErrInvalidLink       = errors.New("invalid link")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRecord validates a single record. A record with no sender, no
// thread and no code token is still valid; it simply classifies NoMatch.
func validateRecord(record *model.Record) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if record.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRecord)
	}
	if record.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidRecord)
	}
	return nil
}

// validateTarget validates a target entity reference.
func validateTarget(target *model.Target) error {
	if target == nil {
		return fmt.Errorf("%w: target", ErrNilParameter)
	}
	if !target.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTarget, target.Type)
	}
	if target.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTarget)
	}
	return nil
}

// validatePattern validates a pattern.
func validatePattern(pattern *model.Pattern) error {
	if pattern == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if !pattern.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidPattern, pattern.Type)
	}
	if strings.TrimSpace(pattern.Key) == "" {
		return fmt.Errorf("%w: missing key", ErrInvalidPattern)
	}
	if !pattern.TargetType.Valid() {
		return fmt.Errorf("%w: unknown target type %q", ErrInvalidPattern, pattern.TargetType)
	}
	if pattern.TargetID == "" {
		return fmt.Errorf("%w: missing target ID", ErrInvalidPattern)
	}
	if pattern.Confidence < 0 || pattern.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidPattern)
	}
	return nil
}

// validateSuggestion validates a suggestion.
func validateSuggestion(suggestion *model.Suggestion) error {
	if suggestion == nil {
		return fmt.Errorf("%w: suggestion", ErrNilParameter)
	}
	if suggestion.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidSuggestion)
	}
	if suggestion.RecordID == "" {
		return fmt.Errorf("%w: missing record ID", ErrInvalidSuggestion)
	}
	if !suggestion.TargetType.Valid() {
		return fmt.Errorf("%w: unknown target type %q", ErrInvalidSuggestion, suggestion.TargetType)
	}
	if !suggestion.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidSuggestion, suggestion.Status)
	}
	if suggestion.Confidence < 0 || suggestion.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidSuggestion)
	}
	return nil
}

// validateLink validates a link.
func validateLink(link *model.Link) error {
	if link == nil {
		return fmt.Errorf("%w: link", ErrNilParameter)
	}
	if link.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidLink)
	}
	if link.RecordID == "" {
		return fmt.Errorf("%w: missing record ID", ErrInvalidLink)
	}
	if !link.TargetType.Valid() {
		return fmt.Errorf("%w: unknown target type %q", ErrInvalidLink, link.TargetType)
	}
	if link.TargetID == "" {
		return fmt.Errorf("%w: missing target ID", ErrInvalidLink)
	}
	if link.Confidence < 0 || link.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidLink)
	}
	return nil
}
