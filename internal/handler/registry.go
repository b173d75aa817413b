// Package handler defines the per-suggestion-type validate/apply contract
// and the concrete handlers behind it. Validate runs as a dry-run before a
// suggestion is ever created; Apply runs at decision time and must be
// safely retryable.
package handler

import (
	"context"
	"fmt"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

// Handler applies one suggestion type.
type Handler interface {
	// Type names the suggestion type this handler serves.
	Type() model.SuggestionType
	// Validate checks that the suggestion could be applied: required
	// fields exist and referenced entities resolve. It is pure and has
	// no side effects.
	Validate(ctx context.Context, suggestion *model.Suggestion) []error
	// Apply performs the write and returns the resulting link. A retry
	// after a partial failure must not create duplicate links.
	Apply(ctx context.Context, suggestion *model.Suggestion) (*model.Link, error)
}

// Registry maps suggestion types to their handlers.
type Registry struct {
	handlers map[model.SuggestionType]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[model.SuggestionType]Handler),
	}
}

// Register adds a handler, replacing any previous handler for the type.
func (r *Registry) Register(h Handler) {
	r.handlers[h.Type()] = h
}

// Get returns the handler for a suggestion type.
func (r *Registry) Get(suggestionType model.SuggestionType) (Handler, error) {
	h, ok := r.handlers[suggestionType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownHandler, suggestionType)
	}
	return h, nil
}

// Store is the persistence surface the handlers need.
type Store interface {
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	GetTarget(ctx context.Context, targetType model.TargetType, id string) (*model.Target, error)
	SaveTarget(ctx context.Context, target *model.Target) error
	UpdateTargetStatus(ctx context.Context, targetType model.TargetType, id, status string) error
	GetActiveLink(ctx context.Context, recordID string, targetType model.TargetType) (*model.Link, error)
	CreateLink(ctx context.Context, link *model.Link) error
}

// NewDefaultRegistry creates a registry with all built-in handlers wired
// to the given store.
func NewDefaultRegistry(store Store) *Registry {
	registry := NewRegistry()
	registry.Register(NewLinkHandler(store))
	registry.Register(NewStatusUpdateHandler(store))
	registry.Register(NewContactHandler(store))
	return registry
}
