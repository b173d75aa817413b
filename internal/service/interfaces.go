// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

// SuggestionFilter defines filtering options for suggestion queries.
type SuggestionFilter struct {
	Status     model.SuggestionStatus
	TargetType model.TargetType
	BatchID    string
	Limit      int
	Offset     int
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Record operations. Records are owned by the ingestion pipeline;
	// the linker only reads and imports them.
	SaveRecords(ctx context.Context, records []model.Record) error
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	GetUnresolvedRecords(ctx context.Context, limit int) ([]model.Record, error)

	// Target catalog operations.
	SaveTarget(ctx context.Context, target *model.Target) error
	GetTarget(ctx context.Context, targetType model.TargetType, id string) (*model.Target, error)
	GetTargetByCode(ctx context.Context, code string) (*model.Target, error)
	GetAllTargets(ctx context.Context) ([]model.Target, error)
	UpdateTargetStatus(ctx context.Context, targetType model.TargetType, id, status string) error

	// Pattern store operations.
	UpsertPattern(ctx context.Context, pattern *model.Pattern) error
	GetPattern(ctx context.Context, id int64) (*model.Pattern, error)
	GetActivePatterns(ctx context.Context) ([]model.Pattern, error)
	GetPatternsForKeys(ctx context.Context, patternType model.PatternType, keys []string) ([]model.Pattern, error)
	RecordPatternOutcome(ctx context.Context, id int64, correct bool, driftMinSamples int, driftMinAccuracy float64) error
	DeactivatePattern(ctx context.Context, id int64) error

	// Suggestion operations.
	CreateSuggestion(ctx context.Context, suggestion *model.Suggestion) error
	GetSuggestion(ctx context.Context, id string) (*model.Suggestion, error)
	GetPendingSuggestion(ctx context.Context, recordID string, targetType model.TargetType, targetID string) (*model.Suggestion, error)
	ListSuggestions(ctx context.Context, filter SuggestionFilter) ([]model.Suggestion, error)
	UpdateSuggestionStatus(ctx context.Context, suggestion *model.Suggestion) error

	// Batch operations.
	CreateBatch(ctx context.Context, batch *model.Batch) error
	GetBatch(ctx context.Context, id string) (*model.Batch, error)
	FindOpenBatch(ctx context.Context, groupKey string, targetType model.TargetType, targetID string) (*model.Batch, error)
	GetBatchMembers(ctx context.Context, batchID string) ([]model.Suggestion, error)
	GetBatchSummaries(ctx context.Context) ([]model.BatchSummary, error)

	// Link operations.
	CreateLink(ctx context.Context, link *model.Link) error
	GetActiveLink(ctx context.Context, recordID string, targetType model.TargetType) (*model.Link, error)
	GetLinkByID(ctx context.Context, id string) (*model.Link, error)
	GetActiveLinkByThread(ctx context.Context, threadID string) (*model.Link, error)
	GetLinksByRecord(ctx context.Context, recordID string) ([]model.Link, error)
	Unlink(ctx context.Context, linkID string) error

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}

// MatchStats shows the results of a matching run.
type MatchStats struct {
	Duration    time.Duration
	Total       int
	AutoApplied int
	Batched     int
	Individual  int
	LogOnly     int
	Errors      int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
