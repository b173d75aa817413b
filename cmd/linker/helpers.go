package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/config"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/engine"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/handler"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/learn"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/match"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/storage"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/suggest"
)

// timeRounding keeps reported durations readable.
const timeRounding = time.Millisecond

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/linker/linker.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadThresholds reads the confidence thresholds from config and fails
// hard on a misordered or out-of-range set. A half-validated threshold
// set must never silently route candidates to the wrong band.
func loadThresholds() (config.Thresholds, error) {
	thresholds := config.DefaultThresholds()

	if viper.IsSet("matching.auto_apply_min") {
		thresholds.AutoApplyMin = viper.GetFloat64("matching.auto_apply_min")
	}
	if viper.IsSet("matching.batch_review_min") {
		thresholds.BatchReviewMin = viper.GetFloat64("matching.batch_review_min")
	}
	if viper.IsSet("matching.individual_review_min") {
		thresholds.IndividualReviewMin = viper.GetFloat64("matching.individual_review_min")
	}
	if viper.IsSet("matching.drift_min_accuracy") {
		thresholds.DriftMinAccuracy = viper.GetFloat64("matching.drift_min_accuracy")
	}
	if viper.IsSet("matching.drift_min_samples") {
		thresholds.DriftMinSamples = viper.GetInt("matching.drift_min_samples")
	}
	if viper.IsSet("learning.seed_confidence") {
		thresholds.SeedConfidence = viper.GetFloat64("learning.seed_confidence")
	}

	if err := thresholds.Validate(); err != nil {
		return config.Thresholds{}, fmt.Errorf("invalid threshold configuration: %w", err)
	}

	return thresholds, nil
}

// pipeline bundles the wired resolution stack behind one constructor so
// every command assembles it the same way.
type pipeline struct {
	store      *storage.SQLiteStorage
	engine     *engine.Engine
	manager    *suggest.Manager
	learner    *learn.Learner
	thresholds config.Thresholds
}

func initPipeline(ctx context.Context) (*pipeline, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	thresholds, err := loadThresholds()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	classifier, err := match.NewClassifier(thresholds)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	cache := match.NewCache(store, match.DefaultCacheTTL)
	matcher := match.NewMatcher(store, cache)
	registry := handler.NewDefaultRegistry(store)
	learner := learn.NewLearner(store, cache, thresholds)
	manager := suggest.NewManager(store, registry, learner)
	eng := engine.New(store, matcher, classifier, manager, registry)

	return &pipeline{
		store:      store,
		engine:     eng,
		manager:    manager,
		learner:    learner,
		thresholds: thresholds,
	}, nil
}

func (p *pipeline) Close() {
	_ = p.store.Close()
}
