package config

import (
	"fmt"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
)

// Thresholds holds the confidence cutoffs and drift gates that drive
// classification routing and pattern retirement. These are the only
// tuning knobs the linker recognizes.
type Thresholds struct {
	AutoApplyMin        float64
	BatchReviewMin      float64
	IndividualReviewMin float64
	DriftMinAccuracy    float64
	SeedConfidence      float64
	DriftMinSamples     int
}

// DefaultThresholds returns the stock configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AutoApplyMin:        0.95,
		BatchReviewMin:      0.80,
		IndividualReviewMin: 0.60,
		DriftMinAccuracy:    0.70,
		SeedConfidence:      0.60,
		DriftMinSamples:     10,
	}
}

// Validate checks threshold consistency. An ordering violation is a fatal
// configuration error: the system refuses to run with inconsistent
// thresholds rather than silently misclassify.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"matching.auto_apply_min":        t.AutoApplyMin,
		"matching.batch_review_min":      t.BatchReviewMin,
		"matching.individual_review_min": t.IndividualReviewMin,
		"matching.drift_min_accuracy":    t.DriftMinAccuracy,
		"learning.seed_confidence":       t.SeedConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be in [0,1], got %v", common.ErrInvalidConfig, name, v)
		}
	}
	if t.AutoApplyMin < t.BatchReviewMin {
		return fmt.Errorf("%w: auto_apply_min (%v) must be >= batch_review_min (%v)",
			common.ErrInvalidConfig, t.AutoApplyMin, t.BatchReviewMin)
	}
	if t.BatchReviewMin < t.IndividualReviewMin {
		return fmt.Errorf("%w: batch_review_min (%v) must be >= individual_review_min (%v)",
			common.ErrInvalidConfig, t.BatchReviewMin, t.IndividualReviewMin)
	}
	if t.DriftMinSamples < 1 {
		return fmt.Errorf("%w: drift_min_samples must be >= 1, got %d",
			common.ErrInvalidConfig, t.DriftMinSamples)
	}
	if t.SeedConfidence >= t.AutoApplyMin {
		return fmt.Errorf("%w: seed_confidence (%v) must stay below auto_apply_min (%v)",
			common.ErrInvalidConfig, t.SeedConfidence, t.AutoApplyMin)
	}
	return nil
}
