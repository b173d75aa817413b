package match

import (
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/config"
)

// Band is the routing decision for a candidate's confidence.
type Band string

// Routing bands, highest confidence first.
const (
	BandAutoApply        Band = "auto_apply"
	BandBatchReview      Band = "batch_review"
	BandIndividualReview Band = "individual_review"
	BandLogOnly          Band = "log_only"
)

// Classifier routes a candidate's confidence into a band. It is a pure
// function of the configured thresholds.
type Classifier struct {
	thresholds config.Thresholds
}

// NewClassifier creates a classifier after validating threshold ordering.
// An ordering violation is fatal configuration, not a runtime condition.
func NewClassifier(thresholds config.Thresholds) (*Classifier, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{thresholds: thresholds}, nil
}

// Classify returns the band for a confidence value.
func (c *Classifier) Classify(confidence float64) Band {
	switch {
	case confidence >= c.thresholds.AutoApplyMin:
		return BandAutoApply
	case confidence >= c.thresholds.BatchReviewMin:
		return BandBatchReview
	case confidence >= c.thresholds.IndividualReviewMin:
		return BandIndividualReview
	default:
		return BandLogOnly
	}
}

// Thresholds exposes the validated configuration.
func (c *Classifier) Thresholds() config.Thresholds {
	return c.thresholds
}
