package match

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/config"
)

func TestClassifier_Classify(t *testing.T) {
	classifier, err := NewClassifier(config.DefaultThresholds())
	require.NoError(t, err)

	tests := []struct {
		name       string
		confidence float64
		want       Band
	}{
		{name: "at auto-apply cutoff", confidence: 0.95, want: BandAutoApply},
		{name: "above auto-apply cutoff", confidence: 0.98, want: BandAutoApply},
		{name: "just below auto-apply", confidence: 0.9499, want: BandBatchReview},
		{name: "at batch cutoff", confidence: 0.80, want: BandBatchReview},
		{name: "between batch and individual", confidence: 0.72, want: BandIndividualReview},
		{name: "at individual cutoff", confidence: 0.60, want: BandIndividualReview},
		{name: "below review floor", confidence: 0.59, want: BandLogOnly},
		{name: "zero", confidence: 0, want: BandLogOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Classify(tt.confidence))
		})
	}
}

func TestNewClassifier_RejectsBadThresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Thresholds)
	}{
		{
			name:   "auto below batch",
			mutate: func(th *config.Thresholds) { th.AutoApplyMin = 0.70 },
		},
		{
			name:   "batch below individual",
			mutate: func(th *config.Thresholds) { th.BatchReviewMin = 0.50 },
		},
		{
			name:   "confidence out of range",
			mutate: func(th *config.Thresholds) { th.AutoApplyMin = 1.5 },
		},
		{
			name:   "zero drift samples",
			mutate: func(th *config.Thresholds) { th.DriftMinSamples = 0 },
		},
		{
			name:   "seed confidence can auto-apply",
			mutate: func(th *config.Thresholds) { th.SeedConfidence = 0.96 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds := config.DefaultThresholds()
			tt.mutate(&thresholds)

			_, err := NewClassifier(thresholds)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidConfig))
		})
	}
}

func TestClassifier_EqualThresholdsCollapseBands(t *testing.T) {
	thresholds := config.DefaultThresholds()
	thresholds.BatchReviewMin = 0.95

	classifier, err := NewClassifier(thresholds)
	require.NoError(t, err)

	// With batch_review_min == auto_apply_min the batch band is empty.
	assert.Equal(t, BandAutoApply, classifier.Classify(0.95))
	assert.Equal(t, BandIndividualReview, classifier.Classify(0.94))
}
