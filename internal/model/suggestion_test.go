package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestionStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from SuggestionStatus
		to   SuggestionStatus
		want bool
	}{
		{name: "pending to approved", from: SuggestionPending, to: SuggestionApproved, want: true},
		{name: "pending to rejected", from: SuggestionPending, to: SuggestionRejected, want: true},
		{name: "approved to applied", from: SuggestionApproved, to: SuggestionApplied, want: true},
		{name: "approved to failed", from: SuggestionApproved, to: SuggestionFailed, want: true},
		{name: "pending to applied skips approval", from: SuggestionPending, to: SuggestionApplied, want: false},
		{name: "pending to failed skips approval", from: SuggestionPending, to: SuggestionFailed, want: false},
		{name: "approved to rejected", from: SuggestionApproved, to: SuggestionRejected, want: false},
		{name: "applied is terminal", from: SuggestionApplied, to: SuggestionApproved, want: false},
		{name: "rejected is terminal", from: SuggestionRejected, to: SuggestionApproved, want: false},
		{name: "failed is terminal", from: SuggestionFailed, to: SuggestionApproved, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestSuggestion_Transition(t *testing.T) {
	s := &Suggestion{ID: "s1", Status: SuggestionPending}

	require.NoError(t, s.Transition(SuggestionApproved))
	assert.Equal(t, SuggestionApproved, s.Status)
	assert.Nil(t, s.DecidedAt, "approved is not terminal")

	require.NoError(t, s.Transition(SuggestionApplied))
	assert.Equal(t, SuggestionApplied, s.Status)
	require.NotNil(t, s.DecidedAt, "terminal states stamp the decision time")

	err := s.Transition(SuggestionApproved)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, SuggestionApplied, s.Status, "failed transition must not mutate status")
}

func TestSuggestionStatus_Terminal(t *testing.T) {
	assert.False(t, SuggestionPending.Terminal())
	assert.False(t, SuggestionApproved.Terminal())
	assert.True(t, SuggestionApplied.Terminal())
	assert.True(t, SuggestionFailed.Terminal())
	assert.True(t, SuggestionRejected.Terminal())
}

func TestDeriveBatchStatus(t *testing.T) {
	tests := []struct {
		name    string
		members []SuggestionStatus
		want    BatchStatus
	}{
		{name: "empty batch is pending", members: nil, want: BatchPending},
		{name: "any pending member keeps batch open", members: []SuggestionStatus{SuggestionApplied, SuggestionPending}, want: BatchPending},
		{name: "all applied", members: []SuggestionStatus{SuggestionApplied, SuggestionApplied}, want: BatchDone},
		{name: "all rejected", members: []SuggestionStatus{SuggestionRejected}, want: BatchDone},
		{name: "mixed outcomes", members: []SuggestionStatus{SuggestionApplied, SuggestionRejected}, want: BatchMixed},
		{name: "failure makes the batch mixed", members: []SuggestionStatus{SuggestionApplied, SuggestionFailed}, want: BatchMixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveBatchStatus(tt.members))
		})
	}
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-0.5))
	assert.Equal(t, 1.0, ClampConfidence(1.5))
	assert.Equal(t, 0.73, ClampConfidence(0.73))
}
