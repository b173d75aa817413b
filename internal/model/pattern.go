package model

import "time"

// PatternType identifies which record attribute a pattern keys on.
type PatternType string

// Pattern type constants.
const (
	PatternSender  PatternType = "sender"
	PatternDomain  PatternType = "domain"
	PatternKeyword PatternType = "keyword"
	PatternThread  PatternType = "thread"
)

// Valid reports whether the pattern type is one of the known kinds.
func (t PatternType) Valid() bool {
	switch t {
	case PatternSender, PatternDomain, PatternKeyword, PatternThread:
		return true
	}
	return false
}

// Pattern is a learned rule predicting a target from a record attribute,
// with empirically tracked accuracy. At most one pattern exists per
// (type, key, target). Patterns are never deleted; drifting patterns are
// deactivated instead, preserving history.
type Pattern struct {
	CreatedAt    time.Time   `json:"created_at"`
	LastUsedAt   *time.Time  `json:"last_used_at,omitempty"`
	Type         PatternType `json:"type"`
	Key          string      `json:"key"`
	TargetType   TargetType  `json:"target_type"`
	TargetID     string      `json:"target_id"`
	ID           int64       `json:"id"`
	TimesUsed    int         `json:"times_used"`
	TimesCorrect int         `json:"times_correct"`
	Confidence   float64     `json:"confidence"`
	Active       bool        `json:"active"`
}

// ClampConfidence forces a confidence value into [0,1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
