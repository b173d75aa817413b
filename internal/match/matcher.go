// Package match implements the tiered candidate matcher that resolves an
// inbound record to at most one target, and the confidence classifier
// that routes the result.
package match

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

// Fixed confidences for the deterministic tiers.
const (
	// ThreadConfidence is assigned when a record inherits a link from an
	// earlier record in the same thread.
	ThreadConfidence = 0.95
	// CodeConfidence is assigned when an explicit entity code token in
	// the subject or body resolves against the target catalog.
	CodeConfidence = 0.98
)

// Candidate is the single best (target, confidence, method) produced by
// matching one record. PatternIDs names the patterns that contributed, so
// the feedback learner can score them once the outcome settles.
type Candidate struct {
	Target     model.TargetRef
	Method     model.MatchMethod
	PatternIDs []int64
	Confidence float64
}

// LinkSource provides the lookups the deterministic tiers need.
type LinkSource interface {
	GetActiveLinkByThread(ctx context.Context, threadID string) (*model.Link, error)
	GetTargetByCode(ctx context.Context, code string) (*model.Target, error)
}

// Matcher evaluates the tier pipeline against one record. Matching is
// stateless and read-only; it is safe to run concurrently across records.
type Matcher struct {
	links    LinkSource
	patterns ActivePatternSource
}

// NewMatcher creates a matcher reading links and targets from links and
// active patterns from patterns (typically a *Cache).
func NewMatcher(links LinkSource, patterns ActivePatternSource) *Matcher {
	return &Matcher{
		links:    links,
		patterns: patterns,
	}
}

// Match runs the tier pipeline in fixed priority order; the first tier
// that yields any match short-circuits the rest. A nil candidate with a
// nil error is the NoMatch classification: a valid terminal result, not
// an error.
func (m *Matcher) Match(ctx context.Context, record model.Record) (*Candidate, error) {
	// Tier 1: thread inheritance.
	candidate, err := m.matchThread(ctx, record)
	if err != nil {
		return nil, err
	}
	if candidate != nil {
		return candidate, nil
	}

	// Tier 2: explicit code token.
	candidate, err = m.matchCode(ctx, record)
	if err != nil {
		return nil, err
	}
	if candidate != nil {
		return candidate, nil
	}

	// Tiers 3-5: learned patterns.
	patterns, err := m.patterns.GetActivePatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}

	for _, tier := range []struct {
		match      func(model.Record, model.Pattern) bool
		method     model.MatchMethod
		kind       model.PatternType
	}{
		{matchSenderPattern, model.MethodSenderMatch, model.PatternSender},
		{matchDomainPattern, model.MethodDomainMatch, model.PatternDomain},
		{matchKeywordPattern, model.MethodKeywordMatch, model.PatternKeyword},
	} {
		if candidate := bestInTier(record, patterns, tier.kind, tier.method, tier.match); candidate != nil {
			return candidate, nil
		}
	}

	return nil, nil
}

func (m *Matcher) matchThread(ctx context.Context, record model.Record) (*Candidate, error) {
	if record.ThreadID == "" {
		return nil, nil
	}

	link, err := m.links.GetActiveLinkByThread(ctx, record.ThreadID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("thread lookup failed: %w", err)
	}

	return &Candidate{
		Target:     model.TargetRef{Type: link.TargetType, ID: link.TargetID},
		Confidence: ThreadConfidence,
		Method:     model.MethodThreadInheritance,
	}, nil
}

func (m *Matcher) matchCode(ctx context.Context, record model.Record) (*Candidate, error) {
	codes := ExtractCodes(record.Subject + "\n" + record.Body)
	for _, code := range codes {
		target, err := m.links.GetTargetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("code lookup failed: %w", err)
		}
		return &Candidate{
			Target:     model.TargetRef{Type: target.Type, ID: target.ID},
			Confidence: CodeConfidence,
			Method:     model.MethodCodeInSubject,
		}, nil
	}
	return nil, nil
}

// bestInTier picks the first matching pattern of the given type. Patterns
// arrive ordered by descending confidence with created_at ascending as
// the tie-break, so the first hit is the tier winner.
func bestInTier(record model.Record, patterns []model.Pattern, kind model.PatternType, method model.MatchMethod, matches func(model.Record, model.Pattern) bool) *Candidate {
	for _, pattern := range patterns {
		if pattern.Type != kind {
			continue
		}
		if !matches(record, pattern) {
			continue
		}
		return &Candidate{
			Target:     model.TargetRef{Type: pattern.TargetType, ID: pattern.TargetID},
			Confidence: model.ClampConfidence(pattern.Confidence),
			Method:     method,
			PatternIDs: []int64{pattern.ID},
		}
	}
	return nil
}

func matchSenderPattern(record model.Record, pattern model.Pattern) bool {
	return record.Sender != "" &&
		strings.EqualFold(record.Sender, pattern.Key)
}

func matchDomainPattern(record model.Record, pattern model.Pattern) bool {
	return record.Domain != "" &&
		strings.EqualFold(record.Domain, pattern.Key)
}

func matchKeywordPattern(record model.Record, pattern model.Pattern) bool {
	key := strings.ToLower(pattern.Key)
	if key == "" {
		return false
	}
	text := strings.ToLower(record.Subject + "\n" + record.Body)
	return strings.Contains(text, key)
}
