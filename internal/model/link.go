package model

import "time"

// MatchMethod records which matcher tier produced a candidate.
type MatchMethod string

// Match method constants, one per matcher tier.
const (
	MethodThreadInheritance MatchMethod = "thread_inheritance"
	MethodCodeInSubject     MatchMethod = "code_in_subject"
	MethodSenderMatch       MatchMethod = "sender_match"
	MethodDomainMatch       MatchMethod = "domain_match"
	MethodKeywordMatch      MatchMethod = "keyword_match"
	MethodManual            MatchMethod = "manual"
)

// Link is the durable association between a record and a target. A record
// holds at most one active link per target type. Links are immutable;
// superseding one requires an explicit unlink, never an overwrite.
type Link struct {
	CreatedAt  time.Time   `json:"created_at"`
	UnlinkedAt *time.Time  `json:"unlinked_at,omitempty"`
	ID         string      `json:"id"`
	RecordID   string      `json:"record_id"`
	TargetType TargetType  `json:"target_type"`
	TargetID   string      `json:"target_id"`
	Method     MatchMethod `json:"method"`
	Confidence float64     `json:"confidence"`
	Active     bool        `json:"active"`
}
