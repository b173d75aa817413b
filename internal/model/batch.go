package model

import "time"

// BatchStatus is derived from member suggestion statuses; it is
// bookkeeping, not a transactional boundary.
type BatchStatus string

// Batch status constants.
const (
	// BatchPending means at least one member still awaits a decision.
	BatchPending BatchStatus = "pending"
	// BatchDone means every member settled the same way (all applied or
	// all rejected).
	BatchDone BatchStatus = "done"
	// BatchMixed means every member is terminal but outcomes differ.
	BatchMixed BatchStatus = "mixed"
)

// Batch groups suggestions that share a grouping key (sender or domain
// plus proposed target) so one human decision fans out to all members.
type Batch struct {
	CreatedAt  time.Time  `json:"created_at"`
	ID         string     `json:"id"`
	GroupKey   string     `json:"group_key"`
	TargetType TargetType `json:"target_type"`
	TargetID   string     `json:"target_id"`
}

// BatchSummary is a batch together with its derived status and member
// counts.
type BatchSummary struct {
	Batch    Batch       `json:"batch"`
	Status   BatchStatus `json:"status"`
	Members  int         `json:"members"`
	Pending  int         `json:"pending"`
	Applied  int         `json:"applied"`
	Failed   int         `json:"failed"`
	Rejected int         `json:"rejected"`
}

// DeriveBatchStatus computes the batch status from member statuses.
func DeriveBatchStatus(members []SuggestionStatus) BatchStatus {
	if len(members) == 0 {
		return BatchPending
	}
	applied, rejected := 0, 0
	for _, st := range members {
		if !st.Terminal() {
			return BatchPending
		}
		switch st {
		case SuggestionApplied:
			applied++
		case SuggestionRejected:
			rejected++
		}
	}
	if applied == len(members) || rejected == len(members) {
		return BatchDone
	}
	return BatchMixed
}
