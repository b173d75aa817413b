// Package model defines the core domain models used throughout the application.
package model

// TargetType identifies the kind of business entity a record can link to.
type TargetType string

// Target type constants.
const (
	TargetProposal TargetType = "proposal"
	TargetProject  TargetType = "project"
	TargetContact  TargetType = "contact"
)

// Valid reports whether the target type is one of the known kinds.
func (t TargetType) Valid() bool {
	switch t {
	case TargetProposal, TargetProject, TargetContact:
		return true
	}
	return false
}

// Target is a reference to a canonical business entity (proposal, project
// or contact). The linker treats it as an opaque lookup key; the business
// data itself is owned elsewhere.
type Target struct {
	Type   TargetType `json:"type" yaml:"type"`
	ID     string     `json:"id" yaml:"id"`
	Code   string     `json:"code" yaml:"code"`
	Name   string     `json:"name" yaml:"name"`
	Status string     `json:"status,omitempty" yaml:"status,omitempty"`
}

// TargetRef identifies a target without carrying its code or name.
type TargetRef struct {
	Type TargetType `json:"type" yaml:"type"`
	ID   string     `json:"id" yaml:"id"`
}
