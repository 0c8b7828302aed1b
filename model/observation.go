// Package model holds the in-memory observation tree the engine validates.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Observation is one node of an observation tree: a leaf carrying a single
// value, or a group owning child observations in GroupMembers.
//
// The value slots are mutually exclusive in intent: exactly one is the
// active slot for a leaf, and none are active for a group. The engine only
// reads observations; identity (pointer equality) is what cycle detection
// in the grouping graph keys on, so nodes must not be copied mid-tree.
type Observation struct {
	// PersonID identifies the subject the observation was made on.
	PersonID *int `json:"personId,omitempty"`

	// ObservedAt is the moment the observation was made.
	ObservedAt *time.Time `json:"observedAt,omitempty"`

	// Concept declares what this observation records and, through its
	// datatype, which value slot must be populated.
	Concept *Concept `json:"concept,omitempty"`

	ValueBoolean   *bool            `json:"valueBoolean,omitempty"`
	ValueCoded     *Concept         `json:"valueCoded,omitempty"`
	ValueCodedName *string          `json:"valueCodedName,omitempty"`
	ValueComplex   *string          `json:"valueComplex,omitempty"`
	ValueDatetime  *time.Time       `json:"valueDatetime,omitempty"`
	ValueDrug      *string          `json:"valueDrug,omitempty"`
	ValueModifier  *string          `json:"valueModifier,omitempty"`
	ValueNumeric   *decimal.Decimal `json:"valueNumeric,omitempty"`
	ValueText      *string          `json:"valueText,omitempty"`

	// GroupMembers holds the child observations, in order. Non-empty
	// exactly when this node is a group.
	GroupMembers []*Observation `json:"groupMembers,omitempty"`
}

// IsGroup reports whether this observation is a grouping node.
func (o *Observation) IsGroup() bool {
	return len(o.GroupMembers) > 0
}

// HasValue reports whether any value slot is populated.
func (o *Observation) HasValue() bool {
	return o.ValueBoolean != nil ||
		o.ValueCoded != nil ||
		o.ValueCodedName != nil ||
		o.ValueComplex != nil ||
		o.ValueDatetime != nil ||
		o.ValueDrug != nil ||
		o.ValueModifier != nil ||
		o.ValueNumeric != nil ||
		o.ValueText != nil
}
