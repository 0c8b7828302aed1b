// Package service defines the external collaborator contracts the
// validation engine depends on, plus in-process implementations of them.
package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/openobs/validator/model"
)

// ErrNotFound is returned when a concept cannot be found.
var ErrNotFound = errors.New("concept not found")

// ErrNotSupported is returned when a resolver does not handle the request.
var ErrNotSupported = errors.New("operation not supported")

// NumericRange holds the numeric metadata a concept dictionary keeps for a
// numeric concept: whether fractional values are allowed and the optional
// absolute bounds.
type NumericRange struct {
	// Precise is true when fractional values are allowed. When false the
	// engine rejects non-integral values with a precision issue.
	Precise bool `json:"precise"`

	// LowAbsolute is the inclusive lower bound, nil when unbounded.
	LowAbsolute *decimal.Decimal `json:"lowAbsolute,omitempty"`

	// HiAbsolute is the inclusive upper bound, nil when unbounded.
	HiAbsolute *decimal.Decimal `json:"hiAbsolute,omitempty"`
}

// --- Small Interfaces (Go idiom: 1-2 methods per interface) ---

// ConceptRangeResolver looks up the numeric metadata for a concept.
// It must succeed for any concept whose datatype is numeric; failure to
// resolve one is a dictionary contract violation, and the engine surfaces
// it as a fatal error rather than a reported issue.
type ConceptRangeResolver interface {
	ResolveNumericRange(ctx context.Context, conceptID int) (*NumericRange, error)
}

// ComplexValueResolver extracts the underlying value of a complex-typed
// observation through the handler named on its concept. A nil value with a
// nil error is the documented absence signal and triggers an "invalid"
// issue, not a fault.
type ComplexValueResolver interface {
	ResolveComplexValue(ctx context.Context, handler string, obs *model.Observation) (any, error)
}

// ComplexHandler is a pluggable extractor for one complex storage scheme.
type ComplexHandler interface {
	// GetValue returns the extracted value, or nil when the observation's
	// complex payload cannot be resolved to anything.
	GetValue(ctx context.Context, obs *model.Observation) (any, error)
}

// HandlerFunc adapts a plain function to the ComplexHandler interface.
type HandlerFunc func(ctx context.Context, obs *model.Observation) (any, error)

// GetValue calls the wrapped function.
func (f HandlerFunc) GetValue(ctx context.Context, obs *model.Observation) (any, error) {
	return f(ctx, obs)
}
