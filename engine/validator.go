// Package engine implements the recursive observation validation engine.
package engine

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	ov "github.com/openobs/validator"
	"github.com/openobs/validator/model"
	"github.com/openobs/validator/service"
)

// Validator validates observation trees against their concepts' datatype
// rules. It is safe for concurrent use: each Validate call keeps its own
// ancestor stack and result, and the tree itself is never mutated.
type Validator struct {
	ranges  service.ConceptRangeResolver
	complex service.ComplexValueResolver
	options *ov.Options
	metrics *ov.Metrics
}

// New creates a Validator using the given resolvers.
// The range resolver may be nil only if no numeric concepts will ever be
// validated; likewise the complex resolver for complex concepts. Range
// lookups are cached per the configured cache size, so one dictionary hit
// serves every numeric leaf recorded against the same concept.
func New(ranges service.ConceptRangeResolver, complexValues service.ComplexValueResolver, opts ...ov.Option) *Validator {
	options := ov.DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	if ranges != nil && options.RangeCacheSize > 0 {
		ranges = service.NewCachedRangeResolver(ranges, options.RangeCacheSize)
	}

	return &Validator{
		ranges:  ranges,
		complex: complexValues,
		options: options,
		metrics: ov.NewMetrics(),
	}
}

// Metrics returns the validator's metrics.
func (v *Validator) Metrics() *ov.Metrics {
	return v.metrics
}

// Options returns the validator's options.
func (v *Validator) Options() *ov.Options {
	return v.options
}

// Validate walks the observation tree depth-first and returns the issues
// found. The tree is only read; the returned Result is owned by the
// caller (Release it when done).
//
// The error return is reserved for resolver contract violations: a
// numeric concept the range resolver cannot explain, or a complex concept
// whose handler is unknown. Those indicate a corrupted dictionary
// reference, not an invalid observation, so they are not reported as
// issues.
func (v *Validator) Validate(ctx context.Context, obs *model.Observation) (*ov.Result, error) {
	start := time.Now()

	result := ov.AcquireResult()
	if err := v.validateNode(ctx, obs, result, nil, true); err != nil {
		v.metrics.RecordValidation(time.Since(start), false)
		result.Release()
		return nil, err
	}

	for _, issue := range result.Issues {
		v.metrics.RecordIssue(issue.Code)
	}
	v.metrics.RecordValidation(time.Since(start), !result.HasErrors())
	return result, nil
}

// valueSlot pairs a value slot's field name with its presence predicate,
// in the canonical slot-check order.
type valueSlot struct {
	field string
	set   func(*model.Observation) bool
}

var valueSlots = []valueSlot{
	{ov.FieldValueBoolean, func(o *model.Observation) bool { return o.ValueBoolean != nil }},
	{ov.FieldValueCoded, func(o *model.Observation) bool { return o.ValueCoded != nil }},
	{ov.FieldValueCodedName, func(o *model.Observation) bool { return o.ValueCodedName != nil }},
	{ov.FieldValueComplex, func(o *model.Observation) bool { return o.ValueComplex != nil }},
	{ov.FieldValueDatetime, func(o *model.Observation) bool { return o.ValueDatetime != nil }},
	{ov.FieldValueDrug, func(o *model.Observation) bool { return o.ValueDrug != nil }},
	{ov.FieldValueModifier, func(o *model.Observation) bool { return o.ValueModifier != nil }},
	{ov.FieldValueNumeric, func(o *model.Observation) bool { return o.ValueNumeric != nil }},
	{ov.FieldValueText, func(o *model.Observation) bool { return o.ValueText != nil }},
}

// validateNode checks one node, then recurses into group members while the
// report is still clean. ancestors is the path from the root to (not
// including) obs; atRoot is true only for the observation Validate was
// invoked on, because field binding in the report is relative to it.
func (v *Validator) validateNode(ctx context.Context, obs *model.Observation, result *ov.Result, ancestors []*model.Observation, atRoot bool) error {
	if obs.PersonID == nil {
		result.Reject(ov.FieldPerson, ov.CodeNull)
	}
	if obs.ObservedAt == nil {
		result.Reject(ov.FieldObservedAt, ov.CodeNull)
	}

	// A group carries no leaf value of its own; a leaf must carry one
	// before the datatype rules refine which.
	if obs.IsGroup() {
		for _, slot := range valueSlots {
			if slot.set(obs) {
				result.Reject(slot.field, ov.CodeNotNull)
			}
		}
	} else if !obs.HasValue() {
		result.RejectObject(ov.CodeNoValue)
	}

	// Datatype conformance is a leaf concern; a group's own value rules
	// are exhausted by the slot checks above.
	if obs.Concept == nil {
		result.Reject(ov.FieldConcept, ov.CodeNull)
	} else if !obs.IsGroup() {
		if err := v.checkDatatype(ctx, obs, result, atRoot); err != nil {
			return err
		}
	}

	// A node that failed its own checks suppresses its whole subtree,
	// including the cycle check.
	if result.HasErrors() {
		return nil
	}

	for _, ancestor := range ancestors {
		if ancestor == obs {
			result.Reject(ov.FieldGroupMembers, ov.CodeGroupContainsItself)
			return nil
		}
	}

	if obs.IsGroup() {
		ancestors = append(ancestors, obs)
		for _, member := range obs.GroupMembers {
			if err := v.validateNode(ctx, member, result, ancestors, false); err != nil {
				return err
			}
		}
	}

	return nil
}

// checkDatatype applies the rules for the concept's declared datatype.
// Unmapped datatypes carry no constraint. Unlike the structural checks,
// every failure here is addressed through rejectValue: below the root it
// collapses to the groupMembers indicator.
func (v *Validator) checkDatatype(ctx context.Context, obs *model.Observation, result *ov.Result, atRoot bool) error {
	dt := obs.Concept.Datatype

	switch {
	case dt == model.DatatypeBoolean && obs.ValueBoolean == nil:
		rejectValue(result, ov.FieldValueBoolean, ov.CodeNull, atRoot)

	case dt == model.DatatypeCoded && obs.ValueCoded == nil:
		rejectValue(result, ov.FieldValueCoded, ov.CodeNull, atRoot)

	case dt.IsDateFamily() && obs.ValueDatetime == nil:
		rejectValue(result, ov.FieldValueDatetime, ov.CodeNull, atRoot)

	case dt == model.DatatypeNumeric && obs.ValueNumeric == nil:
		rejectValue(result, ov.FieldValueNumeric, ov.CodeNull, atRoot)

	case dt == model.DatatypeNumeric:
		if err := v.checkNumeric(ctx, obs, result, atRoot); err != nil {
			return err
		}

	case dt == model.DatatypeText && obs.ValueText == nil:
		rejectValue(result, ov.FieldValueText, ov.CodeNull, atRoot)

	case dt == model.DatatypeComplex:
		if err := v.checkComplex(ctx, obs, result, atRoot); err != nil {
			return err
		}
	}

	// The length check runs outside the branch above so it fires even
	// when the null check for some other datatype already has.
	if dt == model.DatatypeText && obs.ValueText != nil &&
		utf8.RuneCountInString(*obs.ValueText) > v.options.MaxTextLength {
		rejectValue(result, ov.FieldValueText, ov.CodeExceededMaxLength, atRoot)
	}

	return nil
}

// checkNumeric applies the precision and absolute-range rules. The three
// checks are independent; all may fire on the same value.
func (v *Validator) checkNumeric(ctx context.Context, obs *model.Observation, result *ov.Result, atRoot bool) error {
	if v.ranges == nil {
		return fmt.Errorf("numeric concept %d: no range resolver configured", obs.Concept.ID)
	}

	nr, err := v.ranges.ResolveNumericRange(ctx, obs.Concept.ID)
	if err != nil {
		return fmt.Errorf("resolve numeric range: %w", err)
	}
	if nr == nil {
		return fmt.Errorf("numeric concept %d: resolver returned no range", obs.Concept.ID)
	}

	if !nr.Precise && !obs.ValueNumeric.IsInteger() {
		rejectValue(result, ov.FieldValueNumeric, ov.CodePrecision, atRoot)
	}
	if nr.HiAbsolute != nil && obs.ValueNumeric.GreaterThan(*nr.HiAbsolute) {
		rejectValue(result, ov.FieldValueNumeric, ov.CodeOutOfRangeHigh, atRoot)
	}
	if nr.LowAbsolute != nil && obs.ValueNumeric.LessThan(*nr.LowAbsolute) {
		rejectValue(result, ov.FieldValueNumeric, ov.CodeOutOfRangeLow, atRoot)
	}

	return nil
}

// checkComplex requires a non-empty complex payload and a handler that can
// extract a value from it. The handler is consulted even when the payload
// is empty, so one observation can collect both issues.
func (v *Validator) checkComplex(ctx context.Context, obs *model.Observation, result *ov.Result, atRoot bool) error {
	if obs.ValueComplex == nil || *obs.ValueComplex == "" {
		rejectValue(result, ov.FieldValueComplex, ov.CodeNull, atRoot)
	}

	if v.complex == nil {
		return fmt.Errorf("complex concept %d: no complex value resolver configured", obs.Concept.ID)
	}

	value, err := v.complex.ResolveComplexValue(ctx, obs.Concept.Handler, obs)
	if err != nil {
		return fmt.Errorf("resolve complex value: %w", err)
	}
	if value == nil {
		rejectValue(result, ov.FieldValueComplex, ov.CodeInvalid, atRoot)
	}

	return nil
}

// rejectValue records a datatype failure. At the root it binds to the
// natural field; below the root the report can only address root fields,
// so it collapses to the groupMembers indicator.
func rejectValue(result *ov.Result, field string, code ov.Code, atRoot bool) {
	if atRoot {
		result.Reject(field, code)
	} else {
		result.Reject(ov.FieldGroupMembers, ov.CodeInGroupMember)
	}
}
