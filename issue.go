package obsvalidator

// Code identifies a validation failure. Codes are stable strings consumed
// by callers (and ultimately by the message catalog, which is out of scope
// here), so they must never change once published.
type Code string

const (
	// CodeNull indicates a required field is missing.
	CodeNull Code = "null"
	// CodeNotNull indicates a field that must be empty carries a value
	// (a value slot populated on an observation group).
	CodeNotNull Code = "not-null"
	// CodeNoValue indicates a leaf observation carries no value at all.
	CodeNoValue Code = "no-value"
	// CodePrecision indicates a fractional numeric value where the concept
	// demands whole numbers.
	CodePrecision Code = "precision"
	// CodeOutOfRangeHigh indicates a numeric value above the concept's
	// absolute high bound.
	CodeOutOfRangeHigh Code = "out-of-range-high"
	// CodeOutOfRangeLow indicates a numeric value below the concept's
	// absolute low bound.
	CodeOutOfRangeLow Code = "out-of-range-low"
	// CodeExceededMaxLength indicates a text value longer than the maximum.
	CodeExceededMaxLength Code = "exceeded-max-length"
	// CodeInvalid indicates a complex value the configured handler could
	// not extract anything from.
	CodeInvalid Code = "invalid"
	// CodeInGroupMember indicates a datatype failure on a nested group
	// member. Nested datatype failures collapse to this code on the
	// groupMembers field because the error report can only address fields
	// of the observation validation was invoked on.
	CodeInGroupMember Code = "in-group-member"
	// CodeGroupContainsItself indicates the grouping graph reaches back
	// into one of its own ancestors.
	CodeGroupContainsItself Code = "group-contains-itself"
)

// Field names addressable in an error report. These form the consumer
// contract together with the codes above; FieldObject ("") marks an
// object-level issue not tied to any one field.
const (
	FieldObject         = ""
	FieldPerson         = "person"
	FieldObservedAt     = "observedAt"
	FieldConcept        = "concept"
	FieldGroupMembers   = "groupMembers"
	FieldValueBoolean   = "valueBoolean"
	FieldValueCoded     = "valueCoded"
	FieldValueCodedName = "valueCodedName"
	FieldValueComplex   = "valueComplex"
	FieldValueDatetime  = "valueDatetime"
	FieldValueDrug      = "valueDrug"
	FieldValueModifier  = "valueModifier"
	FieldValueNumeric   = "valueNumeric"
	FieldValueText      = "valueText"
)

// Issue is a single recorded validation failure: the field it is bound to
// and the code describing it.
type Issue struct {
	// Field is the field path relative to the observation validation was
	// invoked on. Empty means an object-level issue.
	Field string `json:"field"`

	// Code identifies the failure.
	Code Code `json:"code"`
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	if i.Field == FieldObject {
		return string(i.Code)
	}
	return i.Field + ": " + string(i.Code)
}
