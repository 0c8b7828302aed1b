package model

// Datatype is the closed set of concept datatypes the engine dispatches on.
// Unlisted values are legal; they simply carry no datatype-specific rule.
type Datatype string

const (
	DatatypeBoolean  Datatype = "boolean"
	DatatypeCoded    Datatype = "coded"
	DatatypeDateTime Datatype = "datetime"
	DatatypeDate     Datatype = "date"
	DatatypeTime     Datatype = "time"
	DatatypeNumeric  Datatype = "numeric"
	DatatypeText     Datatype = "text"
	DatatypeComplex  Datatype = "complex"
	// DatatypeNA marks concepts that carry no value of their own,
	// typically grouping concepts.
	DatatypeNA Datatype = "n/a"
)

// IsDateFamily reports whether the datatype stores its value in the
// datetime slot (datetime, date and time all share it).
func (d Datatype) IsDateFamily() bool {
	return d == DatatypeDateTime || d == DatatypeDate || d == DatatypeTime
}

// Concept is the reference dictionary entry an observation is recorded
// against. Its datatype drives every downstream type check.
type Concept struct {
	// ID is the dictionary identifier used to key resolver lookups.
	ID int `json:"id"`

	// Name is the display name, informational only.
	Name string `json:"name,omitempty"`

	// Datatype declares what kind of value observations of this concept
	// must carry.
	Datatype Datatype `json:"datatype"`

	// Handler names the pluggable value extractor for complex concepts.
	// Empty for every other datatype.
	Handler string `json:"handler,omitempty"`
}
