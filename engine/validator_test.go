package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	ov "github.com/openobs/validator"
	"github.com/openobs/validator/model"
	"github.com/openobs/validator/service"
)

func intp(v int) *int { return &v }

func boolp(v bool) *bool { return &v }

func strp(v string) *string { return &v }

func timep(v time.Time) *time.Time { return &v }

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// leaf builds a minimally valid observation for the given concept.
func leaf(c *model.Concept) *model.Observation {
	return &model.Observation{
		PersonID:   intp(7),
		ObservedAt: timep(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)),
		Concept:    c,
	}
}

func concept(id int, dt model.Datatype) *model.Concept {
	return &model.Concept{ID: id, Datatype: dt}
}

// newValidator builds an engine over a fresh in-memory concept service.
func newValidator(t *testing.T, opts ...ov.Option) (*Validator, *service.InMemoryConceptService) {
	t.Helper()
	concepts := service.NewInMemoryConceptService()
	return New(concepts, concepts, opts...), concepts
}

func mustValidate(t *testing.T, v *Validator, obs *model.Observation) *ov.Result {
	t.Helper()
	result, err := v.Validate(context.Background(), obs)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return result
}

func wantIssues(t *testing.T, result *ov.Result, want []ov.Issue) {
	t.Helper()
	if len(result.Issues) != len(want) {
		t.Fatalf("issues = %v; want %v", result.Issues, want)
	}
	for i, issue := range result.Issues {
		if issue != want[i] {
			t.Errorf("issues[%d] = %v; want %v", i, issue, want[i])
		}
	}
}

func TestValidate_HappyPath(t *testing.T) {
	v, _ := newValidator(t)

	obs := leaf(concept(1, model.DatatypeBoolean))
	obs.ValueBoolean = boolp(true)

	result := mustValidate(t, v, obs)
	if result.HasErrors() {
		t.Errorf("HasErrors() = true; issues = %v", result.Issues)
	}
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	v, _ := newValidator(t)

	obs := &model.Observation{}

	result := mustValidate(t, v, obs)
	wantIssues(t, result, []ov.Issue{
		{Field: ov.FieldPerson, Code: ov.CodeNull},
		{Field: ov.FieldObservedAt, Code: ov.CodeNull},
		{Field: ov.FieldObject, Code: ov.CodeNoValue},
		{Field: ov.FieldConcept, Code: ov.CodeNull},
	})
}

func TestValidate_PresenceErrorsKeepFieldNamesAtDepth(t *testing.T) {
	v, _ := newValidator(t)

	child := &model.Observation{
		ObservedAt:   timep(time.Now()),
		Concept:      concept(2, model.DatatypeBoolean),
		ValueBoolean: boolp(false),
	}
	group := leaf(concept(1, model.DatatypeNA))
	group.GroupMembers = []*model.Observation{child}

	result := mustValidate(t, v, group)
	// The child's missing person is bound to its natural field even
	// though the child is not the root.
	wantIssues(t, result, []ov.Issue{
		{Field: ov.FieldPerson, Code: ov.CodeNull},
	})
}

func TestValidate_GroupWithValues(t *testing.T) {
	v, _ := newValidator(t)

	group := leaf(concept(1, model.DatatypeNA))
	group.ValueText = strp("should not be here")
	group.ValueNumeric = decp("42")
	group.GroupMembers = []*model.Observation{
		func() *model.Observation {
			o := leaf(concept(2, model.DatatypeBoolean))
			o.ValueBoolean = boolp(true)
			return o
		}(),
	}

	result := mustValidate(t, v, group)
	wantIssues(t, result, []ov.Issue{
		{Field: ov.FieldValueNumeric, Code: ov.CodeNotNull},
		{Field: ov.FieldValueText, Code: ov.CodeNotNull},
	})
}

func TestValidate_GroupSkipsDatatypeRules(t *testing.T) {
	v, _ := newValidator(t)

	// A boolean-typed group is odd but structurally legal: the required
	// slot rule applies to leaves, not to the group itself.
	group := leaf(concept(1, model.DatatypeBoolean))
	member := leaf(concept(2, model.DatatypeBoolean))
	member.ValueBoolean = boolp(true)
	group.GroupMembers = []*model.Observation{member}

	result := mustValidate(t, v, group)
	if result.HasErrors() {
		t.Errorf("HasErrors() = true; issues = %v", result.Issues)
	}
}

func TestValidate_LeafWithoutValue(t *testing.T) {
	v, _ := newValidator(t)

	result := mustValidate(t, v, leaf(concept(1, model.DatatypeNA)))
	wantIssues(t, result, []ov.Issue{
		{Field: ov.FieldObject, Code: ov.CodeNoValue},
	})
}

func TestValidate_RequiredSlotByDatatype(t *testing.T) {
	tests := []struct {
		name     string
		datatype model.Datatype
		field    string
	}{
		{"boolean", model.DatatypeBoolean, ov.FieldValueBoolean},
		{"coded", model.DatatypeCoded, ov.FieldValueCoded},
		{"datetime", model.DatatypeDateTime, ov.FieldValueDatetime},
		{"date", model.DatatypeDate, ov.FieldValueDatetime},
		{"time", model.DatatypeTime, ov.FieldValueDatetime},
		{"numeric", model.DatatypeNumeric, ov.FieldValueNumeric},
		{"text", model.DatatypeText, ov.FieldValueText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newValidator(t)

			// Populate an unrelated slot so the leaf passes the
			// no-value check and only the datatype rule fires.
			obs := leaf(concept(9, tt.datatype))
			obs.ValueModifier = strp(">")

			result := mustValidate(t, v, obs)
			wantIssues(t, result, []ov.Issue{
				{Field: tt.field, Code: ov.CodeNull},
			})
		})
	}
}

func TestValidate_CodedLeaf(t *testing.T) {
	v, _ := newValidator(t)

	obs := leaf(concept(3, model.DatatypeCoded))
	obs.ValueCoded = concept(88, model.DatatypeNA)

	result := mustValidate(t, v, obs)
	if result.HasErrors() {
		t.Errorf("HasErrors() = true; issues = %v", result.Issues)
	}
}

func TestValidate_NumericPrecision(t *testing.T) {
	v, concepts := newValidator(t)
	concepts.SetNumericRange(5, service.NumericRange{Precise: false})

	obs := leaf(concept(5, model.DatatypeNumeric))
	obs.ValueNumeric = decp("98.6")

	result := mustValidate(t, v, obs)
	wantIssues(t, result, []ov.Issue{
		{Field: ov.FieldValueNumeric, Code: ov.CodePrecision},
	})
}

func TestValidate_NumericPreciseAllowsFractions(t *testing.T) {
	v, concepts := newValidator(t)
	concepts.SetNumericRange(5, service.NumericRange{Precise: true})

	obs := leaf(concept(5, model.DatatypeNumeric))
	obs.ValueNumeric = decp("98.6")

	result := mustValidate(t, v, obs)
	if result.HasErrors() {
		t.Errorf("HasErrors() = true; issues = %v", result.Issues)
	}
}

func TestValidate_NumericRange(t *testing.T) {
	low := decimal.RequireFromString("10")
	hi := decimal.RequireFromString("200")

	tests := []struct {
		name  string
		value string
		want  []ov.Issue
	}{
		{"within", "50", nil},
		{"at high bound", "200", nil},
		{"above high", "201", []ov.Issue{{Field: ov.FieldValueNumeric, Code: ov.CodeOutOfRangeHigh}}},
		{"at low bound", "10", nil},
		{"below low", "9", []ov.Issue{{Field: ov.FieldValueNumeric, Code: ov.CodeOutOfRangeLow}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, concepts := newValidator(t)
			concepts.SetNumericRange(5, service.NumericRange{
				Precise:     true,
				LowAbsolute: &low,
				HiAbsolute:  &hi,
			})

			obs := leaf(concept(5, model.DatatypeNumeric))
			obs.ValueNumeric = decp(tt.value)

			result := mustValidate(t, v, obs)
			wantIssues(t, result, tt.want)
		})
	}
}

func TestValidate_NumericChecksAreIndependent(t *testing.T) {
	hi := decimal.RequireFromString("50")

	v, concepts := newValidator(t)
	concepts.SetNumericRange(5, service.NumericRange{
		Precise:    false,
		HiAbsolute: &hi,
	})

	obs := leaf(concept(5, model.DatatypeNumeric))
	obs.ValueNumeric = decp("50.5")

	result := mustValidate(t, v, obs)
	wantIssues(t, result, []ov.Issue{
		{Field: ov.FieldValueNumeric, Code: ov.CodePrecision},
		{Field: ov.FieldValueNumeric, Code: ov.CodeOutOfRangeHigh},
	})
}

func TestValidate_NumericResolverContractViolation(t *testing.T) {
	v, _ := newValidator(t) // no range registered for concept 5

	obs := leaf(concept(5, model.DatatypeNumeric))
	obs.ValueNumeric = decp("1")

	if _, err := v.Validate(context.Background(), obs); err == nil {
		t.Fatal("Validate() error = nil; want resolver contract violation")
	}
}

func TestValidate_TextMaxLength(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []ov.Issue
	}{
		{"short", "ok", nil},
		{"at limit", strings.Repeat("a", 50), nil},
		{"over limit", strings.Repeat("a", 51), []ov.Issue{{Field: ov.FieldValueText, Code: ov.CodeExceededMaxLength}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newValidator(t)

			obs := leaf(concept(6, model.DatatypeText))
			obs.ValueText = strp(tt.text)

			result := mustValidate(t, v, obs)
			wantIssues(t, result, tt.want)
		})
	}
}

func TestValidate_TextMaxLengthOption(t *testing.T) {
	v, _ := newValidator(t, ov.WithMaxTextLength(5))

	obs := leaf(concept(6, model.DatatypeText))
	obs.ValueText = strp("sixsix")

	result := mustValidate(t, v, obs)
	wantIssues(t, result, []ov.Issue{
		{Field: ov.FieldValueText, Code: ov.CodeExceededMaxLength},
	})
}

func TestValidate_Complex(t *testing.T) {
	v, concepts := newValidator(t)
	concepts.RegisterHandler("raw", service.HandlerFunc(
		func(_ context.Context, obs *model.Observation) (any, error) {
			if obs.ValueComplex == nil || *obs.ValueComplex == "" {
				return nil, nil
			}
			return *obs.ValueComplex, nil
		}))

	complexConcept := &model.Concept{ID: 8, Datatype: model.DatatypeComplex, Handler: "raw"}

	t.Run("resolvable payload", func(t *testing.T) {
		obs := leaf(complexConcept)
		obs.ValueComplex = strp("scan-123|image/png")

		result := mustValidate(t, v, obs)
		if result.HasErrors() {
			t.Errorf("HasErrors() = true; issues = %v", result.Issues)
		}
	})

	t.Run("empty payload reports null and invalid", func(t *testing.T) {
		obs := leaf(complexConcept)
		obs.ValueComplex = strp("")
		obs.ValueModifier = strp("x") // keep the no-value check quiet

		result := mustValidate(t, v, obs)
		wantIssues(t, result, []ov.Issue{
			{Field: ov.FieldValueComplex, Code: ov.CodeNull},
			{Field: ov.FieldValueComplex, Code: ov.CodeInvalid},
		})
	})
}

func TestValidate_ComplexUnresolvableValue(t *testing.T) {
	v, concepts := newValidator(t)
	concepts.RegisterHandler("never", service.HandlerFunc(
		func(context.Context, *model.Observation) (any, error) { return nil, nil }))

	obs := leaf(&model.Concept{ID: 8, Datatype: model.DatatypeComplex, Handler: "never"})
	obs.ValueComplex = strp("payload")

	result := mustValidate(t, v, obs)
	wantIssues(t, result, []ov.Issue{
		{Field: ov.FieldValueComplex, Code: ov.CodeInvalid},
	})
}

func TestValidate_ComplexUnknownHandler(t *testing.T) {
	v, _ := newValidator(t)

	obs := leaf(&model.Concept{ID: 8, Datatype: model.DatatypeComplex, Handler: "missing"})
	obs.ValueComplex = strp("payload")

	if _, err := v.Validate(context.Background(), obs); err == nil {
		t.Fatal("Validate() error = nil; want resolver contract violation")
	}
}

func TestValidate_UnmappedDatatypeUnconstrained(t *testing.T) {
	v, _ := newValidator(t)

	obs := leaf(concept(11, model.DatatypeNA))
	obs.ValueText = strp("free-form")

	result := mustValidate(t, v, obs)
	if result.HasErrors() {
		t.Errorf("HasErrors() = true; issues = %v", result.Issues)
	}
}

func TestValidate_NestedDatatypeFailureCollapsesToGroupMembers(t *testing.T) {
	v, concepts := newValidator(t)
	concepts.SetNumericRange(5, service.NumericRange{Precise: true})

	child := leaf(concept(5, model.DatatypeNumeric)) // numeric leaf, no value
	child.ValueModifier = strp("x")                  // pass the no-value check

	group := leaf(concept(1, model.DatatypeNA))
	group.GroupMembers = []*model.Observation{child}

	result := mustValidate(t, v, group)
	wantIssues(t, result, []ov.Issue{
		{Field: ov.FieldGroupMembers, Code: ov.CodeInGroupMember},
	})
}

func TestValidate_ShortCircuitStopsDescent(t *testing.T) {
	v, _ := newValidator(t)

	invalidChild := &model.Observation{} // would report four issues of its own

	group := leaf(concept(1, model.DatatypeNA))
	group.PersonID = nil // invalidates the root before descent
	group.GroupMembers = []*model.Observation{invalidChild}

	result := mustValidate(t, v, group)
	wantIssues(t, result, []ov.Issue{
		{Field: ov.FieldPerson, Code: ov.CodeNull},
	})
}

func TestValidate_CycleDetection(t *testing.T) {
	v, _ := newValidator(t)

	group := leaf(concept(1, model.DatatypeNA))
	child := leaf(concept(2, model.DatatypeNA))
	group.GroupMembers = []*model.Observation{child}
	child.GroupMembers = []*model.Observation{group}

	type outcome struct {
		result *ov.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := v.Validate(context.Background(), group)
		done <- outcome{result, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			t.Fatalf("Validate() error = %v", o.err)
		}
		wantIssues(t, o.result, []ov.Issue{
			{Field: ov.FieldGroupMembers, Code: ov.CodeGroupContainsItself},
		})
	case <-time.After(5 * time.Second):
		t.Fatal("validation did not terminate on a cyclic grouping graph")
	}
}

func TestValidate_SelfContainingGroup(t *testing.T) {
	v, _ := newValidator(t)

	group := leaf(concept(1, model.DatatypeNA))
	group.GroupMembers = []*model.Observation{group}

	result := mustValidate(t, v, group)
	wantIssues(t, result, []ov.Issue{
		{Field: ov.FieldGroupMembers, Code: ov.CodeGroupContainsItself},
	})
}

func TestValidate_Idempotent(t *testing.T) {
	v, concepts := newValidator(t)
	concepts.SetNumericRange(5, service.NumericRange{Precise: false})

	obs := leaf(concept(5, model.DatatypeNumeric))
	obs.ValueNumeric = decp("1.5")

	first := mustValidate(t, v, obs)
	second := mustValidate(t, v, obs)

	if len(first.Issues) != len(second.Issues) {
		t.Fatalf("issue counts differ: %d vs %d", len(first.Issues), len(second.Issues))
	}
	for i := range first.Issues {
		if first.Issues[i] != second.Issues[i] {
			t.Errorf("issues[%d] differ: %v vs %v", i, first.Issues[i], second.Issues[i])
		}
	}
}

func TestValidateBatch(t *testing.T) {
	v, _ := newValidator(t)

	valid := leaf(concept(1, model.DatatypeBoolean))
	valid.ValueBoolean = boolp(true)
	invalid := &model.Observation{}

	items := v.ValidateBatch(context.Background(), []*model.Observation{valid, invalid})
	if len(items) != 2 {
		t.Fatalf("len(items) = %d; want 2", len(items))
	}
	if items[0].Err != nil || items[0].Result.HasErrors() {
		t.Errorf("items[0] = %+v; want valid", items[0])
	}
	if items[1].Err != nil || !items[1].Result.HasErrors() {
		t.Errorf("items[1] = %+v; want validation issues", items[1])
	}
}

func TestValidate_MetricsRecorded(t *testing.T) {
	v, _ := newValidator(t)

	obs := leaf(concept(1, model.DatatypeBoolean))
	obs.ValueBoolean = boolp(true)
	mustValidate(t, v, obs)
	mustValidate(t, v, &model.Observation{})

	snap := v.Metrics().Snapshot()
	if snap.ValidationsTotal != 2 {
		t.Errorf("ValidationsTotal = %d; want 2", snap.ValidationsTotal)
	}
	if snap.ValidationsValid != 1 {
		t.Errorf("ValidationsValid = %d; want 1", snap.ValidationsValid)
	}
	if snap.IssuesTotal == 0 {
		t.Error("IssuesTotal = 0; want > 0")
	}
}
