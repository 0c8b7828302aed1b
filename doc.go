// Package obsvalidator provides validation of clinical observation records
// before they are persisted.
//
// An observation is either a leaf carrying exactly the value its concept's
// datatype requires, or a group owning child observations and no value of
// its own. The engine walks the tree depth-first, dispatches datatype rules
// from the concept tag, detects cycles in the grouping graph, and reports
// every failure as a field-bound issue.
//
// # Quick Start
//
//	import (
//	    ov "github.com/openobs/validator"
//	    "github.com/openobs/validator/engine"
//	    "github.com/openobs/validator/service"
//	)
//
//	concepts := service.NewInMemoryConceptService()
//	v := engine.New(concepts, concepts)
//
//	result, err := v.Validate(ctx, obs)
//	if err != nil {
//	    // resolver contract violation, not a validation failure
//	    log.Fatal(err)
//	}
//	if result.HasErrors() {
//	    for _, issue := range result.Issues {
//	        fmt.Println(issue)
//	    }
//	}
//	result.Release() // Return to pool for better performance
//
// # Error Report Contract
//
// Issues are (field, code) pairs recorded in traversal order. Structural
// and presence failures are always bound to their natural field name, at
// any depth. Datatype failures on nested group members are instead
// collapsed to a single ("groupMembers", "in-group-member") issue, because
// field binding is only meaningful against the root object handed to
// Validate.
//
// # External Collaborators
//
// Numeric leaves consult a service.ConceptRangeResolver for precision and
// absolute bounds; complex leaves consult a service.ComplexValueResolver
// keyed by the handler name on the concept. A resolver that cannot explain
// a numeric concept is a contract violation and surfaces as an error from
// Validate rather than as a reported issue.
package obsvalidator
