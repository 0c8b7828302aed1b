package obsvalidator

import (
	"sync"
)

// Result collects the issues found while validating one observation tree.
// Issues keep the order they were recorded in: depth-first, pre-order per
// node, in slot-check order.
//
// Use Release() to return it to the pool when done for better performance.
type Result struct {
	// Issues contains all recorded issues in order.
	Issues []Issue `json:"issues,omitempty"`

	// mu protects concurrent access to Issues
	mu sync.Mutex
}

// resultPool holds reusable Result instances.
var resultPool = sync.Pool{
	New: func() any {
		return &Result{
			Issues: make([]Issue, 0, 8),
		}
	},
}

// AcquireResult gets an empty Result from the pool.
func AcquireResult() *Result {
	r := resultPool.Get().(*Result)
	r.Reset()
	return r
}

// Release returns the Result to the pool.
// After calling Release, the Result must not be used.
func (r *Result) Release() {
	if r == nil {
		return
	}
	// Don't return results with oversized issue slices
	if cap(r.Issues) <= 256 {
		resultPool.Put(r)
	}
}

// Reset clears the result for reuse.
func (r *Result) Reset() {
	r.Issues = r.Issues[:0]
}

// NewResult creates a new (non-pooled) result.
// Prefer AcquireResult() for better performance.
func NewResult() *Result {
	return &Result{
		Issues: make([]Issue, 0, 8),
	}
}

// Reject records an issue against the named field.
// This method is thread-safe.
func (r *Result) Reject(field string, code Code) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Issues = append(r.Issues, Issue{Field: field, Code: code})
}

// RejectObject records an object-level issue not bound to any field.
func (r *Result) RejectObject(code Code) {
	r.Reject(FieldObject, code)
}

// HasErrors reports whether any issue has been recorded.
func (r *Result) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Issues) > 0
}

// Len returns the number of recorded issues.
func (r *Result) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Issues)
}

// FieldCodes returns the codes recorded against the named field, in order.
func (r *Result) FieldCodes(field string) []Code {
	r.mu.Lock()
	defer r.mu.Unlock()

	var codes []Code
	for _, issue := range r.Issues {
		if issue.Field == field {
			codes = append(codes, issue.Code)
		}
	}
	return codes
}

// Has reports whether the exact (field, code) pair has been recorded.
func (r *Result) Has(field string, code Code) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, issue := range r.Issues {
		if issue.Field == field && issue.Code == code {
			return true
		}
	}
	return false
}

// Merge appends another result's issues onto this one.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}

	other.mu.Lock()
	issues := make([]Issue, len(other.Issues))
	copy(issues, other.Issues)
	other.mu.Unlock()

	if len(issues) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Issues = append(r.Issues, issues...)
}

// Clone creates a copy of the result (not pooled).
func (r *Result) Clone() *Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := &Result{
		Issues: make([]Issue, len(r.Issues)),
	}
	copy(clone.Issues, r.Issues)
	return clone
}
