package obsvalidator

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks validation counters using lock-free atomic operations.
// All methods are safe for concurrent use.
type Metrics struct {
	// Validation counts
	validationsTotal atomic.Uint64
	validationsValid atomic.Uint64

	// Timing (stored as nanoseconds)
	validationTimeTotal atomic.Uint64
	validationTimeMin   atomic.Uint64
	validationTimeMax   atomic.Uint64

	// Issue counts
	issuesTotal atomic.Uint64

	// Per-code issue counts
	codeCounts sync.Map // map[Code]*atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so the first value becomes the minimum
	m.validationTimeMin.Store(^uint64(0))
	return m
}

// RecordValidation records a completed validation.
func (m *Metrics) RecordValidation(duration time.Duration, valid bool) {
	m.validationsTotal.Add(1)
	if valid {
		m.validationsValid.Add(1)
	}

	ns := uint64(duration.Nanoseconds())
	m.validationTimeTotal.Add(ns)

	// Update min (CAS loop)
	for {
		old := m.validationTimeMin.Load()
		if ns >= old {
			break
		}
		if m.validationTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update max (CAS loop)
	for {
		old := m.validationTimeMax.Load()
		if ns <= old {
			break
		}
		if m.validationTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordIssue records a single reported issue.
func (m *Metrics) RecordIssue(code Code) {
	m.issuesTotal.Add(1)

	counter, ok := m.codeCounts.Load(code)
	if !ok {
		counter, _ = m.codeCounts.LoadOrStore(code, &atomic.Uint64{})
	}
	counter.(*atomic.Uint64).Add(1)
}

// Snapshot is a point-in-time view of the metrics.
type Snapshot struct {
	ValidationsTotal uint64          `json:"validationsTotal"`
	ValidationsValid uint64          `json:"validationsValid"`
	IssuesTotal      uint64          `json:"issuesTotal"`
	AvgDuration      time.Duration   `json:"avgDurationNs"`
	MinDuration      time.Duration   `json:"minDurationNs"`
	MaxDuration      time.Duration   `json:"maxDurationNs"`
	CodeCounts       map[Code]uint64 `json:"codeCounts,omitempty"`
}

// Snapshot returns a consistent-enough copy of the current counters.
func (m *Metrics) Snapshot() Snapshot {
	total := m.validationsTotal.Load()

	var avg time.Duration
	if total > 0 {
		avg = time.Duration(m.validationTimeTotal.Load() / total)
	}

	min := m.validationTimeMin.Load()
	if min == ^uint64(0) {
		min = 0
	}

	s := Snapshot{
		ValidationsTotal: total,
		ValidationsValid: m.validationsValid.Load(),
		IssuesTotal:      m.issuesTotal.Load(),
		AvgDuration:      avg,
		MinDuration:      time.Duration(min),
		MaxDuration:      time.Duration(m.validationTimeMax.Load()),
	}

	m.codeCounts.Range(func(key, value any) bool {
		if s.CodeCounts == nil {
			s.CodeCounts = make(map[Code]uint64)
		}
		s.CodeCounts[key.(Code)] = value.(*atomic.Uint64).Load()
		return true
	})

	return s
}
