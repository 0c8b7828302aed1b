package obsvalidator

import (
	"runtime"
)

// DefaultMaxTextLength is the maximum number of characters allowed in a
// text value before validation reports exceeded-max-length.
const DefaultMaxTextLength = 50

// Option configures the validation engine.
type Option func(*Options)

// Options holds all configuration for the validation engine.
type Options struct {
	// MaxTextLength is the maximum rune count for text values.
	MaxTextLength int

	// WorkerCount bounds parallelism of batch validation.
	WorkerCount int

	// RangeCacheSize is the capacity of the numeric-range lookup cache
	// used by service.CachedRangeResolver when the engine builds one.
	RangeCacheSize int
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		MaxTextLength:  DefaultMaxTextLength,
		WorkerCount:    runtime.NumCPU(),
		RangeCacheSize: 1000,
	}
}

// WithMaxTextLength overrides the maximum text value length.
// Values <= 0 are ignored.
func WithMaxTextLength(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxTextLength = n
		}
	}
}

// WithWorkerCount sets the number of workers used for batch validation.
func WithWorkerCount(n int) Option {
	return func(o *Options) {
		o.WorkerCount = n
	}
}

// WithRangeCacheSize sets the capacity of the numeric-range cache.
func WithRangeCacheSize(n int) Option {
	return func(o *Options) {
		o.RangeCacheSize = n
	}
}
