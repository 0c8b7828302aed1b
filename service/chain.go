package service

import (
	"context"
	"errors"
)

// RangeChain implements ConceptRangeResolver by trying multiple resolvers
// in order, Chain of Responsibility style. Typical layering is a local
// dictionary first and a remote registry client as fallback.
type RangeChain struct {
	resolvers []ConceptRangeResolver
}

// NewRangeChain creates a new range resolver chain.
func NewRangeChain(resolvers ...ConceptRangeResolver) *RangeChain {
	return &RangeChain{resolvers: resolvers}
}

// ResolveNumericRange tries each resolver until one succeeds.
// Only ErrNotFound and ErrNotSupported fall through to the next resolver;
// any other failure aborts the chain.
func (c *RangeChain) ResolveNumericRange(ctx context.Context, conceptID int) (*NumericRange, error) {
	for _, resolver := range c.resolvers {
		r, err := resolver.ResolveNumericRange(ctx, conceptID)
		if err == nil && r != nil {
			return r, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotSupported) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// Add appends a resolver to the chain.
func (c *RangeChain) Add(resolver ConceptRangeResolver) {
	c.resolvers = append(c.resolvers, resolver)
}
