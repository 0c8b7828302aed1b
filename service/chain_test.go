package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resolverFunc adapts a function to ConceptRangeResolver for tests.
type resolverFunc func(ctx context.Context, conceptID int) (*NumericRange, error)

func (f resolverFunc) ResolveNumericRange(ctx context.Context, conceptID int) (*NumericRange, error) {
	return f(ctx, conceptID)
}

func TestRangeChain_FirstHitWins(t *testing.T) {
	first := NewInMemoryConceptService()
	first.SetNumericRange(1, NumericRange{Precise: true})

	second := NewInMemoryConceptService()
	second.SetNumericRange(1, NumericRange{Precise: false})

	chain := NewRangeChain(first, second)

	r, err := chain.ResolveNumericRange(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, r.Precise)
}

func TestRangeChain_FallsThroughNotFound(t *testing.T) {
	empty := NewInMemoryConceptService()

	fallback := NewInMemoryConceptService()
	fallback.SetNumericRange(2, NumericRange{Precise: false})

	chain := NewRangeChain(empty, fallback)

	r, err := chain.ResolveNumericRange(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, r.Precise)
}

func TestRangeChain_Exhausted(t *testing.T) {
	chain := NewRangeChain(NewInMemoryConceptService())
	chain.Add(NewInMemoryConceptService())

	_, err := chain.ResolveNumericRange(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRangeChain_HardFailureAborts(t *testing.T) {
	boom := errors.New("connection refused")
	failing := resolverFunc(func(context.Context, int) (*NumericRange, error) {
		return nil, boom
	})

	fallback := NewInMemoryConceptService()
	fallback.SetNumericRange(4, NumericRange{Precise: true})

	chain := NewRangeChain(failing, fallback)

	_, err := chain.ResolveNumericRange(context.Background(), 4)
	assert.ErrorIs(t, err, boom)
}
