package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedRangeResolver_CachesHits(t *testing.T) {
	var calls atomic.Int64
	next := resolverFunc(func(_ context.Context, conceptID int) (*NumericRange, error) {
		calls.Add(1)
		return &NumericRange{Precise: true}, nil
	})

	cached := NewCachedRangeResolver(next, 10)

	for i := 0; i < 3; i++ {
		r, err := cached.ResolveNumericRange(context.Background(), 5)
		require.NoError(t, err)
		assert.True(t, r.Precise)
	}

	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, uint64(2), cached.Stats().Hits)
}

func TestCachedRangeResolver_DoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int64
	next := resolverFunc(func(context.Context, int) (*NumericRange, error) {
		calls.Add(1)
		return nil, ErrNotFound
	})

	cached := NewCachedRangeResolver(next, 10)

	for i := 0; i < 2; i++ {
		_, err := cached.ResolveNumericRange(context.Background(), 5)
		assert.ErrorIs(t, err, ErrNotFound)
	}

	assert.Equal(t, int64(2), calls.Load())
}
