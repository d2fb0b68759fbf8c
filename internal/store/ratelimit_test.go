package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRateLimit_ExhaustsBurst(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := s.CheckRateLimit(ctx, "fp-a", 2, 2)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
	}

	res, err := s.CheckRateLimit(ctx, "fp-a", 2, 2)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter.Seconds())
	assert.Equal(t, int64(0), res.Remaining)
}

func TestCheckRateLimit_SubjectsAreIndependent(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	res, err := s.CheckRateLimit(ctx, "fp-a", 1, 1)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = s.CheckRateLimit(ctx, "fp-a", 1, 1)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = s.CheckRateLimit(ctx, "fp-b", 1, 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestCheckRateLimit_Disabled(t *testing.T) {
	s, _ := setupStore(t)

	for i := 0; i < 10; i++ {
		res, err := s.CheckRateLimit(context.Background(), "fp-a", 0, 0)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
}

func TestCheckRateLimit_BucketExpires(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	_, err := s.CheckRateLimit(ctx, "fp-a", 2, 2)
	require.NoError(t, err)

	assert.True(t, mr.Exists(rateLimitPrefix+"fp-a"))
	mr.FastForward(rateLimitTTL + time.Second)
	assert.False(t, mr.Exists(rateLimitPrefix+"fp-a"))
}
