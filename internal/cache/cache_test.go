package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryService() *Service {
	return New("", zerolog.Nop())
}

func TestSetGetRoundTrip(t *testing.T) {
	svc := newMemoryService()
	ctx := context.Background()

	type payload struct {
		Score float64
		Label string
	}

	want := payload{Score: 62.5, Label: "Greed"}
	require.NoError(t, svc.Set(ctx, "index:latest", want, time.Minute))

	var got payload
	ok := svc.Get(ctx, "index:latest", &got)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestGetMissOnUnknownKey(t *testing.T) {
	svc := newMemoryService()
	var dest string
	ok := svc.Get(context.Background(), "nope", &dest)
	assert.False(t, ok)
}

func TestExpiredEntryIsAMiss(t *testing.T) {
	svc := newMemoryService()
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", 42, -time.Second)) // already expired

	var got int
	ok := svc.Get(ctx, "k", &got)
	assert.False(t, ok)
}

func TestDeletePatternRemovesMatchingKeys(t *testing.T) {
	svc := newMemoryService()
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "index:latest", 1, time.Minute))
	require.NoError(t, svc.Set(ctx, "index:history", 2, time.Minute))
	require.NoError(t, svc.Set(ctx, "components:latest", 3, time.Minute))

	svc.DeletePattern(ctx, "index:*")

	assert.False(t, svc.Exists(ctx, "index:latest"))
	assert.False(t, svc.Exists(ctx, "index:history"))
	assert.True(t, svc.Exists(ctx, "components:latest"))
}

func TestGetOrSetComputesOnceOnMiss(t *testing.T) {
	svc := newMemoryService()
	ctx := context.Background()

	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return 77, nil
	}

	var first, second int
	require.NoError(t, svc.GetOrSet(ctx, "k", time.Minute, &first, compute))
	require.NoError(t, svc.GetOrSet(ctx, "k", time.Minute, &second, compute))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 77, first)
	assert.Equal(t, 77, second)
}

func TestKeyJoin(t *testing.T) {
	assert.Equal(t, "index:latest", KeyJoin("index", "latest"))
}
