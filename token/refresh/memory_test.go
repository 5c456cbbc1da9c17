package refresh_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jrsteele09/go-token-auth/token/refresh"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistry_Sweep(t *testing.T) {
	clock := newTestClock()
	reg := refresh.NewMemoryRegistry(refresh.WithMemoryNowFunc(clock.Now))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		ttl := time.Hour
		if i%2 == 0 {
			ttl = time.Minute
		}
		require.NoError(t, reg.Insert(ctx, fmt.Sprintf("user-%d", i), "tok", clock.Now().Add(ttl)))
	}
	require.Equal(t, 10, reg.Len())

	removed, err := reg.Sweep(ctx, clock.Now().Add(5*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 5, removed)
	require.Equal(t, 5, reg.Len())

	require.NoError(t, reg.Validate(ctx, "user-1", "tok"))
	require.ErrorIs(t, reg.Validate(ctx, "user-0", "tok"), refresh.ErrTokenRevoked)
}

func TestMemoryRegistry_CancelledContext(t *testing.T) {
	reg := refresh.NewMemoryRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, reg.Insert(ctx, "user-1", "tok", time.Now().Add(time.Hour)), context.Canceled)
	require.ErrorIs(t, reg.Validate(ctx, "user-1", "tok"), context.Canceled)
	require.ErrorIs(t, reg.Rotate(ctx, "user-1", "tok", "next", time.Now().Add(time.Hour)), context.Canceled)
	require.ErrorIs(t, reg.Invalidate(ctx, "user-1"), context.Canceled)
	require.Equal(t, 0, reg.Len())
}

func TestMemoryRegistry_ExpiredRecordDroppedOnRead(t *testing.T) {
	clock := newTestClock()
	reg := refresh.NewMemoryRegistry(refresh.WithMemoryNowFunc(clock.Now))
	ctx := context.Background()

	require.NoError(t, reg.Insert(ctx, "user-1", "tok", clock.Now().Add(time.Minute)))
	clock.Advance(time.Minute)
	require.ErrorIs(t, reg.Validate(ctx, "user-1", "tok"), refresh.ErrTokenRevoked)
	require.Equal(t, 0, reg.Len())
}
