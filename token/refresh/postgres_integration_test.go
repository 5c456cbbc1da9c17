//go:build integration

package refresh_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-token-auth/internal/database"
	"github.com/jrsteele09/go-token-auth/token/refresh"
	"github.com/stretchr/testify/require"
)

// Run with: DATABASE_DSN=postgres://... go test -tags integration ./token/refresh/
func TestPostgresRegistry_ConcurrentRotateSingleWinner(t *testing.T) {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		t.Skip("DATABASE_DSN is not set")
	}
	ctx := context.Background()
	db, err := database.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(ctx, db))

	registry := refresh.NewPostgresRegistry(db)
	subject := "integration-" + time.Now().Format("20060102150405.000000000")
	t.Cleanup(func() { _ = registry.Invalidate(context.Background(), subject) })

	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, registry.Insert(ctx, subject, "seed", expiresAt))

	const workers = 16
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		winner string
		wins   int
	)
	for i := 0; i < workers; i++ {
		next := "next-" + string(rune('a'+i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := registry.Rotate(ctx, subject, "seed", next, expiresAt); err == nil {
				mu.Lock()
				wins++
				winner = next
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins)
	require.NoError(t, registry.Validate(ctx, subject, winner))
	require.ErrorIs(t, registry.Validate(ctx, subject, "seed"), refresh.ErrTokenMismatch)
}
