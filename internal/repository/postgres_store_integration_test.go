//go:build integration

package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/servicedesk/ticket-service/internal/persistence"
	"github.com/servicedesk/ticket-service/internal/repository"
)

// Run with: TEST_POSTGRES_DSN=postgres://... go test -tags integration ./internal/repository/
func TestPostgresStoreContract(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE tickets CASCADE`)
	require.NoError(t, err)

	runTicketStoreContract(t, repository.NewPostgresStore(pool))
}
