package redis

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/carepoint/identity-service/internal/core/domain"
)

// testClient connects to REDIS_TEST_ADDR or skips.
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client, err := Connect(context.Background(), Config{Addr: addr, DB: 15})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestOAuthStateStore_IssueAndConsumeOnce(t *testing.T) {
	store := NewOAuthStateStore(testClient(t))
	ctx := context.Background()

	state, err := store.Issue(ctx, domain.ProviderGoogle)
	require.NoError(t, err)
	require.NotEmpty(t, state)

	require.NoError(t, store.Consume(ctx, state, domain.ProviderGoogle))
	require.ErrorIs(t, store.Consume(ctx, state, domain.ProviderGoogle), domain.ErrInvalidOAuthState)
}

func TestOAuthStateStore_ProviderMismatch(t *testing.T) {
	store := NewOAuthStateStore(testClient(t))
	ctx := context.Background()

	state, err := store.Issue(ctx, domain.ProviderGithub)
	require.NoError(t, err)

	require.ErrorIs(t, store.Consume(ctx, state, domain.ProviderGoogle), domain.ErrInvalidOAuthState)
	// The mismatched attempt burned the state.
	require.ErrorIs(t, store.Consume(ctx, state, domain.ProviderGithub), domain.ErrInvalidOAuthState)
}

func TestOAuthStateStore_UnknownState(t *testing.T) {
	store := NewOAuthStateStore(testClient(t))
	require.ErrorIs(t, store.Consume(context.Background(), "", domain.ProviderGoogle), domain.ErrInvalidOAuthState)
	require.ErrorIs(t, store.Consume(context.Background(), "never-issued", domain.ProviderGoogle), domain.ErrInvalidOAuthState)
}
