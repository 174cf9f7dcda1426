package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carepoint/identity-service/internal/core/domain"
	"github.com/carepoint/identity-service/internal/core/ports"
)

const stateTTL = 10 * time.Minute

// OAuthStateStore keeps one-shot authorization code flow nonces in Redis.
// Key format: oauth_state:<state>, value: the provider it was issued for.
type OAuthStateStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewOAuthStateStore(client redis.Cmdable) *OAuthStateStore {
	return &OAuthStateStore{client: client, ttl: stateTTL}
}

var _ ports.OAuthStateStore = (*OAuthStateStore)(nil)

func (s *OAuthStateStore) Issue(ctx context.Context, provider domain.Provider) (string, error) {
	state := uuid.NewString()
	if err := s.client.Set(ctx, s.key(state), string(provider), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return state, nil
}

// Consume deletes the state atomically so a replayed callback fails.
func (s *OAuthStateStore) Consume(ctx context.Context, state string, provider domain.Provider) error {
	if state == "" {
		return domain.ErrInvalidOAuthState
	}
	got, err := s.client.GetDel(ctx, s.key(state)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ErrInvalidOAuthState
	}
	if err != nil {
		return fmt.Errorf("consume oauth state: %w", err)
	}
	if got != string(provider) {
		return domain.ErrInvalidOAuthState
	}
	return nil
}

func (s *OAuthStateStore) key(state string) string {
	return "oauth_state:" + state
}
