package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/folio-studio/folio-backend/internal/oauth/domain"
)

const (
	codeKeyPrefix    = "oauth:code:"    // oauth:code:{sha256(code)} -> AuthCode
	refreshKeyPrefix = "oauth:refresh:" // oauth:refresh:{sha256(token)} -> RefreshGrant
)

// GrantStore keeps authorization codes and refresh tokens in Redis. Keys
// are digests of the tokens, so a leaked keyspace does not leak tokens.
type GrantStore struct {
	client *redis.Client
}

func NewGrantStore(client *redis.Client) *GrantStore {
	return &GrantStore{client: client}
}

func (s *GrantStore) SaveCode(ctx context.Context, code string, grant *domain.AuthCode, ttl time.Duration) error {
	return s.put(ctx, codeKeyPrefix+digest(code), grant, ttl)
}

// ConsumeCode returns and deletes the code in one step; a second call for
// the same code reports domain.ErrInvalidGrant.
func (s *GrantStore) ConsumeCode(ctx context.Context, code string) (*domain.AuthCode, error) {
	var grant domain.AuthCode
	if err := s.take(ctx, codeKeyPrefix+digest(code), &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

func (s *GrantStore) SaveRefresh(ctx context.Context, token string, grant *domain.RefreshGrant, ttl time.Duration) error {
	return s.put(ctx, refreshKeyPrefix+digest(token), grant, ttl)
}

// ConsumeRefresh returns and deletes the refresh token's grant.
func (s *GrantStore) ConsumeRefresh(ctx context.Context, token string) (*domain.RefreshGrant, error) {
	var grant domain.RefreshGrant
	if err := s.take(ctx, refreshKeyPrefix+digest(token), &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// DeleteRefresh reports whether a token was removed.
func (s *GrantStore) DeleteRefresh(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Del(ctx, refreshKeyPrefix+digest(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return n > 0, nil
}

func (s *GrantStore) put(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal grant: %w", err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store grant: %w", err)
	}
	return nil
}

func (s *GrantStore) take(ctx context.Context, key string, v any) error {
	data, err := s.client.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ErrInvalidGrant
	}
	if err != nil {
		return fmt.Errorf("failed to read grant: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal grant: %w", err)
	}
	return nil
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
