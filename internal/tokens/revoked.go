package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/config"
)

// RevokedStore 将已注销的令牌记录到 redis 中，直到令牌自然过期
type RevokedStore struct {
	cfg    *config.Config
	client *redis.Client
}

func NewRevokedStore(cfg *config.Config, client *redis.Client) *RevokedStore {
	return &RevokedStore{
		cfg:    cfg,
		client: client,
	}
}

func (s *RevokedStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	// 已经过期的令牌不需要记录
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, fmt.Sprintf("revoked_token_%s", token), "1", ttl).Err()
}

func (s *RevokedStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, fmt.Sprintf("revoked_token_%s", token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
