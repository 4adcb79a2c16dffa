package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store 已停用用户的会话失效标记。
// 标记只是快路径，权威状态在数据库；TTL 跟 token 有效期走即可。
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func key(uid uint) string { return fmt.Sprintf("session:inactive:%d", uid) }

func (s *Store) Kill(ctx context.Context, uid uint) error {
	return s.rdb.Set(ctx, key(uid), 1, s.ttl).Err()
}

func (s *Store) Revive(ctx context.Context, uid uint) error {
	return s.rdb.Del(ctx, key(uid)).Err()
}

// Killed redis 不可用时返回 false，让门卫走数据库判断
func (s *Store) Killed(ctx context.Context, uid uint) bool {
	n, err := s.rdb.Exists(ctx, key(uid)).Result()
	return err == nil && n > 0
}
