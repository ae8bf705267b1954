package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store Redis缓存封装：带TTL的KV、集合与pipeline操作
// key只会被各自的owner写入，Store本身无需额外加锁
type Store struct {
	Client *redis.Client
}

// NewStore 由连接URL创建缓存Store（如 redis://localhost:6379/0）
func NewStore(url string) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("解析Redis URL失败: %w", err)
	}
	return &Store{Client: redis.NewClient(opt)}, nil
}

// Ping 连通性检查（启动时用）
func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

// Get 读取key，未命中返回(nil, false, nil)，未命中不是错误
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set 写入key并设置过期时间
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.Client.Set(ctx, key, value, ttl).Err()
}

// Delete 删除key
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return s.Client.Del(ctx, keys...).Err()
}

// AddToSet 原子pipeline：向集合添加成员并刷新集合过期时间
func (s *Store) AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	vals := make([]interface{}, len(members))
	for i, m := range members {
		vals[i] = m
	}
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, vals...)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

// Close 关闭底层连接
func (s *Store) Close() error {
	return s.Client.Close()
}
