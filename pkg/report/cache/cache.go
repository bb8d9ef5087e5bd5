// Package cache 按内容摘要缓存验证报告
// 同一部署单元内容、同一验证选项的结果是确定的，命中缓存时无需重新验证
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ejb-verifier/pkg/report"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// DefaultTTL Redis 缓存默认过期时间
const DefaultTTL = 24 * time.Hour

// Cache 报告缓存
type Cache interface {
	// Get 未命中时返回 ErrMiss
	Get(ctx context.Context, key string) (*report.Report, error)
	Put(ctx context.Context, key string, r *report.Report) error
}

// Key 由摘要与验证选项组成缓存键
func Key(digest, version string, strictPK bool) string {
	if version == "" {
		version = "auto"
	}
	return fmt.Sprintf("%s:%s:%t", digest, version, strictPK)
}

// ============================================================================
// Noop
// ============================================================================

// Noop 不缓存
type Noop struct{}

func (Noop) Get(context.Context, string) (*report.Report, error) { return nil, ErrMiss }
func (Noop) Put(context.Context, string, *report.Report) error  { return nil }

// ============================================================================
// Memory
// ============================================================================

// Memory 进程内缓存（单机 watch 模式与测试使用），不过期
type Memory struct {
	mu      sync.RWMutex
	reports map[string]*report.Report
}

// NewMemory 创建进程内缓存
func NewMemory() *Memory {
	return &Memory{reports: make(map[string]*report.Report)}
}

func (m *Memory) Get(_ context.Context, key string) (*report.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[key]
	if !ok {
		return nil, ErrMiss
	}
	return r, nil
}

func (m *Memory) Put(_ context.Context, key string, r *report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[key] = r
	return nil
}

// Len 缓存条目数
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports)
}

// ============================================================================
// Redis
// ============================================================================

// RedisOptions Redis 连接参数
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// TTL 条目过期时间，<= 0 时使用 DefaultTTL
	TTL time.Duration
	// Prefix 键前缀，默认 ejbverify:report:
	Prefix string
}

// RedisCache 以 JSON 保存报告的 Redis 缓存
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis 创建 Redis 缓存
func NewRedis(opts RedisOptions) (*RedisCache, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisWithClient(client, opts.TTL, opts.Prefix), nil
}

// NewRedisWithClient 包装已有客户端
func NewRedisWithClient(client *redis.Client, ttl time.Duration, prefix string) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "ejbverify:report:"
	}
	return &RedisCache{client: client, ttl: ttl, prefix: prefix}
}

func (c *RedisCache) key(key string) string {
	return c.prefix + key
}

func (c *RedisCache) Get(ctx context.Context, key string) (*report.Report, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode cached report: %w", err)
	}
	return &r, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, r *report.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, c.ttl).Err()
}

// Ping 检查连接
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭客户端
func (c *RedisCache) Close() error {
	return c.client.Close()
}
