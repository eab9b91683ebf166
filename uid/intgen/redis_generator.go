package intgen

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisOptions Redis 生成器配置
type RedisOptions struct {
	Addr     string        `cfg:"addr" def:"localhost:6379"`
	Password string        `cfg:"password"`
	DB       int           `cfg:"db"`
	KeyName  string        `cfg:"keyName" def:"dbadmin:uid"`
	Timeout  time.Duration `cfg:"timeout" def:"3s"`
}

// RedisGenerator 多实例共享的ID生成器
// ID 为 高52位毫秒时间戳 + 低12位序列号，序列号由 Redis INCR 按毫秒分配
type RedisGenerator struct {
	client  redis.UniversalClient
	keyName string
	timeout time.Duration
}

func NewRedisGeneratorWithOptions(options *RedisOptions) (*RedisGenerator, error) {
	if options == nil || options.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     options.Addr,
		Password: options.Password,
		DB:       options.DB,
	})
	return NewRedisGenerator(client, options.KeyName, options.Timeout), nil
}

// NewRedisGenerator 使用已有的客户端创建生成器
func NewRedisGenerator(client redis.UniversalClient, keyName string, timeout time.Duration) *RedisGenerator {
	if keyName == "" {
		keyName = "dbadmin:uid"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &RedisGenerator{client: client, keyName: keyName, timeout: timeout}
}

func (g *RedisGenerator) Generate(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	for {
		timestamp := time.Now().UnixMilli()
		key := g.keyName + ":" + strconv.FormatInt(timestamp, 10)

		sequence, err := g.client.Incr(ctx, key).Result()
		if err != nil {
			return 0, errors.Wrapf(err, "redis incr failed, key: [%s]", key)
		}
		if sequence == 1 {
			if err := g.client.Expire(ctx, key, 2*time.Second).Err(); err != nil {
				return 0, errors.Wrapf(err, "redis expire failed, key: [%s]", key)
			}
		}
		if sequence <= maxSequence+1 {
			return timestamp<<sequenceBits | (sequence - 1), nil
		}

		// 当前毫秒的序列号已耗尽
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (g *RedisGenerator) Close() error {
	return g.client.Close()
}
