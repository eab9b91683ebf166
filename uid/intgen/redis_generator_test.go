package intgen

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisGenerator(t *testing.T) (*RedisGenerator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	gen, err := NewRedisGeneratorWithOptions(&RedisOptions{Addr: mr.Addr(), KeyName: "test:uid", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewRedisGeneratorWithOptions() error = %v", err)
	}
	t.Cleanup(func() { _ = gen.Close() })
	return gen, mr
}

func TestRedisGenerator_Generate(t *testing.T) {
	gen, _ := newTestRedisGenerator(t)
	ctx := context.Background()

	seen := make(map[int64]struct{})
	before := time.Now().UnixMilli()
	for i := 0; i < 100; i++ {
		id, err := gen.Generate(ctx)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}

		ts := id >> sequenceBits
		if ts < before || ts > time.Now().UnixMilli() {
			t.Errorf("timestamp %d out of range", ts)
		}
	}
}

func TestRedisGenerator_KeyExpires(t *testing.T) {
	gen, mr := newTestRedisGenerator(t)

	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %v", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl <= 0 || ttl > 2*time.Second {
		t.Errorf("unexpected ttl %v", ttl)
	}
}

func TestRedisGenerator_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	gen := NewRedisGenerator(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "", 500*time.Millisecond)
	defer gen.Close()
	mr.Close()

	if _, err := gen.Generate(context.Background()); err == nil {
		t.Error("Generate() should fail when redis is unavailable")
	}
}
