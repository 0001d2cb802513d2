package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rmoralesp/giftshop-backend/pkg/config"
)

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Set(ctx, "gs:session:abc", "client-1", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, err := client.Get(ctx, "gs:session:abc")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "client-1" {
		t.Fatalf("expected stored value, got %q", value)
	}

	if err := client.Del(ctx, "gs:session:abc"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "gs:session:abc"); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestSetNXClaimsOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	ok, err := client.SetNX(ctx, "key", "first", time.Minute)
	if err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if !ok {
		t.Fatalf("first claim should succeed")
	}

	ok, err = client.SetNX(ctx, "key", "second", time.Minute)
	if err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if ok {
		t.Fatalf("second claim should lose")
	}
	if value, _ := client.Get(ctx, "key"); value != "first" {
		t.Fatalf("winner value should survive, got %q", value)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.SessionKey("sess-1"); got != "gs:session:sess-1" {
		t.Fatalf("unexpected session key %s", got)
	}
	if got := client.IdempotencyKey("client|POST|/api/v1/sales", "order-42"); got != "gs:idempotency:client|POST|/api/v1/sales:order-42" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.IdempotencyKey("", "order-42"); got != "gs:idempotency:order-42" {
		t.Fatalf("empty scope parts should be skipped, got %s", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	ctx := context.Background()
	client := &Client{}
	if err := client.Set(ctx, "k", "v", 0); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
	if err := client.Ping(ctx); err == nil {
		t.Fatalf("expected ping error from uninitialized client")
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(configRedis("", "")); err == nil {
		t.Fatalf("expected error without url or address")
	}
	opts, err := optionsFromConfig(configRedis("", "localhost:6379"))
	if err != nil {
		t.Fatalf("address config failed: %v", err)
	}
	if opts.Addr != "localhost:6379" {
		t.Fatalf("unexpected addr %s", opts.Addr)
	}
	opts, err = optionsFromConfig(configRedis("redis://:pw@cache.internal:6380/2", ""))
	if err != nil {
		t.Fatalf("url config failed: %v", err)
	}
	if opts.Addr != "cache.internal:6380" || opts.DB != 2 {
		t.Fatalf("url not honored: addr=%s db=%d", opts.Addr, opts.DB)
	}
}

func configRedis(url, address string) config.RedisConfig {
	return config.RedisConfig{URL: url, Address: address}
}

type mockCmdable struct {
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
