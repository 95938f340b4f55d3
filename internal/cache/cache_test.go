package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parcel-billing/internal/config"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init redis failed: %v", err)
	}
	if Enabled() || Client() != nil {
		t.Fatalf("cache should be disabled")
	}
	if err := Ping(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("ping want ErrDisabled got %v", err)
	}

	ctx := context.Background()
	lock, err := AcquireLock(ctx, "lock:payment:order:1", time.Second)
	if err != nil || lock == nil {
		t.Fatalf("disabled lock should succeed, got %v", err)
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if err := SetStaffAuthState(ctx, &StaffAuthState{StaffID: 1}); err != nil {
		t.Fatalf("set state failed: %v", err)
	}
	state, hit, err := GetStaffAuthState(ctx, 1)
	if err != nil || hit || state != nil {
		t.Fatalf("disabled cache should miss, got %+v %v %v", state, hit, err)
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	redisPrefix = "pb"
	if got := buildKey("lock:x"); got != "pb:lock:x" {
		t.Fatalf("key want pb:lock:x got %s", got)
	}
	if got := buildKey(" "); got != "pb" {
		t.Fatalf("blank key want pb got %s", got)
	}
}

func TestInitRedisUnreachableStaysDisabled(t *testing.T) {
	err := InitRedis(&config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1})
	if err == nil {
		t.Fatalf("unreachable redis should fail ping")
	}
	if Enabled() {
		t.Fatalf("cache should stay disabled after failed ping")
	}
}
