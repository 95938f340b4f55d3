package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld 锁已被其他持有者占用
var ErrLockHeld = errors.New("lock held by another holder")

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock 分布式锁句柄
type Lock struct {
	key   string
	token string
}

// AcquireLock 获取分布式锁；未启用 Redis 时返回空锁，由数据库约束兜底
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	if !Enabled() {
		return &Lock{}, nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	lock := &Lock{key: buildKey(key), token: uuid.NewString()}
	ok, err := redisClient.SetNX(ctx, lock.key, lock.token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return lock, nil
}

// Release 释放锁，只删除自己持有的值
func (l *Lock) Release(ctx context.Context) error {
	if l == nil || l.key == "" || !Enabled() {
		return nil
	}
	return releaseLockScript.Run(ctx, redisClient, []string{l.key}, l.token).Err()
}
