package database

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Locker serialises writes to the record store. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context) (func(), error)
}

type mutexLocker struct {
	ch chan struct{}
}

// NewMutexLocker returns an in-process lock that honours context cancellation.
func NewMutexLocker() Locker {
	return &mutexLocker{ch: make(chan struct{}, 1)}
}

func (l *mutexLocker) Lock(ctx context.Context) (func(), error) {
	select {
	case l.ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-l.ch }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is a SETNX lock shared by every process pointing at the same workbook.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker builds a lock stored under key. ttl bounds how long a crashed holder blocks others.
func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, key: key, ttl: ttl, retry: 50 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context) (func(), error) {
	token := uuid.New().String()
	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return nil, errors.Wrap(err, "redis setnx")
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := releaseScript.Run(context.Background(), l.client, []string{l.key}, token).Err(); err != nil {
				logrus.WithError(err).WithField("key", l.key).Warn("Failed to release workbook lock")
			}
		})
	}, nil
}
