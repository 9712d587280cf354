package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrLockNotAcquired = errors.New("monitoring run already in progress")

// Locker serializes monitoring runs. Lock returns ErrLockNotAcquired when busy;
// Wait blocks until the lock is free or ctx is done.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
	Wait(ctx context.Context) (unlock func(), err error)
}

type MutexLocker struct {
	sem chan struct{}
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{sem: make(chan struct{}, 1)}
}

func (l *MutexLocker) Lock(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return l.release, nil
	default:
		return nil, ErrLockNotAcquired
	}
}

func (l *MutexLocker) Wait(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return l.release, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *MutexLocker) release() { <-l.sem }

// DefaultLockRetry is how often RedisLocker.Wait polls a held lock.
const DefaultLockRetry = 250 * time.Millisecond

// RedisLocker holds the run lock across every process sharing the Redis instance.
// The TTL bounds how long a crashed holder can block later runs.
type RedisLocker struct {
	cache  *cache.RedisClient
	key    string
	ttl    time.Duration
	retry  time.Duration
	logger logger.ZapLogger
}

func NewRedisLocker(c *cache.RedisClient, key string, ttl time.Duration, log logger.ZapLogger) *RedisLocker {
	return &RedisLocker{cache: c, key: key, ttl: ttl, retry: DefaultLockRetry, logger: log}
}

func (l *RedisLocker) Lock(ctx context.Context) (func(), error) {
	token := uuid.New().String()
	ok, err := l.cache.AcquireLock(ctx, l.key, token, l.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	return func() {
		if err := l.cache.ReleaseLock(context.Background(), l.key, token); err != nil {
			l.logger.Warn("release monitoring lock", zap.String("key", l.key), zap.Error(err))
		}
	}, nil
}

func (l *RedisLocker) Wait(ctx context.Context) (func(), error) {
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		unlock, err := l.Lock(ctx)
		if !errors.Is(err, ErrLockNotAcquired) {
			return unlock, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
