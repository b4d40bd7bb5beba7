package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/alldopamine/catalog/internal/logging"
	"github.com/alldopamine/catalog/internal/usecase"
)

const redisKeyPrefix = "catalog:lock:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes callers across processes with SET NX. A lock
// whose holder died expires after ttl.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	poll   time.Duration
	logger *slog.Logger
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		poll:   25 * time.Millisecond,
		logger: logging.NewComponentLogger(logger, "lock"),
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, errors.Wrap(err, "acquire lock "+key)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}

	return func() { l.release(redisKey, token) }, nil
}

// release deletes redisKey if token still owns it. A failure leaves the
// key held until its ttl expires.
func (l *RedisLocker) release(redisKey, token string) {
	// the caller's context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
		l.logger.Warn("lock release failed",
			logging.String("key", redisKey),
			logging.Duration("ttl", l.ttl),
			logging.Error(err),
		)
	}
}

var _ usecase.KeyLocker = (*RedisLocker)(nil)
