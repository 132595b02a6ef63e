package locker

import (
	"context"
	"fmt"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/domain/logging"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/google/uuid"
)

// Only the owner that set the key may delete it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	redisClient *redis.Client
	log         logging.Logger
}

func NewRedis(redisClient *redis.Client, log logging.Logger) *Redis {
	if redisClient == nil {
		panic(e.NewNilArgumentError("redisClient"))
	}
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	return &Redis{redisClient: redisClient, log: log}
}

func (r *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	owner := uuid.NewString()
	ok, err := r.redisClient.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("could not acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		err := releaseScript.Run(context.Background(), r.redisClient, []string{key}, owner).Err()
		if err != nil {
			r.log.Warning(
				ctx,
				"Could not release lock, it will expire on its own.",
				logging.Entry("key", key),
				logging.Entry("err", err),
			)
		}
	}
	return release, true, nil
}
