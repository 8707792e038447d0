package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisGuardTTL bounds how long a crashed run can hold the guard.
const redisGuardTTL = 30 * time.Minute

// RedisRunGuard guards runs across processes with SET NX on the fixed
// pipeline key. The stored token ensures a run only releases its own lock.
type RedisRunGuard struct {
	client *redis.Client
}

func NewRedisRunGuard(client *redis.Client) (*RedisRunGuard, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisRunGuard{client: client}, nil
}

func (g *RedisRunGuard) TryAcquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, pipelineKey, token, redisGuardTTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire run guard: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Delete only if we still own the lock; a TTL expiry followed by
		// another run's acquire must not be clobbered.
		const script = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`
		g.client.Eval(context.Background(), script, []string{pipelineKey}, token)
	}
	return release, true, nil
}
