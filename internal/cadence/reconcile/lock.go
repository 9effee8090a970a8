package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKey = "cadence:reconcile:lock"

// RunLock is a redis lease that keeps overlapping reconciliation runs from
// racing each other across scheduler instances.
type RunLock struct {
	client *redis.Client
	ttl    time.Duration
	token  string
}

func NewRunLock(client *redis.Client, ttl time.Duration) *RunLock {
	return &RunLock{client: client, ttl: ttl, token: uuid.NewString()}
}

// Acquire takes the lease. It returns false when another run holds it.
func (l *RunLock) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, lockKey, l.token, l.ttl).Result()
}

// Release frees the lease, but only if this run still owns it; an expired
// lease taken over by another run is left alone.
func (l *RunLock) Release(ctx context.Context) error {
	const script = `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0`
	return l.client.Eval(ctx, script, []string{lockKey}, l.token).Err()
}
