package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func lockKey(job string) string { return "runlock:" + job }

// RunGuard prevents overlapping runs of the same job across replicas. The
// in-process run registry already guards a single instance; this extends the
// at-most-one guarantee to horizontally scaled deployments.
type RunGuard interface {
	// Acquire returns true if this instance now holds the lock for job.
	Acquire(ctx context.Context, job string) (bool, error)
	// Release frees the lock if (and only if) this instance holds it.
	Release(ctx context.Context, job string) error
}

type runGuard struct {
	client *redis.Client
	owner  string
	ttl    time.Duration
}

// NewRunGuard creates a Redis-backed RunGuard. owner identifies this
// instance; ttl bounds how long a crashed holder can block the job.
func NewRunGuard(client *redis.Client, owner string, ttl time.Duration) RunGuard {
	return &runGuard{client: client, owner: owner, ttl: ttl}
}

// NewClient creates and returns a new Redis client.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		PoolSize:     10,
	})
}

func (g *runGuard) Acquire(ctx context.Context, job string) (bool, error) {
	ok, err := g.client.SetNX(ctx, lockKey(job), g.owner, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire run lock for %s: %w", job, err)
	}
	return ok, nil
}

// releaseScript deletes the lock only when we still own it (atomic Lua
// script avoids releasing a lock another instance took over after expiry).
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

func (g *runGuard) Release(ctx context.Context, job string) error {
	if err := releaseScript.Run(ctx, g.client, []string{lockKey(job)}, g.owner).Err(); err != nil {
		return fmt.Errorf("release run lock for %s: %w", job, err)
	}
	return nil
}
