// internal/store/lease.go
package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobLease is a database-backed claim that guarantees at most one worker
// instance executes a given job window, regardless of deployment topology.
// A module-level "already running" boolean would not survive multiple
// process instances; a conditional SET with expiry does.
type JobLease struct {
	client *redis.Client
	holder string
}

func NewJobLease(client *redis.Client) *JobLease {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &JobLease{
		client: client,
		holder: fmt.Sprintf("%s-%d", hostname, os.Getpid()),
	}
}

func leaseKey(job string) string {
	return "job-lease:" + job
}

// Acquire claims the lease for the job. Returns false when another holder
// owns it; the caller skips the run and the lease expires on its own.
func (l *JobLease) Acquire(ctx context.Context, job string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, leaseKey(job), l.holder, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lease for %s: %w", job, err)
	}
	return ok, nil
}

// Release frees the lease early if this instance still holds it. Releasing
// someone else's lease would let two runs overlap, so the holder is checked
// first.
func (l *JobLease) Release(ctx context.Context, job string) error {
	val, err := l.client.Get(ctx, leaseKey(job)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return fmt.Errorf("read lease for %s: %w", job, err)
	}
	if val != l.holder {
		return nil
	}
	return l.client.Del(ctx, leaseKey(job)).Err()
}
