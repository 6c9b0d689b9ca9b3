package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if the caller still owns it.
// Releasing a foreign owner's lock is a no-op.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// LockStore is a short-lived distributed mutex keyed by
// (resourceType, resourceID), backed by Redis. Acquire never blocks;
// expiry is handled by Redis key TTL, so a crashed holder frees the
// lock within the TTL without any sweeper.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func lockKey(resourceType, resourceID string) string {
	return fmt.Sprintf("lock:%s:%s", resourceType, resourceID)
}

// Acquire attempts to take the lock for owner. Returns true only if no
// live lock exists for the key; the write is a single atomic SET NX PX.
func (s *LockStore) Acquire(ctx context.Context, resourceType, resourceID, owner string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKey(resourceType, resourceID), owner, ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release frees the lock if and only if owner still holds it.
func (s *LockStore) Release(ctx context.Context, resourceType, resourceID, owner string) error {
	return s.client.Eval(ctx, releaseScript, []string{lockKey(resourceType, resourceID)}, owner).Err()
}
