package trial

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease keeps overlapping scheduled runs from doing the same work twice. It is
// an optimisation only: the conditional update keeps concurrent runs correct.
type Lease interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLease implements Lease with SET NX PX and a compare-and-delete release.
type RedisLease struct {
	client *redis.Client
}

// NewRedisLease returns nil when client is nil so callers can skip the lease.
func NewRedisLease(client *redis.Client) *RedisLease {
	if client == nil {
		return nil
	}
	return &RedisLease{client: client}
}

// Acquire takes key for ttl. The returned release only deletes the key while
// this holder still owns it.
func (l *RedisLease) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}
	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}
	return release, true, nil
}
