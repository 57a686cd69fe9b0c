package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so a
// call that outlived its TTL cannot clear a newer holder's flag.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisInFlight struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisInFlight(client redis.UniversalClient, ttl time.Duration) *RedisInFlight {
	return &RedisInFlight{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisInFlight) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, inFlightKey(key), token, r.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (r *RedisInFlight) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, r.client, []string{inFlightKey(key)}, token).Err()
}

func inFlightKey(key string) string {
	return "inflight:" + key
}
