package presence

import (
	"context"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"
)

const (
	onlineSetKey   = "presence:online"
	countKeyPrefix = "presence:count:"
)

var incrementScript = goredis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('SADD', KEYS[2], ARGV[1])
end
return n
`)

var decrementScript = goredis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if cur <= 0 then
	return -1
end
local n = redis.call('DECR', KEYS[1])
if n <= 0 then
	redis.call('DEL', KEYS[1])
	redis.call('SREM', KEYS[2], ARGV[1])
	return 0
end
return n
`)

// scriptStore is the slice of the redis client the counter needs.
type scriptStore interface {
	RunScript(ctx context.Context, script *goredis.Script, keys []string, args ...any) (any, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}

// RedisCounter shares session counts between server instances. Each
// transition runs as one script so the edge is decided atomically.
type RedisCounter struct {
	store scriptStore
}

func NewRedisCounter(store scriptStore) *RedisCounter {
	return &RedisCounter{store: store}
}

func (c *RedisCounter) run(ctx context.Context, script *goredis.Script, userID string) (int64, error) {
	res, err := c.store.RunScript(ctx, script, []string{countKeyPrefix + userID, onlineSetKey}, userID)
	if err != nil {
		return 0, fmt.Errorf("presence script failed: %w", err)
	}
	n, ok := res.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected presence script reply %T", res)
	}
	return n, nil
}

func (c *RedisCounter) Increment(ctx context.Context, userID string) (int64, error) {
	return c.run(ctx, incrementScript, userID)
}

func (c *RedisCounter) Decrement(ctx context.Context, userID string) (int64, error) {
	return c.run(ctx, decrementScript, userID)
}

func (c *RedisCounter) Online(ctx context.Context) ([]string, error) {
	ids, err := c.store.SMembers(ctx, onlineSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list online users: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
