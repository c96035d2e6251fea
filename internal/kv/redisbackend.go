// Copyright 2026 Tribbler Project. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kv

import (
	"context"
	"errors"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

// redisConn is the narrow surface redisBackend needs from a Redis client,
// with go-redis's Cmd/error-sentinel conventions already resolved into
// plain Go values. Mirrors the teacher's RedisEvaler/GoRedisEvaler split
// (persistence/clients.go): production code wraps the real driver, tests
// supply a fake satisfying the same small interface.
type redisConn interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Scan(ctx context.Context, cursor uint64, match string, count int64) (keys []string, next uint64, err error)
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	RPush(ctx context.Context, key, value string) error
	LRem(ctx context.Context, key string, count int64, value string) (int64, error)
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// goRedisConn adapts a redis.Cmdable to redisConn, the production
// implementation of the seam above.
type goRedisConn struct{ c redis.Cmdable }

func (g *goRedisConn) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := g.c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (g *goRedisConn) Set(ctx context.Context, key, value string) error {
	return g.c.Set(ctx, key, value, 0).Err()
}

func (g *goRedisConn) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return g.c.Scan(ctx, cursor, match, count).Result()
}

func (g *goRedisConn) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return g.c.LRange(ctx, key, start, stop).Result()
}

func (g *goRedisConn) RPush(ctx context.Context, key, value string) error {
	return g.c.RPush(ctx, key, value).Err()
}

func (g *goRedisConn) LRem(ctx context.Context, key string, count int64, value string) (int64, error) {
	return g.c.LRem(ctx, key, count, value).Result()
}

func (g *goRedisConn) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return g.c.Eval(ctx, script, keys, args...).Result()
}

// redisBackend stores string keys under the "s:" namespace and list keys
// under "l:", so Keys/ListKeys can SCAN only the relevant namespace; the
// logical clock lives at a fixed key. The atomic "only advance, never
// reuse" clock semantics are implemented with a small Lua script, the same
// technique the teacher's RedisPersister uses for its idempotent counter
// update (persistence/redis.go).
type redisBackend struct {
	conn redisConn
}

// NewRedis returns a Backend backed by a real Redis server reachable at
// addr (e.g. "127.0.0.1:6379").
func NewRedis(addr string) Backend {
	return &redisBackend{conn: &goRedisConn{c: redis.NewClient(&redis.Options{Addr: addr})}}
}

// NewRedisFromClient wraps an already-constructed redis.Cmdable, useful for
// sharing a single client/cluster connection across multiple back ends.
func NewRedisFromClient(c redis.Cmdable) Backend {
	return &redisBackend{conn: &goRedisConn{c: c}}
}

func stringKey(k string) string { return "s:" + k }
func listKey(k string) string   { return "l:" + k }

const redisClockKey = "clock"

// clockLuaScript advances the counter to max(current+1, atLeast), which
// guarantees strict monotonicity: if atLeast is beyond the stored value,
// jump to atLeast; otherwise increment by one. Returns the new value.
const clockLuaScript = `
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local atLeast = tonumber(ARGV[1])
local next
if atLeast > cur then
  next = atLeast
else
  next = cur + 1
end
redis.call('SET', KEYS[1], next)
return next
`

func (r *redisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	return r.conn.Get(ctx, stringKey(key))
}

func (r *redisBackend) Set(ctx context.Context, kv KeyValue) (bool, error) {
	if err := r.conn.Set(ctx, stringKey(kv.Key), kv.Value); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisBackend) Keys(ctx context.Context, p Pattern) ([]string, error) {
	return r.scanNamespace(ctx, "s:", p)
}

func (r *redisBackend) ListKeys(ctx context.Context, p Pattern) ([]string, error) {
	return r.scanNamespace(ctx, "l:", p)
}

func (r *redisBackend) scanNamespace(ctx context.Context, ns string, p Pattern) ([]string, error) {
	var out []string
	var cursor uint64
	match := ns + p.Prefix + "*"
	for {
		keys, next, err := r.conn.Scan(ctx, cursor, match, 1000)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			logical := strings.TrimPrefix(k, ns)
			if p.Match(logical) {
				out = append(out, logical)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}

func (r *redisBackend) ListGet(ctx context.Context, key string) ([]string, error) {
	return r.conn.LRange(ctx, listKey(key), 0, -1)
}

func (r *redisBackend) ListAppend(ctx context.Context, kv KeyValue) (bool, error) {
	if err := r.conn.RPush(ctx, listKey(kv.Key), kv.Value); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisBackend) ListRemove(ctx context.Context, kv KeyValue) (uint32, error) {
	n, err := r.conn.LRem(ctx, listKey(kv.Key), 0, kv.Value)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func (r *redisBackend) Clock(ctx context.Context, atLeast uint64) (uint64, error) {
	res, err := r.conn.Eval(ctx, clockLuaScript, []string{redisClockKey}, atLeast)
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return uint64(v), nil
	default:
		return 0, errors.New("redis: unexpected clock script result type")
	}
}
