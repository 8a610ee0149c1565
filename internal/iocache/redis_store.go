package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/redis/go-redis/v9"
)

const (
	// redisEntryTTL bounds how long stale timetables linger in Redis.
	// Freshness is still decided by the caller from the stored timestamp.
	redisEntryTTL = 7 * 24 * time.Hour

	redisOpTimeout = 5 * time.Second
	redisScanCount = 200
)

// RedisStore keeps cache entries as hashes under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ contract.CacheStore = &RedisStore{} // Compile-time check

// NewRedisStore connects to the Redis server at url (redis:// or rediss://).
func NewRedisStore(url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// redisPrefix namespaces the keys of one logical table.
func redisPrefix(table string) string {
	return "makan:" + table + ":"
}

func (rs *RedisStore) key(k string) string {
	return rs.prefix + k
}

// Get retrieves a value by key. Missing keys return sql.ErrNoRows like the SQL stores.
func (rs *RedisStore) Get(key string) ([]byte, int, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	fields, err := rs.client.HGetAll(ctx, rs.key(key)).Result()
	if err != nil {
		return nil, 0, 0, err
	}
	if len(fields) == 0 {
		return nil, 0, 0, sql.ErrNoRows
	}

	version, err := strconv.Atoi(fields["version"])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache version for %s: %w", key, err)
	}
	ts, err := strconv.ParseInt(fields["timestamp"], 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache timestamp for %s: %w", key, err)
	}
	return []byte(fields["value"]), version, ts, nil
}

// Set stores the entry and refreshes its expiry in one transaction.
func (rs *RedisStore) Set(key string, value []byte, version int, timestamp int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	k := rs.key(key)
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, "value", value, "version", version, "timestamp", timestamp)
		pipe.Expire(ctx, k, redisEntryTTL)
		return nil
	})
	return err
}

// scanKeys walks every key under the store prefix.
func (rs *RedisStore) scanKeys(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := rs.client.Scan(ctx, cursor, rs.prefix+"*", redisScanCount).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// GetStatus returns status information about the Redis store.
func (rs *RedisStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: string(schema.RedisBackend), Connected: true}

	ctx, cancel := context.WithTimeout(context.Background(), 4*redisOpTimeout)
	defer cancel()

	var newest, oldest int64
	err := rs.scanKeys(ctx, func(keys []string) error {
		for _, k := range keys {
			raw, err := rs.client.HGet(ctx, k, "timestamp").Result()
			if errors.Is(err, redis.Nil) {
				continue // expired between SCAN and HGET
			}
			if err != nil {
				return err
			}
			ts, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			status.TotalEntries++
			if newest == 0 || ts > newest {
				newest = ts
			}
			if oldest == 0 || ts < oldest {
				oldest = ts
			}
			if size, err := rs.client.MemoryUsage(ctx, k).Result(); err == nil {
				status.TableSizeBytes += size
			}
		}
		return nil
	})
	if err != nil {
		return status, fmt.Errorf("failed to scan redis keys: %w", err)
	}

	if status.TotalEntries > 0 {
		status.LastEntryTime = time.Unix(newest, 0)
		status.OldestEntryTime = time.Unix(oldest, 0)
	}
	return status, nil
}

// clear removes every key under the store prefix.
func (rs *RedisStore) clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), 4*redisOpTimeout)
	defer cancel()
	return rs.scanKeys(ctx, func(keys []string) error {
		return rs.client.Del(ctx, keys...).Err()
	})
}

// Close closes the Redis client.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
