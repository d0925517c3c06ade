package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"serotonyl.ru/manifest369/internal/common"
)

const (
	fieldData    = "data"
	fieldVersion = "version"
)

// RedisStore хранит документ как hash {data, version}.
// Проверка версии и запись выполняются в WATCH/MULTI транзакции.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisClient подключается к Redis и проверяет соединение.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewRedisStore создаёт хранилище; все ключи получают префикс.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (r *RedisStore) key(k string) string { return r.prefix + k }

// Get возвращает документ по ключу.
func (r *RedisStore) Get(ctx context.Context, key string) (Record, error) {
	vals, err := r.rdb.HGetAll(ctx, r.key(key)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("redis hgetall: %w", err)
	}
	return decodeHash(vals)
}

// Put записывает документ, если версия совпадает с ожидаемой.
func (r *RedisStore) Put(ctx context.Context, key string, data []byte, expected int64) (int64, error) {
	k := r.key(key)
	next := expected + 1

	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		vals, err := tx.HGetAll(ctx, k).Result()
		if err != nil {
			return err
		}
		current := int64(0)
		if len(vals) > 0 {
			rec, err := decodeHash(vals)
			if err != nil {
				return err
			}
			current = rec.Version
		}
		if current != expected {
			return common.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k, fieldData, data, fieldVersion, next)
			return nil
		})
		return err
	}, k)

	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, common.ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return 0, common.ErrVersionConflict
	default:
		return 0, fmt.Errorf("redis put: %w", err)
	}
}

// Delete удаляет документ.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func decodeHash(vals map[string]string) (Record, error) {
	if len(vals) == 0 {
		return Record{}, common.ErrNotFound
	}
	version, err := strconv.ParseInt(vals[fieldVersion], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("некорректная версия в redis: %w", err)
	}
	return Record{Data: []byte(vals[fieldData]), Version: version}, nil
}
