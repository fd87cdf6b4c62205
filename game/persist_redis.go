package game

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// RedisTableStore persists table states in redis, one JSON document
// per table code.
type RedisTableStore struct {
	rdclient *redis.Client
}

func NewRedisTableStore(redisURL string, redisPW string, redisDB int) *RedisTableStore {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: redisPW,
		DB:       redisDB,
	})
	return &RedisTableStore{
		rdclient: rdclient,
	}
}

func tableKey(code string) string {
	return fmt.Sprintf("table|%s", code)
}

func (r *RedisTableStore) Create(ctx context.Context, state *TableState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	ok, err := r.rdclient.SetNX(ctx, tableKey(state.Table.Code), data, 0).Result()
	if err != nil {
		return errors.Wrap(err, "creating table state")
	}
	if !ok {
		return ConflictError{"table code exists"}
	}
	return nil
}

func (r *RedisTableStore) Load(ctx context.Context, code string) (*TableState, error) {
	data, err := r.rdclient.Get(ctx, tableKey(code)).Result()
	if err == redis.Nil {
		return nil, NotFoundError{"table not found"}
	} else if err != nil {
		return nil, errors.Wrap(err, "loading table state")
	}
	var state TableState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *RedisTableStore) Save(ctx context.Context, state *TableState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	err = r.rdclient.Set(ctx, tableKey(state.Table.Code), data, 0).Err()
	return errors.Wrap(err, "saving table state")
}

func (r *RedisTableStore) Remove(ctx context.Context, code string) error {
	err := r.rdclient.Del(ctx, tableKey(code)).Err()
	return errors.Wrap(err, "removing table state")
}
