package risk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/examwatch/proctor-admin/internal/backend"
)

const redisKeyPrefix = "proctoradmin:board:"

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisFlags is a FlagStore kept in one Redis hash so several dashboard replicas share it.
type RedisFlags struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewRedisFlags(client redis.Cmdable, key string, ttl time.Duration) *RedisFlags {
	return &RedisFlags{client: client, key: key, ttl: ttl}
}

func (r *RedisFlags) Lookup(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	values, err := r.client.HMGet(ctx, r.key, ids...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[ids[i]] = s == "1"
	}
	return out, nil
}

func (r *RedisFlags) Merge(ctx context.Context, flags map[string]bool) error {
	if len(flags) == 0 {
		return nil
	}
	fields := make(map[string]any, len(flags))
	for id, v := range flags {
		if v {
			fields[id] = "1"
		} else {
			fields[id] = "0"
		}
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, fields)
		if r.ttl > 0 {
			pipe.Expire(ctx, r.key, r.ttl)
		}
		return nil
	})
	return err
}

func (r *RedisFlags) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

// RedisBoards stores each board as a JSON string next to its flag hash.
type RedisBoards struct {
	client redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisBoards(client redis.Cmdable, ttl time.Duration) *RedisBoards {
	return &RedisBoards{client: client, ttl: ttl, now: time.Now}
}

func boardKey(id string) string { return redisKeyPrefix + id }
func flagsKey(id string) string { return redisKeyPrefix + id + ":flags" }

func (r *RedisBoards) Get(ctx context.Context, id string) (Board, error) {
	id = strings.TrimSpace(id)
	raw, err := r.client.Get(ctx, boardKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Board{}, ErrBoardNotFound
	}
	if err != nil {
		return Board{}, err
	}
	var board Board
	if err := json.Unmarshal(raw, &board); err != nil {
		return Board{}, fmt.Errorf("decode board %s: %w", id, err)
	}
	if r.ttl > 0 {
		_ = r.client.Expire(ctx, boardKey(id), r.ttl).Err()
	}
	return board, nil
}

func (r *RedisBoards) Reset(ctx context.Context, id, query string, sessions []backend.Session) (Board, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Board{}, errors.New("board id is required")
	}
	board := Board{
		ID:       id,
		Query:    strings.TrimSpace(query),
		Sessions: sessions,
		LoadedAt: r.now(),
	}
	raw, err := json.Marshal(board)
	if err != nil {
		return Board{}, err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, boardKey(id), raw, r.ttl)
		pipe.Del(ctx, flagsKey(id))
		return nil
	})
	if err != nil {
		return Board{}, err
	}
	return board, nil
}

func (r *RedisBoards) Flags(id string) FlagStore {
	return NewRedisFlags(r.client, flagsKey(strings.TrimSpace(id)), r.ttl)
}
