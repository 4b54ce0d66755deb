package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	scanCount = 200
	mgetChunk = 200
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func (s *RedisStore) GetByPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	entries, err := s.GetByPrefixWithKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return values(entries), nil
}

func (s *RedisStore) GetByPrefixWithKeys(ctx context.Context, prefix string) ([]Entry, error) {
	// SCAN 可能重复返回同一个键，需要去重
	seen := make(map[string]struct{})
	keys := make([]string, 0)

	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefix, err)
	}

	slices.Sort(keys)

	entries := make([]Entry, 0, len(keys))
	for start := 0; start < len(keys); start += mgetChunk {
		chunk := keys[start:min(start+mgetChunk, len(keys))]
		vals, err := s.client.MGet(ctx, chunk...).Result()
		if err != nil {
			return nil, fmt.Errorf("mget %s: %w", prefix, err)
		}
		for i, v := range vals {
			// 扫描和读取之间被删除的键返回 nil
			str, ok := v.(string)
			if !ok {
				continue
			}
			entries = append(entries, Entry{Key: chunk[i], Value: []byte(str)})
		}
	}

	return entries, nil
}

func (s *RedisStore) Apply(ctx context.Context, muts []Mutation, guards ...Guard) error {
	muts = compact(muts)

	guardKeys := make([]string, len(guards))
	for i, g := range guards {
		guardKeys[i] = g.Key
	}

	txf := func(tx *redis.Tx) error {
		for _, g := range guards {
			cur, err := tx.Get(ctx, g.Key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
				if g.Value != nil {
					return ErrConflict
				}
				continue
			case err != nil:
				return err
			}
			if g.Value == nil || !bytes.Equal(cur, g.Value) {
				return ErrConflict
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, m := range muts {
				if m.Delete {
					pipe.Del(ctx, m.Key)
				} else {
					pipe.Set(ctx, m.Key, m.Value, 0)
				}
			}
			return nil
		})
		return err
	}

	if err := s.client.Watch(ctx, txf, guardKeys...); err != nil {
		switch {
		case errors.Is(err, ErrConflict):
			return ErrConflict
		case errors.Is(err, redis.TxFailedErr):
			// 被 WATCH 的键在 EXEC 之前被其他客户端修改
			return ErrConflict
		default:
			return fmt.Errorf("apply: %w", err)
		}
	}

	return nil
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
