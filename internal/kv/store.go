// Package kv 是所有业务数据的键值存储层，提供 get / set / delete / 前缀扫描以及带守卫条件的原子批量写入
package kv

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("kv: 记录不存在")
	ErrConflict = errors.New("kv: 守卫条件不满足，数据已被并发修改")
)

type Entry struct {
	Key   string
	Value []byte
}

// Mutation 表示批量写入中的一次写入或删除
type Mutation struct {
	Key    string
	Value  []byte
	Delete bool
}

func Put(key string, value []byte) Mutation {
	return Mutation{Key: key, Value: value}
}

func Del(key string) Mutation {
	return Mutation{Key: key, Delete: true}
}

// Guard 要求 Key 在提交时仍然保存着 Value；Value 为 nil 时要求 Key 不存在
type Guard struct {
	Key   string
	Value []byte
}

func Expect(key string, value []byte) Guard {
	return Guard{Key: key, Value: value}
}

func Absent(key string) Guard {
	return Guard{Key: key}
}

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	// GetByPrefix 按键的字典序返回所有以 prefix 开头的值
	GetByPrefix(ctx context.Context, prefix string) ([][]byte, error)
	GetByPrefixWithKeys(ctx context.Context, prefix string) ([]Entry, error)
	// Apply 原子地执行 muts，任意一个 guard 不满足时返回 ErrConflict 且不做任何写入
	Apply(ctx context.Context, muts []Mutation, guards ...Guard) error
}

// compact 去掉同一个键上被后续写入覆盖的 mutation，保留最后一次写入的位置顺序
func compact(muts []Mutation) []Mutation {
	last := make(map[string]int, len(muts))
	for i, m := range muts {
		last[m.Key] = i
	}

	out := make([]Mutation, 0, len(last))
	for i, m := range muts {
		if last[m.Key] == i {
			out = append(out, m)
		}
	}
	return out
}

func values(entries []Entry) [][]byte {
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}
