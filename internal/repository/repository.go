package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/group-shift/backend/internal/config"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/kv"
)

var (
	ErrRecordNotFound = errors.New("记录不存在")
	ErrEditConflict   = errors.New("数据已被其他请求修改，请重试")
)

type Repository struct {
	cfg    *config.Config
	store  kv.Store
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, store kv.Store, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		store:  store,
		dbpool: dbpool,
	}
}

func (r *Repository) kvContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.KV.OperationTimeout)*time.Second)
}

func (r *Repository) dbContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

// apply 把 kv 的冲突错误转换成 ErrEditConflict
func (r *Repository) apply(ctx context.Context, muts []kv.Mutation, guards ...kv.Guard) error {
	if err := r.store.Apply(ctx, muts, guards...); err != nil {
		if errors.Is(err, kv.ErrConflict) {
			return ErrEditConflict
		}
		return err
	}
	return nil
}

func (r *Repository) getJSON(ctx context.Context, key string, v any) ([]byte, error) {
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", key, err)
	}
	return raw, nil
}

// scanJSON 按键的顺序解析 prefix 下的所有记录，解析失败的记录只记录日志并跳过
func scanJSON[T any](ctx context.Context, store kv.Store, prefix string) ([]*T, []kv.Entry, error) {
	entries, err := store.GetByPrefixWithKeys(ctx, prefix)
	if err != nil {
		return nil, nil, err
	}

	out := make([]*T, 0, len(entries))
	kept := make([]kv.Entry, 0, len(entries))
	for _, e := range entries {
		v := new(T)
		if err := json.Unmarshal(e.Value, v); err != nil {
			slog.Warn("跳过无法解析的记录", "key", e.Key, "error", err)
			continue
		}
		out = append(out, v)
		kept = append(kept, e)
	}
	return out, kept, nil
}

func putJSON(key string, v any) (kv.Mutation, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return kv.Mutation{}, err
	}
	return kv.Put(key, b), nil
}

func groupKey(groupID string) string { return "group:" + groupID }
func inviteKey(code string) string { return "invite:" + code }
func userGroupsPrefix(userID string) string { return "user_groups:" + userID + ":" }
func userGroupsKey(userID, groupID string) string {
	return userGroupsPrefix(userID) + groupID
}
func groupMembersPrefix(groupID string) string { return "group_members:" + groupID + ":" }
func groupMembersKey(groupID, userID string) string {
	return groupMembersPrefix(groupID) + userID
}
func postKey(postID string) string { return "post:" + postID }
func groupPostsPrefix(groupID string) string { return "group_posts:" + groupID + ":" }
func groupPostsKey(groupID, postID string) string {
	return groupPostsPrefix(groupID) + postID
}
func responsesPrefix(postID string) string { return "response:" + postID + ":" }
func responseKey(postID, userID string) string {
	return responsesPrefix(postID) + userID
}
func publishedShiftsPrefix(postID string) string { return "published_shifts:" + postID + ":" }
func publishedShiftKey(postID, shiftID string) string {
	return publishedShiftsPrefix(postID) + shiftID
}
