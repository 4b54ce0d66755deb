package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/kv"
)

var ErrInviteCodeTaken = errors.New("邀请码已被占用")

// CreateGroup 在同一个批量写入中写入组、邀请码以及创建者的两份成员记录
func (r *Repository) CreateGroup(group *domain.Group, creator *domain.Membership) error {
	ctx, cancel := r.kvContext()
	defer cancel()

	groupMut, err := putJSON(groupKey(group.ID), group)
	if err != nil {
		return err
	}
	membership, err := json.Marshal(creator)
	if err != nil {
		return err
	}

	muts := []kv.Mutation{
		groupMut,
		kv.Put(inviteKey(group.InviteCode), []byte(group.ID)),
		kv.Put(userGroupsKey(creator.UserID, group.ID), membership),
		kv.Put(groupMembersKey(group.ID, creator.UserID), membership),
	}

	if err := r.apply(ctx, muts, kv.Absent(inviteKey(group.InviteCode)), kv.Absent(groupKey(group.ID))); err != nil {
		if errors.Is(err, ErrEditConflict) {
			return ErrInviteCodeTaken
		}
		return err
	}

	return nil
}

func (r *Repository) GetGroupByID(id string) (*domain.Group, error) {
	ctx, cancel := r.kvContext()
	defer cancel()

	group := &domain.Group{}
	if _, err := r.getJSON(ctx, groupKey(id), group); err != nil {
		return nil, err
	}
	return group, nil
}

// GetGroupIDByInviteCode 邀请码区分大小写，调用方负责转换成大写
func (r *Repository) GetGroupIDByInviteCode(code string) (string, error) {
	ctx, cancel := r.kvContext()
	defer cancel()

	raw, err := r.store.Get(ctx, inviteKey(code))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", ErrRecordNotFound
		}
		return "", err
	}
	return string(raw), nil
}

func (r *Repository) UpdateGroup(group *domain.Group) error {
	ctx, cancel := r.kvContext()
	defer cancel()

	b, err := json.Marshal(group)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, groupKey(group.ID), b)
}

// DeleteGroup 删除组以及所有挂在组下面的数据：成员、邀请码、投稿、回答和班次
func (r *Repository) DeleteGroup(group *domain.Group) error {
	ctx, cancel := r.kvContext()
	defer cancel()

	muts := []kv.Mutation{
		kv.Del(groupKey(group.ID)),
		kv.Del(inviteKey(group.InviteCode)),
	}

	members, err := r.store.GetByPrefixWithKeys(ctx, groupMembersPrefix(group.ID))
	if err != nil {
		return err
	}
	for _, e := range members {
		userID := e.Key[len(groupMembersPrefix(group.ID)):]
		muts = append(muts, kv.Del(e.Key), kv.Del(userGroupsKey(userID, group.ID)))
	}

	posts, err := r.store.GetByPrefixWithKeys(ctx, groupPostsPrefix(group.ID))
	if err != nil {
		return err
	}
	for _, e := range posts {
		postID := e.Key[len(groupPostsPrefix(group.ID)):]
		cascade, err := r.postCascade(ctx, group.ID, postID)
		if err != nil {
			return err
		}
		muts = append(muts, cascade...)
	}

	if err := r.apply(ctx, muts); err != nil {
		return fmt.Errorf("删除组 %s 失败: %w", group.ID, err)
	}
	return nil
}
