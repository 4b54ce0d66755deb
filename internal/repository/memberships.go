package repository

import (
	"cmp"
	"encoding/json"
	"errors"
	"slices"

	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/kv"
)

var ErrAlreadyMember = errors.New("已经是该组的成员")

// AddMembership 同时写入正向和反向两份完全相同的成员记录
func (r *Repository) AddMembership(m *domain.Membership) error {
	ctx, cancel := r.kvContext()
	defer cancel()

	b, err := json.Marshal(m)
	if err != nil {
		return err
	}

	muts := []kv.Mutation{
		kv.Put(userGroupsKey(m.UserID, m.GroupID), b),
		kv.Put(groupMembersKey(m.GroupID, m.UserID), b),
	}
	if err := r.apply(ctx, muts, kv.Absent(groupMembersKey(m.GroupID, m.UserID))); err != nil {
		if errors.Is(err, ErrEditConflict) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (r *Repository) GetMembership(groupID, userID string) (*domain.Membership, error) {
	ctx, cancel := r.kvContext()
	defer cancel()

	m := &domain.Membership{}
	if _, err := r.getJSON(ctx, groupMembersKey(groupID, userID), m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repository) RemoveMembership(groupID, userID string) error {
	ctx, cancel := r.kvContext()
	defer cancel()

	return r.apply(ctx, []kv.Mutation{
		kv.Del(userGroupsKey(userID, groupID)),
		kv.Del(groupMembersKey(groupID, userID)),
	})
}

// GetUserMemberships 返回用户加入的所有组的成员记录
func (r *Repository) GetUserMemberships(userID string) ([]*domain.Membership, error) {
	ctx, cancel := r.kvContext()
	defer cancel()

	ms, _, err := scanJSON[domain.Membership](ctx, r.store, userGroupsPrefix(userID))
	return ms, err
}

// GetGroupMemberships 管理员在前，同一角色内按加入时间排序
func (r *Repository) GetGroupMemberships(groupID string) ([]*domain.Membership, error) {
	ctx, cancel := r.kvContext()
	defer cancel()

	ms, _, err := scanJSON[domain.Membership](ctx, r.store, groupMembersPrefix(groupID))
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(ms, func(a, b *domain.Membership) int {
		if a.IsAdmin() != b.IsAdmin() {
			if a.IsAdmin() {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.JoinedAt.UnixNano(), b.JoinedAt.UnixNano())
	})
	return ms, nil
}
