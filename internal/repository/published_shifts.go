package repository

import (
	"context"
	"fmt"

	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/kv"
)

func (r *Repository) GetPublishedShifts(postID string) ([]*domain.PublishedShift, error) {
	ctx, cancel := r.kvContext()
	defer cancel()

	rows, _, err := scanJSON[domain.PublishedShift](ctx, r.store, publishedShiftsPrefix(postID))
	return rows, err
}

// GroupShifts 按键的顺序扫描组内所有已采用的调查，再按键的顺序扫描每个调查下的班次
type GroupShifts struct {
	Rows   []*domain.PublishedShift
	Guards map[string]kv.Guard // 以班次 ID 为键
}

func (r *Repository) groupShifts(ctx context.Context, groupID string) (*GroupShifts, error) {
	posts, _, err := scanJSON[domain.Post](ctx, r.store, groupPostsPrefix(groupID))
	if err != nil {
		return nil, err
	}

	out := &GroupShifts{
		Rows:   make([]*domain.PublishedShift, 0),
		Guards: make(map[string]kv.Guard),
	}
	for _, p := range posts {
		if !p.IsPublished() {
			continue
		}
		rows, entries, err := scanJSON[domain.PublishedShift](ctx, r.store, publishedShiftsPrefix(p.ID))
		if err != nil {
			return nil, err
		}
		for i, row := range rows {
			out.Rows = append(out.Rows, row)
			out.Guards[row.ID] = kv.Expect(entries[i].Key, entries[i].Value)
		}
	}
	return out, nil
}

// GetGroupShifts 返回组内所有已采用调查的班次以及每条班次的守卫
func (r *Repository) GetGroupShifts(groupID string) (*GroupShifts, error) {
	ctx, cancel := r.kvContext()
	defer cancel()

	return r.groupShifts(ctx, groupID)
}

// PublishShifts 在一次批量写入中完成采用：删除旧班次和旧的采用结果，写入新班次、
// 更新后的调查以及新的采用结果。surveyGuard 不满足时返回 ErrEditConflict
func (r *Repository) PublishShifts(survey *domain.Post, rows []*domain.PublishedShift, result *domain.Post, surveyGuard kv.Guard) error {
	ctx, cancel := r.kvContext()
	defer cancel()

	muts := make([]kv.Mutation, 0, len(rows)+8)

	// 先删除之前的班次
	old, err := r.store.GetByPrefixWithKeys(ctx, publishedShiftsPrefix(survey.ID))
	if err != nil {
		return err
	}
	for _, e := range old {
		muts = append(muts, kv.Del(e.Key))
	}

	// 再删除之前的采用结果，保证每个调查只有一个结果投稿
	results, err := r.relatedResults(ctx, survey.GroupID, survey.ID)
	if err != nil {
		return err
	}
	for _, res := range results {
		muts = append(muts, kv.Del(postKey(res.ID)), kv.Del(groupPostsKey(res.GroupID, res.ID)))
	}

	for _, row := range rows {
		m, err := putJSON(publishedShiftKey(survey.ID, row.ID), row)
		if err != nil {
			return err
		}
		muts = append(muts, m)
	}

	for _, p := range []*domain.Post{survey, result} {
		pm, err := postMutations(p)
		if err != nil {
			return err
		}
		muts = append(muts, pm...)
	}

	if err := r.apply(ctx, muts, surveyGuard); err != nil {
		return fmt.Errorf("采用调查 %s 失败: %w", survey.ID, err)
	}
	return nil
}

// AcceptSubstitute 删除交代申请、写入交代结果，updated 不为 nil 时同时写入交给新成员的班次。
// guards 至少应该包含申请投稿的守卫，有匹配的班次时还应该包含该班次的守卫
func (r *Repository) AcceptSubstitute(request, result *domain.Post, updated *domain.PublishedShift, guards ...kv.Guard) error {
	ctx, cancel := r.kvContext()
	defer cancel()

	muts, err := r.postCascade(ctx, request.GroupID, request.ID)
	if err != nil {
		return err
	}

	pm, err := postMutations(result)
	if err != nil {
		return err
	}
	muts = append(muts, pm...)

	if updated != nil {
		m, err := putJSON(publishedShiftKey(updated.PostID, updated.ID), updated)
		if err != nil {
			return err
		}
		muts = append(muts, m)
	}

	if err := r.apply(ctx, muts, guards...); err != nil {
		return fmt.Errorf("接受交代申请 %s 失败: %w", request.ID, err)
	}
	return nil
}
