package repository

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/kv"
)

func postMutations(post *domain.Post) ([]kv.Mutation, error) {
	b, err := json.Marshal(post)
	if err != nil {
		return nil, err
	}
	return []kv.Mutation{
		kv.Put(postKey(post.ID), b),
		kv.Put(groupPostsKey(post.GroupID, post.ID), b),
	}, nil
}

// CreatePost 同时写入 post 和 group_posts 两个键
func (r *Repository) CreatePost(post *domain.Post) error {
	ctx, cancel := r.kvContext()
	defer cancel()

	muts, err := postMutations(post)
	if err != nil {
		return err
	}
	return r.apply(ctx, muts, kv.Absent(postKey(post.ID)))
}

func (r *Repository) GetPost(id string) (*domain.Post, error) {
	post, _, err := r.GetPostForUpdate(id)
	return post, err
}

// GetPostForUpdate 额外返回一个守卫，后续写入时如果投稿已经被修改或删除会返回 ErrEditConflict
func (r *Repository) GetPostForUpdate(id string) (*domain.Post, kv.Guard, error) {
	ctx, cancel := r.kvContext()
	defer cancel()

	post := &domain.Post{}
	raw, err := r.getJSON(ctx, postKey(id), post)
	if err != nil {
		return nil, kv.Guard{}, err
	}
	return post, kv.Expect(postKey(id), raw), nil
}

// GetGroupPosts 按创建时间倒序返回组内的投稿，无法解析或者类型未知的记录会被跳过
func (r *Repository) GetGroupPosts(groupID string) ([]*domain.Post, error) {
	ctx, cancel := r.kvContext()
	defer cancel()

	posts, _, err := scanJSON[domain.Post](ctx, r.store, groupPostsPrefix(groupID))
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(posts, func(a, b *domain.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return posts, nil
}

// postCascade 返回删除一个投稿需要的所有 mutation：两份投稿记录、回答以及班次
func (r *Repository) postCascade(ctx context.Context, groupID, postID string) ([]kv.Mutation, error) {
	muts := []kv.Mutation{
		kv.Del(postKey(postID)),
		kv.Del(groupPostsKey(groupID, postID)),
	}

	for _, prefix := range []string{responsesPrefix(postID), publishedShiftsPrefix(postID)} {
		entries, err := r.store.GetByPrefixWithKeys(ctx, prefix)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			muts = append(muts, kv.Del(e.Key))
		}
	}

	return muts, nil
}

// relatedResults 找到由这个调查采用生成的所有 shift_result 投稿
func (r *Repository) relatedResults(ctx context.Context, groupID, surveyID string) ([]*domain.Post, error) {
	posts, _, err := scanJSON[domain.Post](ctx, r.store, groupPostsPrefix(groupID))
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Post, 0)
	for _, p := range posts {
		if res, ok := p.ShiftResult(); ok && res.OriginalPostID == surveyID {
			out = append(out, p)
		}
	}
	return out, nil
}

// DeletePost 删除投稿以及它的回答和班次；删除调查时一并删除它的采用结果
func (r *Repository) DeletePost(post *domain.Post) error {
	ctx, cancel := r.kvContext()
	defer cancel()

	muts, err := r.postCascade(ctx, post.GroupID, post.ID)
	if err != nil {
		return err
	}

	if post.Type() == domain.PostTypeShiftSurvey {
		results, err := r.relatedResults(ctx, post.GroupID, post.ID)
		if err != nil {
			return err
		}
		for _, res := range results {
			cascade, err := r.postCascade(ctx, res.GroupID, res.ID)
			if err != nil {
				return err
			}
			muts = append(muts, cascade...)
		}
	}

	return r.apply(ctx, muts)
}
