package repository

import (
	"encoding/json"

	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
)

// UpsertResponse 每个 (postId, userId) 只保留最新的一次提交
func (r *Repository) UpsertResponse(resp *domain.Response) error {
	ctx, cancel := r.kvContext()
	defer cancel()

	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, responseKey(resp.PostID, resp.UserID), b)
}

func (r *Repository) GetResponse(postID, userID string) (*domain.Response, error) {
	ctx, cancel := r.kvContext()
	defer cancel()

	resp := &domain.Response{}
	if _, err := r.getJSON(ctx, responseKey(postID, userID), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *Repository) GetPostResponses(postID string) ([]*domain.Response, error) {
	ctx, cancel := r.kvContext()
	defer cancel()

	resps, _, err := scanJSON[domain.Response](ctx, r.store, responsesPrefix(postID))
	return resps, err
}
