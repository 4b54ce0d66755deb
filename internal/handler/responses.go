package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/repository"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/utils"
)

var errNotSurvey = errors.New("该投稿不是排班调查")

func (h *Handler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	post := r.Context().Value(PostCtx).(*domain.Post)

	survey, ok := post.Survey()
	if !ok {
		h.badRequest(w, r, errNotSurvey)
		return
	}

	var req struct {
		ShiftPreferences []domain.ShiftPreference `json:"shiftPreferences" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := utils.ValidateShiftPreferences(req.ShiftPreferences, survey); err != nil {
		h.badRequest(w, r, err)
		return
	}

	resp := &domain.Response{
		PostID:           post.ID,
		UserID:           myInfo.ID,
		ShiftPreferences: req.ShiftPreferences,
		SubmittedAt:      time.Now(),
	}
	if err := h.repository.UpsertResponse(resp); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "提交空闲时间成功", resp)
}

func (h *Handler) GetMyResponse(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	post := r.Context().Value(PostCtx).(*domain.Post)

	resp, err := h.repository.GetResponse(post.ID, myInfo.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			h.successResponse(w, r, "还没有提交空闲时间", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取空闲时间成功", resp)
}

// responsesWithUsers 为回答补上姓名和邮箱，找不到用户的回答会被跳过
func (h *Handler) responsesWithUsers(postID string) ([]*domain.ResponseWithUser, error) {
	resps, err := h.repository.GetPostResponses(postID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(resps))
	for i, resp := range resps {
		ids[i] = resp.UserID
	}
	users, err := h.users.GetUsersByIDs(ids)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.ResponseWithUser, 0, len(resps))
	for _, resp := range resps {
		u, ok := users[resp.UserID]
		if !ok {
			continue
		}
		out = append(out, &domain.ResponseWithUser{
			Response:  *resp,
			UserName:  u.DisplayName(),
			UserEmail: u.Email,
		})
	}
	return out, nil
}

func (h *Handler) ListResponses(w http.ResponseWriter, r *http.Request) {
	post := r.Context().Value(PostCtx).(*domain.Post)

	resps, err := h.responsesWithUsers(post.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取回答列表成功", resps)
}
