package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/repository"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/utils"
)

type createSurveyRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	StartDate   string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Deadline    string `json:"deadline" validate:"required,datetime=2006-01-02"`
	OpeningTime string `json:"openingTime" validate:"required,hhmm"`
	ClosingTime string `json:"closingTime" validate:"required,hhmm"`
}

type createSubstituteRequest struct {
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
	Reason    string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	group := r.Context().Value(GroupCtx).(*domain.Group)
	membership := r.Context().Value(MembershipCtx).(*domain.Membership)

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var header struct {
		Type domain.PostType `json:"type"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		h.badRequest(w, r, err)
		return
	}

	var body domain.PostBody
	switch header.Type {
	case domain.PostTypeShiftSurvey:
		if !membership.IsAdmin() {
			h.forbidden(w, r, "只有管理员可以发布调查")
			return
		}
		body, err = h.surveyBody(raw)
	case domain.PostTypeSubstituteRequest:
		var shifts *repository.GroupShifts
		shifts, err = h.repository.GetGroupShifts(group.ID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		body, err = h.substituteRequestBody(raw, shifts.Rows, myInfo)
	default:
		err = fmt.Errorf("%w: %q", domain.ErrUnknownPostType, header.Type)
	}
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	post := &domain.Post{
		ID:        uuid.NewString(),
		GroupID:   group.ID,
		CreatedBy: myInfo.ID,
		CreatedAt: time.Now(),
		Body:      body,
	}
	if err := h.repository.CreatePost(post); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建投稿成功", post)
}

func (h *Handler) surveyBody(raw []byte) (domain.PostBody, error) {
	var req createSurveyRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, err
	}

	survey := &domain.ShiftSurvey{
		Title:       strings.TrimSpace(req.Title),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Deadline:    req.Deadline,
		OpeningTime: req.OpeningTime,
		ClosingTime: req.ClosingTime,
	}
	if err := utils.ValidateSurvey(survey); err != nil {
		return nil, err
	}
	return survey, nil
}

// substituteRequestBody 要求调用者在这一天有一条时间完全一致的班次
func (h *Handler) substituteRequestBody(raw []byte, rows []*domain.PublishedShift, myInfo *domain.User) (domain.PostBody, error) {
	var req createSubstituteRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, err
	}

	date, err := scheduler.NormalizeDate(req.Date)
	if err != nil {
		return nil, err
	}

	own := make([]*domain.PublishedShift, 0)
	for _, row := range rows {
		if row.UserID == myInfo.ID {
			own = append(own, row)
		}
	}
	if err := scheduler.CheckSubstituteRequest(own, date, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	return &domain.SubstituteRequest{
		Date:        date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Reason:      req.Reason,
		AuthorName:  myInfo.DisplayName(),
		AuthorEmail: myInfo.Email,
	}, nil
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	group := r.Context().Value(GroupCtx).(*domain.Group)

	posts, err := h.repository.GetGroupPosts(group.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取投稿列表成功", posts)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post := r.Context().Value(PostCtx).(*domain.Post)

	h.successResponse(w, r, "获取投稿成功", post)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	post := r.Context().Value(PostCtx).(*domain.Post)
	membership := r.Context().Value(MembershipCtx).(*domain.Membership)

	// 管理员可以删除任何投稿，其他成员只能删除自己发布的投稿
	if !membership.IsAdmin() && post.CreatedBy != myInfo.ID {
		h.forbidden(w, r, "权限不足")
		return
	}

	if err := h.repository.DeletePost(post); err != nil {
		switch {
		case errors.Is(err, repository.ErrEditConflict):
			h.editConflict(w, r)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除投稿成功", nil)
}
