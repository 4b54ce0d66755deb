package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/kv"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/repository"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/scheduler"
)

type assignmentsRequest struct {
	Assignments []domain.DayAssignment `json:"assignments" validate:"required,dive"`
}

func (h *Handler) ListPublishedShifts(w http.ResponseWriter, r *http.Request) {
	post := r.Context().Value(PostCtx).(*domain.Post)

	rows, err := h.repository.GetPublishedShifts(post.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	scheduler.SortShifts(rows)

	h.successResponse(w, r, "获取班次成功", rows)
}

// surveyBoard 读取调查的所有回答并生成排班面板
func (h *Handler) surveyBoard(post *domain.Post) ([]scheduler.BoardDay, error) {
	resps, err := h.responsesWithUsers(post.ID)
	if err != nil {
		return nil, err
	}
	return scheduler.BuildBoard(resps), nil
}

func (h *Handler) GetAssignmentBoard(w http.ResponseWriter, r *http.Request) {
	post := r.Context().Value(PostCtx).(*domain.Post)

	if _, ok := post.Survey(); !ok {
		h.badRequest(w, r, errNotSurvey)
		return
	}

	board, err := h.surveyBoard(post)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排班面板成功", board)
}

// PreviewAssignments 只做展示用的检查，不在时间段内的排班也会返回，只是标记为无效
func (h *Handler) PreviewAssignments(w http.ResponseWriter, r *http.Request) {
	post := r.Context().Value(PostCtx).(*domain.Post)

	if _, ok := post.Survey(); !ok {
		h.badRequest(w, r, errNotSurvey)
		return
	}

	var req assignmentsRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	board, err := h.surveyBoard(post)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "生成预览成功", scheduler.Preview(board, req.Assignments))
}

func (h *Handler) SuggestAssignments(w http.ResponseWriter, r *http.Request) {
	post := r.Context().Value(PostCtx).(*domain.Post)

	if _, ok := post.Survey(); !ok {
		h.badRequest(w, r, errNotSurvey)
		return
	}

	// 请求体可以为空，此时全部使用默认参数
	params := scheduler.DefaultParameters()
	if err := h.readJSON(r, &params); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(params); err != nil {
		h.badRequest(w, r, err)
		return
	}

	board, err := h.surveyBoard(post)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	s, err := scheduler.New(&params, board)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrNoCandidates):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	assignments, err := s.Schedule()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "生成排班建议成功", map[string]any{
		"assignments": assignments,
		"preview":     scheduler.Preview(board, assignments),
	})
}

func (h *Handler) PublishShifts(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	group := r.Context().Value(GroupCtx).(*domain.Group)
	post := r.Context().Value(PostCtx).(*domain.Post)

	if _, ok := post.Survey(); !ok {
		h.badRequest(w, r, errNotSurvey)
		return
	}

	var req assignmentsRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 被排班的人必须是组的成员
	memberships, err := h.repository.GetGroupMemberships(group.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	members := make(map[string]struct{}, len(memberships))
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		members[m.UserID] = struct{}{}
		ids = append(ids, m.UserID)
	}
	for _, a := range req.Assignments {
		for _, s := range a.Shifts {
			if _, ok := members[s.UserID]; !ok {
				h.badRequest(w, r, fmt.Errorf("用户 %s 不是该组的成员", s.UserID))
				return
			}
		}
	}

	identities, err := h.users.GetUsersByIDs(ids)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 重新读取调查并拿到守卫，期间被别人采用过则返回 409
	current, guard, err := h.repository.GetPostForUpdate(post.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			h.notFound(w, r, "投稿不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if _, ok := current.Survey(); !ok {
		h.badRequest(w, r, errNotSurvey)
		return
	}

	pub := scheduler.BuildPublication(current, req.Assignments, identities, myInfo.ID, time.Now())
	if err := h.repository.PublishShifts(pub.Survey, pub.Rows, pub.Result, guard); err != nil {
		switch {
		case errors.Is(err, repository.ErrEditConflict):
			h.editConflict(w, r)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.notifyPublished(group, pub)

	scheduler.SortShifts(pub.Rows)
	h.successResponse(w, r, "采用排班成功", map[string]any{
		"shiftsCount":     len(pub.Rows),
		"resultPostId":    pub.Result.ID,
		"publishedShifts": pub.Rows,
	})
}

// notifyPublished 给每个被排班的成员发一封邮件，列出他自己的班次
func (h *Handler) notifyPublished(group *domain.Group, pub *scheduler.Publication) {
	byUser := make(map[string][]*domain.PublishedShift)
	order := make([]string, 0)
	for _, row := range pub.Rows {
		if _, ok := byUser[row.UserID]; !ok {
			order = append(order, row.UserID)
		}
		byUser[row.UserID] = append(byUser[row.UserID], row)
	}

	title := pub.Survey.Title()
	for _, userID := range order {
		rows := byUser[userID]
		scheduler.SortShifts(rows)
		shifts := make([]domain.MailShift, len(rows))
		for i, row := range rows {
			shifts[i] = domain.MailShift{Date: row.Date, StartTime: row.StartTime, EndTime: row.EndTime}
		}
		h.notify(domain.MailMessage{
			Type: domain.MailTypeShiftsPublished,
			To:   rows[0].UserEmail,
			Data: domain.ShiftsPublishedMailData{
				Name:        rows[0].UserName,
				GroupName:   group.Name,
				SurveyTitle: title,
				Shifts:      shifts,
			},
		})
	}
}

func (h *Handler) AcceptSubstitute(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	post := r.Context().Value(PostCtx).(*domain.Post)

	if post.Type() != domain.PostTypeSubstituteRequest {
		h.badRequest(w, r, errors.New("该投稿不是交代申请"))
		return
	}
	if post.CreatedBy == myInfo.ID {
		h.badRequest(w, r, errors.New("不能接受自己的交代申请"))
		return
	}

	request, requestGuard, err := h.repository.GetPostForUpdate(post.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			h.notFound(w, r, "投稿不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	shifts, err := h.repository.GetGroupShifts(request.GroupID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	match, err := scheduler.FindSubstituteMatch(shifts.Rows, request)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	now := time.Now()
	guards := []kv.Guard{requestGuard}
	var updated *domain.PublishedShift
	if match != nil {
		updated = scheduler.Reassign(match, myInfo, now)
		guards = append(guards, shifts.Guards[match.ID])
	}

	result, err := scheduler.BuildSubstituteResult(request, myInfo, updated != nil, now)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.AcceptSubstitute(request, result, updated, guards...); err != nil {
		switch {
		case errors.Is(err, repository.ErrEditConflict):
			h.editConflict(w, r)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	req, _ := request.SubstituteRequest()
	h.notify(domain.MailMessage{
		Type: domain.MailTypeSubstituteAccepted,
		To:   req.AuthorEmail,
		Data: domain.SubstituteAcceptedMailData{
			Name:           req.AuthorName,
			SubstituteName: myInfo.DisplayName(),
			Date:           req.Date,
			StartTime:      req.StartTime,
			EndTime:        req.EndTime,
		},
	})

	h.successResponse(w, r, "接受交代申请成功", map[string]any{
		"resultPost":   result,
		"shiftUpdated": updated != nil,
	})
}

// myShifts 返回调用者在每个组中的班次；groupID 不为空时只看这一个组
func (h *Handler) myShifts(userID, groupID string) ([]scheduler.GroupShifts, error) {
	memberships, err := h.repository.GetUserMemberships(userID)
	if err != nil {
		return nil, err
	}

	out := make([]scheduler.GroupShifts, 0, len(memberships))
	for _, m := range memberships {
		if groupID != "" && m.GroupID != groupID {
			continue
		}

		group, err := h.repository.GetGroupByID(m.GroupID)
		if err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}

		shifts, err := h.repository.GetGroupShifts(group.ID)
		if err != nil {
			return nil, err
		}
		own := make([]*domain.PublishedShift, 0)
		for _, row := range shifts.Rows {
			if row.UserID == userID {
				own = append(own, row)
			}
		}
		out = append(out, scheduler.GroupShifts{Group: group, Shifts: own})
	}
	return out, nil
}

func (h *Handler) ListMyShifts(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	groupID := r.URL.Query().Get("groupId")

	if groupID != "" {
		if _, err := h.repository.GetMembership(groupID, myInfo.ID); err != nil {
			switch {
			case errors.Is(err, repository.ErrRecordNotFound):
				h.forbidden(w, r, "你不是该组的成员")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
	}

	groups, err := h.myShifts(myInfo.ID, groupID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	titles := make(map[string]string)
	rows := make([]*domain.PublishedShift, 0)
	groupOf := make(map[string]*domain.Group)
	for _, g := range groups {
		for _, row := range g.Shifts {
			rows = append(rows, row)
			groupOf[row.ID] = g.Group
			if _, ok := titles[row.PostID]; ok {
				continue
			}
			p, err := h.repository.GetPost(row.PostID)
			if err != nil {
				if !errors.Is(err, repository.ErrRecordNotFound) {
					h.internalServerError(w, r, err)
					return
				}
				titles[row.PostID] = ""
				continue
			}
			titles[row.PostID] = p.Title()
		}
	}
	scheduler.SortShifts(rows)

	out := make([]domain.MyShift, len(rows))
	for i, row := range rows {
		out[i] = domain.MyShift{
			ID:        row.ID,
			Date:      row.Date,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
			GroupID:   row.GroupID,
			GroupName: groupOf[row.ID].Name,
			PostID:    row.PostID,
			PostTitle: titles[row.PostID],
		}
	}

	h.successResponse(w, r, "获取我的班次成功", out)
}
