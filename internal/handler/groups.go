package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/repository"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/utils"
)

func (h *Handler) ListMyGroups(w http.ResponseWriter, r *http.Request) {
	myInfo, ok := r.Context().Value(MyInfoCtx).(*domain.User)
	if !ok {
		h.successResponse(w, r, "获取组列表成功", []domain.GroupSummary{})
		return
	}

	memberships, err := h.repository.GetUserMemberships(myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	groups := make([]domain.GroupSummary, 0, len(memberships))
	for _, m := range memberships {
		g, err := h.repository.GetGroupByID(m.GroupID)
		if err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				continue
			}
			h.internalServerError(w, r, err)
			return
		}
		groups = append(groups, domain.GroupSummary{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			InviteCode:  g.InviteCode,
			HourlyWage:  g.HourlyWage,
			IsAdmin:     m.IsAdmin(),
		})
	}

	h.successResponse(w, r, "获取组列表成功", groups)
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		Name        string `json:"name" validate:"required,max=100"`
		Description string `json:"description" validate:"max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	now := time.Now()
	group := &domain.Group{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CreatedBy:   myInfo.ID,
		CreatedAt:   now,
	}
	creator := &domain.Membership{
		UserID:   myInfo.ID,
		GroupID:  group.ID,
		Role:     domain.RoleAdmin,
		JoinedAt: now,
	}

	// 邀请码冲突时重新生成
	for attempt := 0; ; attempt++ {
		code, err := utils.GenerateInviteCode(h.config.Invite.CodeLength)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		group.InviteCode = code

		err = h.repository.CreateGroup(group, creator)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrInviteCodeTaken) && attempt+1 < h.config.Invite.MaxRetries {
			continue
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建组成功", group)
}

func (h *Handler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		InviteCode string `json:"inviteCode" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
	groupID, err := h.repository.GetGroupIDByInviteCode(code)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			h.badRequest(w, r, errors.New("邀请码无效"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	group, err := h.repository.GetGroupByID(groupID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			h.notFound(w, r, "组不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.repository.AddMembership(&domain.Membership{
		UserID:   myInfo.ID,
		GroupID:  group.ID,
		Role:     domain.RoleMember,
		JoinedAt: time.Now(),
	}); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyMember):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "加入组成功", group)
}

func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	group := r.Context().Value(GroupCtx).(*domain.Group)

	if group.CreatedBy != myInfo.ID {
		h.forbidden(w, r, "只有创建者可以删除该组")
		return
	}

	if err := h.repository.DeleteGroup(group); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除组成功", nil)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	group := r.Context().Value(GroupCtx).(*domain.Group)

	memberships, err := h.repository.GetGroupMemberships(group.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ids := make([]string, len(memberships))
	for i, m := range memberships {
		ids[i] = m.UserID
	}
	users, err := h.users.GetUsersByIDs(ids)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	members := make([]domain.Member, 0, len(memberships))
	for _, m := range memberships {
		member := domain.Member{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
		if u, ok := users[m.UserID]; ok {
			member.Email = u.Email
			member.Name = u.DisplayName()
		}
		members = append(members, member)
	}

	h.successResponse(w, r, "获取成员列表成功", members)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	group := r.Context().Value(GroupCtx).(*domain.Group)
	targetID := chi.URLParam(r, "userId")

	if targetID == myInfo.ID {
		h.badRequest(w, r, errors.New("不能移除自己"))
		return
	}

	if _, err := h.repository.GetMembership(group.ID, targetID); err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			h.notFound(w, r, "该用户不是组成员")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.repository.RemoveMembership(group.ID, targetID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "移除成员成功", nil)
}

func (h *Handler) SetHourlyWage(w http.ResponseWriter, r *http.Request) {
	group := r.Context().Value(GroupCtx).(*domain.Group)

	var req struct {
		HourlyWage *float64 `json:"hourlyWage" validate:"required,gte=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	group.HourlyWage = *req.HourlyWage
	if err := h.repository.UpdateGroup(group); err != nil {
		h.internalServerError(w, r, fmt.Errorf("更新时薪失败: %w", err))
		return
	}

	h.successResponse(w, r, "更新时薪成功", map[string]float64{"hourlyWage": group.HourlyWage})
}
