package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/scheduler"
)

func (h *Handler) GetEarnings(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	month, err := scheduler.ParseMonth(r.URL.Query().Get("month"), h.config.Location(), time.Now())
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrInvalidMonth):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	groups, err := h.myShifts(myInfo.ID, "")
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取工资统计成功", scheduler.ComputeEarnings(month, groups))
}

func (h *Handler) GetAccountStats(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	memberships, err := h.repository.GetUserMemberships(myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	groups, err := h.myShifts(myInfo.ID, "")
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	shifts := make([]*domain.PublishedShift, 0)
	for _, g := range groups {
		shifts = append(shifts, g.Shifts...)
	}

	month, _ := scheduler.ParseMonth("", h.config.Location(), time.Now())
	h.successResponse(w, r, "获取账户统计成功", scheduler.ComputeStats(memberships, shifts, month))
}
