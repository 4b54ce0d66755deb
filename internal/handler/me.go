package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
)

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取个人信息成功", myInfo)
}
