package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/repository"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("已处理请求", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			h.unauthorized(w, r, "用户未登录")
			return
		}

		claims, user, err := h.resolveToken(r.Context(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, errInvalidToken):
				h.unauthorized(w, r, "无效的令牌")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsCtx, claims)
		ctx = context.WithValue(ctx, MyInfoCtx, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuth 令牌缺失或无效时按未登录处理，不返回错误
func (h *Handler) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, user, err := h.resolveToken(r.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, errInvalidToken) {
				slog.Warn("解析令牌失败", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsCtx, claims)
		ctx = context.WithValue(ctx, MyInfoCtx, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) group(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		groupID := chi.URLParam(r, "groupId")

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

		ctx := context.WithValue(r.Context(), GroupCtx, group)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// post 加载投稿以及投稿所在的组；如果 URL 中已经指定了组，投稿必须属于这个组
func (h *Handler) post(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := chi.URLParam(r, "postId")

		post, err := h.repository.GetPost(postID)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrRecordNotFound):
				h.notFound(w, r, "投稿不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := r.Context()
		if group, ok := ctx.Value(GroupCtx).(*domain.Group); ok {
			if group.ID != post.GroupID {
				h.notFound(w, r, "投稿不存在")
				return
			}
		} else {
			group, err := h.repository.GetGroupByID(post.GroupID)
			if err != nil {
				switch {
				case errors.Is(err, repository.ErrRecordNotFound):
					h.notFound(w, r, "组不存在")
				default:
					h.internalServerError(w, r, err)
				}
				return
			}
			ctx = context.WithValue(ctx, GroupCtx, group)
		}

		ctx = context.WithValue(ctx, PostCtx, post)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// membership 要求调用者是组的成员
func (h *Handler) membership(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
		group := r.Context().Value(GroupCtx).(*domain.Group)

		m, err := h.repository.GetMembership(group.ID, myInfo.ID)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrRecordNotFound):
				h.forbidden(w, r, "你不是该组的成员")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), MembershipCtx, m)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) RequiredRole(roles ...domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := r.Context().Value(MembershipCtx).(*domain.Membership)
			if !slices.Contains(roles, m.Role) {
				h.forbidden(w, r, "权限不足")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
