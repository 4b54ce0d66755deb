package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/config"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/repository"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/utils"
)

// UserDirectory 是用户目录，生产环境由 Postgres 实现
type UserDirectory interface {
	GetUserByID(id string) (*domain.User, error)
	GetUserByEmail(email string) (*domain.User, error)
	GetUsersByIDs(ids []string) (map[string]*domain.User, error)
	CheckEmailIfExists(email string) (bool, error)
	CreateUser(user *domain.User) error
	UpdateUser(user *domain.User) error
}

// MailPublisher 由 *amqp.Channel 实现
type MailPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	users       UserDirectory
	translators *translators
	mailChannel MailPublisher
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, users UserDirectory, mailCh MailPublisher, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := utils.RegisterValidations(validate); err != nil {
		return nil, err
	}

	trans, err := newTranslators(validate)
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		users:       users,
		translators: trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h.successResponse(w, r, "ok", nil)
	})

	// 认证相关
	h.Mux.Post("/signup", h.Signup)
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.With(h.auth).Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 未登录时返回空列表
	h.Mux.With(h.optionalAuth).Get("/groups", h.ListMyGroups)

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Get("/me", h.GetMe)

		r.Post("/groups/create", h.CreateGroup)
		r.Post("/groups/join", h.JoinGroup)
		r.Route("/groups/{groupId}", func(r chi.Router) {
			r.Use(h.group)
			r.Use(h.membership)
			r.Delete("/", h.DeleteGroup)
			r.Get("/members", h.ListMembers)
			r.With(h.RequiredRole(domain.RoleAdmin)).Delete("/members/{userId}", h.RemoveMember)
			r.With(h.RequiredRole(domain.RoleAdmin)).Put("/hourly-wage", h.SetHourlyWage)
			r.Post("/posts", h.CreatePost)
			r.Get("/posts", h.ListPosts)
			r.With(h.post).Get("/posts/{postId}", h.GetPost)
		})

		r.Route("/posts/{postId}", func(r chi.Router) {
			r.Use(h.post)
			r.Use(h.membership)
			r.Get("/", h.GetPost)
			r.Delete("/", h.DeletePost)
			r.Post("/responses", h.SubmitResponse)
			r.Get("/responses/mine", h.GetMyResponse)
			r.With(h.RequiredRole(domain.RoleAdmin)).Get("/responses", h.ListResponses)
			r.Get("/published-shifts", h.ListPublishedShifts)
			r.Post("/substitute", h.AcceptSubstitute)
			r.Group(func(r chi.Router) {
				r.Use(h.RequiredRole(domain.RoleAdmin))
				r.Get("/assignment-board", h.GetAssignmentBoard)
				r.Post("/assignment-preview", h.PreviewAssignments)
				r.Post("/assignment-suggestion", h.SuggestAssignments)
				r.Post("/publish-shifts", h.PublishShifts)
			})
		})

		r.Get("/user/earnings", h.GetEarnings)
		r.Get("/user/shifts", h.ListMyShifts)
		r.Get("/account/shifts", h.ListMyShifts)
		r.Get("/my-shifts", h.ListMyShifts)
		r.Get("/account/stats", h.GetAccountStats)
	})
}
