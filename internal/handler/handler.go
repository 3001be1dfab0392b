package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/config"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/notifier"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/policy"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/repository"
)

// TokenStore 记录已注销的身份令牌
type TokenStore interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	publisher  notifier.Publisher
	tokenStore TokenStore
	rateLimit  func(next http.Handler) http.Handler

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, publisher notifier.Publisher, tokenStore TokenStore) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		publisher:  publisher,
		tokenStore: tokenStore,
		rateLimit:  rateLimitByIP(cfg.RateLimit.Burst, cfg.RateLimit.PerSecond),

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(metrics.Instrument)

	h.Mux.Get("/", h.Welcome)
	h.Mux.Method(http.MethodGet, "/metrics", metrics.Handler())

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.With(h.rateLimit).Post("/register", h.Register)
		r.With(h.rateLimit).Post("/login", h.Login)
		r.Group(func(r chi.Router) {
			r.Use(h.auth)
			r.Get("/me", h.GetMe)
			r.Post("/logout", h.Logout)
		})
	})

	// 以下 API 必须要在携带有效令牌的情况下才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/tasks", func(r chi.Router) {
			// 统计路由必须在 /{id} 之前注册
			r.Get("/stats/overview", h.GetTaskStats)
			r.With(h.requirePolicy(policy.ActionCreateTask)).Post("/", h.CreateTask)
			r.Get("/", h.GetTasks)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.task)
				r.Get("/", h.GetTaskByID)
				r.Put("/", h.UpdateTask)
				r.With(h.requirePolicy(policy.ActionDeleteTask)).Delete("/", h.DeleteTask)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.requirePolicy(policy.ActionListMembers)).Get("/", h.GetAllMembers)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.requirePolicy(policy.ActionDeleteMember))
				r.Use(h.member)
				r.Delete("/", h.DeleteMember)
			})
		})
	})

	h.Mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.errorResponse(w, r, http.StatusNotFound, "路由不存在")
	})
}

func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"message": "Welcome to Task Allocation API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"auth":  "/auth",
			"users": "/users",
			"tasks": "/tasks",
		},
	})
}
