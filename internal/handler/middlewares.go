package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/policy"
	"golang.org/x/time/rate"
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

// auth 从 Authorization 头中解析身份断言，并将操作者信息附在 context 中
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := r.Header.Get("Authorization")
		if authorization == "" {
			h.errorResponse(w, r, http.StatusUnauthorized, "用户未登录")
			return
		}

		tokenString, ok := strings.CutPrefix(authorization, "Bearer ")
		if !ok {
			h.errorResponse(w, r, http.StatusUnauthorized, "无效的令牌")
			return
		}

		// 验证 token
		claims := &AuthClaims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(h.config.JWT.Secret), nil
		})
		if err != nil {
			h.errorResponse(w, r, http.StatusUnauthorized, "无效的令牌")
			return
		}

		// 已注销的令牌同样视为无效
		revokeCtx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
		defer cancel()

		revoked, err := h.tokenStore.IsRevoked(revokeCtx, tokenString)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		if revoked {
			h.errorResponse(w, r, http.StatusUnauthorized, "令牌已注销")
			return
		}

		sub, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			h.errorResponse(w, r, http.StatusUnauthorized, "无效的令牌")
			return
		}

		expiry := time.Time{}
		if claims.ExpiresAt != nil {
			expiry = claims.ExpiresAt.Time
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, ActorCtxKey, policy.Actor{ID: sub, Role: domain.Role(claims.Role)})
		ctx = context.WithValue(ctx, TokenCtxKey, tokenString)
		ctx = context.WithValue(ctx, TokenExpiryCtxKey, expiry)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) actor(r *http.Request) policy.Actor {
	return r.Context().Value(ActorCtxKey).(policy.Actor)
}

// requirePolicy 拦截角色层面不允许的操作
func (h *Handler) requirePolicy(action policy.Action) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !policy.CanPerform(h.actor(r), action) {
				h.errorResponse(w, r, http.StatusForbidden, "权限不足")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) task(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		taskIDParam := chi.URLParam(r, "id")
		taskID, err := strconv.ParseInt(taskIDParam, 10, 64)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "任务ID无效")
			return
		}

		task, err := h.repository.GetTaskByID(taskID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, http.StatusNotFound, "任务不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), TaskCtxKey, task)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) member(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		memberIDParam := chi.URLParam(r, "id")
		memberID, err := strconv.ParseInt(memberIDParam, 10, 64)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "用户ID无效")
			return
		}

		member, err := h.repository.GetMemberByID(memberID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, http.StatusNotFound, "用户不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), MemberCtxKey, member)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitByIP 对每个来源 IP 做令牌桶限流，用于保护登录和注册接口
func rateLimitByIP(burst int, perSecond int) func(next http.Handler) http.Handler {
	type bucket struct {
		lim *rate.Limiter
		ts  time.Time
	}

	const (
		ttl           = 5 * time.Minute
		pruneInterval = 1 * time.Minute
	)

	var (
		mu        sync.Mutex
		buckets   = make(map[string]*bucket)
		lastPrune = time.Now()
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			now := time.Now()

			mu.Lock()
			// 顺带清理长时间没有访问的桶，不需要常驻 goroutine
			if now.Sub(lastPrune) > pruneInterval {
				for k, b := range buckets {
					if now.Sub(b.ts) > ttl {
						delete(buckets, k)
					}
				}
				lastPrune = now
			}

			b, ok := buckets[ip]
			if !ok {
				b = &bucket{lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
				buckets[ip] = b
			}
			b.ts = now
			mu.Unlock()

			if !b.lim.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"message":"请求过于频繁，请稍后再试"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
