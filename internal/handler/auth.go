package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) signToken(member *domain.Member) (string, error) {
	expiration := time.Now().Add(time.Duration(h.config.JWT.Expiration) * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(member.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Subject:   strconv.FormatInt(member.ID, 10),
		},
	})

	return token.SignedString([]byte(h.config.JWT.Secret))
}

type authResponse struct {
	Success bool                  `json:"success"`
	Token   string                `json:"token"`
	User    *domain.MemberProfile `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name" validate:"required"`
		Email      string `json:"email" validate:"required,email"`
		Password   string `json:"password" validate:"required"`
		Role       string `json:"role"`
		Department string `json:"department"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 任何申请 admin 角色的注册者都会得到 admin
	// 这是为了测试方便而保留的宽松策略，之后可能会收紧
	role := domain.RoleMember
	if req.Role == string(domain.RoleAdmin) {
		role = domain.RoleAdmin
	}

	department := req.Department
	if department == "" {
		department = domain.DefaultDepartment
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	member := &domain.Member{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		Department:   department,
	}

	if err := h.repository.CreateMember(member); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "users_email_key":
			h.errorResponse(w, r, http.StatusBadRequest, "用户已存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	ss, err := h.signToken(member)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, authResponse{
		Success: true,
		Token:   ss,
		User:    member.Profile(),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 无论是邮箱不存在还是密码错误，都返回同样的提示，
	// 不让调用方区分出账号是否存在
	member, err := h.repository.GetMemberByEmail(req.Email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusUnauthorized, "邮箱或密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)); err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			h.errorResponse(w, r, http.StatusUnauthorized, "邮箱或密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	ss, err := h.signToken(member)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, authResponse{
		Success: true,
		Token:   ss,
		User:    member.Profile(),
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(r)

	member, err := h.repository.GetMemberByID(actor.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusNotFound, "用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, struct {
		Success bool                  `json:"success"`
		User    *domain.MemberProfile `json:"user"`
	}{
		Success: true,
		User:    member.Profile(),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	tokenString := r.Context().Value(TokenCtxKey).(string)
	expiry := r.Context().Value(TokenExpiryCtxKey).(time.Time)

	if err := h.tokenStore.Revoke(r.Context(), tokenString, time.Until(expiry)); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{
		Success: true,
		Message: "登出成功",
	})
}
