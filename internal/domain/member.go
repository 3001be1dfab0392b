package domain

import (
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

const DefaultDepartment = "General"

type Member struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Department   string    `json:"department"`
	CreatedAt    time.Time `json:"createdAt"`
}

// MemberProfile 是成员的公开信息，任何响应中都不应该出现密码哈希
type MemberProfile struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (m *Member) Profile() *MemberProfile {
	return &MemberProfile{
		ID:         m.ID,
		Name:       m.Name,
		Email:      m.Email,
		Role:       m.Role,
		Department: m.Department,
		CreatedAt:  m.CreatedAt,
	}
}
