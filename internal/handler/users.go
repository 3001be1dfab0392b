package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/policy"
)

func (h *Handler) GetAllMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.repository.GetAllMembers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	profiles := make([]*domain.MemberProfile, 0, len(members))
	for _, member := range members {
		profiles = append(profiles, member.Profile())
	}

	h.writeJSON(w, r, http.StatusOK, struct {
		Success bool                    `json:"success"`
		Count   int                     `json:"count"`
		Users   []*domain.MemberProfile `json:"users"`
	}{
		Success: true,
		Count:   len(profiles),
		Users:   profiles,
	})
}

func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	member := r.Context().Value(MemberCtxKey).(*domain.Member)

	// 管理员账号永远不允许被删除，即使请求方自己也是管理员
	if !policy.CanDeleteMember(h.actor(r), member) {
		h.errorResponse(w, r, http.StatusForbidden, "禁止删除管理员账号")
		return
	}

	if err := h.repository.DeleteMember(member.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{
		Success: true,
		Message: "用户已删除",
	})
}
