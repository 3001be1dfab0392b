package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/policy"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/repository"
)

type taskResponse struct {
	Success bool                 `json:"success"`
	Task    *domain.EnrichedTask `json:"task"`
}

// notifyTaskAssigned 将任务分配通知发布到消息队列，发布失败只记录日志，
// 不影响请求本身的结果
func (h *Handler) notifyTaskAssigned(task *domain.Task, assignee *domain.Member) {
	assignerName := ""
	if creator, err := h.repository.GetMemberByID(task.CreatedBy); err == nil {
		assignerName = creator.Name
	}

	msg := &domain.NotificationMessage{
		Type: domain.NotificationTaskAssigned,
		To:   assignee.Email,
		Data: domain.TaskAssignedData{
			AssigneeName: assignee.Name,
			Title:        task.Title,
			Priority:     string(task.Priority),
			DueDate:      task.DueDate.Format("2006-01-02"),
			AssignerName: assignerName,
		},
	}

	if err := h.publisher.Publish(msg); err != nil {
		slog.Error("无法发布任务分配通知", "taskID", task.ID, "error", err)
	}
}

func (h *Handler) notifyTaskCompleted(task *domain.Task, assignee *domain.Member) {
	creator, err := h.repository.GetMemberByID(task.CreatedBy)
	if err != nil {
		slog.Error("无法获取任务创建者信息", "taskID", task.ID, "error", err)
		return
	}

	completedAt := ""
	if task.CompletedAt != nil {
		completedAt = task.CompletedAt.Format("2006-01-02 15:04")
	}

	msg := &domain.NotificationMessage{
		Type: domain.NotificationTaskCompleted,
		To:   creator.Email,
		Data: domain.TaskCompletedData{
			CreatorName:  creator.Name,
			Title:        task.Title,
			AssigneeName: assignee.Name,
			CompletedAt:  completedAt,
		},
	}

	if err := h.publisher.Publish(msg); err != nil {
		slog.Error("无法发布任务完成通知", "taskID", task.ID, "error", err)
	}
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string    `json:"title" validate:"required"`
		Description string    `json:"description" validate:"required"`
		AssignedTo  int64     `json:"assignedTo" validate:"required"`
		DueDate     time.Time `json:"dueDate" validate:"required"`
		Priority    string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 被分配者必须存在
	assignee, err := h.repository.GetMemberByID(req.AssignedTo)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusNotFound, "被分配的用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	priority := domain.TaskPriorityMedium
	if req.Priority != "" {
		priority = domain.TaskPriority(req.Priority)
	}

	task := &domain.Task{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   h.actor(r).ID,
		Status:      domain.TaskStatusPending,
		Priority:    priority,
		DueDate:     req.DueDate,
	}

	if err := h.repository.CreateTask(task); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	enriched, err := h.repository.GetEnrichedTaskByID(task.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.notifyTaskAssigned(task, assignee)

	h.writeJSON(w, r, http.StatusCreated, taskResponse{
		Success: true,
		Task:    enriched,
	})
}

func (h *Handler) GetTasks(w http.ResponseWriter, r *http.Request) {
	// 范围只由操作者的角色和身份决定，每个请求只计算一次
	scope := policy.ScopeFor(h.actor(r))

	// 不认识的过滤值直接忽略，不报错
	filter := repository.TaskFilter{}
	if status := r.URL.Query().Get("status"); domain.IsValidTaskStatus(status) {
		filter.Status = status
	}
	if priority := r.URL.Query().Get("priority"); domain.IsValidTaskPriority(priority) {
		filter.Priority = priority
	}
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if limit, err := strconv.Atoi(limitParam); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	tasks, err := h.repository.ListTasks(scope, filter)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, struct {
		Success bool                   `json:"success"`
		Count   int                    `json:"count"`
		Tasks   []*domain.EnrichedTask `json:"tasks"`
	}{
		Success: true,
		Count:   len(tasks),
		Tasks:   tasks,
	})
}

func (h *Handler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	task := r.Context().Value(TaskCtxKey).(*domain.Task)

	if !policy.CanAccessTask(h.actor(r), task) {
		h.errorResponse(w, r, http.StatusForbidden, "无权查看该任务")
		return
	}

	enriched, err := h.repository.GetEnrichedTaskByID(task.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, taskResponse{
		Success: true,
		Task:    enriched,
	})
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	task := r.Context().Value(TaskCtxKey).(*domain.Task)

	if !policy.CanAccessTask(h.actor(r), task) {
		h.errorResponse(w, r, http.StatusForbidden, "无权修改该任务")
		return
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		AssignedTo  *int64     `json:"assignedTo"`
		DueDate     *time.Time `json:"dueDate"`
		Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
		Status      *string    `json:"status" validate:"omitempty,oneof=pending in-progress completed cancelled"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	var newAssignee *domain.Member
	if req.AssignedTo != nil && *req.AssignedTo != task.AssignedTo {
		assignee, err := h.repository.GetMemberByID(*req.AssignedTo)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, http.StatusNotFound, "被分配的用户不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		newAssignee = assignee
		task.AssignedTo = *req.AssignedTo
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.DueDate != nil {
		task.DueDate = *req.DueDate
	}
	if req.Priority != nil {
		task.Priority = domain.TaskPriority(*req.Priority)
	}

	enteredCompleted := false
	if req.Status != nil {
		next := domain.TaskStatus(*req.Status)
		enteredCompleted = next == domain.TaskStatusCompleted && task.Status != domain.TaskStatusCompleted
		task.ApplyStatus(next, time.Now())
	}

	if err := h.repository.UpdateTask(task); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusNotFound, "任务不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	enriched, err := h.repository.GetEnrichedTaskByID(task.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if newAssignee != nil {
		h.notifyTaskAssigned(task, newAssignee)
	}
	if enteredCompleted {
		assignee := &domain.Member{
			ID:    enriched.AssignedTo.ID,
			Name:  enriched.AssignedTo.Name,
			Email: enriched.AssignedTo.Email,
		}
		h.notifyTaskCompleted(task, assignee)
	}

	h.writeJSON(w, r, http.StatusOK, taskResponse{
		Success: true,
		Task:    enriched,
	})
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task := r.Context().Value(TaskCtxKey).(*domain.Task)

	if err := h.repository.DeleteTask(task.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{
		Success: true,
		Message: "任务已删除",
	})
}

func (h *Handler) GetTaskStats(w http.ResponseWriter, r *http.Request) {
	// 统计使用和列表完全相同的范围，忽略 status/priority 过滤条件
	scope := policy.ScopeFor(h.actor(r))

	stats, err := h.repository.GetTaskStats(scope)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, struct {
		Success bool              `json:"success"`
		Stats   *domain.TaskStats `json:"stats"`
	}{
		Success: true,
		Stats:   stats,
	})
}
