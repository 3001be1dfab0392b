package domain

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

func IsValidTaskStatus(s string) bool {
	switch TaskStatus(s) {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

func IsValidTaskPriority(p string) bool {
	switch TaskPriority(p) {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

type Task struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	AssignedTo  int64        `json:"assignedTo"`
	CreatedBy   int64        `json:"createdBy"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     time.Time    `json:"dueDate"`
	CompletedAt *time.Time   `json:"completedAt"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// ApplyStatus 执行状态转移
// 任何状态之间都允许互相转移，只有从非 completed 进入 completed 时才记录完成时间，
// 离开 completed 时不会清除完成时间
func (t *Task) ApplyStatus(next TaskStatus, now time.Time) {
	if next == TaskStatusCompleted && t.Status != TaskStatusCompleted {
		completedAt := now
		t.CompletedAt = &completedAt
	}
	t.Status = next
}

// TaskMemberRef 是任务中引用到的成员信息，用于列表和详情的展示
type TaskMemberRef struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
}

// EnrichedTask 是带有成员信息的任务，assignedTo 和 createdBy 已经被展开
type EnrichedTask struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	AssignedTo  TaskMemberRef `json:"assignedTo"`
	CreatedBy   TaskMemberRef `json:"createdBy"`
	Status      TaskStatus    `json:"status"`
	Priority    TaskPriority  `json:"priority"`
	DueDate     time.Time     `json:"dueDate"`
	CompletedAt *time.Time    `json:"completedAt"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// TaskStats 是任务统计的固定结构，范围内没有任务时所有字段都为 0
type TaskStats struct {
	TotalTasks        int64 `json:"totalTasks"`
	PendingTasks      int64 `json:"pendingTasks"`
	InProgressTasks   int64 `json:"inProgressTasks"`
	CompletedTasks    int64 `json:"completedTasks"`
	CancelledTasks    int64 `json:"cancelledTasks"`
	UrgentTasks       int64 `json:"urgentTasks"`
	HighPriorityTasks int64 `json:"highPriorityTasks"`
}
