package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/policy"
)

// TaskFilter 是调用方附加的过滤条件，空字符串表示不过滤该维度
// 非法的取值应该在进入 repository 之前就被忽略掉
type TaskFilter struct {
	Status   string
	Priority string
	Limit    int
}

const enrichedTaskColumns = `
		t.id, t.title, t.description, t.status, t.priority, t.due_date, t.completed_at, t.created_at, t.updated_at,
		a.id, a.name, a.email, a.department,
		c.id, c.name, c.email
`

func scanEnrichedTask(scan func(dst ...any) error) (*domain.EnrichedTask, error) {
	task := &domain.EnrichedTask{}
	dst := []any{
		&task.ID, &task.Title, &task.Description, &task.Status, &task.Priority, &task.DueDate, &task.CompletedAt, &task.CreatedAt, &task.UpdatedAt,
		&task.AssignedTo.ID, &task.AssignedTo.Name, &task.AssignedTo.Email, &task.AssignedTo.Department,
		&task.CreatedBy.ID, &task.CreatedBy.Name, &task.CreatedBy.Email,
	}
	if err := scan(dst...); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *Repository) CreateTask(task *domain.Task) error {
	query := `
		INSERT INTO tasks (title, description, assigned_to, created_by, status, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{task.Title, task.Description, task.AssignedTo, task.CreatedBy, task.Status, task.Priority, task.DueDate}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetTaskByID(id int64) (*domain.Task, error) {
	query := `
		SELECT title, description, assigned_to, created_by, status, priority, due_date, completed_at, created_at, updated_at
		FROM tasks WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	task := &domain.Task{
		ID: id,
	}

	dst := []any{&task.Title, &task.Description, &task.AssignedTo, &task.CreatedBy, &task.Status, &task.Priority, &task.DueDate, &task.CompletedAt, &task.CreatedAt, &task.UpdatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *Repository) GetEnrichedTaskByID(id int64) (*domain.EnrichedTask, error) {
	query := `
		SELECT ` + enrichedTaskColumns + `
		FROM tasks t
		JOIN users a ON a.id = t.assigned_to
		JOIN users c ON c.id = t.created_by
		WHERE t.id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	row := r.dbpool.QueryRowContext(ctx, query, id)
	return scanEnrichedTask(row.Scan)
}

// ListTasks 按照授权范围和过滤条件查询任务，按创建时间倒序返回
func (r *Repository) ListTasks(scope policy.Scope, filter TaskFilter) ([]*domain.EnrichedTask, error) {
	query := `
		SELECT ` + enrichedTaskColumns + `
		FROM tasks t
		JOIN users a ON a.id = t.assigned_to
		JOIN users c ON c.id = t.created_by
	`

	conditions := []string{}
	args := []any{}

	if scope.AssignedTo != nil {
		args = append(args, *scope.AssignedTo)
		conditions = append(conditions, fmt.Sprintf("t.assigned_to = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, fmt.Sprintf("t.priority = $%d", len(args)))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*domain.EnrichedTask, 0)
	for rows.Next() {
		task, err := scanEnrichedTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *Repository) UpdateTask(task *domain.Task) error {
	query := `
		UPDATE tasks
		SET
			title = $1,
			description = $2,
			assigned_to = $3,
			status = $4,
			priority = $5,
			due_date = $6,
			completed_at = $7,
			updated_at = now()
		WHERE id = $8
		RETURNING updated_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{task.Title, task.Description, task.AssignedTo, task.Status, task.Priority, task.DueDate, task.CompletedAt, task.ID}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&task.UpdatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteTask(id int64) error {
	query := `
		DELETE FROM tasks WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}

// GetTaskStats 统计授权范围内各状态和优先级的任务数量
// 统计不受 status/priority 过滤条件影响，永远覆盖整个范围
func (r *Repository) GetTaskStats(scope policy.Scope) (*domain.TaskStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'in-progress'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE priority = 'urgent'),
			COUNT(*) FILTER (WHERE priority = 'high')
		FROM tasks
	`

	args := []any{}
	if scope.AssignedTo != nil {
		args = append(args, *scope.AssignedTo)
		query += " WHERE assigned_to = $1"
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	stats := &domain.TaskStats{}
	dst := []any{&stats.TotalTasks, &stats.PendingTasks, &stats.InProgressTasks, &stats.CompletedTasks, &stats.CancelledTasks, &stats.UrgentTasks, &stats.HighPriorityTasks}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return nil, err
	}

	return stats, nil
}
