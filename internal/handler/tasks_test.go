package handler

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
)

var enrichedColumns = []string{
	"id", "title", "description", "status", "priority", "due_date", "completed_at", "created_at", "updated_at",
	"a_id", "a_name", "a_email", "a_department",
	"c_id", "c_name", "c_email",
}

func enrichedTaskRow(rows *sqlmock.Rows, id int64, assignedTo int64, status, priority string, completedAt any) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, "整理季度报表", "整理本季度的销售报表", status, priority, now.Add(24*time.Hour), completedAt, now, now,
		assignedTo, "张三", "zhangsan@example.com", "General",
		1, "Admin User", "admin@example.com",
	)
}

var memberColumns = []string{"name", "email", "password_hash", "role", "department", "created_at"}

func memberRow(name, email, role string) *sqlmock.Rows {
	return sqlmock.NewRows(memberColumns).AddRow(name, email, "hash", role, "General", time.Now())
}

var taskColumns = []string{"title", "description", "assigned_to", "created_by", "status", "priority", "due_date", "completed_at", "created_at", "updated_at"}

func taskRow(assignedTo int64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(taskColumns).
		AddRow("整理季度报表", "整理本季度的销售报表", assignedTo, 1, status, "medium", now.Add(24*time.Hour), nil, now, now)
}

func TestGetTasksMemberScoped(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 7, domain.RoleMember)

	rows := enrichedTaskRow(sqlmock.NewRows(enrichedColumns), 10, 7, "pending", "medium", nil)
	mock.ExpectQuery("FROM tasks t.*WHERE t.assigned_to = \\$1 ORDER BY t.created_at DESC").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	rec := doRequest(t, h, http.MethodGet, "/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	body := decodeResponse(t, rec)
	if body["count"] != float64(1) {
		t.Fatalf("count = %v, want 1", body["count"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetTasksIgnoresUnknownFilterValues(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 7, domain.RoleMember)

	// 非法的过滤值被直接忽略，查询里只剩范围条件
	mock.ExpectQuery("WHERE t.assigned_to = \\$1 ORDER BY t.created_at DESC").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(enrichedColumns))

	rec := doRequest(t, h, http.MethodGet, "/tasks?status=bogus&priority=weird&limit=abc", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	body := decodeResponse(t, rec)
	if body["count"] != float64(0) {
		t.Fatalf("count = %v, want 0", body["count"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetTaskForbiddenForNonAssignee(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 3, domain.RoleMember)

	// 任务分配给了 2 号成员，3 号成员无权查看
	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(taskRow(2, "pending"))

	rec := doRequest(t, h, http.MethodGet, "/tasks/5", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body: %s", rec.Code, rec.Body.String())
	}
}

func TestGetTaskUnknownIsNotFound(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 1, domain.RoleAdmin)

	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	rec := doRequest(t, h, http.MethodGet, "/tasks/99", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateTaskForbiddenForMember(t *testing.T) {
	h, _, _ := newTestHandler(t)
	token := testToken(t, h, 2, domain.RoleMember)

	rec := doRequest(t, h, http.MethodPost, "/tasks", token, map[string]any{
		"title":       "x",
		"description": "y",
		"assignedTo":  2,
		"dueDate":     time.Now().Add(24 * time.Hour),
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateTaskUnknownAssignee(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 1, domain.RoleAdmin)

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	rec := doRequest(t, h, http.MethodPost, "/tasks", token, map[string]any{
		"title":       "x",
		"description": "y",
		"assignedTo":  42,
		"dueDate":     time.Now().Add(24 * time.Hour),
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	h, mock, publisher := newTestHandler(t)
	token := testToken(t, h, 1, domain.RoleAdmin)

	// 被分配者存在
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(memberRow("张三", "zhangsan@example.com", "member"))

	// priority 未填时落库为 medium，状态总是 pending
	now := time.Now()
	mock.ExpectQuery("INSERT INTO tasks").
		WithArgs("整理季度报表", "整理本季度的销售报表", int64(2), int64(1), "pending", "medium", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(10, now, now))

	mock.ExpectQuery("FROM tasks t").
		WithArgs(int64(10)).
		WillReturnRows(enrichedTaskRow(sqlmock.NewRows(enrichedColumns), 10, 2, "pending", "medium", nil))

	// 通知里带上创建者姓名
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(memberRow("Admin User", "admin@example.com", "admin"))

	rec := doRequest(t, h, http.MethodPost, "/tasks", token, map[string]any{
		"title":       "整理季度报表",
		"description": "整理本季度的销售报表",
		"assignedTo":  2,
		"dueDate":     time.Now().Add(24 * time.Hour),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}

	body := decodeResponse(t, rec)
	task := body["task"].(map[string]any)
	if task["priority"] != "medium" {
		t.Fatalf("priority = %v, want medium", task["priority"])
	}
	if task["status"] != "pending" {
		t.Fatalf("status = %v, want pending", task["status"])
	}

	if len(publisher.messages) != 1 || publisher.messages[0].Type != domain.NotificationTaskAssigned {
		t.Fatalf("expected one task_assigned notification, got %+v", publisher.messages)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateTaskToCompleted(t *testing.T) {
	h, mock, publisher := newTestHandler(t)
	token := testToken(t, h, 2, domain.RoleMember)

	// 任务分配给 2 号成员，当前状态为 in-progress
	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(taskRow(2, "in-progress"))

	completedAt := time.Now()
	mock.ExpectQuery("UPDATE tasks").
		WithArgs("整理季度报表", "整理本季度的销售报表", int64(2), "completed", "medium", sqlmock.AnyArg(), sqlmock.AnyArg(), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	mock.ExpectQuery("FROM tasks t").
		WithArgs(int64(5)).
		WillReturnRows(enrichedTaskRow(sqlmock.NewRows(enrichedColumns), 5, 2, "completed", "medium", completedAt))

	// 完成通知需要创建者的邮箱
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(memberRow("Admin User", "admin@example.com", "admin"))

	rec := doRequest(t, h, http.MethodPut, "/tasks/5", token, map[string]any{
		"status": "completed",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	body := decodeResponse(t, rec)
	task := body["task"].(map[string]any)
	if task["completedAt"] == nil {
		t.Fatalf("completedAt should be set after entering completed")
	}

	if len(publisher.messages) != 1 || publisher.messages[0].Type != domain.NotificationTaskCompleted {
		t.Fatalf("expected one task_completed notification, got %+v", publisher.messages)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateTaskForbiddenForNonAssignee(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 3, domain.RoleMember)

	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(taskRow(2, "pending"))

	rec := doRequest(t, h, http.MethodPut, "/tasks/5", token, map[string]any{
		"status": "completed",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteTaskForbiddenForMember(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 2, domain.RoleMember)

	// 任务中间件先加载任务，角色检查在其之后
	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(taskRow(2, "pending"))

	rec := doRequest(t, h, http.MethodDelete, "/tasks/5", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteTaskAsAdmin(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 1, domain.RoleAdmin)

	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(taskRow(2, "pending"))
	mock.ExpectExec("DELETE FROM tasks").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doRequest(t, h, http.MethodDelete, "/tasks/5", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTaskStatsEmptyScope(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 9, domain.RoleMember)

	columns := []string{"total", "pending", "in_progress", "completed", "cancelled", "urgent", "high"}
	mock.ExpectQuery("FROM tasks").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(0, 0, 0, 0, 0, 0, 0))

	rec := doRequest(t, h, http.MethodGet, "/tasks/stats/overview", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	body := decodeResponse(t, rec)
	stats := body["stats"].(map[string]any)
	for _, field := range []string{"totalTasks", "pendingTasks", "inProgressTasks", "completedTasks", "cancelledTasks", "urgentTasks", "highPriorityTasks"} {
		if stats[field] != float64(0) {
			t.Fatalf("%s = %v, want 0", field, stats[field])
		}
	}
}
