package handler

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
)

func TestGetAllMembersAllowedForMember(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 2, domain.RoleMember)

	columns := []string{"id", "name", "email", "password_hash", "role", "department", "created_at"}
	rows := sqlmock.NewRows(columns).
		AddRow(1, "Admin User", "admin@example.com", "hash1", "admin", "General", time.Now()).
		AddRow(2, "张三", "zhangsan@example.com", "hash2", "member", "General", time.Now())
	mock.ExpectQuery("FROM users").WillReturnRows(rows)

	// 普通成员也可以查看通讯录
	rec := doRequest(t, h, http.MethodGet, "/users", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	body := decodeResponse(t, rec)
	if body["count"] != float64(2) {
		t.Fatalf("count = %v, want 2", body["count"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetAllMembersHidesPasswordHash(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 1, domain.RoleAdmin)

	columns := []string{"id", "name", "email", "password_hash", "role", "department", "created_at"}
	rows := sqlmock.NewRows(columns).
		AddRow(1, "Admin User", "admin@example.com", "hash1", "admin", "General", time.Now()).
		AddRow(2, "张三", "zhangsan@example.com", "hash2", "member", "General", time.Now())
	mock.ExpectQuery("FROM users").WillReturnRows(rows)

	rec := doRequest(t, h, http.MethodGet, "/users", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	body := decodeResponse(t, rec)
	if body["count"] != float64(2) {
		t.Fatalf("count = %v, want 2", body["count"])
	}
	for _, user := range body["users"].([]any) {
		fields := user.(map[string]any)
		if _, exists := fields["passwordHash"]; exists {
			t.Fatalf("password hash must never be exposed: %+v", fields)
		}
		if _, exists := fields["password_hash"]; exists {
			t.Fatalf("password hash must never be exposed: %+v", fields)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteMemberForbiddenForMember(t *testing.T) {
	h, _, _ := newTestHandler(t)
	token := testToken(t, h, 2, domain.RoleMember)

	// 角色检查在加载目标用户之前，不应触发任何查询
	rec := doRequest(t, h, http.MethodDelete, "/users/3", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteMemberAdminTargetForbidden(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 1, domain.RoleAdmin)

	// 目标是管理员，即使请求方也是管理员也不允许删除
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(memberRow("Other Admin", "other@example.com", "admin"))

	rec := doRequest(t, h, http.MethodDelete, "/users/3", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body: %s", rec.Code, rec.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteMemberSuccess(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 1, domain.RoleAdmin)

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(memberRow("张三", "zhangsan@example.com", "member"))
	mock.ExpectExec("DELETE FROM users").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doRequest(t, h, http.MethodDelete, "/users/3", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	body := decodeResponse(t, rec)
	if body["success"] != true {
		t.Fatalf("success should be true, got %v", body["success"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteMemberUnknownIsNotFound(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	token := testToken(t, h, 1, domain.RoleAdmin)

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	rec := doRequest(t, h, http.MethodDelete, "/users/99", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body: %s", rec.Code, rec.Body.String())
	}
}
