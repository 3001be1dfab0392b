package policy

import (
	"testing"

	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
)

func TestCanPerform(t *testing.T) {
	admin := Actor{ID: 1, Role: domain.RoleAdmin}
	member := Actor{ID: 2, Role: domain.RoleMember}

	tests := []struct {
		name   string
		actor  Actor
		action Action
		want   bool
	}{
		{"admin create task", admin, ActionCreateTask, true},
		{"admin delete task", admin, ActionDeleteTask, true},
		{"admin list members", admin, ActionListMembers, true},
		{"admin delete member", admin, ActionDeleteMember, true},
		{"member create task", member, ActionCreateTask, false},
		{"member view task", member, ActionViewTask, true},
		{"member update task", member, ActionUpdateTask, true},
		{"member delete task", member, ActionDeleteTask, false},
		{"member list members", member, ActionListMembers, true},
		{"member delete member", member, ActionDeleteMember, false},
		{"unknown role", Actor{ID: 3, Role: domain.Role("guest")}, ActionViewTask, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanPerform(tt.actor, tt.action); got != tt.want {
				t.Fatalf("CanPerform(%v, %v) = %v, want %v", tt.actor, tt.action, got, tt.want)
			}
		})
	}
}

func TestCanAccessTask(t *testing.T) {
	task := &domain.Task{ID: 10, AssignedTo: 2, CreatedBy: 1}

	if !CanAccessTask(Actor{ID: 1, Role: domain.RoleAdmin}, task) {
		t.Fatalf("admin should access any task")
	}
	if !CanAccessTask(Actor{ID: 2, Role: domain.RoleMember}, task) {
		t.Fatalf("assignee should access own task")
	}
	if CanAccessTask(Actor{ID: 3, Role: domain.RoleMember}, task) {
		t.Fatalf("non-assignee member should be denied")
	}
	if CanAccessTask(Actor{ID: 2, Role: domain.Role("guest")}, task) {
		t.Fatalf("unknown role should be denied")
	}
}

func TestCanDeleteMember(t *testing.T) {
	admin := Actor{ID: 1, Role: domain.RoleAdmin}
	member := Actor{ID: 2, Role: domain.RoleMember}

	adminTarget := &domain.Member{ID: 5, Role: domain.RoleAdmin}
	memberTarget := &domain.Member{ID: 6, Role: domain.RoleMember}

	if CanDeleteMember(admin, adminTarget) {
		t.Fatalf("admin target must never be deletable, even by an admin")
	}
	if !CanDeleteMember(admin, memberTarget) {
		t.Fatalf("admin should delete a member target")
	}
	if CanDeleteMember(member, memberTarget) {
		t.Fatalf("member should not delete anyone")
	}
}

func TestScopeFor(t *testing.T) {
	if scope := ScopeFor(Actor{ID: 1, Role: domain.RoleAdmin}); scope.AssignedTo != nil {
		t.Fatalf("admin scope should be unrestricted, got %v", *scope.AssignedTo)
	}

	scope := ScopeFor(Actor{ID: 2, Role: domain.RoleMember})
	if scope.AssignedTo == nil || *scope.AssignedTo != 2 {
		t.Fatalf("member scope should be restricted to own id, got %v", scope.AssignedTo)
	}

	scope = ScopeFor(Actor{ID: 3, Role: domain.Role("guest")})
	if scope.AssignedTo == nil || *scope.AssignedTo != 3 {
		t.Fatalf("unknown role should fall back to own id, got %v", scope.AssignedTo)
	}
}
