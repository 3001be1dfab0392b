// Package policy 集中了所有的授权决策
// 所有的判断都对角色做穷举分支，新增角色时编译器无法帮忙，但每个决策点都会显式出现，
// 避免散落在各个 handler 中的字符串比较
package policy

import (
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
)

// Actor 是从请求的身份断言中解析出来的操作者
type Actor struct {
	ID   int64
	Role domain.Role
}

type Action int

const (
	ActionCreateTask Action = iota
	ActionViewTask
	ActionUpdateTask
	ActionDeleteTask
	ActionListMembers
	ActionDeleteMember
)

// CanPerform 判断角色层面是否允许执行某个操作，与具体资源无关
// 涉及具体任务的操作还需要再经过 CanAccessTask 的检查
func CanPerform(actor Actor, action Action) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleMember:
		switch action {
		// 成员可以查看通讯录，响应里只有公开信息
		case ActionViewTask, ActionUpdateTask, ActionListMembers:
			return true
		case ActionCreateTask, ActionDeleteTask, ActionDeleteMember:
			return false
		}
		return false
	}
	return false
}

// CanAccessTask 判断操作者是否可以查看或修改某个具体的任务
func CanAccessTask(actor Actor, task *domain.Task) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleMember:
		return task.AssignedTo == actor.ID
	}
	return false
}

// CanDeleteMember 判断操作者是否可以删除目标成员
// 管理员之间也不允许互相删除
func CanDeleteMember(actor Actor, target *domain.Member) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return target.Role != domain.RoleAdmin
	case domain.RoleMember:
		return false
	}
	return false
}

// Scope 是列表和统计查询的过滤范围
// AssignedTo 为 nil 时表示不限制
type Scope struct {
	AssignedTo *int64
}

// ScopeFor 计算操作者能看到的任务范围，每个列表或统计请求只计算一次，
// 下游的查询必须且只能使用这个范围
func ScopeFor(actor Actor) Scope {
	switch actor.Role {
	case domain.RoleAdmin:
		return Scope{}
	case domain.RoleMember:
		id := actor.ID
		return Scope{AssignedTo: &id}
	}
	// 未知角色按最小权限处理，只能看到分配给自己的任务
	id := actor.ID
	return Scope{AssignedTo: &id}
}
