package seed

import (
	"errors"
	"log/slog"
	"math/rand"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/config"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/repository"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin 确保数据库中存在一个管理员账号，已存在时不做任何处理
func SeedAdmin(cfg *config.Config, repo *repository.Repository) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &domain.Member{
		Name:         "Admin User",
		Email:        cfg.Seed.AdminEmail,
		PasswordHash: string(passwordHash),
		Role:         domain.RoleAdmin,
		Department:   "Management",
	}

	if err := repo.CreateMember(admin); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "users_email_key" {
			slog.Info("管理员账号已存在，跳过", "email", cfg.Seed.AdminEmail)
			return nil
		}
		return err
	}

	slog.Info("管理员账号创建成功", "email", admin.Email, "id", admin.ID)
	return nil
}

// SeedMembers 插入 n 个随机成员
func SeedMembers(cfg *config.Config, repo *repository.Repository, n int) int {
	cnt := 0
	for i := 0; i < n; i++ {
		member, err := utils.GenerateRandomMember(cfg.Seed.UserPassword, cfg.Seed.EmailDomain)
		if err != nil {
			slog.Error("无法生成随机成员", "error", err)
			continue
		}

		if err := repo.CreateMember(member); err != nil {
			slog.Error("无法插入成员", "error", err)
			continue
		}

		cnt++
	}
	return cnt
}

// SeedTasks 为已有成员插入 n 个随机任务，创建者从管理员中随机挑选
func SeedTasks(repo *repository.Repository, n int) (int, error) {
	members, err := repo.GetAllMembers()
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, errors.New("数据库中没有任何成员，请先插入成员")
	}

	admins := make([]*domain.Member, 0)
	for _, member := range members {
		if member.Role == domain.RoleAdmin {
			admins = append(admins, member)
		}
	}
	if len(admins) == 0 {
		return 0, errors.New("数据库中没有管理员，请先插入管理员")
	}

	cnt := 0
	for i := 0; i < n; i++ {
		assignee := members[rand.Intn(len(members))]
		creator := admins[rand.Intn(len(admins))]

		task := utils.GenerateRandomTask(assignee.ID, creator.ID)
		if err := repo.CreateTask(task); err != nil {
			slog.Error("无法插入任务", "error", err)
			continue
		}

		// CreateTask 不会写入 completed_at，补一次更新
		if task.CompletedAt != nil {
			if err := repo.UpdateTask(task); err != nil {
				slog.Error("无法更新任务完成时间", "error", err)
			}
		}

		cnt++
	}
	return cnt, nil
}
