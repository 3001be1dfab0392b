package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
)

func (r *Repository) CreateMember(member *domain.Member) error {
	query := `
		INSERT INTO users (name, email, password_hash, role, department)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{member.Name, member.Email, member.PasswordHash, member.Role, member.Department}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&member.ID, &member.CreatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetMemberByID(id int64) (*domain.Member, error) {
	query := `
		SELECT name, email, password_hash, role, department, created_at
		FROM users WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	member := &domain.Member{
		ID: id,
	}

	dst := []any{&member.Name, &member.Email, &member.PasswordHash, &member.Role, &member.Department, &member.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return member, nil
}

func (r *Repository) GetMemberByEmail(email string) (*domain.Member, error) {
	query := `
		SELECT id, name, password_hash, role, department, created_at
		FROM users WHERE email = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	member := &domain.Member{
		Email: email,
	}

	dst := []any{&member.ID, &member.Name, &member.PasswordHash, &member.Role, &member.Department, &member.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(dst...); err != nil {
		return nil, err
	}

	return member, nil
}

func (r *Repository) GetAllMembers() ([]*domain.Member, error) {
	query := `
		SELECT id, name, email, password_hash, role, department, created_at FROM users
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*domain.Member, 0)
	for rows.Next() {
		member := &domain.Member{}
		dst := []any{&member.ID, &member.Name, &member.Email, &member.PasswordHash, &member.Role, &member.Department, &member.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return members, nil
}

func (r *Repository) DeleteMember(id int64) error {
	query := `
		DELETE FROM users WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}
