package core

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RoleRepository defines persistence operations for roles.
type RoleRepository interface {
	FindByName(ctx context.Context, name string) (*Role, error)
	Create(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]Role, error)
}

type PgRoleRepository struct {
	db *pgxpool.Pool
}

func NewPgRoleRepository(db *pgxpool.Pool) *PgRoleRepository {
	return &PgRoleRepository{db: db}
}

func (r *PgRoleRepository) FindByName(ctx context.Context, name string) (*Role, error) {
	const q = `SELECT id, name FROM roles WHERE name=$1`
	var role Role
	if err := r.db.QueryRow(ctx, q, name).Scan(&role.ID, &role.Name); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *PgRoleRepository) Create(ctx context.Context, name string) (*Role, error) {
	name = strings.TrimSpace(name)
	const q = `INSERT INTO roles (name) VALUES ($1) RETURNING id`
	var role Role
	if err := r.db.QueryRow(ctx, q, name).Scan(&role.ID); err != nil {
		return nil, err
	}
	role.Name = name
	return &role, nil
}

func (r *PgRoleRepository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
