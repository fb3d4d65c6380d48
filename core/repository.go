package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRecord represents the account projection stored in persistence layer.
type UserRecord struct {
	ID           int64
	RoleID       int64
	RoleName     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserListItem is a projection for admin user listing (no password hash).
type UserListItem struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
	// Create persists a new account. A store-level unique violation on the
	// email column is reported as ErrDuplicateEmail; this closes the race
	// two concurrent registrations open between check and insert.
	Create(ctx context.Context, roleID int64, firstName, lastName, email, passwordHash string) (int64, error)
	List(ctx context.Context, page, perPage int) ([]UserListItem, int, error)
}

// PgUserRepository implements UserRepository using pgxpool.
type PgUserRepository struct {
	db *pgxpool.Pool
}

func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

func (r *PgUserRepository) FindByEmail(ctx context.Context, email string) (*UserRecord, error) {
	const q = `
SELECT u.id, u.role_id, r.name, u.first_name, u.last_name, u.email, u.password_hash, u.created_at, u.updated_at
FROM users u
JOIN roles r ON r.id = u.role_id
WHERE u.email = $1`
	var u UserRecord
	if err := r.db.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.RoleID, &u.RoleName, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) Create(ctx context.Context, roleID int64, firstName, lastName, email, passwordHash string) (int64, error) {
	const q = `INSERT INTO users (role_id, first_name, last_name, email, password_hash) VALUES ($1,$2,$3,$4,$5) RETURNING id`
	var id int64
	if err := r.db.QueryRow(ctx, q, roleID, firstName, lastName, email, passwordHash).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, err
	}
	return id, nil
}

// List returns paginated accounts without password hashes.
func (r *PgUserRepository) List(ctx context.Context, page, perPage int) ([]UserListItem, int, error) {
	if page <= 0 || perPage <= 0 {
		return nil, 0, errors.New("invalid pagination")
	}
	const countQ = `SELECT COUNT(*) FROM users`
	var total int
	if err := r.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `
SELECT u.id, u.email, u.first_name, u.last_name, r.name, u.created_at
FROM users u
JOIN roles r ON r.id = u.role_id
ORDER BY u.id
LIMIT $1 OFFSET $2`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]UserListItem, 0, perPage)
	for rows.Next() {
		var u UserListItem
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}

// isUniqueViolation reports whether err is a Postgres 23505 unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsNotFound reports whether err means "no matching row".
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
