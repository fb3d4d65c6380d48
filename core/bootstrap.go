package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedStore is the persistence contract for bootstrap seeding. Role and
// admin account must be created in one atomic unit so a crash mid-seed
// cannot leave one without the other.
type SeedStore interface {
	HasRole(ctx context.Context, name string) (bool, error)
	CreateRoleWithAdmin(ctx context.Context, roleName, firstName, lastName, email, passwordHash string) error
}

// BootstrapAdmin seeds the SYSTEM_ADMIN role and one account bound to it
// when the role does not exist yet. It is idempotent: repeated runs against
// the same store create nothing. It runs synchronously before the server
// accepts traffic.
func BootstrapAdmin(ctx context.Context, store SeedStore, hasher PasswordHasher, cfg Config) error {
	if !cfg.BootstrapAdminEnabled {
		return nil
	}

	has, err := store.HasRole(ctx, SystemAdminRole)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	password := cfg.BootstrapAdminPassword
	generated := false
	if password == "" {
		password, err = generatePassword(32)
		if err != nil {
			return err
		}
		generated = true
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	if err := store.CreateRoleWithAdmin(ctx, SystemAdminRole, "System", "Admin", cfg.BootstrapAdminEmail, hash); err != nil {
		return err
	}

	switch {
	case !generated:
		log.Printf("initial admin created email=%s", cfg.BootstrapAdminEmail)
	case cfg.InitialAdminPasswordPath != "":
		if err := os.WriteFile(cfg.InitialAdminPasswordPath, []byte(password+"\n"), 0o600); err != nil {
			return err
		}
		log.Printf("initial admin created email=%s; credentials written to %s", cfg.BootstrapAdminEmail, cfg.InitialAdminPasswordPath)
	default:
		log.Printf("initial admin created email=%s password=%s", cfg.BootstrapAdminEmail, password)
	}

	return nil
}

// PgSeedStore implements SeedStore over pgxpool.
type PgSeedStore struct {
	db *pgxpool.Pool
}

func NewPgSeedStore(db *pgxpool.Pool) *PgSeedStore {
	return &PgSeedStore{db: db}
}

func (s *PgSeedStore) HasRole(ctx context.Context, name string) (bool, error) {
	const q = `SELECT 1 FROM roles WHERE name=$1 LIMIT 1`
	var one int
	if err := s.db.QueryRow(ctx, q, name).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateRoleWithAdmin inserts the role and its admin account in a single
// transaction.
func (s *PgSeedStore) CreateRoleWithAdmin(ctx context.Context, roleName, firstName, lastName, email, passwordHash string) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var roleID int64
		if err := tx.QueryRow(ctx, `INSERT INTO roles (name) VALUES ($1) RETURNING id`, roleName).Scan(&roleID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO users (role_id, first_name, last_name, email, password_hash) VALUES ($1,$2,$3,$4,$5)`,
			roleID, firstName, lastName, email, passwordHash)
		return err
	})
}

func generatePassword(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("password length must be positive")
	}
	// base64 encoding: need 3/4 overhead; ensure enough bytes
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:length], nil
}
