package core

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

type fakeSeedStore struct {
	roles       map[string]bool
	admins      []string
	createCalls int
}

func newFakeSeedStore() *fakeSeedStore {
	return &fakeSeedStore{roles: map[string]bool{}}
}

func (s *fakeSeedStore) HasRole(ctx context.Context, name string) (bool, error) {
	return s.roles[name], nil
}

func (s *fakeSeedStore) CreateRoleWithAdmin(ctx context.Context, roleName, firstName, lastName, email, passwordHash string) error {
	s.createCalls++
	s.roles[roleName] = true
	s.admins = append(s.admins, email)
	return nil
}

func bootstrapConfig() Config {
	return Config{
		BootstrapAdminEnabled:  true,
		BootstrapAdminEmail:    "admin@tripsense.local",
		BootstrapAdminPassword: "seed-pw",
	}
}

func TestBootstrapAdminSeedsOnce(t *testing.T) {
	store := newFakeSeedStore()
	hasher := &BcryptHasher{Cost: bcrypt.MinCost}
	cfg := bootstrapConfig()
	ctx := context.Background()

	if err := BootstrapAdmin(ctx, store, hasher, cfg); err != nil {
		t.Fatalf("first BootstrapAdmin error: %v", err)
	}
	if !store.roles[SystemAdminRole] {
		t.Fatalf("SYSTEM_ADMIN role was not created")
	}
	if len(store.admins) != 1 || store.admins[0] != "admin@tripsense.local" {
		t.Fatalf("unexpected seeded admins: %v", store.admins)
	}

	// A second run against the same store must create nothing.
	if err := BootstrapAdmin(ctx, store, hasher, cfg); err != nil {
		t.Fatalf("second BootstrapAdmin error: %v", err)
	}
	if store.createCalls != 1 {
		t.Fatalf("expected 1 create call, got %d", store.createCalls)
	}
}

func TestBootstrapAdminDisabled(t *testing.T) {
	store := newFakeSeedStore()
	cfg := bootstrapConfig()
	cfg.BootstrapAdminEnabled = false

	if err := BootstrapAdmin(context.Background(), store, &BcryptHasher{Cost: bcrypt.MinCost}, cfg); err != nil {
		t.Fatalf("BootstrapAdmin error: %v", err)
	}
	if store.createCalls != 0 {
		t.Fatalf("seeding ran while disabled")
	}
}

func TestBootstrapAdminGeneratesPassword(t *testing.T) {
	store := newFakeSeedStore()
	cfg := bootstrapConfig()
	cfg.BootstrapAdminPassword = ""

	if err := BootstrapAdmin(context.Background(), store, &BcryptHasher{Cost: bcrypt.MinCost}, cfg); err != nil {
		t.Fatalf("BootstrapAdmin error: %v", err)
	}
	if store.createCalls != 1 {
		t.Fatalf("expected admin to be created with a generated password")
	}
}

func TestGeneratePasswordLength(t *testing.T) {
	p, err := generatePassword(32)
	if err != nil {
		t.Fatalf("generatePassword error: %v", err)
	}
	if len(p) != 32 {
		t.Fatalf("expected 32 chars, got %d", len(p))
	}
	if _, err := generatePassword(0); err == nil {
		t.Fatalf("expected error for zero length")
	}
}
