package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// In-memory fakes backing service and router tests. Not-found conditions are
// reported the same way the pg repositories report them.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*UserRecord
	roles  *fakeRoleRepo
}

func newFakeUserRepo(roles *fakeRoleRepo) *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*UserRecord{}, roles: roles}
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, roleID int64, firstName, lastName, email, passwordHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[email]; ok {
		return 0, ErrDuplicateEmail
	}
	r.nextID++
	r.users[email] = &UserRecord{
		ID:           r.nextID,
		RoleID:       roleID,
		RoleName:     r.roleNameOf(roleID),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	return r.nextID, nil
}

func (r *fakeUserRepo) List(ctx context.Context, page, perPage int) ([]UserListItem, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]UserListItem, 0, len(r.users))
	for _, u := range r.users {
		items = append(items, UserListItem{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Role: u.RoleName, CreatedAt: u.CreatedAt})
	}
	return items, len(items), nil
}

// roleNameOf resolves a role name like the pg repository's join does.
func (r *fakeUserRepo) roleNameOf(roleID int64) string {
	if r.roles == nil {
		return ""
	}
	r.roles.mu.Lock()
	defer r.roles.mu.Unlock()
	for _, role := range r.roles.roles {
		if role.ID == roleID {
			return role.Name
		}
	}
	return ""
}

type fakeRoleRepo struct {
	mu     sync.Mutex
	nextID int64
	roles  map[string]*Role
}

func newFakeRoleRepo(names ...string) *fakeRoleRepo {
	r := &fakeRoleRepo{roles: map[string]*Role{}}
	for _, n := range names {
		r.mustCreate(n)
	}
	return r
}

func (r *fakeRoleRepo) mustCreate(name string) *Role {
	role, _ := r.Create(context.Background(), name)
	return role
}

func (r *fakeRoleRepo) FindByName(ctx context.Context, name string) (*Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[name]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *role
	return &cp, nil
}

func (r *fakeRoleRepo) Create(ctx context.Context, name string) (*Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	role := &Role{ID: r.nextID, Name: name}
	r.roles[name] = role
	return role, nil
}

func (r *fakeRoleRepo) List(ctx context.Context) ([]Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Role
	for _, role := range r.roles {
		out = append(out, *role)
	}
	return out, nil
}

func newTestAuthService(roles ...string) (*RepositoryAuthService, *fakeUserRepo, *fakeRoleRepo, *TokenIssuer) {
	roleRepo := newFakeRoleRepo(roles...)
	users := newFakeUserRepo(roleRepo)
	hasher := &BcryptHasher{Cost: bcrypt.MinCost}
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	return NewRepositoryAuthService(users, roleRepo, hasher, issuer), users, roleRepo, issuer
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _, _, issuer := newTestAuthService("USER")
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterInput{Role: "USER", FirstName: "A", LastName: "B", Email: "a@b.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if reg.Email != "a@b.com" || reg.Role != "USER" {
		t.Fatalf("unexpected registration result: %+v", reg)
	}

	res, err := svc.Login(ctx, "a@b.com", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token, got failure message %q", res.Message)
	}

	ident, err := issuer.Verify(res.Token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ident.Email != "a@b.com" || ident.Role != "USER" {
		t.Fatalf("token claims mismatch: %+v", ident)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, users, _, _ := newTestAuthService("USER")
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Role: "USER", Email: "a@b.com", Password: "pw"}); err != nil {
		t.Fatalf("first Register error: %v", err)
	}
	before, _ := users.FindByEmail(ctx, "a@b.com")

	if _, err := svc.Register(ctx, RegisterInput{Role: "USER", Email: "a@b.com", Password: "other"}); err != ErrDuplicateEmail {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	after, _ := users.FindByEmail(ctx, "a@b.com")
	if before.PasswordHash != after.PasswordHash {
		t.Fatalf("duplicate registration mutated the existing account")
	}
}

func TestRegisterUnknownRole(t *testing.T) {
	svc, users, _, _ := newTestAuthService("USER")
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Role: "NOPE", Email: "x@y.com", Password: "pw"}); err != ErrUnknownRole {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if _, err := users.FindByEmail(ctx, "x@y.com"); err == nil {
		t.Fatalf("account was created despite unknown role")
	}
}

// The duplicate check runs before role resolution, so a duplicate email wins
// when both conditions hold.
func TestRegisterDuplicateWinsOverUnknownRole(t *testing.T) {
	svc, _, _, _ := newTestAuthService("USER")
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Role: "USER", Email: "a@b.com", Password: "pw"}); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Role: "NOPE", Email: "a@b.com", Password: "pw"}); err != ErrDuplicateEmail {
		t.Fatalf("expected ErrDuplicateEmail to win over unknown role, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _, _ := newTestAuthService("USER")
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Role: "USER", Email: "a@b.com", Password: "pw"}); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	res, err := svc.Login(ctx, "a@b.com", "wrong")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if res.Token != "" {
		t.Fatalf("wrong password yielded a token")
	}
	if res.Message != loginFailureMessage {
		t.Fatalf("unexpected failure message %q", res.Message)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _, _ := newTestAuthService("USER")

	res, err := svc.Login(context.Background(), "ghost@b.com", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if res.Token != "" {
		t.Fatalf("unknown email yielded a token")
	}
}

// Unknown email and wrong password must be indistinguishable in the outcome.
func TestLoginFailureIsUniform(t *testing.T) {
	svc, _, _, _ := newTestAuthService("USER")
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Role: "USER", Email: "a@b.com", Password: "pw"}); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	wrongPw, _ := svc.Login(ctx, "a@b.com", "wrong")
	unknown, _ := svc.Login(ctx, "ghost@b.com", "pw")
	if wrongPw.Message != unknown.Message {
		t.Fatalf("login failures are distinguishable: %q vs %q", wrongPw.Message, unknown.Message)
	}
	if wrongPw.Email != "" || unknown.Email != "" {
		t.Fatalf("failure outcome leaked an email")
	}
}
