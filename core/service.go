package core

import (
	"context"
	"strings"
)

const loginFailureMessage = "invalid email or password"

// RepositoryAuthService implements AuthService over the user and role
// repositories, a password hasher and a token issuer.
type RepositoryAuthService struct {
	users  UserRepository
	roles  RoleRepository
	hasher PasswordHasher
	tokens *TokenIssuer
}

func NewRepositoryAuthService(users UserRepository, roles RoleRepository, hasher PasswordHasher, tokens *TokenIssuer) *RepositoryAuthService {
	return &RepositoryAuthService{users: users, roles: roles, hasher: hasher, tokens: tokens}
}

// Register creates a new account. The duplicate-email check runs before role
// resolution and hashing, so a duplicate wins over an unknown role when both
// hold and no hashing work is wasted on doomed requests. The store-level
// uniqueness constraint backs the check against concurrent registrations.
func (s *RepositoryAuthService) Register(ctx context.Context, in RegisterInput) (*RegisteredIdentity, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !IsNotFound(err) {
		return nil, err
	}

	role, err := s.roles.FindByName(ctx, in.Role)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrUnknownRole
		}
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.Create(ctx, role.ID, strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName), email, hash); err != nil {
		return nil, err
	}

	return &RegisteredIdentity{Email: email, Role: role.Name}, nil
}

// Login verifies the credential proof and issues a token on success. Unknown
// email and wrong password produce the same null-token outcome so valid
// emails cannot be enumerated from the response.
func (s *RepositoryAuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{Message: loginFailureMessage}, nil
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			return LoginResult{Message: loginFailureMessage}, nil
		}
		return LoginResult{}, err
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return LoginResult{Message: loginFailureMessage}, nil
	}

	token, err := s.tokens.Issue(u.Email, u.RoleName)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Email: u.Email, Token: token}, nil
}
