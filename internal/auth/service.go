// Package auth handles registration, login and session lifecycle. Role
// checks on protected routes live in the rbac package.
package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-dist/meridian/internal/shared"
	"github.com/meridian-dist/meridian/internal/users"
)

// UsersPort exposes the account operations auth needs.
type UsersPort interface {
	Register(ctx context.Context, input users.RegisterInput) (users.User, error)
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

// Service verifies credentials against stored accounts.
type Service struct {
	users UsersPort
}

// NewService builds Service.
func NewService(usersPort UsersPort) *Service {
	return &Service{users: usersPort}
}

// Register creates a new account through the users module.
func (s *Service) Register(ctx context.Context, input users.RegisterInput) (users.User, error) {
	return s.users.Register(ctx, input)
}

// Authenticate checks email and password. Accounts that are not approved, or
// that have been deactivated, cannot sign in even with correct credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return users.User{}, shared.ErrInvalidCredentials
		}
		return users.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if !user.Approved() {
		return users.User{}, shared.ErrAccountNotApproved
	}
	return user, nil
}
