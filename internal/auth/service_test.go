package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-dist/meridian/internal/shared"
	"github.com/meridian-dist/meridian/internal/users"
)

type fakeUsers struct {
	byEmail map[string]users.User
}

func (f *fakeUsers) Register(_ context.Context, input users.RegisterInput) (users.User, error) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.MinCost)
	user := users.User{
		ID:             int64(len(f.byEmail) + 1),
		Email:          input.Email,
		Name:           input.Name,
		PasswordHash:   string(hash),
		Role:           shared.RoleSalesAgent,
		ApprovalStatus: users.ApprovalPending,
		IsActive:       true,
	}
	f.byEmail[input.Email] = user
	return user, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (users.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return user, nil
}

func seedUser(f *fakeUsers, email, password string, status users.ApprovalStatus, active bool) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	f.byEmail[email] = users.User{
		ID:             int64(len(f.byEmail) + 1),
		Email:          email,
		Name:           "Test User",
		PasswordHash:   string(hash),
		Role:           shared.RoleSalesAgent,
		ApprovalStatus: status,
		IsActive:       active,
	}
}

func TestAuthenticate(t *testing.T) {
	store := &fakeUsers{byEmail: make(map[string]users.User)}
	seedUser(store, "ada@meridian.ng", "correcthorse", users.ApprovalApproved, true)
	seedUser(store, "femi@meridian.ng", "correcthorse", users.ApprovalPending, true)
	seedUser(store, "ng@meridian.ng", "correcthorse", users.ApprovalApproved, false)
	svc := NewService(store)

	user, err := svc.Authenticate(context.Background(), "ada@meridian.ng", "correcthorse")
	require.NoError(t, err)
	require.Equal(t, "ada@meridian.ng", user.Email)

	_, err = svc.Authenticate(context.Background(), "ada@meridian.ng", "wrongpassword")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@meridian.ng", "correcthorse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	// Correct credentials are not enough for a pending account.
	_, err = svc.Authenticate(context.Background(), "femi@meridian.ng", "correcthorse")
	require.ErrorIs(t, err, shared.ErrAccountNotApproved)

	// Nor for a deactivated one.
	_, err = svc.Authenticate(context.Background(), "ng@meridian.ng", "correcthorse")
	require.ErrorIs(t, err, shared.ErrAccountNotApproved)
}
