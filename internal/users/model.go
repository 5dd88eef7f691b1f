package users

import (
	"errors"
	"time"

	"github.com/meridian-dist/meridian/internal/shared"
)

// ApprovalStatus gates whether a registered user may sign in.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// User is a back-office account.
type User struct {
	ID             int64          `json:"id"`
	Email          string         `json:"email"`
	Name           string         `json:"name"`
	PasswordHash   string         `json:"-"`
	Role           shared.Role    `json:"role"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Approved reports whether the account may sign in.
func (u User) Approved() bool {
	return u.ApprovalStatus == ApprovalApproved && u.IsActive
}

var (
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("users: email already registered")
	// ErrInvalidUser indicates missing or malformed registration fields.
	ErrInvalidUser = errors.New("users: invalid user data")
	// ErrNotPending indicates an approval decision on a non-pending account.
	ErrNotPending = errors.New("users: account is not pending approval")
)
