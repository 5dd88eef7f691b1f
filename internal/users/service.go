package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-dist/meridian/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// RegisterInput is a new account request.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Service coordinates account registration and the approval workflow.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// Register creates an account. The first registrant ever becomes an approved
// Admin (handled inside the repository transaction); everyone after starts as
// a pending Sales Agent and cannot sign in until approved.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" || len(input.Password) < 8 {
		return User{}, ErrInvalidUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("users: hash password: %w", err)
	}

	now := s.now().UTC()
	user := User{
		Email:          email,
		Name:           name,
		PasswordHash:   string(hash),
		Role:           shared.RoleSalesAgent,
		ApprovalStatus: ApprovalPending,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return s.repo.Create(ctx, user)
}

// Approve grants a pending account access.
func (s *Service) Approve(ctx context.Context, id int64, actor shared.Actor) error {
	return s.decide(ctx, id, ApprovalApproved, actor)
}

// Reject declines a pending account.
func (s *Service) Reject(ctx context.Context, id int64, actor shared.Actor) error {
	return s.decide(ctx, id, ApprovalRejected, actor)
}

func (s *Service) decide(ctx context.Context, id int64, status ApprovalStatus, actor shared.Actor) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.ApprovalStatus != ApprovalPending {
		return ErrNotPending
	}
	if err := s.repo.SetApproval(ctx, id, status); err != nil {
		return err
	}
	s.record(ctx, actor.ID, fmt.Sprintf("users:%s", strings.ToLower(string(status))), id)
	return nil
}

// Deactivate disables an account without touching its approval history.
func (s *Service) Deactivate(ctx context.Context, id int64, actor shared.Actor) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.record(ctx, actor.ID, "users:deactivate", id)
	return nil
}

// List returns accounts, optionally filtered by approval status.
func (s *Service) List(ctx context.Context, status ApprovalStatus) ([]User, error) {
	return s.repo.List(ctx, status)
}

// Get returns a single account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail returns the account registered under email.
func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) record(ctx context.Context, actorID int64, action string, userID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: fmt.Sprintf("%d", userID),
	})
}
