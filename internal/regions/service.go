package regions

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidRegion indicates missing or malformed region fields.
var ErrInvalidRegion = errors.New("regions: code and name required")

// Service handles region business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all regions.
func (s *Service) List(ctx context.Context) ([]Region, error) {
	return s.repo.List(ctx)
}

// Get returns a single region by code.
func (s *Service) Get(ctx context.Context, code string) (Region, error) {
	return s.repo.Get(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// Create registers a new region hub. Codes are stored upper-cased.
func (s *Service) Create(ctx context.Context, region Region) (Region, error) {
	region.Code = strings.ToUpper(strings.TrimSpace(region.Code))
	region.Name = strings.TrimSpace(region.Name)
	if region.Code == "" || region.Name == "" {
		return Region{}, ErrInvalidRegion
	}
	region.IsActive = true
	return s.repo.Create(ctx, region)
}
