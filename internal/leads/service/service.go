// Package service contains the leads business logic.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/internal/sources"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/logger"
)

// Service implements lead use cases on top of the repository.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a leads service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Store normalizes a provider lead and upserts it into the shared pool.
// Returns the stored lead and whether it was newly created.
func (s *Service) Store(ctx context.Context, src sources.Lead) (*domain.Lead, bool, error) {
	if src.Name == "" {
		return nil, false, apperr.Validation("lead name is required")
	}
	lead := &domain.Lead{
		ExternalID:    src.ExternalID,
		Provider:      src.Provider,
		Name:          src.Name,
		Website:       src.Website,
		Industry:      src.Industry,
		EmployeeCount: src.EmployeeCount,
		AnnualRevenue: src.AnnualRevenue,
		CompanySize:   sources.EmployeeBucket(src.EmployeeCount),
		RevenueRange:  sources.RevenueBucket(src.AnnualRevenue),
		City:          src.City,
		State:         src.State,
		Country:       src.Country,
		Technologies:  src.Technologies,
		TriggerEvents: src.TriggerEvents,
		Contact: domain.Contact{
			Name:  src.Contact.Name,
			Email: src.Contact.Email,
			Phone: src.Contact.Phone,
			Title: src.Contact.Title,
		},
		CustomFields: src.Raw,
	}
	return s.repo.Upsert(ctx, lead)
}

// Get returns one lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a filtered page of leads.
func (s *Service) List(ctx context.Context, filter repository.ListFilter) ([]*domain.Lead, int, error) {
	return s.repo.List(ctx, filter)
}

// ListSince returns leads refreshed after the given time.
func (s *Service) ListSince(ctx context.Context, since time.Time, limit int) ([]*domain.Lead, error) {
	return s.repo.ListSince(ctx, since, limit)
}

// Delete removes one lead.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
