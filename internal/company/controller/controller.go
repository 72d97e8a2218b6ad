// Package controller implements the core business logic (service layer)
// for managing company records, orchestrating repository operations,
// provenance merges, and event production.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relaycrm/relay/internal/company/db"
	e "github.com/relaycrm/relay/internal/company/errors"
	"github.com/relaycrm/relay/internal/company/events"
	"github.com/relaycrm/relay/internal/company/merge"
	"github.com/relaycrm/relay/internal/company/models"
)

type EventProducer interface {
	Produce(eventType events.EventType, source models.SourceTag, company *models.Company)
}

// Repository defines the storage interface for company records.
type Repository interface {
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, ownerID, id uuid.UUID) (*models.Company, error)
	ListCompanies(ctx context.Context, ownerID uuid.UUID, q db.ListQuery) ([]*models.Company, int64, error)
	SaveCompany(ctx context.Context, company *models.Company) error
	SoftDeleteCompany(ctx context.Context, ownerID, id uuid.UUID) error
	FindActiveByName(ctx context.Context, ownerID uuid.UUID, name string) (*models.Company, error)
	Close() error
}

// Enricher admits and runs enrichment jobs (see the enrich package).
type Enricher interface {
	Trigger(ctx context.Context, ownerID, id uuid.UUID) (*models.Company, error)
}

// CompanyPage is the result of a filtered, paginated list.
type CompanyPage struct {
	Companies  []*models.Company `json:"companies"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

// CompanyService provides methods to manage companies via repository
// operations, provenance-aware merges, and event production.
type CompanyService struct {
	repo     Repository
	producer EventProducer
	enricher Enricher
	logger   *zap.Logger
}

// NewCompanyService constructs a CompanyService with a repository, an
// event producer, an enricher, and a logger.
func NewCompanyService(repo Repository, producer EventProducer, enricher Enricher, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		repo:     repo,
		producer: producer,
		enricher: enricher,
		logger:   logger.Named("company_service"),
	}
}

// ListCompanies returns the owner's active companies, filtered and
// paginated.
func (s *CompanyService) ListCompanies(ctx context.Context, ownerID uuid.UUID, q db.ListQuery) (*CompanyPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	companies, total, err := s.repo.ListCompanies(ctx, ownerID, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return &CompanyPage{
		Companies:  companies,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetCompany retrieves a company by ID within the owner scope.
func (s *CompanyService) GetCompany(ctx context.Context, ownerID, id uuid.UUID) (*models.Company, error) {
	company, err := s.repo.GetCompany(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// CreateCompany adds a new company after validating input data and
// triggers a creation event.
func (s *CompanyService) CreateCompany(ctx context.Context, ownerID uuid.UUID, company *models.Company) (*models.Company, error) {
	company.Name = strings.TrimSpace(company.Name)
	if company.Name == "" {
		return nil, fmt.Errorf("%w: name is required", e.ErrInvalidInput)
	}
	if len(company.Name) > 255 {
		return nil, fmt.Errorf("%w: name too long", e.ErrInvalidInput)
	}
	if company.Description != nil && len(*company.Description) > 3000 {
		return nil, fmt.Errorf("%w: description too long", e.ErrInvalidInput)
	}

	now := time.Now()
	company.ID = uuid.New()
	company.OwnerID = ownerID
	company.IsActive = true
	company.EnrichmentStatus = models.EnrichmentNone
	company.CreatedAt = now
	company.UpdatedAt = now

	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	go func() {
		s.producer.Produce(events.CompanyCreated, "", company)
	}()
	return company, nil
}

// UpdateCompanyManual applies a manual edit through the merge engine
// with manual_research provenance and fires an update event.
func (s *CompanyService) UpdateCompanyManual(ctx context.Context, ownerID, id uuid.UUID, update *models.CompanyUpdate) (*models.Company, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", e.ErrInvalidInput)
	}

	company, err := s.repo.GetCompany(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	merge.Apply(company, update, models.SourceManualResearch, time.Now())

	if err := s.repo.SaveCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	go func() {
		s.producer.Produce(events.CompanyUpdated, models.SourceManualResearch, company)
	}()
	return company, nil
}

// DeleteCompany soft-deletes a company by ID and fires a deletion event.
func (s *CompanyService) DeleteCompany(ctx context.Context, ownerID, id uuid.UUID) error {
	company, err := s.repo.GetCompany(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get company for deletion: %w", err)
	}

	if err := s.repo.SoftDeleteCompany(ctx, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	go func() {
		s.producer.Produce(events.CompanyDeleted, "", company)
	}()

	return nil
}

// TriggerEnrichment delegates to the enrichment orchestrator. The
// returned record reflects the freshly-admitted "enriching" state.
func (s *CompanyService) TriggerEnrichment(ctx context.Context, ownerID, id uuid.UUID) (*models.Company, error) {
	return s.enricher.Trigger(ctx, ownerID, id)
}
