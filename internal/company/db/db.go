// Package db implements the gorm-backed repository for company records.
// All reads and writes are scoped by owner; deletion is a soft delete.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	e "github.com/relaycrm/relay/internal/company/errors"
	"github.com/relaycrm/relay/internal/company/models"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ListQuery carries the filter and pagination parameters for ListCompanies.
type ListQuery struct {
	Search string
	Page   int
	Limit  int
}

func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var db *gorm.DB
	connect := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		return err
	}
	if err := backoff.Retry(connect, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Company{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	result := r.db.WithContext(ctx).Create(company)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// GetCompany fetches a company by ID within the given owner scope.
func (r *Repository) GetCompany(ctx context.Context, ownerID, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).
		First(&company, "id = ? AND owner_id = ?", id, ownerID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &company, nil
}

// ListCompanies returns active companies for the owner, newest first,
// optionally filtered by a case-insensitive search over name, domain
// and industry, along with the total match count.
func (r *Repository) ListCompanies(ctx context.Context, ownerID uuid.UUID, q ListQuery) ([]*models.Company, int64, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 10
	}

	tx := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("owner_id = ? AND is_active = ?", ownerID, true)

	if s := strings.TrimSpace(q.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		tx = tx.Where(
			"LOWER(name) LIKE ? OR LOWER(domain) LIKE ? OR LOWER(industry) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var companies []*models.Company
	err := tx.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&companies).Error
	if err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

// SaveCompany persists a whole record, typically after a merge.
func (r *Repository) SaveCompany(ctx context.Context, company *models.Company) error {
	result := r.db.WithContext(ctx).Save(company)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// SoftDeleteCompany marks a company inactive. The record is retained.
func (r *Repository) SoftDeleteCompany(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// FindActiveByName looks up an active company with the exact trimmed
// name under the owner. This is the dedup check for CSV import.
func (r *Repository) FindActiveByName(ctx context.Context, ownerID uuid.UUID, name string) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).
		First(&company, "owner_id = ? AND name = ? AND is_active = ?",
			ownerID, strings.TrimSpace(name), true)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &company, nil
}

// MarkEnriching admits an enrichment job by flipping the status to
// "enriching" in a single guarded update. The status guard in the WHERE
// clause makes concurrent triggers race-free: only one of them observes
// RowsAffected == 1.
func (r *Repository) MarkEnriching(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ? AND owner_id = ? AND enrichment_status <> ?",
			id, ownerID, models.EnrichmentEnriching).
		Updates(map[string]interface{}{
			"enrichment_status": models.EnrichmentEnriching,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish "missing" from "already enriching".
		if _, err := r.GetCompany(ctx, ownerID, id); err != nil {
			return err
		}
		return e.ErrConflict
	}
	return nil
}

// SetEnrichmentStatus records a terminal enrichment outcome. enrichedAt
// is stamped only when the status is "enriched".
func (r *Repository) SetEnrichmentStatus(ctx context.Context, id uuid.UUID, status models.EnrichmentStatus, enrichedAt *time.Time) error {
	updates := map[string]interface{}{
		"enrichment_status": status,
		"updated_at":        time.Now(),
	}
	if enrichedAt != nil {
		updates["enriched_at"] = *enrichedAt
	}
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
