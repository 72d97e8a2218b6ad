package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relaycrm/relay/internal/company/csvmap"
	e "github.com/relaycrm/relay/internal/company/errors"
	"github.com/relaycrm/relay/internal/company/events"
	"github.com/relaycrm/relay/internal/company/merge"
	"github.com/relaycrm/relay/internal/company/models"
)

// ImportResult aggregates the per-row outcomes of a bulk CSV import.
type ImportResult struct {
	TotalProcessed int               `json:"totalProcessed"`
	Imported       int               `json:"imported"`
	Duplicates     int               `json:"duplicates"`
	Errors         []string          `json:"errors,omitempty"`
	Companies      []*models.Company `json:"companies,omitempty"`
}

// ImportCompaniesCSV bulk-creates companies from CSV bytes. The header
// mapping is inferred once; rows are then processed sequentially so two
// rows in the same file cannot race to create duplicates. Rows with an
// empty name are skipped silently, duplicates are counted, and any
// per-row failure is recorded and skipped without aborting the batch.
func (s *CompanyService) ImportCompaniesCSV(ctx context.Context, ownerID uuid.UUID, csvData []byte) (*ImportResult, error) {
	header, rows, err := csvmap.Parse(csvData)
	if err != nil {
		return nil, fmt.Errorf("%w: no valid records found in CSV", e.ErrInvalidInput)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no valid records found in CSV", e.ErrInvalidInput)
	}

	mapping := csvmap.MapHeaders(header)
	result := &ImportResult{TotalProcessed: len(rows)}

	for i, row := range rows {
		// Data rows start on line 2 of the file.
		line := i + 2

		update, err := csvmap.ExtractRecord(row, mapping)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		if update.Name == nil || strings.TrimSpace(*update.Name) == "" {
			continue
		}
		name := strings.TrimSpace(*update.Name)

		if _, err := s.repo.FindActiveByName(ctx, ownerID, name); err == nil {
			result.Duplicates++
			continue
		} else if !errors.Is(err, e.ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		now := time.Now()
		company := &models.Company{
			ID:               uuid.New(),
			OwnerID:          ownerID,
			IsActive:         true,
			EnrichmentStatus: models.EnrichmentNone,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		merge.Apply(company, update, models.SourceCSVImport, now)
		company.Name = name

		if err := s.repo.CreateCompany(ctx, company); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		result.Imported++
		result.Companies = append(result.Companies, company)
		go func(c *models.Company) {
			s.producer.Produce(events.CompanyImported, models.SourceCSVImport, c)
		}(company)
	}

	s.logger.Info("csv import completed",
		zap.String("owner_id", ownerID.String()),
		zap.Int("total", result.TotalProcessed),
		zap.Int("imported", result.Imported),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// UploadCompanyDetailCSV applies the first data row of a CSV as a
// targeted update to one existing company, matching columns by explicit
// synonym names and attributing the touched fields to csv_upload. It
// returns the updated record and the fields that were written.
func (s *CompanyService) UploadCompanyDetailCSV(ctx context.Context, ownerID, id uuid.UUID, csvData []byte) (*models.Company, []models.Field, error) {
	company, err := s.repo.GetCompany(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to get company: %w", err)
	}

	_, rows, err := csvmap.Parse(csvData)
	if err != nil || len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: no valid records found in CSV", e.ErrInvalidInput)
	}

	update, err := csvmap.ExtractDetailRow(rows[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}

	touched := merge.Apply(company, update, models.SourceCSVUpload, time.Now())

	if err := s.repo.SaveCompany(ctx, company); err != nil {
		return nil, nil, fmt.Errorf("failed to update company: %w", err)
	}
	go func() {
		s.producer.Produce(events.CompanyUpdated, models.SourceCSVUpload, company)
	}()
	return company, touched, nil
}
