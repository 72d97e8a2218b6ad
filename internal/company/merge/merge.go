// Package merge implements the provenance merge engine: applying a
// partial update to a company record while attributing every changed
// field to the source that supplied it.
package merge

import (
	"time"

	"github.com/relaycrm/relay/internal/company/models"
)

// Apply overwrites every field present in the update, records the
// source tag for each touched field, bumps updatedAt, and adjusts the
// aggregate dataSource label under the precedence rules:
//
//   - manual_research promotes dataSource only when the current label
//     is unset or the weak "manual" default; a richer label (csv_upload,
//     csv_import) is never downgraded by a manual edit.
//   - csv_upload overwrites dataSource unconditionally and stamps
//     importedAt.
//   - csv_import overwrites dataSource (used on the bulk creation path).
//   - enrichment leaves dataSource alone; its state is carried by
//     enrichmentStatus and enrichedAt, which the orchestrator manages.
//
// The returned slice lists the fields that were written.
func Apply(c *models.Company, u *models.CompanyUpdate, source models.SourceTag, now time.Time) []models.Field {
	if c.FieldSources == nil {
		c.FieldSources = models.FieldSources{}
	}

	var touched []models.Field
	touch := func(f models.Field) {
		c.FieldSources[f] = source
		touched = append(touched, f)
	}

	if u.Name != nil {
		c.Name = *u.Name
		touch(models.FieldName)
	}
	if u.Domain != nil {
		c.Domain = u.Domain
		touch(models.FieldDomain)
	}
	if u.Website != nil {
		c.Website = u.Website
		touch(models.FieldWebsite)
	}
	if u.Industry != nil {
		c.Industry = u.Industry
		touch(models.FieldIndustry)
	}
	if u.Size != nil {
		c.Size = u.Size
		touch(models.FieldSize)
	}
	if u.Description != nil {
		c.Description = u.Description
		touch(models.FieldDescription)
	}
	if u.Location != nil {
		c.Location = u.Location
		touch(models.FieldLocation)
	}
	if u.LinkedIn != nil {
		c.LinkedIn = u.LinkedIn
		touch(models.FieldLinkedIn)
	}
	if u.EmployeeCount != nil {
		c.EmployeeCount = u.EmployeeCount
		touch(models.FieldEmployeeCount)
	}
	if u.Revenue != nil {
		c.Revenue = u.Revenue
		touch(models.FieldRevenue)
	}
	if u.FoundedYear != nil {
		c.FoundedYear = u.FoundedYear
		touch(models.FieldFoundedYear)
	}
	if u.Phone != nil {
		c.Phone = u.Phone
		touch(models.FieldPhone)
	}
	if u.Email != nil {
		c.Email = u.Email
		touch(models.FieldEmail)
	}

	c.UpdatedAt = now

	switch source {
	case models.SourceManualResearch:
		if c.DataSource == "" || c.DataSource == models.DataSourceManual {
			c.DataSource = models.DataSourceManualResearch
		}
	case models.SourceCSVUpload:
		c.DataSource = models.DataSourceCSVUpload
		importedAt := now
		c.ImportedAt = &importedAt
	case models.SourceCSVImport:
		c.DataSource = models.DataSourceCSVImport
	case models.SourceEnrichment:
		// dataSource untouched; enrichmentStatus carries the state.
	}

	return touched
}
