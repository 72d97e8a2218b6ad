// Package models defines the core domain models for the Company entity,
// including per-field provenance tracking and enrichment state.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceTag identifies the logical actor that last set a field.
type SourceTag string

const (
	// SourceManualResearch marks fields set by a manual edit.
	SourceManualResearch SourceTag = "manual_research"
	// SourceCSVImport marks fields set by the bulk CSV import path.
	SourceCSVImport SourceTag = "csv_import"
	// SourceCSVUpload marks fields set by a single-company detail upload.
	SourceCSVUpload SourceTag = "csv_upload"
	// SourceEnrichment marks fields set by the automated enrichment provider.
	SourceEnrichment SourceTag = "enrichment"
)

// DataSource is the coarse record-level provenance label, distinct from
// the per-field FieldSources map.
type DataSource string

const (
	DataSourceManual         DataSource = "manual"
	DataSourceCSVImport      DataSource = "csv_import"
	DataSourceCSVUpload      DataSource = "csv_upload"
	DataSourceManualResearch DataSource = "manual_research"
)

// EnrichmentStatus tracks the enrichment state machine for a company.
// Valid transitions: none -> enriching -> {enriched, failed}; both
// terminal states may re-enter enriching on a new trigger.
type EnrichmentStatus string

const (
	EnrichmentNone      EnrichmentStatus = "none"
	EnrichmentEnriching EnrichmentStatus = "enriching"
	EnrichmentEnriched  EnrichmentStatus = "enriched"
	EnrichmentFailed    EnrichmentStatus = "failed"
)

// Field names a canonical company attribute. FieldSources keys are
// restricted to this closed set.
type Field string

const (
	FieldName          Field = "name"
	FieldDomain        Field = "domain"
	FieldWebsite       Field = "website"
	FieldIndustry      Field = "industry"
	FieldSize          Field = "size"
	FieldDescription   Field = "description"
	FieldLocation      Field = "location"
	FieldLinkedIn      Field = "linkedin"
	FieldEmployeeCount Field = "employeeCount"
	FieldRevenue       Field = "revenue"
	FieldFoundedYear   Field = "foundedYear"
	FieldPhone         Field = "phone"
	FieldEmail         Field = "email"
)

// FieldSources maps a canonical field to the source that last wrote it.
// Only fields that have been explicitly set carry an entry.
type FieldSources map[Field]SourceTag

// Company defines the domain model for a company record. It is also the
// persistence model; FieldSources is stored as a JSON column.
type Company struct {
	// ID is the unique identifier for the company.
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// OwnerID scopes the record to the owning user.
	OwnerID uuid.UUID `gorm:"type:uuid;index" json:"ownerId"`
	// Name is the company's name. Never empty for an active record.
	Name string `gorm:"size:255;not null" json:"name"`

	Domain        *string `json:"domain,omitempty"`
	Website       *string `json:"website,omitempty"`
	Industry      *string `json:"industry,omitempty"`
	Size          *string `json:"size,omitempty"`
	Description   *string `gorm:"size:3000" json:"description,omitempty"`
	Location      *string `json:"location,omitempty"`
	LinkedIn      *string `gorm:"column:linkedin" json:"linkedin,omitempty"`
	EmployeeCount *int    `json:"employeeCount,omitempty"`
	Revenue       *string `json:"revenue,omitempty"`
	FoundedYear   *int    `json:"foundedYear,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Email         *string `json:"email,omitempty"`

	// FieldSources records which source last set each field.
	FieldSources FieldSources `gorm:"serializer:json" json:"fieldSources,omitempty"`
	// DataSource is the aggregate provenance label for the record.
	DataSource DataSource `gorm:"size:32" json:"dataSource,omitempty"`

	EnrichmentStatus EnrichmentStatus `gorm:"size:16;default:none" json:"enrichmentStatus"`
	EnrichedAt       *time.Time       `json:"enrichedAt,omitempty"`
	ImportedAt       *time.Time       `json:"importedAt,omitempty"`

	// IsActive is the soft-delete marker; records are never physically removed.
	IsActive  bool      `gorm:"default:true;index" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CompanyUpdate represents the fields that can be applied to a Company.
// Pointer types are used to allow partial updates; nil means "not provided".
type CompanyUpdate struct {
	Name          *string `json:"name,omitempty"`
	Domain        *string `json:"domain,omitempty"`
	Website       *string `json:"website,omitempty"`
	Industry      *string `json:"industry,omitempty"`
	Size          *string `json:"size,omitempty"`
	Description   *string `json:"description,omitempty"`
	Location      *string `json:"location,omitempty"`
	LinkedIn      *string `json:"linkedin,omitempty"`
	EmployeeCount *int    `json:"employeeCount,omitempty"`
	Revenue       *string `json:"revenue,omitempty"`
	FoundedYear   *int    `json:"foundedYear,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Email         *string `json:"email,omitempty"`
}

// IsEmpty reports whether the update carries no fields at all.
func (u *CompanyUpdate) IsEmpty() bool {
	return u.Name == nil && u.Domain == nil && u.Website == nil &&
		u.Industry == nil && u.Size == nil && u.Description == nil &&
		u.Location == nil && u.LinkedIn == nil && u.EmployeeCount == nil &&
		u.Revenue == nil && u.FoundedYear == nil && u.Phone == nil &&
		u.Email == nil
}

// DedupKey returns the identity key used by the duplicate check:
// the trimmed name. Comparison is case-sensitive.
func (c *Company) DedupKey() string {
	return strings.TrimSpace(c.Name)
}

// HasWebsite reports whether the record carries a non-empty website,
// the precondition for triggering enrichment.
func (c *Company) HasWebsite() bool {
	return c.Website != nil && strings.TrimSpace(*c.Website) != ""
}
