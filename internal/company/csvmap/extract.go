package csvmap

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/relaycrm/relay/internal/company/models"
)

// ExtractRecord applies a header mapping to one CSV data row, producing
// a partial company update. Empty cells and custom buckets are skipped.
// If the row yields a website but no domain, the domain is derived from
// the website URL; derivation failures are swallowed.
func ExtractRecord(row map[string]string, mapping HeaderMapping) (*models.CompanyUpdate, error) {
	update := &models.CompanyUpdate{}

	for header, target := range mapping {
		value := strings.TrimSpace(row[header])
		if value == "" {
			continue
		}
		if strings.HasPrefix(target, CustomPrefix) {
			// Recognized but intentionally not persisted.
			continue
		}
		if err := setField(update, models.Field(target), value); err != nil {
			return nil, err
		}
	}

	if update.Website != nil && update.Domain == nil {
		if domain, ok := DeriveDomain(*update.Website); ok {
			update.Domain = &domain
		}
	}

	return update, nil
}

// DeriveDomain parses a website value as a URL, prefixing https:// when
// no scheme is present, and returns its hostname.
func DeriveDomain(website string) (string, bool) {
	raw := website
	if !strings.HasPrefix(raw, "http") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	return u.Hostname(), true
}

// setField assigns a trimmed cell value to the canonical field on the
// update. Numeric fields fail the row when the value does not parse.
func setField(update *models.CompanyUpdate, field models.Field, value string) error {
	switch field {
	case models.FieldName:
		update.Name = &value
	case models.FieldDomain:
		update.Domain = &value
	case models.FieldWebsite:
		update.Website = &value
	case models.FieldIndustry:
		update.Industry = &value
	case models.FieldSize:
		update.Size = &value
	case models.FieldDescription:
		update.Description = &value
	case models.FieldLocation:
		update.Location = &value
	case models.FieldLinkedIn:
		update.LinkedIn = &value
	case models.FieldPhone:
		update.Phone = &value
	case models.FieldRevenue:
		update.Revenue = &value
	case models.FieldEmployeeCount:
		n, err := parseCount(value)
		if err != nil {
			return fmt.Errorf("invalid employee count %q", value)
		}
		update.EmployeeCount = &n
	case models.FieldFoundedYear:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid founded year %q", value)
		}
		update.FoundedYear = &n
	case models.FieldEmail:
		update.Email = &value
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// parseCount parses an integer that may carry thousands separators.
func parseCount(value string) (int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	return strconv.Atoi(cleaned)
}
