package csvmap

import (
	"strings"

	"github.com/relaycrm/relay/internal/company/models"
)

// detailSynonyms lists the explicit header names accepted by the
// single-company detail upload. Unlike the general classifier, matching
// here is exact (after lower-casing and trimming): this flow updates an
// already-known company, so only well-known column names are honored.
var detailSynonyms = []struct {
	field models.Field
	names []string
}{
	{models.FieldWebsite, []string{"website"}},
	{models.FieldIndustry, []string{"industry"}},
	{models.FieldSize, []string{"size", "companysize"}},
	{models.FieldLocation, []string{"location", "headquarters"}},
	{models.FieldDescription, []string{"description"}},
	{models.FieldLinkedIn, []string{"linkedin"}},
	{models.FieldDomain, []string{"domain"}},
	{models.FieldEmployeeCount, []string{"employeecount", "employee count", "employees"}},
	{models.FieldRevenue, []string{"revenue"}},
	{models.FieldFoundedYear, []string{"foundedyear", "founded year", "founded"}},
	{models.FieldPhone, []string{"phone"}},
}

// ExtractDetailRow builds a partial update from a single detail-upload
// row using the synonym table. Headers matching no synonym are ignored.
func ExtractDetailRow(row map[string]string) (*models.CompanyUpdate, error) {
	lowered := make(map[string]string, len(row))
	for header, value := range row {
		lowered[strings.ToLower(strings.TrimSpace(header))] = strings.TrimSpace(value)
	}

	update := &models.CompanyUpdate{}
	for _, syn := range detailSynonyms {
		for _, name := range syn.names {
			value := lowered[name]
			if value == "" {
				continue
			}
			if err := setField(update, syn.field, value); err != nil {
				return nil, err
			}
			break
		}
	}
	return update, nil
}
