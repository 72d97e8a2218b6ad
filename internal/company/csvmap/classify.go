// Package csvmap infers a schema mapping from arbitrary CSV headers and
// extracts partial company records from data rows.
package csvmap

import (
	"regexp"
	"strings"

	"github.com/relaycrm/relay/internal/company/models"
)

// CustomPrefix marks a header that matched no classification rule. Such
// columns are carried through parsing but never persisted.
const CustomPrefix = "custom_"

// HeaderMapping maps each raw CSV header to a canonical field name or a
// custom_<header> bucket.
type HeaderMapping map[string]string

var normalizer = regexp.MustCompile(`[_\s-]`)

// classifierRules is the ordered dispatch table. Rules are evaluated in
// order and the first match wins, so more specific patterns must precede
// broader ones (a "companywebsite" header belongs to domain, while a
// bare "website" must not be captured by the domain rule). Order is
// significant and covered by tests; do not sort.
var classifierRules = []struct {
	pattern *regexp.Regexp
	field   models.Field
}{
	{regexp.MustCompile(`^(company.*name|name|business.*name)$`), models.FieldName},
	{regexp.MustCompile(`domain|companywebsite`), models.FieldDomain},
	{regexp.MustCompile(`^(website|url|site)$`), models.FieldWebsite},
	{regexp.MustCompile(`industry|sector|vertical`), models.FieldIndustry},
	{regexp.MustCompile(`location|city|address|headquarters|hq`), models.FieldLocation},
	{regexp.MustCompile(`size|companysize|employees`), models.FieldSize},
	{regexp.MustCompile(`description|about|overview`), models.FieldDescription},
	{regexp.MustCompile(`phone|telephone|tel`), models.FieldPhone},
	{regexp.MustCompile(`revenue|annualrevenue`), models.FieldRevenue},
	{regexp.MustCompile(`employeecount|headcount|numberofemployees`), models.FieldEmployeeCount},
}

// Classify normalizes a raw header (lower-case, trimmed, underscores,
// whitespace and dashes stripped) and returns the canonical field name
// it maps to, or a custom_<header> bucket when no rule matches.
func Classify(header string) string {
	normalized := normalizer.ReplaceAllString(strings.ToLower(strings.TrimSpace(header)), "")
	for _, r := range classifierRules {
		if r.pattern.MatchString(normalized) {
			return string(r.field)
		}
	}
	return CustomPrefix + header
}

// MapHeaders classifies every header of a CSV header row independently.
func MapHeaders(headers []string) HeaderMapping {
	mapping := make(HeaderMapping, len(headers))
	for _, h := range headers {
		mapping[h] = Classify(h)
	}
	return mapping
}
