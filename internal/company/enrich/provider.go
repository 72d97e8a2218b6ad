// Package enrich runs automated company enrichment: a guarded state
// machine dispatching lookups to an external provider and merging the
// results back into the record with enrichment provenance.
package enrich

import (
	"context"

	"github.com/relaycrm/relay/internal/company/models"
)

// Provider is the external enrichment source, treated as a black box:
// given a company name and website it returns the partial fields it
// could determine, or an error.
type Provider interface {
	Lookup(ctx context.Context, name, website string) (*models.CompanyUpdate, error)
}
