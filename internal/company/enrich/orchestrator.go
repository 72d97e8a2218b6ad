package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	e "github.com/relaycrm/relay/internal/company/errors"
	"github.com/relaycrm/relay/internal/company/events"
	"github.com/relaycrm/relay/internal/company/merge"
	"github.com/relaycrm/relay/internal/company/models"
)

// Repository is the storage surface the orchestrator needs.
type Repository interface {
	GetCompany(ctx context.Context, ownerID, id uuid.UUID) (*models.Company, error)
	MarkEnriching(ctx context.Context, ownerID, id uuid.UUID) error
	SaveCompany(ctx context.Context, company *models.Company) error
	SetEnrichmentStatus(ctx context.Context, id uuid.UUID, status models.EnrichmentStatus, enrichedAt *time.Time) error
}

// EventProducer publishes company lifecycle events.
type EventProducer interface {
	Produce(eventType events.EventType, source models.SourceTag, company *models.Company)
}

const defaultTimeout = 60 * time.Second

// Orchestrator guards at-most-one in-flight enrichment job per record
// and runs the provider call as a detached unit of work.
type Orchestrator struct {
	repo     Repository
	provider Provider
	producer EventProducer
	logger   *zap.Logger
	timeout  time.Duration
	jobs     sync.WaitGroup
}

func NewOrchestrator(repo Repository, provider Provider, producer EventProducer, logger *zap.Logger, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Orchestrator{
		repo:     repo,
		provider: provider,
		producer: producer,
		logger:   logger.Named("enrichment"),
		timeout:  timeout,
	}
}

// Trigger admits an enrichment job for the company. Preconditions are
// checked synchronously: the record must exist under the owner, carry a
// website, and not already be enriching. Admission itself is a guarded
// status update, so two concurrent triggers cannot both pass. The
// provider call and merge run detached; the returned record reflects
// the freshly-set "enriching" state.
func (o *Orchestrator) Trigger(ctx context.Context, ownerID, id uuid.UUID) (*models.Company, error) {
	company, err := o.repo.GetCompany(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !company.HasWebsite() {
		return nil, fmt.Errorf("%w: company has no website to enrich from", e.ErrInvalidInput)
	}

	if err := o.repo.MarkEnriching(ctx, ownerID, id); err != nil {
		return nil, err
	}
	company.EnrichmentStatus = models.EnrichmentEnriching

	o.jobs.Add(1)
	go o.run(ownerID, id, company.Name, *company.Website)

	o.logger.Info("enrichment started",
		zap.String("company_id", id.String()),
		zap.String("company", company.Name),
	)
	return company, nil
}

// run executes the detached job. It deliberately does not inherit the
// trigger request's context: the caller has already been answered. The
// provider call is bounded by the configured timeout; expiry or any
// provider error moves the record to "failed" without touching fields.
func (o *Orchestrator) run(ownerID, id uuid.UUID, name, website string) {
	defer o.jobs.Done()

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	update, err := o.provider.Lookup(ctx, name, website)
	if err != nil {
		o.fail(id, name, err)
		return
	}

	company, err := o.repo.GetCompany(ctx, ownerID, id)
	if err != nil {
		o.fail(id, name, err)
		return
	}

	now := time.Now()
	merge.Apply(company, update, models.SourceEnrichment, now)
	company.EnrichmentStatus = models.EnrichmentEnriched
	company.EnrichedAt = &now

	if err := o.repo.SaveCompany(ctx, company); err != nil {
		o.fail(id, name, err)
		return
	}

	o.producer.Produce(events.CompanyEnriched, models.SourceEnrichment, company)
	o.logger.Info("enrichment complete",
		zap.String("company_id", id.String()),
		zap.String("company", name),
	)
}

func (o *Orchestrator) fail(id uuid.UUID, name string, cause error) {
	o.logger.Error("enrichment failed",
		zap.String("company_id", id.String()),
		zap.String("company", name),
		zap.Error(cause),
	)
	// Best effort with a fresh context; the job context may be the
	// reason we are here.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.repo.SetEnrichmentStatus(ctx, id, models.EnrichmentFailed, nil); err != nil {
		o.logger.Error("failed to record enrichment failure",
			zap.String("company_id", id.String()),
			zap.Error(err),
		)
	}
}

// Wait blocks until all in-flight jobs complete. Used on shutdown and
// in tests.
func (o *Orchestrator) Wait() {
	o.jobs.Wait()
}
