package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/soportehq/helpdesk/internal/domain"
	"github.com/soportehq/helpdesk/internal/observability"
	"github.com/soportehq/helpdesk/internal/repository"
)

// AppendPolicy decides what an activity log append failure does to the
// operation that triggered it.
type AppendPolicy int

const (
	// PolicyFatal propagates the append error to the caller.
	PolicyFatal AppendPolicy = iota
	// PolicyBestEffort logs the failure and swallows it; a missing
	// audit entry does not block the triggering change.
	PolicyBestEffort
)

// Journal actor names and action descriptions. These are data the
// clients display and filter on, kept byte-for-byte stable.
const (
	ActorSystem       = "Sistema"
	ActorNameFallback = "Usuario"

	ActionTicketCreated     = "creó el ticket"
	ActionTicketReplied     = "respondió al ticket"
	ActionStatusChanged     = "cambió el estado del ticket"
	ActionPriorityChanged   = "cambió la prioridad del ticket"
	ActionAdminBootstrapped = "inicializó la cuenta de administrador"
)

// ActivityService is the append/read component behind the other
// managers' audit trail.
type ActivityService struct {
	store   repository.Store
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewActivityService constructs the journal.
func NewActivityService(store repository.Store, logger *zap.Logger, metrics *observability.Metrics) *ActivityService {
	return &ActivityService{store: store, logger: logger, metrics: metrics}
}

// Record appends entry through logs, which may be a transaction-scoped
// repository. Under PolicyBestEffort a failure is logged, counted and
// swallowed.
func (s *ActivityService) Record(ctx context.Context, logs repository.ActivityLogRepository, entry *domain.ActivityLogEntry, policy AppendPolicy) error {
	err := logs.Create(ctx, entry)
	if err == nil {
		return nil
	}
	if policy == PolicyBestEffort {
		s.logger.Error("activity log append dropped",
			zap.String("action", entry.Action),
			zap.String("entity", entry.Entity),
			zap.Error(err))
		s.metrics.RecordJournalDrop()
		return nil
	}
	return err
}

// Query returns journal entries newest-first. Limit truncates the
// result set; there is no pagination cursor.
func (s *ActivityService) Query(ctx context.Context, filter repository.ActivityFilter) ([]domain.ActivityLogEntry, error) {
	return s.store.Activity().List(ctx, filter)
}
