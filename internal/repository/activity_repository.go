package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/soportehq/helpdesk/internal/domain"
)

// DefaultActivityLimit caps journal queries when no limit is supplied.
const DefaultActivityLimit = 50

// ActivityFilter narrows journal queries.
type ActivityFilter struct {
	TicketID *string
	Limit    int
}

// ActivityLogRepository stores the append-only audit trail.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLogEntry) error
	List(ctx context.Context, filter ActivityFilter) ([]domain.ActivityLogEntry, error)
}

type activityLogRepository struct {
	db DB
}

// NewActivityLogRepository builds a Postgres-backed repository.
func NewActivityLogRepository(db DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *domain.ActivityLogEntry) error {
	const query = `
        INSERT INTO activity_logs (ticket_id, actor, actor_id, action, entity, metadata)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.TicketID,
		entry.Actor,
		entry.ActorID,
		entry.Action,
		entry.Entity,
		entry.Metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityFilter) ([]domain.ActivityLogEntry, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.TicketID != nil {
		args = append(args, *filter.TicketID)
		clauses = append(clauses, fmt.Sprintf("ticket_id=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	query := fmt.Sprintf(`
        SELECT id, ticket_id, actor, actor_id, action, entity, metadata, created_at
        FROM activity_logs WHERE %s ORDER BY created_at DESC LIMIT %d`,
		strings.Join(clauses, " AND "), limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActivityLogEntry
	for rows.Next() {
		var entry domain.ActivityLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Actor,
			&entry.ActorID,
			&entry.Action,
			&entry.Entity,
			&entry.Metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
