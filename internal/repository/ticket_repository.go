package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/soportehq/helpdesk/internal/domain"
)

// TicketFilter captures listing parameters. All present filters are
// exact-match and AND-combined.
type TicketFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	AssigneeID *string
	Channel    *string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// Delete removes a ticket and, via cascade, its messages and log
	// entries. Present on the contract but unused by business logic.
	Delete(ctx context.Context, id string) error
	// NextNumber allocates the next human-readable ticket number from
	// an atomic store-level sequence.
	NextNumber(ctx context.Context) (string, error)
}

// FormatTicketNumber renders a sequence value as TK-NNN, zero padded to
// three digits and growing naturally past 999.
func FormatTicketNumber(n int64) string {
	return fmt.Sprintf("TK-%03d", n)
}

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates a Postgres-backed repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, ticket_number, subject, status, priority, channel,
               customer_name, customer_email, customer_phone, assignee_id,
               created_at, updated_at, closed_at, first_reply_at, metadata`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, subject, status, priority, channel, customer_name, customer_email, customer_phone, assignee_id, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.Number,
		ticket.Subject,
		ticket.Status,
		ticket.Priority,
		ticket.Channel,
		ticket.CustomerName,
		ticket.CustomerEmail,
		ticket.CustomerPhone,
		ticket.AssigneeID,
		ticket.Metadata,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET subject=$1, status=$2, priority=$3, channel=$4, customer_name=$5,
            customer_email=$6, customer_phone=$7, assignee_id=$8, closed_at=$9, first_reply_at=$10,
            metadata=$11, updated_at=NOW()
        WHERE id=$12
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Status,
		ticket.Priority,
		ticket.Channel,
		ticket.CustomerName,
		ticket.CustomerEmail,
		ticket.CustomerPhone,
		ticket.AssigneeID,
		ticket.ClosedAt,
		ticket.FirstReplyAt,
		ticket.Metadata,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.Subject,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Channel,
		&ticket.CustomerName,
		&ticket.CustomerEmail,
		&ticket.CustomerPhone,
		&ticket.AssigneeID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
		&ticket.FirstReplyAt,
		&ticket.Metadata,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if filter.Channel != nil {
		args = append(args, *filter.Channel)
		clauses = append(clauses, fmt.Sprintf("channel=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC`,
		ticketColumns, strings.Join(clauses, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) NextNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('ticket_number_seq')`).Scan(&n); err != nil {
		return "", err
	}
	return FormatTicketNumber(n), nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Number,
			&ticket.Subject,
			&ticket.Status,
			&ticket.Priority,
			&ticket.Channel,
			&ticket.CustomerName,
			&ticket.CustomerEmail,
			&ticket.CustomerPhone,
			&ticket.AssigneeID,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ClosedAt,
			&ticket.FirstReplyAt,
			&ticket.Metadata,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
