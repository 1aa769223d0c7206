package repository

import (
	"context"

	"github.com/soportehq/helpdesk/internal/domain"
)

// MessageRepository manages ticket thread messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error)
}

type messageRepository struct {
	db DB
}

// NewMessageRepository builds a Postgres-backed repository.
func NewMessageRepository(db DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (ticket_id, text, author_type, author_name, author_id, attachments)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	var attachments any
	if len(msg.Attachments) > 0 {
		attachments = msg.Attachments
	}
	return r.db.QueryRow(ctx, query,
		msg.TicketID,
		msg.Text,
		msg.AuthorType,
		msg.AuthorName,
		msg.AuthorID,
		attachments,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error) {
	const query = `
        SELECT id, ticket_id, text, author_type, author_name, author_id, attachments, created_at
        FROM messages WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.Text,
			&msg.AuthorType,
			&msg.AuthorName,
			&msg.AuthorID,
			&msg.Attachments,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
