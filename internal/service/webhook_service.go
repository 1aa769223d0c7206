package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soportehq/helpdesk/internal/domain"
)

const claimPlaceholder = "pending"

// ReplayGuard holds idempotency claims for inbound webhook deliveries.
// Claim registers a key; a second claim on the same key reports the
// value stored by the first delivery.
type ReplayGuard interface {
	Claim(ctx context.Context, key, placeholder string, ttl time.Duration) (claimed bool, existing string, err error)
	Store(ctx context.Context, key, value string, ttl time.Duration) error
}

// WebhookService maps inbound channel payloads onto ticket creation.
type WebhookService struct {
	tickets *TicketService
	guard   ReplayGuard
	ttl     time.Duration
	logger  *zap.Logger
}

// InboundTicket is the external payload of a channel webhook.
type InboundTicket struct {
	Subject       string
	CustomerName  string
	CustomerEmail *string
	CustomerPhone *string
	Message       string
	Priority      domain.TicketPriority
	Channel       string
}

// IntakeResult reports what the delivery produced.
type IntakeResult struct {
	Ticket       *domain.Ticket
	Duplicate    bool
	TicketNumber string
}

// NewWebhookService constructs the service. A nil guard disables
// duplicate suppression.
func NewWebhookService(tickets *TicketService, guard ReplayGuard, ttl time.Duration, logger *zap.Logger) *WebhookService {
	return &WebhookService{tickets: tickets, guard: guard, ttl: ttl, logger: logger}
}

// Intake creates a ticket from an inbound delivery. Redelivered
// payloads (same idempotency key, or same content when the sender
// provides no key) are answered with the first delivery's ticket number
// instead of creating a duplicate.
func (s *WebhookService) Intake(ctx context.Context, in InboundTicket, idempotencyKey string) (*IntakeResult, error) {
	key := strings.TrimSpace(idempotencyKey)
	if key == "" {
		key = contentKey(in)
	}
	key = "webhook:inbound:" + key

	if s.guard != nil {
		claimed, existing, err := s.guard.Claim(ctx, key, claimPlaceholder, s.ttl)
		if err != nil {
			// the guard being down must not stop ticket intake
			s.logger.Warn("webhook replay guard unavailable", zap.Error(err))
		} else if !claimed {
			number := existing
			if number == claimPlaceholder {
				number = ""
			}
			return &IntakeResult{Duplicate: true, TicketNumber: number}, nil
		}
	}

	channel := strings.TrimSpace(in.Channel)
	if channel == "" {
		channel = domain.ChannelWhatsApp
	}

	ticket, err := s.tickets.CreateTicket(ctx, TicketCreateInput{
		Subject:       in.Subject,
		Priority:      in.Priority,
		Channel:       channel,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
	}, in.Message)
	if err != nil {
		return nil, err
	}

	if s.guard != nil {
		if err := s.guard.Store(ctx, key, ticket.Number, s.ttl); err != nil {
			s.logger.Warn("webhook replay guard store failed",
				zap.String("ticket_number", ticket.Number),
				zap.Error(err))
		}
	}
	return &IntakeResult{Ticket: ticket, TicketNumber: ticket.Number}, nil
}

func contentKey(in InboundTicket) string {
	var b strings.Builder
	b.WriteString(in.Subject)
	b.WriteByte('|')
	b.WriteString(in.CustomerName)
	b.WriteByte('|')
	if in.CustomerEmail != nil {
		b.WriteString(*in.CustomerEmail)
	}
	b.WriteByte('|')
	if in.CustomerPhone != nil {
		b.WriteString(*in.CustomerPhone)
	}
	b.WriteByte('|')
	b.WriteString(in.Message)
	b.WriteByte('|')
	b.WriteString(in.Channel)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
