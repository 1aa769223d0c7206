package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soportehq/helpdesk/internal/domain"
	"github.com/soportehq/helpdesk/internal/events"
	"github.com/soportehq/helpdesk/internal/observability"
	"github.com/soportehq/helpdesk/internal/repository"
	apperrors "github.com/soportehq/helpdesk/pkg/util"
)

// TicketService coordinates the ticket lifecycle.
type TicketService struct {
	store      repository.Store
	activity   *ActivityService
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Activity   *ActivityService
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject       string
	Status        domain.TicketStatus
	Priority      domain.TicketPriority
	Channel       string
	CustomerName  string
	CustomerEmail *string
	CustomerPhone *string
	AssigneeID    *string
	Metadata      map[string]any
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		activity:   deps.Activity,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
	}
}

// CreateTicket allocates the next ticket number, persists the ticket,
// the optional customer-authored initial message and the creation
// journal entry. On a transactional store all writes commit together.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput, initialMessage string) (*domain.Ticket, error) {
	status := input.Status
	if status == "" {
		status = domain.TicketStatusOpen
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	channel := strings.TrimSpace(input.Channel)
	if channel == "" {
		channel = domain.ChannelWeb
	}

	var created *domain.Ticket
	err := s.store.WithinTx(ctx, func(st repository.Store) error {
		number, err := st.Tickets().NextNumber(ctx)
		if err != nil {
			return err
		}

		ticket := &domain.Ticket{
			Number:        number,
			Subject:       strings.TrimSpace(input.Subject),
			Status:        status,
			Priority:      priority,
			Channel:       channel,
			CustomerName:  strings.TrimSpace(input.CustomerName),
			CustomerEmail: input.CustomerEmail,
			CustomerPhone: input.CustomerPhone,
			AssigneeID:    input.AssigneeID,
			Metadata:      input.Metadata,
		}
		if err := st.Tickets().Create(ctx, ticket); err != nil {
			return err
		}

		if strings.TrimSpace(initialMessage) != "" {
			authorName := ticket.CustomerName
			msg := &domain.Message{
				TicketID:   ticket.ID,
				Text:       initialMessage,
				AuthorType: domain.AuthorTypeCustomer,
				AuthorName: &authorName,
			}
			if err := st.Messages().Create(ctx, msg); err != nil {
				return err
			}
		}

		entry := &domain.ActivityLogEntry{
			TicketID: &ticket.ID,
			Actor:    ActorSystem,
			Action:   ActionTicketCreated,
			Entity:   "#" + ticket.Number,
			Metadata: map[string]any{"channel": ticket.Channel},
		}
		if err := s.activity.Record(ctx, st.Activity(), entry, PolicyFatal); err != nil {
			return err
		}

		created = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTicketCreated(created.Channel)
	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketCreated,
		TicketID:     created.ID,
		TicketNumber: created.Number,
		Actor:        events.Actor{Name: ActorSystem},
		Payload: events.TicketCreatedPayload{
			Channel:      created.Channel,
			Priority:     created.Priority,
			Subject:      created.Subject,
			CustomerName: created.CustomerName,
		},
	})
	return created, nil
}

// GetTickets lists tickets newest-created first. All present filters
// are exact-match and AND-combined.
func (s *TicketService) GetTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.store.Tickets().List(ctx, filter)
}

// GetTicketByID fetches a ticket with its conversation thread, messages
// oldest first.
func (s *TicketService) GetTicketByID(ctx context.Context, id string) (*domain.Ticket, []domain.Message, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, nil, err
	}
	messages, err := s.store.Messages().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, messages, nil
}

// UpdateStatus moves a ticket to newStatus. Every transition between
// known states is allowed; moving to closed stamps closedAt in the same
// update, and closedAt survives a later reopen. The journal entry is
// mandatory: its failure fails the call.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID string, newStatus domain.TicketStatus, actorName string, actorID *string) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if newStatus == domain.TicketStatusClosed {
		now := time.Now()
		ticket.ClosedAt = &now
	}

	err = s.store.WithinTx(ctx, func(st repository.Store) error {
		if err := st.Tickets().Update(ctx, ticket); err != nil {
			return err
		}
		entry := &domain.ActivityLogEntry{
			TicketID: &ticket.ID,
			Actor:    actorName,
			ActorID:  actorID,
			Action:   ActionStatusChanged,
			Entity:   "#" + ticket.Number,
			Metadata: map[string]any{"oldStatus": oldStatus, "newStatus": newStatus},
		}
		return s.activity.Record(ctx, st.Activity(), entry, PolicyFatal)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketStatusChanged,
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		Actor:        events.Actor{Name: actorName, UserID: actorID},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// UpdatePriority changes ticket priority. The journal entry is best
// effort: its failure is logged and swallowed, and the updated ticket
// is still returned.
func (s *TicketService) UpdatePriority(ctx context.Context, ticketID string, newPriority domain.TicketPriority, actorName string, actorID *string) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}

	oldPriority := ticket.Priority
	ticket.Priority = newPriority
	if err := s.store.Tickets().Update(ctx, ticket); err != nil {
		return nil, err
	}

	entry := &domain.ActivityLogEntry{
		TicketID: &ticket.ID,
		Actor:    actorName,
		ActorID:  actorID,
		Action:   ActionPriorityChanged,
		Entity:   "#" + ticket.Number,
		Metadata: map[string]any{"oldPriority": oldPriority, "newPriority": newPriority},
	}
	_ = s.activity.Record(ctx, s.store.Activity(), entry, PolicyBestEffort)

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketPriorityChanged,
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		Actor:        events.Actor{Name: actorName, UserID: actorID},
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
