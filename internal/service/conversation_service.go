package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soportehq/helpdesk/internal/domain"
	"github.com/soportehq/helpdesk/internal/events"
	"github.com/soportehq/helpdesk/internal/repository"
	apperrors "github.com/soportehq/helpdesk/pkg/util"
)

// ConversationService appends messages to a ticket's thread.
type ConversationService struct {
	store      repository.Store
	activity   *ActivityService
	dispatcher events.Dispatcher
}

// MessageInput describes a new conversation message.
type MessageInput struct {
	Text        string
	AuthorType  domain.MessageAuthorType
	AuthorName  *string
	AuthorID    *string
	Attachments []domain.Attachment
}

// NewConversationService constructs the service.
func NewConversationService(store repository.Store, activity *ActivityService, dispatcher events.Dispatcher) *ConversationService {
	return &ConversationService{store: store, activity: activity, dispatcher: dispatcher}
}

// AddMessage persists a message on the ticket. The first agent-authored
// message also stamps the ticket's firstReplyAt; that field is written
// nowhere else and at most once. A reply journal entry is always
// appended.
func (s *ConversationService) AddMessage(ctx context.Context, ticketID string, input MessageInput) (*domain.Message, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}

	msg := &domain.Message{
		TicketID:    ticket.ID,
		Text:        strings.TrimSpace(input.Text),
		AuthorType:  input.AuthorType,
		AuthorName:  input.AuthorName,
		AuthorID:    input.AuthorID,
		Attachments: input.Attachments,
	}

	err = s.store.WithinTx(ctx, func(st repository.Store) error {
		if err := st.Messages().Create(ctx, msg); err != nil {
			return err
		}

		if input.AuthorType == domain.AuthorTypeAgent && ticket.FirstReplyAt == nil {
			now := time.Now()
			ticket.FirstReplyAt = &now
			if err := st.Tickets().Update(ctx, ticket); err != nil {
				return err
			}
		}

		actor := ActorNameFallback
		if input.AuthorName != nil && strings.TrimSpace(*input.AuthorName) != "" {
			actor = *input.AuthorName
		}
		entry := &domain.ActivityLogEntry{
			TicketID: &ticket.ID,
			Actor:    actor,
			ActorID:  input.AuthorID,
			Action:   ActionTicketReplied,
			Entity:   "#" + ticket.Number,
			Metadata: map[string]any{"messageId": msg.ID},
		}
		return s.activity.Record(ctx, st.Activity(), entry, PolicyFatal)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, ticket, msg)
	return msg, nil
}

func (s *ConversationService) publishEvent(ctx context.Context, ticket *domain.Ticket, msg *domain.Message) {
	if s.dispatcher == nil {
		return
	}
	actorName := ActorNameFallback
	if msg.AuthorName != nil {
		actorName = *msg.AuthorName
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:           uuid.NewString(),
		Type:         events.EventTicketMessageAdded,
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		Actor:        events.Actor{Name: actorName, UserID: msg.AuthorID},
		Timestamp:    time.Now(),
		Payload: events.TicketMessageAddedPayload{
			MessageID:  msg.ID,
			AuthorType: msg.AuthorType,
			AuthorID:   msg.AuthorID,
		},
	})
}
