package dto

import (
	"time"

	"github.com/soportehq/helpdesk/internal/domain"
)

// CreateTicketRequest is the ticket creation payload. Field names match
// the wire format the web client already sends.
type CreateTicketRequest struct {
	Subject        string         `json:"subject"`
	Status         string         `json:"status"`
	Priority       string         `json:"priority"`
	Channel        string         `json:"channel"`
	CustomerName   string         `json:"customerName"`
	CustomerEmail  *string        `json:"customerEmail"`
	CustomerPhone  *string        `json:"customerPhone"`
	AssigneeID     *string        `json:"assigneeId"`
	Metadata       map[string]any `json:"metadata"`
	InitialMessage string         `json:"initialMessage"`
}

// UpdateStatusRequest mutates a ticket's status.
type UpdateStatusRequest struct {
	Status    string  `json:"status"`
	ActorName string  `json:"actorName"`
	ActorID   *string `json:"actorId"`
}

// UpdatePriorityRequest mutates a ticket's priority.
type UpdatePriorityRequest struct {
	Priority  string  `json:"priority"`
	ActorName string  `json:"actorName"`
	ActorID   *string `json:"actorId"`
}

// AttachmentPayload is a name+url pair on a message.
type AttachmentPayload struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CreateMessageRequest appends a message to a ticket's thread.
type CreateMessageRequest struct {
	Text        string              `json:"text"`
	AuthorType  string              `json:"authorType"`
	AuthorName  *string             `json:"authorName"`
	AuthorID    *string             `json:"authorId"`
	Attachments []AttachmentPayload `json:"attachments"`
}

// TicketResponse is the ticket wire representation.
type TicketResponse struct {
	ID            string         `json:"id"`
	TicketNumber  string         `json:"ticketNumber"`
	Subject       string         `json:"subject"`
	Status        string         `json:"status"`
	Priority      string         `json:"priority"`
	Channel       string         `json:"channel"`
	CustomerName  string         `json:"customerName"`
	CustomerEmail *string        `json:"customerEmail"`
	CustomerPhone *string        `json:"customerPhone"`
	AssigneeID    *string        `json:"assigneeId"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	ClosedAt      *time.Time     `json:"closedAt"`
	FirstReplyAt  *time.Time     `json:"firstReplyAt"`
	Metadata      map[string]any `json:"metadata"`
}

// MessageResponse is the message wire representation.
type MessageResponse struct {
	ID          string              `json:"id"`
	TicketID    string              `json:"ticketId"`
	Text        string              `json:"text"`
	AuthorType  string              `json:"authorType"`
	AuthorName  *string             `json:"authorName"`
	AuthorID    *string             `json:"authorId"`
	Attachments []AttachmentPayload `json:"attachments"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// TicketDetailResponse pairs a ticket with its thread, oldest first.
type TicketDetailResponse struct {
	Ticket   TicketResponse    `json:"ticket"`
	Messages []MessageResponse `json:"messages"`
}

// WebhookInboundRequest is the external channel payload.
type WebhookInboundRequest struct {
	Subject       string  `json:"subject"`
	CustomerName  string  `json:"customerName"`
	CustomerEmail *string `json:"customerEmail"`
	CustomerPhone *string `json:"customerPhone"`
	Message       string  `json:"message"`
	Priority      string  `json:"priority"`
	Channel       string  `json:"channel"`
}

// WebhookInboundResponse acknowledges a delivery.
type WebhookInboundResponse struct {
	Success      bool   `json:"success"`
	Duplicate    bool   `json:"duplicate,omitempty"`
	TicketID     string `json:"ticketId,omitempty"`
	TicketNumber string `json:"ticketNumber,omitempty"`
	Message      string `json:"message,omitempty"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:            t.ID,
		TicketNumber:  t.Number,
		Subject:       t.Subject,
		Status:        string(t.Status),
		Priority:      string(t.Priority),
		Channel:       t.Channel,
		CustomerName:  t.CustomerName,
		CustomerEmail: t.CustomerEmail,
		CustomerPhone: t.CustomerPhone,
		AssigneeID:    t.AssigneeID,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		ClosedAt:      t.ClosedAt,
		FirstReplyAt:  t.FirstReplyAt,
		Metadata:      t.Metadata,
	}
}

// NewMessageResponse maps a domain message.
func NewMessageResponse(m *domain.Message) MessageResponse {
	attachments := make([]AttachmentPayload, 0, len(m.Attachments))
	for _, att := range m.Attachments {
		attachments = append(attachments, AttachmentPayload{Name: att.Name, URL: att.URL})
	}
	return MessageResponse{
		ID:          m.ID,
		TicketID:    m.TicketID,
		Text:        m.Text,
		AuthorType:  string(m.AuthorType),
		AuthorName:  m.AuthorName,
		AuthorID:    m.AuthorID,
		Attachments: attachments,
		CreatedAt:   m.CreatedAt,
	}
}
