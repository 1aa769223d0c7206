package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soportehq/helpdesk/internal/api/dto"
	"github.com/soportehq/helpdesk/internal/domain"
	"github.com/soportehq/helpdesk/internal/repository"
	"github.com/soportehq/helpdesk/internal/service"
	apperrors "github.com/soportehq/helpdesk/pkg/util"
)

// TicketsHandler serves the ticket endpoints.
type TicketsHandler struct {
	tickets      *service.TicketService
	conversation *service.ConversationService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, conversation *service.ConversationService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, conversation: conversation}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := repository.TicketFilter{}
	if v := c.Query("status"); v != "" {
		status := domain.TicketStatus(v)
		filter.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := domain.TicketPriority(v)
		filter.Priority = &priority
	}
	if v := c.Query("assigneeId"); v != "" {
		assigneeID := v
		filter.AssigneeID = &assigneeID
	}
	if v := c.Query("channel"); v != "" {
		channel := v
		filter.Channel = &channel
	}

	tickets, err := h.tickets.GetTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(items)
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, messages, err := h.tickets.GetTicketByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	msgs := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		msgs = append(msgs, dto.NewMessageResponse(&messages[i]))
	}
	return c.JSON(dto.TicketDetailResponse{
		Ticket:   dto.NewTicketResponse(ticket),
		Messages: msgs,
	})
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.CustomerName) == "" {
		return apperrors.NewValidationError("subject and customerName required", nil)
	}
	if req.Status != "" && !domain.ValidStatus(domain.TicketStatus(req.Status)) {
		return apperrors.NewValidationError("invalid status", map[string]any{"status": req.Status})
	}
	if req.Priority != "" && !domain.ValidPriority(domain.TicketPriority(req.Priority)) {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": req.Priority})
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), service.TicketCreateInput{
		Subject:       req.Subject,
		Status:        domain.TicketStatus(req.Status),
		Priority:      domain.TicketPriority(req.Priority),
		Channel:       req.Channel,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		AssigneeID:    req.AssigneeID,
		Metadata:      req.Metadata,
	}, req.InitialMessage)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTicketResponse(ticket))
}

// AddMessage POST /api/tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Text) == "" {
		return apperrors.NewValidationError("text required", nil)
	}
	authorType := domain.MessageAuthorType(req.AuthorType)
	if !domain.ValidAuthorType(authorType) {
		return apperrors.NewValidationError("invalid authorType", map[string]any{"authorType": req.AuthorType})
	}

	attachments := make([]domain.Attachment, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, domain.Attachment{Name: att.Name, URL: att.URL})
	}

	msg, err := h.conversation.AddMessage(c.UserContext(), c.Params("id"), service.MessageInput{
		Text:        req.Text,
		AuthorType:  authorType,
		AuthorName:  req.AuthorName,
		AuthorID:    req.AuthorID,
		Attachments: attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewMessageResponse(msg))
}

// UpdateStatus PATCH /api/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" || strings.TrimSpace(req.ActorName) == "" {
		return apperrors.NewValidationError("status and actorName are required", nil)
	}
	status := domain.TicketStatus(req.Status)
	if !domain.ValidStatus(status) {
		return apperrors.NewValidationError("invalid status", map[string]any{"status": req.Status})
	}

	ticket, err := h.tickets.UpdateStatus(c.UserContext(), c.Params("id"), status, req.ActorName, req.ActorID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// UpdatePriority PATCH /api/tickets/:id/priority.
func (h *TicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Priority == "" || strings.TrimSpace(req.ActorName) == "" {
		return apperrors.NewValidationError("priority and actorName are required", nil)
	}
	priority := domain.TicketPriority(req.Priority)
	if !domain.ValidPriority(priority) {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": req.Priority})
	}

	ticket, err := h.tickets.UpdatePriority(c.UserContext(), c.Params("id"), priority, req.ActorName, req.ActorID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}
