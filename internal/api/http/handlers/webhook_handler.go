package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soportehq/helpdesk/internal/api/dto"
	"github.com/soportehq/helpdesk/internal/domain"
	"github.com/soportehq/helpdesk/internal/service"
	apperrors "github.com/soportehq/helpdesk/pkg/util"
)

// WebhookHandler receives ticket intake deliveries from external
// channels (WhatsApp bridge, mail gateway).
type WebhookHandler struct {
	webhooks *service.WebhookService
	apiKey   string
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(webhooks *service.WebhookService, apiKey string) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks, apiKey: apiKey}
}

// VerifyKey gates webhook routes on the shared X-API-Key secret.
func (h *WebhookHandler) VerifyKey(c *fiber.Ctx) error {
	key := c.Get("X-API-Key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.apiKey)) != 1 {
		return apperrors.NewUnauthorized("invalid API key")
	}
	return c.Next()
}

// Inbound POST /webhook/inbound.
func (h *WebhookHandler) Inbound(c *fiber.Ctx) error {
	var req dto.WebhookInboundRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.CustomerName) == "" {
		return apperrors.NewValidationError("subject and customerName required", nil)
	}
	if req.Priority != "" && !domain.ValidPriority(domain.TicketPriority(req.Priority)) {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": req.Priority})
	}

	result, err := h.webhooks.Intake(c.UserContext(), service.InboundTicket{
		Subject:       req.Subject,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Message:       req.Message,
		Priority:      domain.TicketPriority(req.Priority),
		Channel:       req.Channel,
	}, c.Get("X-Idempotency-Key"))
	if err != nil {
		return err
	}

	if result.Duplicate {
		return c.JSON(dto.WebhookInboundResponse{
			Success:      true,
			Duplicate:    true,
			TicketNumber: result.TicketNumber,
			Message:      "delivery already processed",
		})
	}
	return c.Status(http.StatusCreated).JSON(dto.WebhookInboundResponse{
		Success:      true,
		TicketID:     result.Ticket.ID,
		TicketNumber: result.TicketNumber,
	})
}

// TestInbound POST /webhook/test/inbound. Creates a ticket from a fixed
// sample payload so channel integrations can be verified end to end.
func (h *WebhookHandler) TestInbound(c *fiber.Ctx) error {
	email := "prueba@ejemplo.com"
	phone := "+34 600 000 000"
	result, err := h.webhooks.Intake(c.UserContext(), service.InboundTicket{
		Subject:       "Prueba desde webhook",
		CustomerName:  "Cliente de Prueba",
		CustomerEmail: &email,
		CustomerPhone: &phone,
		Message:       "Este es un mensaje de prueba del webhook",
		Channel:       domain.ChannelWhatsApp,
	}, "")
	if err != nil {
		return err
	}
	if result.Duplicate {
		return c.JSON(dto.WebhookInboundResponse{
			Success:      true,
			Duplicate:    true,
			TicketNumber: result.TicketNumber,
			Message:      "delivery already processed",
		})
	}
	return c.Status(http.StatusCreated).JSON(dto.WebhookInboundResponse{
		Success:      true,
		TicketID:     result.Ticket.ID,
		TicketNumber: result.TicketNumber,
	})
}
