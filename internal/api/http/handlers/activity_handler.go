package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/soportehq/helpdesk/internal/api/dto"
	"github.com/soportehq/helpdesk/internal/repository"
	"github.com/soportehq/helpdesk/internal/service"
)

// ActivityHandler serves the audit journal.
type ActivityHandler struct {
	activity *service.ActivityService
}

// NewActivityHandler constructs handler.
func NewActivityHandler(activity *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// ListActivity GET /api/activity. Newest first, optionally narrowed to
// one ticket via ?ticketId.
func (h *ActivityHandler) ListActivity(c *fiber.Ctx) error {
	filter := repository.ActivityFilter{}
	if ticketID := c.Query("ticketId"); ticketID != "" {
		filter.TicketID = &ticketID
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	entries, err := h.activity.Query(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewActivityResponse(&entries[i]))
	}
	return c.JSON(items)
}
