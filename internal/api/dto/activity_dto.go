package dto

import (
	"time"

	"github.com/soportehq/helpdesk/internal/domain"
)

// ActivityResponse is one audit trail entry.
type ActivityResponse struct {
	ID        string         `json:"id"`
	TicketID  *string        `json:"ticketId"`
	Actor     string         `json:"actor"`
	ActorID   *string        `json:"actorId"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"createdAt"`
}

// NewActivityResponse maps a journal entry.
func NewActivityResponse(e *domain.ActivityLogEntry) ActivityResponse {
	return ActivityResponse{
		ID:        e.ID,
		TicketID:  e.TicketID,
		Actor:     e.Actor,
		ActorID:   e.ActorID,
		Action:    e.Action,
		Entity:    e.Entity,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}
