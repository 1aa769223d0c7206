package domain

import "time"

// ActivityLogEntry is an append-only audit record of an action taken on
// a ticket or a user. Never updated or deleted.
type ActivityLogEntry struct {
	ID        string
	TicketID  *string
	Actor     string
	ActorID   *string
	Action    string
	Entity    string
	Metadata  map[string]any
	CreatedAt time.Time
}
