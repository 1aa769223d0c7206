package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "open"
	TicketStatusPendingCustomer TicketStatus = "pending_customer"
	TicketStatusPendingAgent    TicketStatus = "pending_agent"
	TicketStatusClosed          TicketStatus = "closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// Conventional originating channels. The channel column is free-form;
// these are the values the clients actually send.
const (
	ChannelWeb      = "web"
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// Ticket is the aggregate for customer support requests.
type Ticket struct {
	ID            string
	Number        string
	Subject       string
	Status        TicketStatus
	Priority      TicketPriority
	Channel       string
	CustomerName  string
	CustomerEmail *string
	CustomerPhone *string
	AssigneeID    *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClosedAt      *time.Time
	FirstReplyAt  *time.Time
	Metadata      map[string]any
}

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusPendingCustomer, TicketStatusPendingAgent, TicketStatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}
