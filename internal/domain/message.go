package domain

import "time"

// MessageAuthorType indicates who authored a message.
type MessageAuthorType string

const (
	AuthorTypeCustomer MessageAuthorType = "customer"
	AuthorTypeAgent    MessageAuthorType = "agent"
	AuthorTypeSystem   MessageAuthorType = "system"
)

// Attachment is a name+url pair stored inline with its message.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Message is one entry in a ticket's conversation thread. Immutable
// once created; cascade-deleted with its ticket.
type Message struct {
	ID          string
	TicketID    string
	Text        string
	AuthorType  MessageAuthorType
	AuthorName  *string
	AuthorID    *string
	Attachments []Attachment
	CreatedAt   time.Time
}

// ValidAuthorType reports whether t is a known author type.
func ValidAuthorType(t MessageAuthorType) bool {
	switch t {
	case AuthorTypeCustomer, AuthorTypeAgent, AuthorTypeSystem:
		return true
	}
	return false
}
