// Package memory provides an in-memory repository.Store with the same
// semantics as the Postgres adapters, for tests and DSN-less demo runs.
// It is not durable and WithinTx provides no atomicity.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soportehq/helpdesk/internal/domain"
	"github.com/soportehq/helpdesk/internal/repository"
)

// Store keeps all records in process memory behind one mutex.
type Store struct {
	mu           sync.RWMutex
	tickets      []domain.Ticket
	messages     []domain.Message
	activity     []domain.ActivityLogEntry
	users        []domain.User
	ticketNumber int64
}

// NewStore builds an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) Tickets() repository.TicketRepository       { return (*ticketRepo)(s) }
func (s *Store) Messages() repository.MessageRepository     { return (*messageRepo)(s) }
func (s *Store) Activity() repository.ActivityLogRepository { return (*activityRepo)(s) }
func (s *Store) Users() repository.UserRepository           { return (*userRepo)(s) }

// WithinTx runs fn against the store itself. Writes are sequential and
// non-atomic; a failure mid-sequence leaves partial state, matching the
// documented behavior of the original in-memory storage.
func (s *Store) WithinTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

type ticketRepo Store

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets = append(r.tickets, cloneTicket(*ticket))
	return nil
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tickets {
		if r.tickets[i].ID == ticket.ID {
			ticket.CreatedAt = r.tickets[i].CreatedAt
			ticket.UpdatedAt = time.Now()
			r.tickets[i] = cloneTicket(*ticket)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.tickets {
		if r.tickets[i].ID == id {
			ticket := cloneTicket(r.tickets[i])
			return &ticket, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Ticket{}
	// stored oldest first; walk backwards for newest-created first
	for i := len(r.tickets) - 1; i >= 0; i-- {
		t := r.tickets[i]
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.Channel != nil && t.Channel != *filter.Channel {
			continue
		}
		result = append(result, cloneTicket(t))
	}
	return result, nil
}

func (r *ticketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tickets {
		if r.tickets[i].ID == id {
			r.tickets = append(r.tickets[:i], r.tickets[i+1:]...)
			r.cascadeDelete(id)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *ticketRepo) cascadeDelete(ticketID string) {
	messages := r.messages[:0]
	for _, m := range r.messages {
		if m.TicketID != ticketID {
			messages = append(messages, m)
		}
	}
	r.messages = messages

	activity := r.activity[:0]
	for _, e := range r.activity {
		if e.TicketID == nil || *e.TicketID != ticketID {
			activity = append(activity, e)
		}
	}
	r.activity = activity
}

func (r *ticketRepo) NextNumber(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticketNumber++
	return repository.FormatTicketNumber(r.ticketNumber), nil
}

type messageRepo Store

func (r *messageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, cloneMessage(*msg))
	return nil
}

func (r *messageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Message{}
	for _, m := range r.messages {
		if m.TicketID == ticketID {
			result = append(result, cloneMessage(m))
		}
	}
	return result, nil
}

type activityRepo Store

func (r *activityRepo) Create(_ context.Context, entry *domain.ActivityLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.activity = append(r.activity, cloneEntry(*entry))
	return nil
}

func (r *activityRepo) List(_ context.Context, filter repository.ActivityFilter) ([]domain.ActivityLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	limit := filter.Limit
	if limit <= 0 {
		limit = repository.DefaultActivityLimit
	}
	result := []domain.ActivityLogEntry{}
	for i := len(r.activity) - 1; i >= 0 && len(result) < limit; i-- {
		e := r.activity[i]
		if filter.TicketID != nil && (e.TicketID == nil || *e.TicketID != *filter.TicketID) {
			continue
		}
		result = append(result, cloneEntry(e))
	}
	return result, nil
}

type userRepo Store

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	r.users = append(r.users, *user)
	return nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == user.ID {
			user.CreatedAt = r.users[i].CreatedAt
			r.users[i] = *user
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.users {
		if r.users[i].ID == id {
			user := r.users[i]
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.users {
		if r.users[i].Email == email {
			user := r.users[i]
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.User, len(r.users))
	copy(result, r.users)
	return result, nil
}

func (r *userRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.Metadata = cloneMap(t.Metadata)
	return t
}

func cloneMessage(m domain.Message) domain.Message {
	if m.Attachments != nil {
		attachments := make([]domain.Attachment, len(m.Attachments))
		copy(attachments, m.Attachments)
		m.Attachments = attachments
	}
	return m
}

func cloneEntry(e domain.ActivityLogEntry) domain.ActivityLogEntry {
	e.Metadata = cloneMap(e.Metadata)
	return e
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
