package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/soportehq/helpdesk/internal/domain"
	"github.com/soportehq/helpdesk/internal/repository"
)

func TestNextNumberSequence(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	for _, want := range []string{"TK-001", "TK-002", "TK-003"} {
		got, err := store.Tickets().NextNumber(ctx)
		if err != nil {
			t.Fatalf("next number: %v", err)
		}
		if got != want {
			t.Fatalf("number = %q, want %q", got, want)
		}
	}
}

func TestTicketCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	ticket := &domain.Ticket{
		Number:       "TK-001",
		Subject:      "Prueba",
		Status:       domain.TicketStatusOpen,
		Priority:     domain.TicketPriorityMedium,
		Channel:      domain.ChannelWeb,
		CustomerName: "Ana",
	}
	if err := store.Tickets().Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.ID == "" || ticket.CreatedAt.IsZero() {
		t.Fatalf("identity not populated: %+v", ticket)
	}

	got, err := store.Tickets().GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Subject != "Prueba" {
		t.Fatalf("subject = %q", got.Subject)
	}

	got.Status = domain.TicketStatusClosed
	if err := store.Tickets().Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, err := store.Tickets().GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get updated: %v", err)
	}
	if updated.Status != domain.TicketStatusClosed {
		t.Fatalf("status = %q, want closed", updated.Status)
	}

	if _, err := store.Tickets().GetByID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("get missing: %v, want ErrNotFound", err)
	}
	if err := store.Tickets().Update(ctx, &domain.Ticket{ID: "missing"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("update missing: %v, want ErrNotFound", err)
	}
}

func TestTicketListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	for _, subject := range []string{"uno", "dos", "tres"} {
		if err := store.Tickets().Create(ctx, &domain.Ticket{
			Subject:  subject,
			Status:   domain.TicketStatusOpen,
			Priority: domain.TicketPriorityMedium,
			Channel:  domain.ChannelWeb,
		}); err != nil {
			t.Fatalf("create %s: %v", subject, err)
		}
	}

	tickets, err := store.Tickets().List(ctx, repository.TicketFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tickets) != 3 {
		t.Fatalf("tickets = %d, want 3", len(tickets))
	}
	if tickets[0].Subject != "tres" || tickets[2].Subject != "uno" {
		t.Fatalf("order = [%s %s %s], want newest first", tickets[0].Subject, tickets[1].Subject, tickets[2].Subject)
	}
}

func TestTicketDeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	ticket := &domain.Ticket{
		Subject:  "Con dependencias",
		Status:   domain.TicketStatusOpen,
		Priority: domain.TicketPriorityMedium,
		Channel:  domain.ChannelWeb,
	}
	if err := store.Tickets().Create(ctx, ticket); err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	if err := store.Messages().Create(ctx, &domain.Message{
		TicketID:   ticket.ID,
		Text:       "hola",
		AuthorType: domain.AuthorTypeCustomer,
	}); err != nil {
		t.Fatalf("create message: %v", err)
	}
	if err := store.Activity().Create(ctx, &domain.ActivityLogEntry{
		TicketID: &ticket.ID,
		Actor:    "Sistema",
		Action:   "creó el ticket",
		Entity:   "#TK-001",
	}); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	if err := store.Tickets().Delete(ctx, ticket.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	messages, err := store.Messages().ListByTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("messages survived cascade: %d", len(messages))
	}
	entries, err := store.Activity().List(ctx, repository.ActivityFilter{TicketID: &ticket.ID})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("activity survived cascade: %d", len(entries))
	}
}

func TestActivityListLimitAndFilter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	ticketID := "t-1"
	otherID := "t-2"
	for i := 0; i < 5; i++ {
		id := ticketID
		if i%2 == 1 {
			id = otherID
		}
		if err := store.Activity().Create(ctx, &domain.ActivityLogEntry{
			TicketID: &id,
			Actor:    "Sistema",
			Action:   "creó el ticket",
		}); err != nil {
			t.Fatalf("create entry %d: %v", i, err)
		}
	}

	entries, err := store.Activity().List(ctx, repository.ActivityFilter{TicketID: &ticketID})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("filtered entries = %d, want 3", len(entries))
	}

	limited, err := store.Activity().List(ctx, repository.ActivityFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited entries = %d, want 2", len(limited))
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	count, err := store.Users().Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}

	user := &domain.User{Email: "ana@example.com", Name: "Ana", Role: domain.RoleAgent}
	if err := store.Users().Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.ID == "" {
		t.Fatal("id not generated")
	}

	preset := &domain.User{ID: "fixed-id", Email: "luis@example.com", Name: "Luis", Role: domain.RoleAgent}
	if err := store.Users().Create(ctx, preset); err != nil {
		t.Fatalf("create preset: %v", err)
	}
	if preset.ID != "fixed-id" {
		t.Fatalf("id = %q, want fixed-id kept", preset.ID)
	}

	byEmail, err := store.Users().GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Fatalf("id = %q, want %q", byEmail.ID, user.ID)
	}

	if _, err := store.Users().GetByEmail(ctx, "nadie@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("get missing email: %v, want ErrNotFound", err)
	}

	users, err := store.Users().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
}
