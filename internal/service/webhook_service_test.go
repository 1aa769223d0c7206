package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/soportehq/helpdesk/internal/domain"
	"github.com/soportehq/helpdesk/internal/repository"
	"github.com/soportehq/helpdesk/internal/repository/memory"
)

// mapGuard is an in-process ReplayGuard for tests.
type mapGuard struct {
	claims map[string]string
	err    error
}

func newMapGuard() *mapGuard {
	return &mapGuard{claims: map[string]string{}}
}

func (g *mapGuard) Claim(_ context.Context, key, placeholder string, _ time.Duration) (bool, string, error) {
	if g.err != nil {
		return false, "", g.err
	}
	if existing, ok := g.claims[key]; ok {
		return false, existing, nil
	}
	g.claims[key] = placeholder
	return true, "", nil
}

func (g *mapGuard) Store(_ context.Context, key, value string, _ time.Duration) error {
	if g.err != nil {
		return g.err
	}
	g.claims[key] = value
	return nil
}

func newWebhookFixture(guard ReplayGuard) (*WebhookService, *memory.Store) {
	store := memory.NewStore()
	tickets := newTicketFixture(store)
	return NewWebhookService(tickets, guard, time.Hour, zap.NewNop()), store
}

func TestIntakeCreatesTicket(t *testing.T) {
	ctx := context.Background()
	svc, store := newWebhookFixture(newMapGuard())

	result, err := svc.Intake(ctx, InboundTicket{
		Subject:      "Pedido no entregado",
		CustomerName: "Rosa",
		Message:      "Mi pedido no llegó",
	}, "delivery-1")
	if err != nil {
		t.Fatalf("intake: %v", err)
	}
	if result.Duplicate {
		t.Fatal("first delivery marked duplicate")
	}
	if result.Ticket == nil || result.TicketNumber != result.Ticket.Number {
		t.Fatalf("result = %+v, want created ticket with its number", result)
	}
	if result.Ticket.Channel != domain.ChannelWhatsApp {
		t.Fatalf("channel = %q, want default %q", result.Ticket.Channel, domain.ChannelWhatsApp)
	}

	messages, err := store.Messages().ListByTicket(ctx, result.Ticket.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 1 || messages[0].Text != "Mi pedido no llegó" {
		t.Fatalf("messages = %+v, want the inbound message", messages)
	}
}

func TestIntakeDeduplicatesByKey(t *testing.T) {
	ctx := context.Background()
	svc, store := newWebhookFixture(newMapGuard())

	in := InboundTicket{
		Subject:      "Factura duplicada",
		CustomerName: "Óscar",
		Message:      "Me han cobrado dos veces",
	}
	first, err := svc.Intake(ctx, in, "delivery-7")
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	second, err := svc.Intake(ctx, in, "delivery-7")
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("redelivery not marked duplicate")
	}
	if second.TicketNumber != first.TicketNumber {
		t.Fatalf("duplicate number = %q, want %q", second.TicketNumber, first.TicketNumber)
	}

	tickets, err := store.Tickets().List(ctx, repository.TicketFilter{})
	if err != nil {
		t.Fatalf("list tickets: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("tickets = %d, want 1 after redelivery", len(tickets))
	}
}

func TestIntakeDeduplicatesByContent(t *testing.T) {
	ctx := context.Background()
	svc, store := newWebhookFixture(newMapGuard())

	in := InboundTicket{
		Subject:      "Sin cobertura",
		CustomerName: "Teresa",
		Message:      "No tengo señal",
	}
	if _, err := svc.Intake(ctx, in, ""); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	second, err := svc.Intake(ctx, in, "")
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("identical keyless payload not deduplicated")
	}

	tickets, err := store.Tickets().List(ctx, repository.TicketFilter{})
	if err != nil {
		t.Fatalf("list tickets: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("tickets = %d, want 1", len(tickets))
	}
}

func TestIntakeProceedsWhenGuardDown(t *testing.T) {
	ctx := context.Background()
	guard := newMapGuard()
	guard.err = errors.New("redis unreachable")
	svc, _ := newWebhookFixture(guard)

	result, err := svc.Intake(ctx, InboundTicket{
		Subject:      "Alta urgente",
		CustomerName: "Víctor",
	}, "delivery-9")
	if err != nil {
		t.Fatalf("intake with guard down: %v", err)
	}
	if result.Duplicate || result.Ticket == nil {
		t.Fatalf("result = %+v, want fresh ticket despite guard failure", result)
	}
}

func TestIntakeWithoutGuard(t *testing.T) {
	ctx := context.Background()
	svc, _ := newWebhookFixture(nil)

	result, err := svc.Intake(ctx, InboundTicket{
		Subject:      "Sin guardia",
		CustomerName: "Mario",
		Channel:      domain.ChannelEmail,
	}, "")
	if err != nil {
		t.Fatalf("intake: %v", err)
	}
	if result.Ticket.Channel != domain.ChannelEmail {
		t.Fatalf("channel = %q, want %q", result.Ticket.Channel, domain.ChannelEmail)
	}
}
