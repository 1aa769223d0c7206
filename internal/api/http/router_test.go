package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/soportehq/helpdesk/internal/api/http/handlers"
	"github.com/soportehq/helpdesk/internal/auth"
	"github.com/soportehq/helpdesk/internal/config"
	"github.com/soportehq/helpdesk/internal/observability"
	"github.com/soportehq/helpdesk/internal/persistence"
	"github.com/soportehq/helpdesk/internal/repository/memory"
	"github.com/soportehq/helpdesk/internal/service"
)

const testAPIKey = "dev_key_123"

func newTestApp(t *testing.T) (*fiber.App, *service.AuthService) {
	t.Helper()

	store := memory.NewStore()
	logger := zap.NewNop()
	metrics := observability.NewMetrics("test")

	activity := service.NewActivityService(store, logger, metrics)
	tickets := service.NewTicketService(service.TicketDependencies{
		Store:    store,
		Activity: activity,
		Metrics:  metrics,
	})
	conversation := service.NewConversationService(store, activity, nil)
	users := service.NewUserService(store, activity, logger)
	authCfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 30, BcryptCost: 4}
	tokens := auth.NewTokenManager(authCfg.JWTSecret, authCfg.AccessTokenTTLMinutes)
	authService := service.NewAuthService(users, tokens, authCfg)
	webhooks := service.NewWebhookService(tickets, nil, time.Hour, logger)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(&persistence.Postgres{}, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(tickets, conversation),
		Users:          handlers.NewUsersHandler(users, authCfg.BcryptCost),
		Activity:       handlers.NewActivityHandler(activity),
		Webhooks:       handlers.NewWebhookHandler(webhooks, testAPIKey),
		AuthMiddleware: auth.NewMiddleware(tokens, store.Users()),
		Metrics:        metrics,
	})
	return app, authService
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any, headers map[string]string) (*nethttp.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	resp, created := doJSON(t, app, nethttp.MethodPost, "/api/tickets", map[string]any{
		"subject":        "No puedo entrar",
		"customerName":   "Ana",
		"initialMessage": "Olvidé mi contraseña",
	}, nil)
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	if created["ticketNumber"] != "TK-001" {
		t.Fatalf("ticketNumber = %v, want TK-001", created["ticketNumber"])
	}
	ticketID, _ := created["id"].(string)
	if ticketID == "" {
		t.Fatalf("missing ticket id in %v", created)
	}

	resp, detail := doJSON(t, app, nethttp.MethodGet, "/api/tickets/"+ticketID, nil, nil)
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	messages, _ := detail["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("messages = %v, want the initial message", detail["messages"])
	}

	resp, updated := doJSON(t, app, nethttp.MethodPatch, "/api/tickets/"+ticketID+"/status", map[string]any{
		"status":    "closed",
		"actorName": "María García",
	}, nil)
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("close status = %d", resp.StatusCode)
	}
	if updated["closedAt"] == nil {
		t.Fatal("closedAt not set in response")
	}
}

func TestCreateTicketValidationOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, nethttp.MethodPost, "/api/tickets", map[string]any{
		"subject": "Sin cliente",
	}, nil)
	if resp.StatusCode != nethttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj == nil || errObj["code"] != "VALIDATION_FAILED" {
		t.Fatalf("error envelope = %v", body)
	}
}

func TestUnknownTicketOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, nethttp.MethodGet, "/api/tickets/desconocido", nil, nil)
	if resp.StatusCode != nethttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj == nil || errObj["code"] != "NOT_FOUND" {
		t.Fatalf("error envelope = %v", body)
	}
}

func TestUsersEndpointRequiresAdmin(t *testing.T) {
	app, authService := newTestApp(t)

	resp, _ := doJSON(t, app, nethttp.MethodPost, "/api/users", map[string]any{
		"email": "x@example.com",
		"name":  "X",
	}, nil)
	if resp.StatusCode != nethttp.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", resp.StatusCode)
	}

	// first registered account bootstraps as admin
	admin, err := authService.Register(context.Background(), "admin@example.com", "Admin", "secret")
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	agent, err := authService.Register(context.Background(), "agent@example.com", "Agent", "secret")
	if err != nil {
		t.Fatalf("register agent: %v", err)
	}

	resp, created := doJSON(t, app, nethttp.MethodPost, "/api/users", map[string]any{
		"email": "nuevo@example.com",
		"name":  "Nuevo",
	}, map[string]string{"Authorization": "Bearer " + admin.Token})
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("admin create status = %d, want 201", resp.StatusCode)
	}
	if created["role"] != "agent" {
		t.Fatalf("role = %v, want agent default", created["role"])
	}

	resp, _ = doJSON(t, app, nethttp.MethodPost, "/api/users", map[string]any{
		"email": "otro@example.com",
		"name":  "Otro",
	}, map[string]string{"Authorization": "Bearer " + agent.Token})
	if resp.StatusCode != nethttp.StatusForbidden {
		t.Fatalf("agent create status = %d, want 403", resp.StatusCode)
	}
}

func TestWebhookRequiresAPIKey(t *testing.T) {
	app, _ := newTestApp(t)

	payload := map[string]any{
		"subject":      "Desde WhatsApp",
		"customerName": "Rosa",
		"message":      "Hola",
	}

	resp, _ := doJSON(t, app, nethttp.MethodPost, "/webhook/inbound", payload, map[string]string{
		"X-API-Key": "wrong",
	})
	if resp.StatusCode != nethttp.StatusUnauthorized {
		t.Fatalf("wrong key status = %d, want 401", resp.StatusCode)
	}

	resp, body := doJSON(t, app, nethttp.MethodPost, "/webhook/inbound", payload, map[string]string{
		"X-API-Key": testAPIKey,
	})
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if body["success"] != true || body["ticketNumber"] != "TK-001" {
		t.Fatalf("body = %v", body)
	}
}

func TestWebhookTestEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, nethttp.MethodPost, "/webhook/test/inbound", nil, map[string]string{
		"X-API-Key": testAPIKey,
	})
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if body["ticketNumber"] != "TK-001" {
		t.Fatalf("ticketNumber = %v", body["ticketNumber"])
	}
}

func TestActivityFeedOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, app, nethttp.MethodPost, "/api/tickets", map[string]any{
			"subject":      fmt.Sprintf("Ticket %d", i),
			"customerName": "Ana",
		}, nil)
		if resp.StatusCode != nethttp.StatusCreated {
			t.Fatalf("create %d status = %d", i, resp.StatusCode)
		}
	}

	req := httptest.NewRequest(nethttp.MethodGet, "/api/activity", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var entries []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	// newest first
	if entries[0]["entity"] != "#TK-002" {
		t.Fatalf("first entity = %v, want #TK-002", entries[0]["entity"])
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app, _ := newTestApp(t)

	for _, target := range []string{"/health/live", "/health/ready", "/metrics"} {
		req := httptest.NewRequest(nethttp.MethodGet, target, nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("%s: %v", target, err)
		}
		if resp.StatusCode != nethttp.StatusOK {
			t.Fatalf("%s status = %d", target, resp.StatusCode)
		}
	}
}
