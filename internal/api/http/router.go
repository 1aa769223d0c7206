package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/soportehq/helpdesk/internal/api/http/handlers"
	"github.com/soportehq/helpdesk/internal/auth"
	"github.com/soportehq/helpdesk/internal/domain"
	"github.com/soportehq/helpdesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	Activity       *handlers.ActivityHandler
	Webhooks       *handlers.WebhookHandler
	AuthMiddleware *auth.Middleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	// Ticket endpoints stay open: the customer-facing widget and the
	// agent console both talk to them without a session.
	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/priority", cfg.Tickets.UpdatePriority)

	api.Get("/activity", cfg.Activity.ListActivity)

	users := api.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/", auth.RequireRole(), cfg.Users.ListUsers)
	users.Post("/", auth.RequireRole(domain.RoleAdmin), cfg.Users.CreateUser)
	users.Patch("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Users.UpdateUser)

	webhook := app.Group("/webhook", cfg.Webhooks.VerifyKey)
	webhook.Post("/inbound", cfg.Webhooks.Inbound)
	webhook.Post("/test/inbound", cfg.Webhooks.TestInbound)
}
