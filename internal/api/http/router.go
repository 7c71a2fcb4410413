package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"github.com/servicedesk/ticket-service/internal/api/http/handlers"
	"github.com/servicedesk/ticket-service/internal/auth"
	"github.com/servicedesk/ticket-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Evidence       *handlers.EvidenceHandler
	Users          *handlers.UsersHandler
	SLA            *handlers.SLAHandler
	Metrics        *observability.Metrics
	AuthMiddleware *auth.AuthMiddleware
	Enforcer       *auth.Enforcer
	Swagger        bool
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}
	if cfg.Swagger {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Optional)
	// static segments before /:id
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/deleted", cfg.Tickets.ListDeleted)
	tickets.Get("/export", cfg.Tickets.Export)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/evidence/:evidenceId/download", cfg.Evidence.Download)
	tickets.Delete("/evidence/:evidenceId", cfg.Evidence.Delete)

	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Patch("/:id", cfg.Tickets.PatchTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/events", cfg.Tickets.ListEvents)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)
	tickets.Post("/:id/reopen", cfg.Tickets.ReopenTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/evidence", cfg.Evidence.List)
	tickets.Post("/:id/evidence", cfg.Evidence.Upload)
	tickets.Post("/:id/evidence/:evidenceId/delete", cfg.Evidence.DeleteTraceable)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, cfg.Enforcer.RequirePermission())
	admin.Get("/ping", cfg.SLA.Ping)
	admin.Get("/sla", cfg.SLA.List)
	admin.Put("/sla/:priority", cfg.SLA.Upsert)
	admin.Get("/users", cfg.Users.List)
	admin.Post("/users", cfg.Users.Create)
	admin.Get("/users/:id", cfg.Users.Get)
	admin.Put("/users/:id", cfg.Users.Update)
	admin.Delete("/users/:id", cfg.Users.Delete)
}
