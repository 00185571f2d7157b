package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicdesk/helpdesk/internal/api/http/handlers"
	"github.com/clinicdesk/helpdesk/internal/auth"
	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	TechTickets    *handlers.TechTicketsHandler
	Admin          *handlers.AdminHandler
	Reports        *handlers.ReportsHandler
	Inventory      *handlers.InventoryHandler
	AuthMiddleware *auth.Middleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	app.Post("/auth/login", cfg.Auth.Login)

	authed := app.Group("", cfg.AuthMiddleware.Handle)

	tickets := authed.Group("/tickets", auth.RequireRole())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)
	tickets.Get("/:id/audit", cfg.Tickets.AuditTrail)

	authed.Get("/categories", cfg.Admin.ListCategories)

	tech := authed.Group("/tech", auth.RequireRole(domain.RoleTech, domain.RoleAdmin))
	tech.Get("/tickets", cfg.TechTickets.Queue)
	tech.Post("/tickets/:id/assign", cfg.TechTickets.Assign)
	tech.Patch("/tickets/:id", cfg.TechTickets.Update)

	coordinated := authed.Group("/reports",
		auth.RequireRole(domain.RoleCoordinator, domain.RoleTech, domain.RoleAdmin))
	coordinated.Get("/dashboard", cfg.Reports.Dashboard)
	coordinated.Get("/tickets.csv", cfg.Reports.ExportCSV)
	coordinated.Get("/tickets.xlsx", cfg.Reports.ExportXLSX)

	inventory := authed.Group("/inventory", auth.RequireRole(domain.RoleTech, domain.RoleAdmin))
	inventory.Post("/stock", cfg.Inventory.CreateStockItem)
	inventory.Get("/stock", cfg.Inventory.ListStock)
	inventory.Put("/stock/:id", cfg.Inventory.UpdateStockItem)
	inventory.Post("/stock/:id/adjust", cfg.Inventory.AdjustStock)
	inventory.Post("/hardware", cfg.Inventory.RegisterHardware)
	inventory.Get("/hardware", cfg.Inventory.ListHardware)
	inventory.Patch("/hardware/:id", cfg.Inventory.UpdateHardware)

	admin := authed.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Post("/users", cfg.Auth.Register)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Patch("/users/:id/active", cfg.Admin.SetUserActive)
	admin.Post("/clinic-units", cfg.Admin.CreateClinicUnit)
	admin.Get("/clinic-units", cfg.Admin.ListClinicUnits)
	admin.Patch("/clinic-units/:id", cfg.Admin.RenameClinicUnit)
	admin.Post("/categories", cfg.Admin.CreateCategory)
	admin.Patch("/categories/:id", cfg.Admin.UpdateCategory)
}
