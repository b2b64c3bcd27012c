package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/stock-ledger/internal/api/http/handlers"
	"github.com/spec-kit/stock-ledger/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Catalog        *handlers.CatalogHandler
	Items          *handlers.ItemsHandler
	Reservations   *handlers.ReservationsHandler
	Transfer       *handlers.TransferHandler
	Metrics        fiber.Handler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	authenticated := cfg.AuthMiddleware.Handle

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/profile", authenticated, cfg.Auth.Profile)

	app.Get("/departments", cfg.Catalog.ListDepartments)
	app.Post("/departments", authenticated, auth.RequireAdmin(), cfg.Catalog.AddDepartment)
	app.Get("/roles", cfg.Catalog.ListRoles)
	app.Post("/roles", authenticated, auth.RequireAdmin(), cfg.Catalog.AddRole)

	app.Get("/staff", authenticated, auth.RequireAdmin(), cfg.Auth.ListStaff)

	items := app.Group("/items", authenticated)
	items.Get("/", cfg.Items.ListItems)
	items.Post("/", cfg.Items.CreateItem)
	items.Get("/depleted", auth.RequireAdmin(), cfg.Items.ListDepleted)
	items.Get("/export", auth.RequireAdmin(), cfg.Transfer.Export)
	items.Post("/import", auth.RequireAdmin(), cfg.Transfer.Import)
	items.Get("/:id", cfg.Items.GetItem)
	items.Put("/:id", auth.RequireStaff(), cfg.Items.UpdateItem)
	items.Delete("/:id", cfg.Items.DeleteItem)
	items.Post("/:id/use", auth.RequireStaff(), cfg.Items.UseItem)
	items.Post("/:id/refill", auth.RequireStaff(), cfg.Items.RefillItem)

	reservations := app.Group("/reservations", authenticated)
	reservations.Post("/", auth.RequireStaff(), cfg.Reservations.Reserve)
	reservations.Get("/requests", cfg.Reservations.ListRequests)
	reservations.Post("/requests", auth.RequireStaff(), cfg.Reservations.SubmitRequest)
	reservations.Get("/requests/:id", cfg.Reservations.GetRequest)
	reservations.Delete("/requests/:id", cfg.Reservations.CancelRequest)
	reservations.Post("/requests/:id/fulfill", auth.RequireStaff(), cfg.Reservations.FulfillRequest)
}
