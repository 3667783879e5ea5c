package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/config"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RoleAdmin is required for every change to patient or account data.
const RoleAdmin = "ADMIN"

func Setup(
	app *fiber.App,
	cfg *config.Config,
	sessions *auth.SessionIssuer,
	m *metrics.Metrics,
	authHandler *handlers.AuthHandler,
	patientHandler *handlers.PatientHandler,
	accountHandler *handlers.AccountHandler,
	healthHandler *handlers.HealthHandler,
) {
	// Login is public; failed attempts (401) are rate limited per IP
	app.Get("/login", authHandler.LoginPage)
	app.Post("/login", limiter.New(limiter.Config{
		Max:                    10,
		Expiration:             1 * time.Minute,
		LimiterMiddleware:      limiter.SlidingWindow{},
		SkipSuccessfulRequests: true,
		KeyGenerator:           func(c *fiber.Ctx) string { return c.IP() },
	}), authHandler.Login)

	app.Get("/metrics", m.Handler())

	api := app.Group("/api", middleware.CORS(cfg))
	api.Get("/health", healthHandler.Check)

	// Session middleware is attached per route so public routes and
	// unknown paths never see it.
	session := middleware.SessionProtected(sessions)
	admin := middleware.RequireRole(RoleAdmin)

	app.Get("/logout", session, authHandler.Logout)
	app.Post("/logout", session, authHandler.Logout)

	app.Get("/", session, func(c *fiber.Ctx) error {
		return c.Redirect("/index", fiber.StatusFound)
	})
	// Any signed-in principal may browse, whatever roles it holds.
	app.Get("/index", session, patientHandler.Index)

	app.Get("/formPatients", session, admin, patientHandler.FormPatients)
	app.Post("/save", session, admin, patientHandler.Save)
	app.Get("/edit", session, admin, patientHandler.Edit)
	app.Get("/delete", session, admin, patientHandler.Delete)

	adminAPI := api.Group("/admin", session, admin)
	adminAPI.Get("/users", accountHandler.ListUsers)
	adminAPI.Post("/users", accountHandler.CreateUser)
	adminAPI.Get("/roles", accountHandler.ListRoles)
	adminAPI.Post("/roles", accountHandler.CreateRole)
	adminAPI.Post("/users/:username/roles/:role", accountHandler.GrantRole)
	adminAPI.Delete("/users/:username/roles/:role", accountHandler.RevokeRole)
}
