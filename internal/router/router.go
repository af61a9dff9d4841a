package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/credit-ledger-api/internal/config"
	"github.com/noah-isme/credit-ledger-api/internal/handler"
	"github.com/noah-isme/credit-ledger-api/internal/middleware"
	"github.com/noah-isme/credit-ledger-api/internal/models"
	"github.com/noah-isme/credit-ledger-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler   *handler.ActivityHandler
	SubmissionHandler *handler.SubmissionHandler
	ReportHandler     *handler.ReportHandler
	HistoricalHandler *handler.HistoricalHandler
	BridgeHandler     *handler.BridgeHandler
	EvidenceHandler   *handler.EvidenceHandler
	AuditHandler      *handler.AuditHandler
	AuthMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	auth := deps.AuthMiddleware
	if auth == nil {
		auth = middleware.Authenticate(cfg.JWTSecret)
	}

	members := middleware.RequireRole(models.RolePractitioner, models.RoleModerator, models.RoleAdmin)
	reviewers := middleware.RequireRole(models.RoleModerator, models.RoleAdmin)
	admins := middleware.RequireRole(models.RoleAdmin)
	systems := middleware.RequireRole(models.RoleSystem, models.RoleAdmin)

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activities", auth, members))
		deps.ActivityHandler.RegisterAdmin(api.Group("/admin/activities", auth, admins))
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(
			api.Group("/submissions", auth, members),
			middleware.RateLimit("submissions", cfg.SubmissionRateLimit, cfg.SubmissionRateWindow),
		)
		deps.SubmissionHandler.RegisterModeration(api.Group("/moderation/submissions", auth, reviewers))
	}

	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(api.Group("/credits", auth, members))
		deps.ReportHandler.RegisterPractitioners(api.Group("/practitioners", auth, reviewers))
	}

	if deps.HistoricalHandler != nil {
		deps.HistoricalHandler.Register(api.Group("/admin/historical-points", auth, admins))
	}

	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(api.Group("/admin/audit-logs", auth, admins))
	}

	if deps.EvidenceHandler != nil {
		deps.EvidenceHandler.Register(api.Group("/evidence", auth, members))
	}

	if deps.BridgeHandler != nil {
		deps.BridgeHandler.Register(api.Group("/internal/course-completions", auth, systems))
	}
}
