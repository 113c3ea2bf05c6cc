package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/talentgate/talentgate-api/internal/config"
	"github.com/talentgate/talentgate-api/internal/handler"
	"github.com/talentgate/talentgate-api/internal/middleware"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssessmentHandler *handler.AssessmentHandler
	InviteHandler     *handler.InviteHandler
	CandidateHandler  *handler.CandidateHandler
	GradingHandler    *handler.GradingHandler
	RankingHandler    *handler.RankingHandler
	AnalyticsHandler  *handler.AnalyticsHandler
	TestRunHandler    *handler.TestRunHandler
	SeedHandler       *handler.SeedHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Public candidate flow. The invite slug is the only credential, so the
	// group is rate limited per IP against slug guessing.
	if deps.CandidateHandler != nil {
		candidate := api.Group("/candidate", middleware.RateLimit("candidate", 30, time.Minute))
		deps.CandidateHandler.Register(candidate)
	}

	// Seed tooling guards itself with the X-Seed-Token header.
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}

	admin := api.Group("/admin", jwtMiddleware)
	if deps.JWTMiddleware != nil {
		admin.Use(middleware.RequireRole("admin", "recruiter"))
	}

	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.Register(admin.Group("/assessments"))
	}
	if deps.InviteHandler != nil {
		deps.InviteHandler.Register(admin.Group("/invites"))
	}
	if deps.GradingHandler != nil {
		deps.GradingHandler.Register(admin.Group("/grading"))
	}
	if deps.RankingHandler != nil {
		deps.RankingHandler.Register(admin.Group("/rankings"))
	}
	if deps.AnalyticsHandler != nil {
		deps.AnalyticsHandler.Register(admin.Group("/analytics"))
	}
	if deps.TestRunHandler != nil {
		deps.TestRunHandler.Register(admin.Group("/test-runs"))
	}
}
