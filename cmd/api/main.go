package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/talentgate/talentgate-api/internal/config"
	"github.com/talentgate/talentgate-api/internal/database"
	"github.com/talentgate/talentgate-api/internal/handler"
	"github.com/talentgate/talentgate-api/internal/middleware"
	"github.com/talentgate/talentgate-api/internal/observability"
	"github.com/talentgate/talentgate-api/internal/repository"
	"github.com/talentgate/talentgate-api/internal/router"
	"github.com/talentgate/talentgate-api/internal/service"
	"github.com/talentgate/talentgate-api/pkg/ai"
	"github.com/talentgate/talentgate-api/pkg/docker"
	"github.com/talentgate/talentgate-api/pkg/email"
	"github.com/talentgate/talentgate-api/pkg/github"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, analytics caching disabled")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, events will be dropped")
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}
	}

	githubClient, err := github.NewClient(github.Config{
		Token:       cfg.GitHubToken,
		TargetOwner: cfg.GitHubTargetOwner,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("failed to create github client: %v", err)
	}

	var sender email.Sender
	if cfg.ResendAPIKey != "" {
		resend, err := email.NewResendClient(email.Config{
			APIKey: cfg.ResendAPIKey,
			From:   cfg.EmailFrom,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create email client: %v", err)
		}
		sender = resend
	} else {
		logger.Warn().Msg("no resend api key, email delivery disabled")
	}

	grader := buildGrader(cfg, logger)

	var suiteRunner docker.Runner
	var workspaces service.WorkspacePreparer
	if cfg.TestRunnerEnabled {
		runner, err := docker.NewSandboxRunner(docker.Config{
			Host:          cfg.DockerHost,
			MemoryLimitMB: int64(cfg.SuiteMemoryMB),
			CPUShares:     int64(cfg.SuiteCPUShares),
			Logger:        logger,
		})
		if err != nil {
			log.Fatalf("failed to create sandbox runner: %v", err)
		}
		suiteRunner = runner
		workspaces = service.NewLocalWorkspacePreparer("https://"+cfg.GitHubToken+"@github.com", logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assessmentRepo := repository.NewAssessmentRepository(db)
	candidateRepo := repository.NewCandidateRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	rubricRepo := repository.NewRubricRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	gradingLogRepo := repository.NewGradingLogRepository(db)
	followUpRepo := repository.NewFollowUpRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	executionRepo := repository.NewTestExecutionRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	events := service.NewEventPublisher(natsConn, logger)

	assessmentService := service.NewAssessmentService(assessmentRepo, inviteRepo, githubClient, validate, logger)
	rubricService := service.NewRubricService(rubricRepo, assessmentRepo, validate, logger)
	gradingService := service.NewGradingService(scoreRepo, inviteRepo, gradingLogRepo, rubricService, githubClient, grader, cfg.AIModel, events, validate, logger)
	inviteService := service.NewInviteService(inviteRepo, candidateRepo, assessmentRepo, githubClient, sender, events, gradingService, cfg.PublicBaseURL, validate, logger)
	rankingService := service.NewRankingService(scoreRepo, assessmentRepo, inviteRepo, followUpRepo, settingRepo, sender, events, inviteService, validate, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, candidateRepo, inviteRepo, scoreRepo, redisClient, cfg.AnalyticsCacheTTL, logger)
	settingService := service.NewSettingService(settingRepo, validate, logger)
	testRunService := service.NewTestRunService(suiteRunner, workspaces, inviteRepo, executionRepo, validate, logger)
	seedService := service.NewSeedService(assessmentRepo, rubricRepo, settingRepo, cfg.SeedEnabled, cfg.SeedToken, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	app.Get("/metrics", observability.MetricsHandler())
	router.Register(app, cfg, router.Dependencies{
		AssessmentHandler: handler.NewAssessmentHandler(assessmentService, inviteService, logger),
		InviteHandler:     handler.NewInviteHandler(inviteService, logger),
		CandidateHandler:  handler.NewCandidateHandler(inviteService, logger),
		GradingHandler:    handler.NewGradingHandler(rubricService, gradingService, logger),
		RankingHandler:    handler.NewRankingHandler(rankingService, logger),
		AnalyticsHandler:  handler.NewAnalyticsHandler(analyticsService, settingService, logger),
		TestRunHandler:    handler.NewTestRunHandler(testRunService, logger),
		SeedHandler:       handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildGrader(cfg config.Config, logger zerolog.Logger) ai.Grader {
	switch cfg.AIProvider {
	case "anthropic":
		grader, err := ai.NewAnthropicGrader(ai.AnthropicConfig{APIKey: cfg.AnthropicAPIKey, Model: cfg.AIModel, Logger: logger})
		if err != nil {
			logger.Warn().Err(err).Msg("anthropic grader unavailable, ai grading disabled")
			return nil
		}
		return grader
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Warn().Msg("no openai api key, ai grading disabled")
			return nil
		}
		grader, err := ai.NewOpenAIGrader(ai.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.AIModel, Logger: logger})
		if err != nil {
			logger.Warn().Err(err).Msg("openai grader unavailable, ai grading disabled")
			return nil
		}
		return grader
	default:
		logger.Warn().Str("provider", cfg.AIProvider).Msg("unknown ai provider, ai grading disabled")
		return nil
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
