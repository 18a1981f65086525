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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/caliper-hq/caliper-api/internal/config"
	"github.com/caliper-hq/caliper-api/internal/database"
	"github.com/caliper-hq/caliper-api/internal/handler"
	"github.com/caliper-hq/caliper-api/internal/middleware"
	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/repository"
	"github.com/caliper-hq/caliper-api/internal/router"
	"github.com/caliper-hq/caliper-api/internal/service"
	"github.com/caliper-hq/caliper-api/pkg/ai"
	"github.com/caliper-hq/caliper-api/pkg/judge"
	"github.com/caliper-hq/caliper-api/pkg/storage"
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

	if err := db.AutoMigrate(
		&models.Candidate{},
		&models.Question{},
		&models.Pack{},
		&models.PackItem{},
		&models.Assignment{},
		&models.Submission{},
		&models.Grade{},
		&models.ActivityLog{},
		&models.UploadRecord{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, report caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats not configured, grade events disabled")
	}

	var store *storage.Store
	if cfg.S3Bucket != "" {
		store, err = storage.New(context.Background(), storage.Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			Logger:          logger,
		})
		if err != nil {
			log.Fatalf("failed to create object store: %v", err)
		}
	} else {
		logger.Warn().Msg("object store not configured, uploads and signed links disabled")
	}

	judgeClient := judge.New(judge.Config{
		Endpoint: cfg.JudgeEndpoint,
		Model:    cfg.JudgeModel,
		APIKey:   cfg.JudgeAPIKey,
		Timeout:  cfg.JudgeTimeout,
		Logger:   logger,
	})

	generator := ai.NewQuestionGenerator(ai.Config{
		Endpoint: cfg.GeneratorEndpoint,
		APIKey:   cfg.GeneratorAPIKey,
		Model:    cfg.GeneratorModel,
		Logger:   logger,
	})

	validate := validator.New(validator.WithRequiredStructEnabled())

	candidateRepo := repository.NewCandidateRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	packRepo := repository.NewPackRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	// The services nil-check these interfaces, so a nil *storage.Store
	// must never be assigned to them directly.
	var signer service.FileSigner
	var fileStore service.FileStore
	if store != nil {
		signer = store
		fileStore = store
	}

	activityService := service.NewActivityService(activityRepo, validate, logger)
	eventPublisher := service.NewGradeEventPublisher(natsConn, logger)
	evaluationService := service.NewEvaluationService(gradeRepo, judgeClient, signer, cfg.SignedURLTTL, logger)
	reportService := service.NewReportService(assignmentRepo, submissionRepo, gradeRepo, redisClient, cfg.ReportCacheTTL, logger)
	candidateService := service.NewCandidateService(candidateRepo, validate, activityService, logger)
	questionService := service.NewQuestionService(questionRepo, generator, validate, activityService, logger)
	packService := service.NewPackService(packRepo, questionRepo, validate, activityService, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, candidateRepo, packRepo, questionRepo, validate, activityService, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, questionRepo, evaluationService, eventPublisher, reportService, activityService, validate, logger)
	seedService := service.NewSeedService(candidateRepo, questionRepo, packRepo, assignmentRepo, cfg.SeedEnabled, cfg.SeedToken, logger)
	uploadService := service.NewUploadService(fileStore, uploadRepo, cfg.UploadMaxSizeMB, logger)

	development := cfg.IsDevelopment()

	candidateHandler := handler.NewCandidateHandler(candidateService, logger)
	questionHandler := handler.NewQuestionHandler(questionService, logger)
	packHandler := handler.NewPackHandler(packService, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, reportService, logger)
	judgeHandler := handler.NewJudgeHandler(judgeClient, development, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)
	seedHandler := handler.NewSeedHandler(seedService, logger)
	flowHandler := handler.NewCandidateFlowHandler(assignmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, development, logger)
	uploadHandler := handler.NewUploadHandler(uploadService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		CandidateHandler:     candidateHandler,
		QuestionHandler:      questionHandler,
		PackHandler:          packHandler,
		AssignmentHandler:    assignmentHandler,
		JudgeHandler:         judgeHandler,
		ActivityHandler:      activityHandler,
		SeedHandler:          seedHandler,
		CandidateFlowHandler: flowHandler,
		SubmissionHandler:    submissionHandler,
		UploadHandler:        uploadHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
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
