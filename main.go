package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tutor-marketplace/config"
	"tutor-marketplace/events"
	"tutor-marketplace/handlers"
	"tutor-marketplace/middleware"
	"tutor-marketplace/models"
	"tutor-marketplace/services"
	"tutor-marketplace/utils"
	"tutor-marketplace/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("logger: %v", err)
	}
	logger := utils.Logger
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	store, err := objectStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize object storage", zap.Error(err))
	}

	var cache utils.Cache = utils.NopCache{}
	if cfg.RedisAddr != "" {
		rc := utils.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, leaderboard cache disabled", zap.Error(err))
		} else {
			cache = rc
			defer rc.Close()
		}
	}

	rules := services.RewardRules{
		HighRatingBonus:      cfg.HighRatingBonus,
		ExcellentRatingBonus: cfg.ExcellentRatingBonus,
		PublicationPoints:    cfg.PublicationPoints,
	}

	dispatcher := events.NewDispatcher(logger.Named("events"))
	badgeService := services.NewBadgeService(db, logger)
	pointsService := services.NewPointsService(db, badgeService, dispatcher, logger)
	submissionService := services.NewSubmissionService(db, pointsService, badgeService, dispatcher, rules, logger)
	challengeService := services.NewChallengeSubmissionService(db, pointsService, badgeService, dispatcher, rules, logger)
	publicationService := services.NewPublicationService(db, pointsService, dispatcher, rules, logger)
	packageService := services.NewPackageService(db, pointsService, dispatcher, logger)
	bookingService := services.NewBookingService(db, logger)
	subjectService := services.NewSubjectService(db, logger)
	userService := services.NewUserService(db)
	notificationService := services.NewNotificationService(db, logger)
	certificateService := services.NewCertificateService(db, store, dispatcher, cfg.CertificateSecret, cfg.CertificateVerifyURL, logger)
	leaderboardService := services.NewLeaderboardService(db, cache, cfg.LeaderboardTTL, logger)

	notificationService.Register(dispatcher)
	certificateService.Register(dispatcher)
	leaderboardService.Register(dispatcher)

	sched, err := workers.StartScheduler(ctx, packageService, cfg.ExpiryInterval, logger)
	if err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	if cfg.PaymentServiceURL != "" {
		workers.NewPaymentSyncWorker(db, packageService, cfg.PaymentServiceURL, cfg.PaymentServiceToken,
			cfg.PaymentPollInterval, utils.HTTPClient, logger).Start(ctx)
	} else {
		logger.Info("PAYMENT_SERVICE_URL not set, payment sync disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:   "tutor-marketplace",
		BodyLimit: 4 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins(),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Accept-Language, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Device-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// EventSource clients cannot send the gateway headers; they authenticate by query token.
	var authClient *services.AuthServiceClient
	if cfg.AuthServiceURL != "" {
		authClient = services.NewAuthServiceClient(cfg.AuthServiceURL, cfg.AuthServiceToken)
	}
	handlers.SetupNotificationStream(app, notificationService, authClient, cfg.StreamInterval)

	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))
	app.Use(middleware.UserContextMiddleware())

	app.Static("/uploads", cfg.UploadDir)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	handlers.SetupPointsRoutes(app, pointsService, badgeService, userService, leaderboardService)
	handlers.SetupSubmissionRoutes(app, submissionService, challengeService, limiter)
	handlers.SetupPublicationRoutes(app, publicationService)
	handlers.SetupCommerceRoutes(app, packageService, bookingService, cfg.PaymentServiceToken)
	handlers.SetupCertificateRoutes(app, certificateService)
	handlers.SetupNotificationRoutes(app, notificationService)
	handlers.SetupCatalogRoutes(app, subjectService)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()
	logger.Info("server running", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv), zap.Bool("r2", cfg.R2Enabled()))

	<-ctx.Done()
	logger.Info("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	if err := sched.Shutdown(); err != nil {
		logger.Warn("scheduler shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	switch cfg.LogLevel {
	case "debug":
		level = gormlogger.Info
	case "error":
		level = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpen)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdle)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func objectStore(ctx context.Context, cfg *config.Config) (utils.ObjectStore, error) {
	if cfg.R2Enabled() {
		return utils.NewR2Store(ctx, cfg)
	}
	return utils.NewLocalStore(cfg.UploadDir, "/uploads")
}
