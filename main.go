// File: bookdesk/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookdesk/config"
	"bookdesk/cron"
	"bookdesk/database"
	bookingRepo "bookdesk/database/repository/booking"
	inboxRepo "bookdesk/database/repository/inbox"
	ingestionRepo "bookdesk/database/repository/ingestion"
	quotaRepo "bookdesk/database/repository/quota"
	"bookdesk/handlers"
	"bookdesk/middleware"
	"bookdesk/routes"
	"bookdesk/services/booking"
	"bookdesk/services/confidence"
	"bookdesk/services/drafts"
	"bookdesk/services/ingestion"
	ai "bookdesk/services/intelligence"
	"bookdesk/services/outbound"
	"bookdesk/services/pipeline"
	"bookdesk/services/tasks"
	"bookdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()
	cfg := config.AppConfig

	if err := database.InitDB(context.Background(), cfg, logger); err != nil {
		logger.Fatal("main: database unavailable", zap.Error(err))
	}
	utils.InitQuotaCache()
	db := database.DB()
	redisClient := utils.GetQuotaClient()

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	utils.StartHealthMonitor(rootCtx, utils.HealthCheckInterval, redisClient, database.MongoClient, config.KillSwitchEngaged)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Fatal("main: invalid TRUSTED_PROXIES", zap.Error(err))
	}
	router.Use(utils.ErrorHandler(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))

	// repositories.
	bookings := bookingRepo.NewMongoBookingRepo(db, logger)
	auditEntries := bookingRepo.NewMongoAuditRepo(db, logger)
	events := ingestionRepo.NewMongoEventRepo(db, logger)
	identities := ingestionRepo.NewMongoIdentityRepo(db, logger)
	draftStore := inboxRepo.NewMongoDraftRepo(db, logger)
	escalations := inboxRepo.NewMongoEscalationRepo(db)
	quota := quotaRepo.NewRedisQuotaRepo(redisClient, 0)

	// booking lifecycle and proposal expiry.
	queue := cron.NewQueueClient()
	defer queue.Close()
	proposalTTL := time.Duration(cfg.ProposalTTLHours) * time.Hour
	lifecycle := &booking.DefaultLifecycleService{
		Repo:        bookings,
		Audit:       booking.NewAuditLog(auditEntries, nil),
		Machine:     booking.NewDefaultStateMachine(),
		Expiry:      &tasks.AsynqExpiryScheduler{Client: queue},
		ProposalTTL: proposalTTL,
		Logger:      logger.Named("booking"),
	}
	worker := cron.NewWorker(lifecycle, proposalTTL, logger.Named("worker"))
	if err := worker.Start(); err != nil {
		logger.Fatal("main: failed to start worker", zap.Error(err))
	}

	// AI: classifier and drafter share the Gemini key but not the model config.
	classifierLLM, err := ai.NewGeminiClient(rootCtx, cfg.GeminiAPIKey, cfg.GeminiModel, true)
	if err != nil {
		logger.Fatal("main: failed to initialize classifier model", zap.Error(err))
	}
	defer classifierLLM.Close()
	drafterLLM, err := ai.NewGeminiClient(rootCtx, cfg.GeminiAPIKey, cfg.GeminiModel, false)
	if err != nil {
		logger.Fatal("main: failed to initialize draft model", zap.Error(err))
	}
	defer drafterLLM.Close()
	memory := ai.NewRedisContextStore(redisClient, utils.ConversationMemoryTTL, utils.ConversationMemoryTurns)

	resolver := drafts.NewResolver(
		drafts.KillSwitchFunc(config.KillSwitchEngaged),
		quota,
		drafts.QuotaLimits{Default: cfg.AIDailyDraftQuota, PerChannel: cfg.AIChannelQuotas},
	)
	draftService := drafts.NewService(resolver, ai.NewDrafter(drafterLLM, memory, logger.Named("drafter")),
		draftStore, quota, time.Duration(cfg.DraftTimeoutMs)*time.Millisecond, logger.Named("drafts"))

	ingestor := ingestion.NewIngestor(events, identities, logger.Named("ingestion"))
	messages := &pipeline.Pipeline{
		Ingest:          ingestor,
		Classifier:      ai.NewClassifier(classifierLLM),
		Gate:            confidence.NewGate(confidence.NewDefaultEngine()),
		Drafts:          draftService,
		Escalations:     escalations,
		Memory:          memory,
		BusinessName:    cfg.BusinessName,
		ClassifyTimeout: time.Duration(cfg.ClassifyTimeoutMs) * time.Millisecond,
		Logger:          logger.Named("pipeline"),
	}

	sender := outbound.NewThrottledSender(
		&outbound.LogSender{Logger: logger.Named("outbound")},
		outbound.NewTokenBucket(cfg.OutboundSendsPerSec, cfg.OutboundBurst),
	)
	dispatcher := &outbound.Dispatcher{Drafts: draftStore, Sender: sender, Logger: logger.Named("outbound")}

	// handlers.
	bookingHandler := handlers.NewBookingHandler(lifecycle, logger)
	whatsAppHandler := &handlers.WhatsAppHandler{Pipeline: messages, VerifyToken: cfg.WhatsAppVerifyToken, Logger: logger}
	paymentHandler := &handlers.PaymentHandler{Secret: cfg.StripeWebhookSecret, Ingest: ingestor, Bookings: lifecycle, Logger: logger}
	draftHandler := &handlers.DraftHandler{Sender: dispatcher, Logger: logger}

	handlerBundle := &handlers.HandlerBundle{
		// Booking endpoints.
		CreateBooking:     bookingHandler.CreateBooking,
		GetBooking:        bookingHandler.GetBooking,
		TransitionBooking: bookingHandler.TransitionBooking,
		GetBookingHistory: bookingHandler.GetBookingHistory,

		// Webhooks.
		WhatsAppVerify:  whatsAppHandler.Verify,
		WhatsAppReceive: whatsAppHandler.Receive,
		StripeWebhook:   paymentHandler.StripeWebhook,

		// Drafts.
		SendDraft: draftHandler.SendDraft,

		Health: handlers.Health,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	worker.Shutdown()
	stopBackground()
	if err := database.MongoClient.Disconnect(ctx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
