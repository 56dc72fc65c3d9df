package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deployhub/config"
	"deployhub/cron"
	"deployhub/database"
	licenseRepo "deployhub/database/repository/license"
	notificationRepo "deployhub/database/repository/notification"
	userRepoPkg "deployhub/database/repository/user"
	usertokenRepo "deployhub/database/repository/usertoken"
	"deployhub/handlers"
	"deployhub/middleware"
	"deployhub/routes"
	"deployhub/services/channels"
	"deployhub/services/events"
	"deployhub/services/expiration"
	"deployhub/services/listener"
	"deployhub/services/notification"
	"deployhub/services/processor"
	"deployhub/services/tasks"
	"deployhub/services/usertoken"
	"deployhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync() //nolint:errcheck

	database.InitDB()
	if err := utils.InitRedis(); err != nil {
		logger.Warn("main: redis unavailable at startup", zap.Error(err))
	}
	stripe.Key = config.AppConfig.StripeKey

	db := database.Database()

	// repositories.
	notifRepo := notificationRepo.NewMongoNotificationRepo(db)
	tokenRepo := usertokenRepo.NewMongoUserTokenRepo(db)
	userRepo := userRepoPkg.NewMongoUserRepo(db)
	licRepo := licenseRepo.NewMongoLicenseRepo(db)

	// delivery channels.
	var emailChannel *channels.EmailChannel
	if config.AppConfig.PostmarkServerToken != "" {
		transport, err := channels.NewPostmarkTransport(
			config.AppConfig.PostmarkServerToken,
			config.AppConfig.PostmarkAccountToken,
			config.AppConfig.SenderEmail,
			config.AppConfig.SupportEmail,
		)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize postmark: %v", err)
		}
		emailChannel = channels.NewEmailChannel(transport, logger.Named("email"))
	} else {
		logger.Warn("main: POSTMARK_SERVER_TOKEN not set, email channel running in mock mode")
		emailChannel = channels.NewEmailChannel(nil, logger.Named("email"))
	}

	var pushChannel *channels.PushChannel
	if config.AppConfig.FirebaseCredentialsFile != "" {
		client, err := utils.NewMessagingClient(context.Background(), config.AppConfig.FirebaseCredentialsFile)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize firebase messaging: %v", err)
		}
		pushChannel = channels.NewPushChannel(client, logger.Named("push"))
	} else {
		logger.Warn("main: FIREBASE_CREDENTIALS_FILE not set, push channel running in mock mode")
		pushChannel = channels.NewPushChannel(nil, logger.Named("push"))
	}
	smsChannel := channels.NewSMSChannel(logger.Named("sms"))

	// job queue.
	queueClient := asynq.NewClient(cron.RedisOpt())
	defer queueClient.Close()
	queue := tasks.NewAsynqQueue(queueClient, config.AppConfig.QueueMaxRetry)

	// services.
	notificationService, err := notification.NewDefaultNotificationService(notifRepo, queue, logger.Named("notification"))
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	tokenService, err := usertoken.NewDefaultUserTokenService(tokenRepo, logger.Named("usertoken"))
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	proc, err := processor.NewProcessor(notifRepo, emailChannel, smsChannel, pushChannel, tokenService, logger.Named("processor"))
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}

	worker := cron.NewWorker(proc, logger.Named("worker"))
	worker.Start()

	bus := events.NewBus(logger.Named("events"))
	eventListener, err := listener.NewListener(notificationService, logger.Named("listener"))
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	eventListener.Register(bus)

	loc, err := time.LoadLocation(config.AppConfig.SchedulerTimezone)
	if err != nil {
		logger.Warn("main: invalid scheduler timezone, using UTC",
			zap.String("timezone", config.AppConfig.SchedulerTimezone), zap.Error(err))
		loc = time.UTC
	}
	sweeper, err := expiration.NewSweeper(licRepo, userRepo, notificationService, loc, logger.Named("expiration"))
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	scheduler, err := cron.NewScheduler(sweeper,
		config.AppConfig.LicenseWarningCron, config.AppConfig.LicenseExpiryCron, loc, logger.Named("scheduler"))
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	scheduler.Start()

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	utils.StartHealthMonitor(monitorCtx, 30*time.Second, map[string]utils.HealthCheck{
		"mongo": utils.MongoCheck(database.MongoClient),
		"redis": utils.RedisCheck(utils.GetRedisClient()),
	})

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	handlerBundle := &handlers.HandlerBundle{
		Notifications: handlers.NewNotificationHandler(notificationService),
		Tokens:        handlers.NewTokenHandler(tokenService),
		Webhooks:      handlers.NewStripeWebhookHandler(bus, config.AppConfig.StripeWebhookSecret),
		HealthHandler: handlers.HealthHandler,
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	scheduler.Stop(ctx)
	worker.Shutdown()
	if err := database.Disconnect(ctx); err != nil {
		logger.Sugar().Errorf("main: failed to disconnect from MongoDB: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
