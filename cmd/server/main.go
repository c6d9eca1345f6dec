package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chennai-transit/service-pass/internal/application"
	"github.com/chennai-transit/service-pass/internal/config"
	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/email"
	passEvents "github.com/chennai-transit/service-pass/internal/events"
	"github.com/chennai-transit/service-pass/internal/geo"
	"github.com/chennai-transit/service-pass/internal/handler"
	"github.com/chennai-transit/service-pass/internal/payment"
	"github.com/chennai-transit/service-pass/internal/pkg/auth"
	"github.com/chennai-transit/service-pass/internal/pkg/database"
	"github.com/chennai-transit/service-pass/internal/pkg/health"
	"github.com/chennai-transit/service-pass/internal/pkg/kafka"
	"github.com/chennai-transit/service-pass/internal/pkg/logger"
	"github.com/chennai-transit/service-pass/internal/pkg/middleware"
	"github.com/chennai-transit/service-pass/internal/repository"
	"github.com/chennai-transit/service-pass/internal/worker"
)

const expirySweepInterval = time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-pass")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-pass",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.RiderModel{},
			&repository.PassModel{},
			&repository.RenewalModel{},
			&repository.DocumentModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		dbURL := cfg.DBConfig.DatabaseURL()
		if err := database.RunMigrations(dbURL, "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessTTL,
		cfg.JWTConfig.RefreshTTL,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	riderRepo := repository.NewGormRiderRepository(db)
	passRepo := repository.NewGormPassRepository(db)
	renewalRepo := repository.NewGormRenewalRepository(db)
	documentRepo := repository.NewGormDocumentRepository(db)

	// Initialize external clients
	bounds := route.Bounds{
		MinLat: cfg.GeoConfig.MinLat,
		MinLon: cfg.GeoConfig.MinLon,
		MaxLat: cfg.GeoConfig.MaxLat,
		MaxLon: cfg.GeoConfig.MaxLon,
	}
	resolver := geo.NewNominatimResolver(cfg.GeoConfig.NominatimBaseURL, cfg.GeoConfig.RegionSuffix, bounds, log)
	routing := geo.NewOSRMClient(cfg.GeoConfig.OSRMBaseURL)
	gateway := payment.NewRazorpayGateway(cfg.PaymentConfig.BaseURL, cfg.PaymentConfig.KeyID, cfg.PaymentConfig.KeySecret, log)
	mailer := email.NewSMTPMailer(cfg.SMTPConfig, log)

	// Initialize application services
	schedule := route.NewFareSchedule()
	routeService := application.NewRouteService(resolver, routing, schedule, log)
	riderService := application.NewRiderService(riderRepo, jwtManager, log)
	passService := application.NewPassService(passRepo, renewalRepo, riderRepo, routeService, kafkaProducer, mailer, log)
	renewalService := application.NewRenewalService(renewalRepo, passRepo, riderRepo, routeService, schedule, kafkaProducer, mailer, log)
	paymentService := application.NewPaymentService(gateway, cfg.PaymentConfig.KeyID, passRepo, renewalRepo, kafkaProducer, log)
	documentService := application.NewDocumentService(documentRepo, passRepo, log)

	// Initialize and start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applier := application.NewPaymentApplier(passService, renewalService, log)
	groupID := cfg.KafkaConfig.GroupPrefix + "pass-service"
	paymentConsumer := passEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		applier,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Start the expiry worker in a goroutine
	expiryWorker := worker.NewExpiryWorker(passRepo, riderRepo, kafkaProducer, mailer, expirySweepInterval, log)
	go func() {
		log.Info("starting expiry worker", zap.Duration("interval", expirySweepInterval))
		expiryWorker.Start(ctx)
	}()

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(riderService)
	routeHandler := handler.NewRouteHandler(routeService)
	passHandler := handler.NewPassHandler(passService, documentService)
	renewalHandler := handler.NewRenewalHandler(renewalService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	adminHandler := handler.NewAdminHandler(passService, renewalService, documentService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-pass")
	healthHandler.RegisterRoutes(router)

	// Register routes
	authHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	routeHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	passHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	renewalHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	paymentHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-pass...")

	// Cancel the consumer and worker contexts
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-pass stopped")
}
