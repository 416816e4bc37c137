package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/config"
	"github.com/stayline/hotel-admin-backend/internal/database"
	"github.com/stayline/hotel-admin-backend/internal/handlers"
	"github.com/stayline/hotel-admin-backend/internal/middleware"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/internal/services"
	"github.com/stayline/hotel-admin-backend/pkg/events"
	"github.com/stayline/hotel-admin-backend/pkg/jwt"
	"github.com/stayline/hotel-admin-backend/pkg/storage"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

// eventPublisher is satisfied by both the RabbitMQ and the no-op publisher
type eventPublisher interface {
	services.EventPublisher
	Close() error
}

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting hotel admin backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	models.SetGuestPhoneCountryCode(cfg.Guests.PhoneCountryCode)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Server.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.Migrate(ctx, db); err != nil {
			cancel()
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		cancel()
		logger.Info("Database schema is up to date")
	}

	// Initialize document storage
	documentStore, err := storage.NewLocalStore(cfg.Storage.Directory)
	if err != nil {
		logger.Fatalf("Failed to initialize document storage: %v", err)
	}

	// Initialize event publisher
	var publisher eventPublisher = events.NoopPublisher{}
	if cfg.Events.RabbitMQURL != "" {
		amqpPublisher, err := events.NewPublisher(cfg.Events.RabbitMQURL, cfg.Events.Exchange)
		if err != nil {
			logger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		publisher = amqpPublisher
		logger.WithField("exchange", cfg.Events.Exchange).Info("Booking events enabled")
	} else {
		logger.Info("RABBITMQ_URL not set, booking events disabled")
	}
	defer publisher.Close()

	// Initialize repositories
	roomRepository := database.NewRoomRepository(db.DB)
	packageRepository := database.NewPackageRepository(db.DB)
	bookingLedger := database.NewBookingLedger(db.DB)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenExpiry)
	auditService := services.NewAuditService(db, cfg.Security.EnableAuditLog)
	availabilityService := services.NewAvailabilityService(roomRepository, packageRepository, bookingLedger, logger)
	allocationService := services.NewAllocationService(
		availabilityService,
		roomRepository,
		packageRepository,
		bookingLedger,
		publisher,
		auditService,
		logger,
	)
	lifecycleService := services.NewBookingLifecycleService(bookingLedger, publisher, auditService, logger)
	checkInService := services.NewCheckInService(bookingLedger, documentStore, publisher, auditService, logger)

	maintenanceConfig := services.DefaultMaintenanceConfig()
	maintenanceConfig.DocumentSweepSchedule = cfg.Maintenance.DocumentSweepCron
	maintenanceConfig.DocumentSweepGrace = cfg.Maintenance.DocumentSweepGrace
	maintenanceConfig.AuditCleanupSchedule = cfg.Maintenance.AuditCleanupCron
	maintenanceConfig.AuditRetention = cfg.Maintenance.AuditRetention
	maintenanceService := services.NewMaintenanceService(maintenanceConfig, bookingLedger, documentStore, auditService, logger)
	if cfg.Maintenance.Enabled {
		if err := maintenanceService.Start(); err != nil {
			logger.Fatalf("Failed to start maintenance scheduler: %v", err)
		}
		defer maintenanceService.Stop()
		logger.Info("Maintenance scheduler started")
	}

	// Initialize handlers
	packageHandler := handlers.NewPackageHandler(availabilityService, logger)
	bookingHandler := handlers.NewPackageBookingHandler(allocationService, lifecycleService, auditService, logger)
	checkInHandler := handlers.NewCheckInHandler(checkInService, handlers.UploadLimits{
		MaxBytes:            int64(cfg.Storage.MaxUploadMB) << 20,
		AllowedContentTypes: cfg.Storage.AllowedContentTypes,
	}, logger)
	maintenanceHandler := handlers.NewMaintenanceHandler(maintenanceService, logger)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(jwtService, logger))
	{
		staff := v1.Group("")
		staff.Use(middleware.RequireRole(jwt.RoleAdmin, jwt.RoleFrontDesk))
		{
			staff.GET("/rooms", packageHandler.ListRooms)
			staff.GET("/packages", packageHandler.ListPackages)
			staff.GET("/packages/:id", packageHandler.GetPackage)
			staff.GET("/packages/:id/availability", packageHandler.GetAvailability)

			staff.POST("/bookings", bookingHandler.CreateBooking)
			staff.GET("/bookings", bookingHandler.ListBookings)
			staff.GET("/bookings/:id", bookingHandler.GetBooking)
			staff.GET("/bookings/:id/history", bookingHandler.GetBookingHistory)
			staff.PUT("/bookings/:id", bookingHandler.UpdateBooking)
			staff.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
			staff.POST("/bookings/:id/check-in", checkInHandler.CheckIn)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireRole(jwt.RoleAdmin))
		{
			admin.GET("/maintenance/jobs", maintenanceHandler.GetJobStatus)
			admin.POST("/maintenance/sweep-documents", maintenanceHandler.SweepDocuments)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// healthCheckHandler reports database connectivity
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
