package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"nexcrm/internal/config"
	"nexcrm/internal/handlers"
	"nexcrm/internal/middleware"
	"nexcrm/internal/models"
	"nexcrm/internal/observability"
	"nexcrm/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormtracing "gorm.io/plugin/opentelemetry/tracing"
)

func main() {
	// Read config.yml from the working directory, allow env overrides.
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	cfg := config.Load()

	var (
		flagDSN   string
		dbHost    string
		dbPortStr string
		dbUser    string
		dbPass    string
		dbName    string
		dbSSLMode string
		dbTZ      string
		srvHost   string
		srvPort   int
	)
	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(os.Stdout)
	flagSet.StringVar(&flagDSN, "dsn", os.Getenv("DB_DSN"), "Postgres DSN, if set overrides other DB flags")
	flagSet.StringVar(&dbHost, "db-host", getenvDefault("DB_HOST", cfg.Database.Host), "database host")
	flagSet.StringVar(&dbPortStr, "db-port", getenvDefault("DB_PORT", fmt.Sprintf("%d", cfg.Database.Port)), "database port")
	flagSet.StringVar(&dbUser, "db-user", getenvDefault("DB_USER", cfg.Database.User), "database user")
	flagSet.StringVar(&dbPass, "db-pass", getenvDefault("DB_PASSWORD", cfg.Database.Password), "database password")
	flagSet.StringVar(&dbName, "db-name", getenvDefault("DB_NAME", cfg.Database.Name), "database name")
	flagSet.StringVar(&dbSSLMode, "db-sslmode", getenvDefault("DB_SSLMODE", cfg.Database.SSLMode), "sslmode (disable, require, verify-ca, verify-full)")
	flagSet.StringVar(&dbTZ, "db-timezone", getenvDefault("DB_TIMEZONE", cfg.Database.TimeZone), "database timezone")
	flagSet.StringVar(&srvHost, "host", getenvDefault("NEXCRM_HOST", cfg.Server.Host), "server host (listen)")
	flagSet.IntVar(&srvPort, "port", func() int {
		if p := os.Getenv("NEXCRM_PORT"); p != "" {
			if n, err := strconv.Atoi(p); err == nil {
				return n
			}
		}
		return cfg.Server.Port
	}(), "server port (listen)")
	_ = flagSet.Parse(os.Args[1:])

	dsn := flagDSN
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			dbHost, dbUser, dbPass, dbName, dbPortStr, dbSSLMode, dbTZ)
	}
	if err := config.InitLogger(cfg); err != nil {
		logrus.Warnf("init logger: %v", err)
	}
	appLogger := logrus.StandardLogger()

	shutdownOTel, err := observability.SetupTracing(context.Background(), cfg)
	if err != nil {
		appLogger.Warnf("init tracing: %v", err)
	} else {
		defer func() { _ = shutdownOTel(context.Background()) }()
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		appLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if cfg.Monitoring.Tracing.Enabled {
		_ = db.Use(gormtracing.NewPlugin())
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(
		&models.Organization{}, &models.User{},
		&models.Lead{}, &models.Deal{}, &models.Customer{}, &models.Activity{}, &models.Ticket{},
		&models.Notification{}, &models.AutomationRule{},
	); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	// Notification push hub.
	hub := services.NewNotificationHub()
	go hub.Run()

	// Automation core: rule store, executor, engine.
	records := services.NewRecordRepository(db)
	notificationService := services.NewNotificationService(db, hub, appLogger)
	ruleService := services.NewRuleService(db, appLogger)
	executor := services.NewActionExecutor(records, notificationService, appLogger)
	engine := services.NewEngine(ruleService, executor, appLogger)

	// Record services: every mutation is a trigger call site.
	leadService := services.NewLeadService(db, appLogger, engine, records)
	dealService := services.NewDealService(db, appLogger, engine, records)
	customerService := services.NewCustomerService(db, appLogger, engine, records)
	activityService := services.NewActivityService(db, appLogger, engine, records)
	ticketService := services.NewTicketService(db, appLogger, engine, records)

	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	if cfg.Monitoring.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Monitoring.Tracing.ServiceName))
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)

	if cfg.Monitoring.Enabled {
		r.GET(cfg.Monitoring.MetricsPath, handlers.NewMetricsHandler(hub).GetMetrics)
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))
	handlers.RegisterAutomationRoutes(api, handlers.NewAutomationHandler(ruleService))
	handlers.RegisterLeadRoutes(api, handlers.NewLeadHandler(leadService))
	handlers.RegisterDealRoutes(api, handlers.NewDealHandler(dealService))
	handlers.RegisterCustomerRoutes(api, handlers.NewCustomerHandler(customerService))
	handlers.RegisterActivityRoutes(api, handlers.NewActivityHandler(activityService))
	handlers.RegisterTicketRoutes(api, handlers.NewTicketHandler(ticketService))
	handlers.RegisterNotificationRoutes(api, handlers.NewNotificationHandler(notificationService, hub))

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", srvHost, srvPort),
		Handler: r,
	}

	go func() {
		appLogger.Infof("Starting server on %s:%d", srvHost, srvPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Errorf("Server forced to shutdown: %v", err)
	}
	appLogger.Info("Server exited")
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
