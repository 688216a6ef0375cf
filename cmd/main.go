package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/suteetoe/merchant-service/internal/handler"
	"github.com/suteetoe/merchant-service/internal/middleware"
	"github.com/suteetoe/merchant-service/internal/migration"
	"github.com/suteetoe/merchant-service/internal/repository"
	"github.com/suteetoe/merchant-service/internal/service"
	"github.com/suteetoe/merchant-service/pkg/config"
	"github.com/suteetoe/merchant-service/pkg/database"
	"github.com/suteetoe/merchant-service/pkg/jwtutil"
	"github.com/suteetoe/merchant-service/pkg/logger"
	"github.com/suteetoe/merchant-service/pkg/metrics"
	"go.uber.org/zap"
)

func main() {
	conf, err := config.Load("merchant")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.LogLevel,
		Environment: conf.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Configuration loaded", conf.LogFields()...)

	db, err := database.InitDB(&conf.Database, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)

	if conf.Database.AutoMigrate {
		migrator, err := migration.NewMigrator(db, log)
		if err != nil {
			log.Fatal("Failed to load migrations", zap.Error(err))
		}
		if _, err := migrator.Up(context.Background()); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      conf.Auth.SigningKey,
		ExpirationHours: conf.Auth.ExpirationHours,
	})

	httpMetrics := metrics.NewHTTPMetrics(conf.MetricsPrefix, prometheus.DefaultRegisterer)
	merchantMetrics := metrics.NewMerchantMetrics(prometheus.DefaultRegisterer)

	merchantService := service.NewMerchantService(repository.NewMerchantRepository(db), merchantMetrics)
	merchantHandler := handler.NewMerchantHandler(merchantService)
	healthHandler := handler.NewHealthHandler(func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	e.GET("/metrics", echo.WrapHandler(metrics.Handler(prometheus.DefaultGatherer)))
	e.GET("/health", healthHandler.HealthCheck)

	merchants := e.Group("/merchants")
	merchants.Use(middleware.JWTAuthMiddleware(jwt))
	merchantHandler.Register(merchants)

	go func() {
		log.Info("Starting merchant-service on port " + conf.Port)
		if err := e.Start(":" + conf.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	log.Info("merchant-service stopped")
}
