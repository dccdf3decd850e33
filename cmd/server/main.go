package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/cache"
	"github.com/segyhp/bike-rental-engine/internal/config"
	"github.com/segyhp/bike-rental-engine/internal/handler"
	"github.com/segyhp/bike-rental-engine/internal/middleware"
	"github.com/segyhp/bike-rental-engine/internal/repository"
	"github.com/segyhp/bike-rental-engine/internal/service"
	"github.com/segyhp/bike-rental-engine/pkg/logger"
	"github.com/segyhp/bike-rental-engine/pkg/response"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	response.SetLogger(log)

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	// Initialize Redis
	redisClient, err := initRedis(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize redis")
	}

	var paymentLock cache.PaymentLock = cache.NoopPaymentLock{}
	if redisClient != nil {
		defer redisClient.Close()
		paymentLock = cache.NewPaymentLock(redisClient, cfg.Business.PaymentLockTTL)
	} else if cfg.IsProduction() {
		log.Fatal("redis is required in production")
	} else {
		log.Warn("redis not configured, payment submissions are not serialized")
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)
	txManager := repository.NewTxManager(db)

	// Initialize services
	rentalService := service.NewRentalService(repos, txManager, cfg, log)
	paymentService := service.NewPaymentService(repos, txManager, paymentLock, cfg, log)
	bikeService := service.NewBikeService(repos, txManager, log)
	reportService := service.NewReportService(repos, cfg, log)

	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, log)

	// Setup routes
	router := handler.NewRouter(handler.Handlers{
		Rentals:  handler.NewRentalHandler(rentalService, cfg.Location()),
		Payments: handler.NewPaymentHandler(paymentService),
		Bikes:    handler.NewBikeHandler(bikeService),
		Reports:  handler.NewReportHandler(reportService, cfg.Location()),
		Health:   handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout, log),
	}, auth.Authenticate)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

// initRedis prefers REDIS_URL and falls back to host/port. It returns nil
// when neither is set.
func initRedis(cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		return redis.NewClient(opts), nil
	}

	if cfg.Redis.Host == "" {
		return nil, nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}), nil
}
