package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creative-arena-backend/internal/config"
	"creative-arena-backend/internal/database"
	"creative-arena-backend/internal/events"
	"creative-arena-backend/internal/handlers"
	"creative-arena-backend/internal/identity"
	"creative-arena-backend/internal/middleware"
	"creative-arena-backend/internal/payment"
	"creative-arena-backend/internal/services"
	"creative-arena-backend/internal/store"
	"creative-arena-backend/internal/ws"

	_ "creative-arena-backend/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Creative Arena API
// @version         1.0
// @description     Contest platform API: contests, paid entries, submissions and winners
// @host            localhost:3000
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("store initialisation failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	slog.Info("store ready", "driver", cfg.DBDriver)

	hub := ws.NewHub()
	publisher := events.Fanout{hub}
	var kafkaPublisher *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			slog.Error("kafka publisher failed", "error", err)
			os.Exit(1)
		}
		publisher = append(publisher, kafkaPublisher)
		slog.Info("publishing events to kafka", "topic", cfg.KafkaTopic)
	}

	var verifier identity.Verifier = identity.NewFirebaseVerifier(cfg.FirebaseProjectID, cfg.ProviderTimeout)
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable, token cache disabled", "addr", cfg.RedisAddr, "error", err)
			redisClient.Close()
			redisClient = nil
		} else {
			verifier = identity.NewCachedVerifier(verifier, identity.NewRedisTokenCache(redisClient))
		}
	}

	provider := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.PaymentCurrency, cfg.ClientURL, cfg.ProviderTimeout)

	userService := services.NewUserService(db)
	statsService := services.NewStatsService(db)
	contestService := services.NewContestService(db, publisher)
	paymentService := services.NewPaymentService(db, provider, publisher)
	submissionService := services.NewSubmissionService(db, publisher)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.Recovery(logger),
		middleware.Timeout(cfg.RequestTimeout),
	)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	handlers.RegisterRoutes(r, handlers.Handlers{
		Users:       handlers.NewUserHandler(userService, statsService),
		Contests:    handlers.NewContestHandler(contestService),
		Payments:    handlers.NewPaymentHandler(paymentService),
		Submissions: handlers.NewSubmissionHandler(submissionService),
		WS:          handlers.NewWSHandler(hub, contestService),
	}, middleware.Authenticate(verifier, db))

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			slog.Warn("kafka close failed", "error", err)
		}
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if err := db.Close(shutdownCtx); err != nil {
		slog.Warn("store close failed", "error", err)
	}
	slog.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureMongoIndexes(ctx, client.Database(cfg.DBName)); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return store.NewMongoStore(client, cfg.DBName), nil
	case config.DriverPostgres:
		db, err := database.ConnectPostgres(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
		return store.NewGormStore(db), nil
	case config.DriverMemory:
		return store.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unsupported driver %q", cfg.DBDriver)
}
