package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/yoryor/auth-service/config"
	"github.com/yoryor/auth-service/internal/health"
	"github.com/yoryor/auth-service/internal/infrastructure/postgres"
	ctxlog "github.com/yoryor/auth-service/internal/log"
	"github.com/yoryor/auth-service/internal/metrics"
	"github.com/yoryor/auth-service/internal/notify"
	"github.com/yoryor/auth-service/internal/ratelimit"
	httptransport "github.com/yoryor/auth-service/internal/transport/http"
	"github.com/yoryor/auth-service/internal/transport/http/handler"
	"github.com/yoryor/auth-service/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	var (
		limiter     ratelimit.Limiter
		redisPinger health.Pinger
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			stop()
			log.Fatalf("redis: %v", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		limiter = ratelimit.NewRedisLimiter(client, logger)
		redisPinger = health.RedisPinger(client)
	} else {
		logger.Warn("REDIS_URL not set, using in-process rate limiter")
		limiter = ratelimit.NewMemoryLimiter()
	}

	userRepo := postgres.NewUserRepository(pool)
	otpRepo := postgres.NewOtpRepository(pool)

	smsSender := notify.NewSMSSender(cfg.Env, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, logger)
	emailSender := notify.NewEmailSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	authUsecase := usecase.NewAuthUsecase(
		userRepo, otpRepo, limiter, smsSender, emailSender, logger,
		[]byte(cfg.JWTSecret),
		usecase.Options{
			OtpTTL:     cfg.OtpTTL(),
			OtpLength:  cfg.OtpLength,
			RateLimit:  cfg.OtpRateLimit,
			RateWindow: cfg.OtpRateWindow(),
		},
	)
	authHandler := handler.NewAuthHandler(authUsecase, logger)

	metrics.Register()
	checker := health.NewChecker(pool, redisPinger, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, authHandler, []byte(cfg.JWTSecret)),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
