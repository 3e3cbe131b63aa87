package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/config"
	"github.com/njprem/PropertyHub_APP_BackEnd/internal/logging"
	"github.com/njprem/PropertyHub_APP_BackEnd/internal/repository/postgres"
	"github.com/njprem/PropertyHub_APP_BackEnd/internal/service"
	"github.com/njprem/PropertyHub_APP_BackEnd/internal/transport/sms"
	transport "github.com/njprem/PropertyHub_APP_BackEnd/internal/transport/http"
	"github.com/njprem/PropertyHub_APP_BackEnd/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var logstash zapcore.WriteSyncer
	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Fatalf("logstash: %v", err)
		}
		defer writer.Close()
		logstash = writer
	}
	logger := logging.New(cfg.Env, cfg.LogLevel, cfg.LogFormat, logstash)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(ctx, db); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	gateway := sms.NewGateway(sms.Config{
		APIURL:    cfg.SMSAPIURL,
		User:      cfg.SMSUser,
		Password:  cfg.SMSPassword,
		SenderID:  cfg.SMSSenderID,
		Channel:   cfg.SMSChannel,
		Route:     cfg.SMSRoute,
		Signature: cfg.SMSSignature,
		Timeout:   cfg.SMSTimeout,
		Bypass:    !cfg.IsProduction(),
	}, logger)

	tokens := util.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)
	authService := service.NewAuthService(
		postgres.NewUserRepo(db),
		postgres.NewOTPRepo(db),
		postgres.NewSessionRepo(db),
		gateway,
		tokens,
		service.AuthConfig{
			OTPSecret:       cfg.OTPSecret,
			OTPExpiry:       cfg.OTPExpiry,
			OTPLength:       cfg.OTPLength,
			OTPMaxAttempts:  cfg.OTPMaxAttempts,
			RefreshTokenTTL: time.Duration(cfg.RefreshTokenDays) * 24 * time.Hour,
			FixedCode:       cfg.OTPFixedCode,
			Production:      cfg.IsProduction(),
		},
		logger,
	)

	store, closeStore, err := transport.NewLimiterStore(ctx, cfg.RateLimitRedisURL)
	if err != nil {
		return err
	}
	defer closeStore()
	rateLimit, err := transport.RateLimit(store, cfg.RateLimit)
	if err != nil {
		return err
	}

	e := transport.NewRouter(transport.RouterConfig{
		AllowOrigins:   cfg.AllowOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         logger,
		Health:         db,
		MetricsEnabled: cfg.MetricsEnabled,
	})
	transport.RegisterAuth(e, authService, tokens, logger, rateLimit)
	transport.RegisterSwagger(e)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down http server")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
