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

	"inboxhub/database"
	"inboxhub/internal/config"
	"inboxhub/internal/logger"
	"inboxhub/internal/microservices/http-api/handler"
	"inboxhub/internal/microservices/http-api/repository"
	"inboxhub/internal/microservices/http-api/router"
	"inboxhub/internal/microservices/http-api/service"
	"inboxhub/internal/microservices/websocket"
	"inboxhub/internal/shared"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const tokenPurgeInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "api-server:", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to the database
	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(log); err != nil {
			return err
		}
	}

	// 3. Redis is optional
	rdb, err := connectRedis(ctx, cfg, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// 4. Wire repositories and services
	users := repository.NewUserRepository(db.Gorm)
	records := repository.NewNotificationRecordRepository(db.Gorm)
	cache := repository.NewRedisUnreadCache(rdb, cfg.CacheDuration())
	hub := websocket.NewHub(log)

	var publisher shared.DeliveryPublisher = websocket.NewLocalPublisher(hub)
	if rdb != nil {
		broker := websocket.NewRedisBroker(rdb, hub, log)
		publisher = broker
		go func() {
			if err := broker.Run(ctx); err != nil {
				log.WithError(err).Error("delivery_broker_stopped")
			}
		}()
	}

	authService := service.NewAuthService(users, repository.NewRefreshTokenRepository(db.Gorm), repository.NewTokenDenylist(rdb), cfg)
	inboxService := service.NewInboxService(records, cache, log)
	notificationService := service.NewNotificationService(
		repository.NewNotificationRepository(db.Gorm), records, users, cache, publisher, log,
	)

	if cfg.AdminBootstrapEnabled() {
		admin, err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		log.WithField("username", admin.Username).Info("admin_account_ready")
	}

	go purgeExpiredTokens(ctx, authService, log)

	checks := map[string]handler.HealthCheck{"database": db.Ping}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// 5. Setup Gin
	engine := router.New(router.Deps{
		Config:        cfg,
		Logger:        log,
		Auth:          authService,
		Inbox:         inboxService,
		Notifications: notificationService,
		Hub:           hub,
		HealthChecks:  checks,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"env":     cfg.GoEnv,
			"version": cfg.AppVersion,
		}).Info("http_server_started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("http_server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// hijacked websocket connections are not tracked by Shutdown, and their
	// handlers may still be unwinding when the database closes
	for _, userID := range hub.CloseAll() {
		websocket.SyncPresence(hub, authService, log, userID)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("http_server_stopped")
	return nil
}

func connectRedis(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*redis.Client, error) {
	if !cfg.RedisEnabled() {
		log.Warn("redis_disabled: unread counts uncached, denylist in memory, push limited to this instance")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.WithField("addr", opts.Addr).Info("redis_connected")
	return rdb, nil
}

func purgeExpiredTokens(ctx context.Context, authService service.AuthService, log logrus.FieldLogger) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := authService.PurgeExpiredTokens(ctx)
			if err != nil {
				log.WithError(err).Warn("refresh_token_purge_failed")
				continue
			}
			if n > 0 {
				log.WithField("deleted", n).Info("refresh_tokens_purged")
			}
		}
	}
}
