// Package admin собирает HTTP-сервис клуба: API бота и операторские маршруты.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/signal-club/internal/authz"
	"github.com/magabrotheeeer/signal-club/internal/cache"
	"github.com/magabrotheeeer/signal-club/internal/commands"
	"github.com/magabrotheeeer/signal-club/internal/config"
	"github.com/magabrotheeeer/signal-club/internal/groups"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/health"
	"github.com/magabrotheeeer/signal-club/internal/lib/jwt"
	"github.com/magabrotheeeer/signal-club/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/messaging/telegram"
	"github.com/magabrotheeeer/signal-club/internal/metrics"
	"github.com/magabrotheeeer/signal-club/internal/migrations"
	authservice "github.com/magabrotheeeer/signal-club/internal/services/auth"
	notificationservice "github.com/magabrotheeeer/signal-club/internal/services/notification"
	settingsservice "github.com/magabrotheeeer/signal-club/internal/services/settings"
	subscriptionservice "github.com/magabrotheeeer/signal-club/internal/services/subscription"
	"github.com/magabrotheeeer/signal-club/internal/storage/repository"
)

// App HTTP-сервис клуба.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New применяет миграции, создаёт суперадминистратора и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = migrations.Run(db.DB); err != nil {
		closeAll(nil, nil, nil, db, logger)
		return nil, err
	}

	if cfg.Telegram.BotAPIKey == "" {
		logger.Warn("telegram.bot_api_key is empty, bot routes will reject every request")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, jwtMaker, logger)
	if err := authService.Bootstrap(ctx, cfg.Admin.UserID, cfg.Admin.PasswordHash); err != nil {
		closeAll(nil, nil, nil, db, logger)
		return nil, fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	// Без Redis флаг обслуживания читается из базы на каждый запрос.
	var settingsCache settingsservice.Cache
	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		logger.Warn("redis unavailable, settings cache disabled", sl.Err(err))
		cacheRedis = nil
	} else {
		settingsCache = cacheRedis
	}
	settingsService := settingsservice.NewSettingsService(db, settingsCache, logger)

	m := metrics.NewDefault()
	bot, err := telegram.New(telegram.Options{
		Token:       cfg.Telegram.Token,
		APIEndpoint: cfg.Telegram.APIEndpoint,
		RateLimit:   cfg.Telegram.RateLimit,
		RateBurst:   cfg.Telegram.RateBurst,
		Deliveries:  m.Deliveries,
	}, logger)
	if err != nil {
		closeAll(nil, nil, cacheRedis, db, logger)
		return nil, fmt.Errorf("failed to init telegram: %w", err)
	}

	subscriptionService := subscriptionservice.NewSubscriptionService(db, bot,
		groups.FromConfig(cfg.Groups), cfg.Telegram.InviteTTL, cfg.Admin.UserID, logger)

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		closeAll(nil, nil, cacheRedis, db, logger)
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	// Очереди объявляет диспетчер, здесь достаточно обменника.
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.CommandsExchange, nil)
	if err != nil {
		closeAll(nil, conn, cacheRedis, db, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	checks := map[string]health.Check{
		"postgres": func(ctx context.Context) error { return db.DB.PingContext(ctx) },
	}
	if cacheRedis != nil {
		checks["redis"] = func(ctx context.Context) error { return cacheRedis.Db.Ping(ctx).Err() }
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Subscriptions: subscriptionService,
		Auth:          authService,
		Settings:      settingsService,
		Notifications: notificationservice.NewManager(db, logger),
		Jobs:          commands.NewPublisher(ch, logger),
		Checker:       authz.NewChecker(db, cfg.Admin.UserID),
		BotKey:        cfg.Telegram.BotAPIKey,
		Limiter:       rate.NewLimiter(rate.Limit(cfg.HTTPServer.RateLimit), cfg.HTTPServer.RateBurst),
		Health:        checks,
		Metrics:       m.Handler(),
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run обслуживает запросы до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		closeAll(a.ch, a.conn, a.cache, a.db, a.logger)
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		closeAll(a.ch, a.conn, a.cache, a.db, a.logger)
		return err
	}
}

func closeAll(ch *amqp.Channel, conn *amqp.Connection, c *cache.Cache, db *repository.Storage, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if c != nil {
		if err := c.Close(); err != nil {
			logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
