// Package dispatcher собирает фоновый процесс клуба: планировщик задач,
// обработчик команд оператора и HTTP-сервер метрик.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/signal-club/internal/cache"
	"github.com/magabrotheeeer/signal-club/internal/commands"
	"github.com/magabrotheeeer/signal-club/internal/config"
	"github.com/magabrotheeeer/signal-club/internal/groups"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/health"
	"github.com/magabrotheeeer/signal-club/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/messaging/telegram"
	"github.com/magabrotheeeer/signal-club/internal/metrics"
	"github.com/magabrotheeeer/signal-club/internal/scheduler"
	"github.com/magabrotheeeer/signal-club/internal/storage/repository"
)

// App процесс диспетчера.
type App struct {
	poller *scheduler.Poller
	server *http.Server
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
	cmd    *commands.Handler
	logger *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(ctx, db)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New подключает зависимости и регистрирует задачи планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Loc()
	if err != nil {
		return nil, err
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		closeStores(db, nil, logger)
		return nil, err
	}

	// Redis нужен только для кулдаунов и просмотренных новостей, без него работаем в памяти.
	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		logger.Warn("redis unavailable, falling back to in-memory state", sl.Err(err))
		cacheRedis = nil
	}

	m := metrics.NewDefault()

	bot, err := telegram.New(telegram.Options{
		Token:       cfg.Telegram.Token,
		APIEndpoint: cfg.Telegram.APIEndpoint,
		RateLimit:   cfg.Telegram.RateLimit,
		RateBurst:   cfg.Telegram.RateBurst,
		Deliveries:  m.Deliveries,
	}, logger)
	if err != nil {
		closeStores(db, cacheRedis, logger)
		return nil, fmt.Errorf("failed to init telegram: %w", err)
	}

	poller := scheduler.New(loc, m, logger)
	deps := jobDeps{
		cfg:     cfg,
		loc:     loc,
		db:      db,
		cache:   cacheRedis,
		bot:     bot,
		groups:  groups.FromConfig(cfg.Groups),
		metrics: m,
		logger:  logger,
	}
	if err := registerJobs(poller, deps); err != nil {
		closeStores(db, cacheRedis, logger)
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		closeStores(db, cacheRedis, logger)
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.CommandsExchange, rabbitmq.GetCommandQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		closeStores(db, cacheRedis, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	checks := map[string]health.Check{
		"postgres": func(ctx context.Context) error { return db.DB.PingContext(ctx) },
		"rabbitmq": func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		},
	}
	if cacheRedis != nil {
		checks["redis"] = func(ctx context.Context) error { return cacheRedis.Db.Ping(ctx).Err() }
	}

	router := chi.NewRouter()
	router.Handle("/metrics", m.Handler())
	router.Handle("/health", health.New(logger, checks))

	srv := &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &App{
		poller: poller,
		server: srv,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
		cmd:    commands.NewHandler(poller, logger),
		logger: logger,
	}, nil
}

// Run запускает планировщик, потребителя команд и сервер метрик до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.GetCommandQueues() {
		if err := rabbitmq.ConsumerMessage(ctx, a.ch, q.QueueName, a.logger, a.cmd.Handle); err != nil {
			a.shutdown()
			return fmt.Errorf("failed to start consumer: %w", err)
		}
	}

	a.poller.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("metrics server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down dispatcher")
		err := a.server.Shutdown(timeoutCtx)
		a.shutdown()
		return err
	}
}

func (a *App) shutdown() {
	a.poller.Stop()
	closeResources(a.ch, a.conn, a.logger)
	closeStores(a.db, a.cache, a.logger)
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
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
}

func closeStores(db *repository.Storage, c *cache.Cache, logger *slog.Logger) {
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
