package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/signal-club/internal/cache"
	"github.com/magabrotheeeer/signal-club/internal/commands"
	"github.com/magabrotheeeer/signal-club/internal/config"
	"github.com/magabrotheeeer/signal-club/internal/groups"
	"github.com/magabrotheeeer/signal-club/internal/market"
	"github.com/magabrotheeeer/signal-club/internal/messaging/telegram"
	"github.com/magabrotheeeer/signal-club/internal/metrics"
	"github.com/magabrotheeeer/signal-club/internal/scheduler"
	lifecycle "github.com/magabrotheeeer/signal-club/internal/services/lifecycle"
	news "github.com/magabrotheeeer/signal-club/internal/services/news"
	notification "github.com/magabrotheeeer/signal-club/internal/services/notification"
	signals "github.com/magabrotheeeer/signal-club/internal/services/signals"
	"github.com/magabrotheeeer/signal-club/internal/storage/repository"
)

// Имена плановых задач.
const (
	JobExpiration    = "expiration"
	JobReminder      = "reminder"
	JobNotifications = "notifications"
)

type jobDeps struct {
	cfg     *config.Config
	loc     *time.Location
	db      *repository.Storage
	cache   *cache.Cache
	bot     *telegram.Client
	groups  groups.Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func registerJobs(p *scheduler.Poller, d jobDeps) error {
	jobs := []scheduler.Job{
		expirationJob(d),
		reminderJob(d),
		notificationsJob(d),
		signalsJob(d),
		newsJob(d),
	}
	for _, job := range jobs {
		if err := p.Register(job); err != nil {
			return fmt.Errorf("job %s: %w", job.Name, err)
		}
	}
	return nil
}

func expirationJob(d jobDeps) scheduler.Job {
	enforcer := lifecycle.NewExpirationEnforcer(d.db, d.bot, d.groups.Managed(), d.logger)
	return scheduler.Job{
		Name:     JobExpiration,
		Interval: d.cfg.Jobs.ExpirationInterval,
		FirstRun: d.cfg.Jobs.ExpirationFirstRun,
		Run: func(ctx context.Context, now time.Time) error {
			_, err := enforcer.Enforce(ctx, now)
			return err
		},
	}
}

func reminderJob(d jobDeps) scheduler.Job {
	dispatcher := lifecycle.NewReminderDispatcher(d.db, d.bot, d.loc, d.logger)
	leadDays := d.cfg.Jobs.ReminderLeadDays
	return scheduler.Job{
		Name: JobReminder,
		At:   d.cfg.Jobs.ReminderAt,
		Run: func(ctx context.Context, now time.Time) error {
			_, err := dispatcher.Remind(ctx, now, leadDays)
			return err
		},
	}
}

func notificationsJob(d jobDeps) scheduler.Job {
	engine := notification.NewEngine(d.db, d.bot, d.groups, d.loc, d.logger)
	return scheduler.Job{
		Name:     JobNotifications,
		Interval: d.cfg.Jobs.NotificationInterval,
		FirstRun: d.cfg.Jobs.NotificationFirstRun,
		Run: func(ctx context.Context, now time.Time) error {
			_, err := engine.Tick(ctx, now)
			return err
		},
	}
}

func signalsJob(d jobDeps) scheduler.Job {
	sc := d.cfg.Signals
	provider := market.NewProvider(market.Router{
		Crypto: market.NewBinance(sc.BinanceURL, sc.HTTPTimeout, nil),
		Other:  market.NewYahoo(sc.YahooURL, sc.HTTPTimeout, nil),
	})

	var store signals.CooldownStore
	if sc.PersistCooldowns && d.cache != nil {
		store = cache.NewCooldownStore(d.cache)
	}

	svc := signals.NewService(provider, d.bot, d.groups, signals.Options{
		Timeframe:       sc.Timeframe,
		PremiumCooldown: sc.PremiumCooldown,
		FreeCooldown:    sc.FreeCooldown,
		Store:           store,
		Emitted:         d.metrics.SignalsEmitted,
	}, d.logger)

	report := func(trigger string, r signals.Report) {
		d.logger.Info("signals run finished", slog.String("trigger", trigger),
			slog.Int("checked", r.Checked), slog.Int("buys", r.Buys),
			slog.Int("premium", r.Premium), slog.Int("free", r.Free))
	}
	return scheduler.Job{
		Name:     commands.JobSignals,
		Interval: d.cfg.Jobs.SignalInterval,
		FirstRun: d.cfg.Jobs.SignalFirstRun,
		Run: func(ctx context.Context, now time.Time) error {
			report("schedule", svc.Run(ctx, now))
			return nil
		},
		Forced: func(ctx context.Context, now time.Time) error {
			report("command", svc.RunForced(ctx, now))
			return nil
		},
	}
}

func newsJob(d jobDeps) scheduler.Job {
	nc := d.cfg.News
	var seen news.SeenStore = news.NewMemorySeen()
	if d.cache != nil {
		seen = cache.NewSeenSet(d.cache, nc.SeenTTL)
	}
	svc := news.NewService(news.NewHTTPFetcher(nc.HTTPTimeout), seen, d.bot, d.groups, nc.Feeds, nc.PerFeed, d.logger)

	run := func(ctx context.Context, _ time.Time) error {
		sent := svc.Run(ctx)
		d.logger.Info("news run finished", slog.Int("sent", sent))
		return nil
	}
	return scheduler.Job{
		Name:     commands.JobNews,
		Interval: d.cfg.Jobs.NewsInterval,
		FirstRun: d.cfg.Jobs.NewsFirstRun,
		Run:      run,
	}
}
