// Package services генерирует торговые сигналы по расписанию и рассылает их
// в группы категорий и, с ограничением, в бесплатную группу.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/market"
	"github.com/magabrotheeeer/signal-club/internal/messaging"
	"github.com/magabrotheeeer/signal-club/internal/models"
)

// Category категория активов и её символы.
type Category struct {
	Name    string
	Symbols []string
}

// DefaultUniverse символы, которые проверяются на каждом запуске, в порядке обхода.
func DefaultUniverse() []Category {
	return []Category{
		{Name: models.AssetCrypto, Symbols: []string{"BTC/USDT", "ETH/USDT", "SOL/USDT", "BNB/USDT"}},
		{Name: models.AssetStocks, Symbols: []string{"AAPL", "NVDA", "TSLA", "MSFT", "AMZN"}},
		{Name: models.AssetForex, Symbols: []string{"EURUSD=X", "GBPUSD=X", "JPY=X", "AUDUSD=X"}},
		{Name: models.AssetGold, Symbols: []string{"GC=F", "SI=F"}},
	}
}

// SnapshotProvider источник снимков индикаторов.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, symbol, timeframe string) (market.Snapshot, error)
}

// GroupLookup группы, куда уходят сигналы.
type GroupLookup interface {
	Category(name string) (int64, bool)
	Free() (int64, bool)
}

// Report итоги одного запуска.
type Report struct {
	Checked int
	Buys    int
	Premium int
	Free    int
}

// Service проверяет символы и рассылает сигналы.
type Service struct {
	provider  SnapshotProvider
	sender    messaging.Sender
	groups    GroupLookup
	universe  []Category
	timeframe string
	tracker   *CooldownTracker
	emitted   *prometheus.CounterVec
	log       *slog.Logger

	premiumCooldown time.Duration
	freeCooldown    time.Duration
}

// Options параметры сервиса.
type Options struct {
	Timeframe       string
	Universe        []Category
	PremiumCooldown time.Duration
	FreeCooldown    time.Duration
	// Store хранилище кулдаунов плановых запусков. nil означает память процесса.
	Store CooldownStore
	// Emitted счётчик отправленных сигналов с меткой tier, может быть nil.
	Emitted *prometheus.CounterVec
}

// NewService конструктор.
func NewService(provider SnapshotProvider, sender messaging.Sender, groups GroupLookup, opts Options, log *slog.Logger) *Service {
	if opts.Universe == nil {
		opts.Universe = DefaultUniverse()
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	log = log.With(slog.String("component", "signals"))
	return &Service{
		provider:        provider,
		sender:          sender,
		groups:          groups,
		universe:        opts.Universe,
		timeframe:       opts.Timeframe,
		tracker:         NewCooldownTracker(opts.Store, opts.PremiumCooldown, opts.FreeCooldown, log),
		emitted:         opts.Emitted,
		log:             log,
		premiumCooldown: opts.PremiumCooldown,
		freeCooldown:    opts.FreeCooldown,
	}
}

// Run плановый запуск с общим трекером кулдаунов.
func (s *Service) Run(ctx context.Context, now time.Time) Report {
	return s.run(ctx, s.tracker, now, true)
}

// RunForced внеплановый запуск по команде оператора. Использует чистый
// трекер, поэтому не сбивает окна плановых запусков, и не пишет в бесплатную группу.
func (s *Service) RunForced(ctx context.Context, now time.Time) Report {
	scratch := NewCooldownTracker(NewMemoryStore(), s.premiumCooldown, s.freeCooldown, s.log)
	return s.run(ctx, scratch, now, false)
}

func (s *Service) run(ctx context.Context, tracker *CooldownTracker, now time.Time, withFree bool) Report {
	var report Report
	freeGroup, hasFree := s.groups.Free()
	hasFree = hasFree && withFree

	for _, category := range s.universe {
		premiumGroup, hasPremium := s.groups.Category(category.Name)

		for _, symbol := range category.Symbols {
			if ctx.Err() != nil {
				return report
			}
			report.Checked++
			log := s.log.With(slog.String("symbol", symbol), slog.String("category", category.Name))

			snap, err := s.provider.Snapshot(ctx, symbol, s.timeframe)
			if err != nil {
				log.Warn("failed to fetch market snapshot", sl.Err(err))
				continue
			}
			if !snap.IsBuy() {
				continue
			}
			report.Buys++

			if !tracker.ShouldEmit(ctx, symbol, TierPremium, now) {
				log.Debug("premium cooldown active")
				continue
			}
			tracker.Record(ctx, symbol, TierPremium, now)
			log.Info("signal generated",
				slog.Float64("close", snap.Close), slog.Float64("rsi", snap.RSI14), slog.Float64("sma200", snap.SMA200))

			if hasPremium {
				msg := formatSignal(category.Name, s.timeframe, snap, false)
				if err := s.sender.SendMessage(ctx, premiumGroup, msg, messaging.FormatPlain); err != nil {
					// бесплатная группа не получает сигнал раньше платной
					log.Error("failed to send premium signal, free teaser skipped", sl.Chat(premiumGroup), sl.Err(err))
					continue
				}
				report.Premium++
				s.observe(TierPremium)
			}

			if hasFree && tracker.ShouldEmit(ctx, symbol, TierFree, now) {
				msg := formatSignal(category.Name, s.timeframe, snap, true)
				if err := s.sender.SendMessage(ctx, freeGroup, msg, messaging.FormatPlain); err != nil {
					log.Error("failed to send free signal", sl.Chat(freeGroup), sl.Err(err))
					continue
				}
				tracker.Record(ctx, symbol, TierFree, now)
				report.Free++
				s.observe(TierFree)
				log.Info("signal sent to free group")
			}
		}
	}
	return report
}

func (s *Service) observe(tier Tier) {
	if s.emitted != nil {
		s.emitted.WithLabelValues(tier.String()).Inc()
	}
}
