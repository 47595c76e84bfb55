// Package services хранит системные настройки клуба. Сейчас это флаг режима
// обслуживания, который читается через кеш и сбрасывается при переключении.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
)

// MaintenanceKey ключ настройки режима обслуживания.
const MaintenanceKey = "maintenance_mode"

const (
	cacheKey = "settings:" + MaintenanceKey
	cacheTTL = 5 * time.Minute
)

// Repository хранилище настроек.
type Repository interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// SettingsService читает и переключает режим обслуживания.
type SettingsService struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// NewSettingsService создаёт сервис. cache может быть nil, тогда чтение идёт в базу.
func NewSettingsService(repo Repository, cache Cache, log *slog.Logger) *SettingsService {
	return &SettingsService{
		repo:  repo,
		cache: cache,
		log:   log.With(slog.String("component", "settings")),
	}
}

// MaintenanceEnabled сообщает, включён ли режим обслуживания.
// Ошибки кеша не мешают чтению из базы.
func (s *SettingsService) MaintenanceEnabled(ctx context.Context) (bool, error) {
	const op = "services.SettingsService.MaintenanceEnabled"

	if s.cache != nil {
		var enabled bool
		found, err := s.cache.Get(ctx, cacheKey, &enabled)
		if err != nil {
			s.log.Warn("cache read failed", sl.Err(err))
		} else if found {
			return enabled, nil
		}
	}

	value, _, err := s.repo.GetSetting(ctx, MaintenanceKey)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	enabled := value == "1"

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, enabled, cacheTTL); err != nil {
			s.log.Warn("cache write failed", sl.Err(err))
		}
	}
	return enabled, nil
}

// SetMaintenance сохраняет флаг и сбрасывает кеш.
func (s *SettingsService) SetMaintenance(ctx context.Context, enabled bool) error {
	const op = "services.SettingsService.SetMaintenance"

	value := "0"
	if enabled {
		value = "1"
	}
	if err := s.repo.SetSetting(ctx, MaintenanceKey, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, cacheKey); err != nil {
			s.log.Warn("cache invalidate failed", sl.Err(err))
		}
	}
	s.log.Info("maintenance mode changed", slog.Bool("enabled", enabled))
	return nil
}

// ToggleMaintenance переключает режим и возвращает новое значение.
func (s *SettingsService) ToggleMaintenance(ctx context.Context) (bool, error) {
	const op = "services.SettingsService.ToggleMaintenance"

	value, _, err := s.repo.GetSetting(ctx, MaintenanceKey)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	enabled := value != "1"
	if err := s.SetMaintenance(ctx, enabled); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return enabled, nil
}
