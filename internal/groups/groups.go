// Package groups хранит снимок конфигурации управляемых групп и
// разрешает спецификации адресатов рассылок в идентификаторы чатов.
package groups

import (
	"strings"

	"github.com/magabrotheeeer/signal-club/internal/config"
	"github.com/magabrotheeeer/signal-club/internal/models"
)

// FreeKey ключ бесплатной группы в спецификации адресатов.
const FreeKey = "free"

// AllKey спецификация, означающая все настроенные группы.
const AllKey = "all"

// Categories порядок категорий активов. Он же порядок обхода групп.
var Categories = []string{models.AssetCrypto, models.AssetStocks, models.AssetForex, models.AssetGold}

// Config снимок категория -> ID группы и необязательная бесплатная группа.
// Строится один раз при старте процесса.
type Config struct {
	byCategory map[string]int64
	free       int64
}

// New строит снимок из явного набора групп. Нулевые ID пропускаются.
func New(byCategory map[string]int64, free int64) Config {
	m := make(map[string]int64, len(byCategory))
	for k, v := range byCategory {
		if v != 0 {
			m[strings.ToLower(k)] = v
		}
	}
	return Config{byCategory: m, free: free}
}

// FromConfig строит снимок из конфигурации приложения.
func FromConfig(g config.Groups) Config {
	return New(map[string]int64{
		models.AssetCrypto: g.Crypto,
		models.AssetStocks: g.Stocks,
		models.AssetForex:  g.Forex,
		models.AssetGold:   g.Gold,
	}, g.Free)
}

// Category возвращает группу категории.
func (c Config) Category(name string) (int64, bool) {
	id, ok := c.byCategory[strings.ToLower(name)]
	return id, ok
}

// Free возвращает бесплатную группу, если она настроена.
func (c Config) Free() (int64, bool) {
	return c.free, c.free != 0
}

// Managed возвращает платные группы в порядке Categories.
func (c Config) Managed() []int64 {
	result := make([]int64, 0, len(c.byCategory))
	for _, cat := range Categories {
		if id, ok := c.byCategory[cat]; ok {
			result = append(result, id)
		}
	}
	return result
}

// ForAssets возвращает категории и группы, доступ к которым даёт тариф.
func (c Config) ForAssets(assets string) map[string]int64 {
	result := make(map[string]int64)
	if strings.EqualFold(assets, models.AssetAll) {
		for cat, id := range c.byCategory {
			result[cat] = id
		}
		return result
	}
	if id, ok := c.Category(assets); ok {
		result[strings.ToLower(assets)] = id
	}
	return result
}

// Resolve превращает спецификацию адресатов в список уникальных ID.
// "all" даёт все платные группы и бесплатную, иначе ключи через запятую;
// неизвестные ключи отбрасываются, порядок первого вхождения сохраняется.
func (c Config) Resolve(spec string) []int64 {
	var keys []string
	if strings.EqualFold(strings.TrimSpace(spec), AllKey) {
		keys = append(keys, Categories...)
		keys = append(keys, FreeKey)
	} else {
		keys = strings.Split(spec, ",")
	}

	seen := make(map[int64]struct{}, len(keys))
	result := make([]int64, 0, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		var (
			id int64
			ok bool
		)
		if k == FreeKey {
			id, ok = c.Free()
		} else {
			id, ok = c.byCategory[k]
		}
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
