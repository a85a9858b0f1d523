// cache.go — процессный кэш производных списков каталога.
// Список провайдеров и списки регионов выводятся из практически
// статичных метаданных каталога, поэтому лениво вычисляются один раз
// и безопасно отдаются устаревшими в пределах TTL. Обёртка над
// hashicorp/golang-lru/v2/expirable; инвалидация — явная (Invalidate).
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_cache_hits_total",
		Help: "Общее количество попаданий в кэш списков каталога.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_cache_misses_total",
		Help: "Общее количество промахов кэша списков каталога.",
	})
)

// providersKey — ключ единственной записи списка провайдеров.
const providersKey = "providers"

// CatalogCache — кэш списка провайдеров и списков регионов.
// Каждый экземпляр сервиса держит собственный in-memory кэш.
type CatalogCache struct {
	providers *expirable.LRU[string, []string]
	regions   *expirable.LRU[string, []string]
}

// NewCatalogCache создаёт кэш с указанным размером и TTL.
// maxSize ограничивает количество списков регионов (по одному на
// провайдера); список провайдеров хранится отдельно.
func NewCatalogCache(maxSize int, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		providers: expirable.NewLRU[string, []string](1, nil, ttl),
		regions:   expirable.NewLRU[string, []string](maxSize, nil, ttl),
	}
}

// Providers возвращает кэшированный список провайдеров.
func (c *CatalogCache) Providers() ([]string, bool) {
	val, ok := c.providers.Get(providersKey)
	observeCache(ok)
	return val, ok
}

// SetProviders сохраняет список провайдеров.
func (c *CatalogCache) SetProviders(providers []string) {
	c.providers.Add(providersKey, providers)
}

// Regions возвращает кэшированный список регионов провайдера.
func (c *CatalogCache) Regions(provider string) ([]string, bool) {
	val, ok := c.regions.Get(provider)
	observeCache(ok)
	return val, ok
}

// SetRegions сохраняет список регионов провайдера.
func (c *CatalogCache) SetRegions(provider string, regions []string) {
	c.regions.Add(provider, regions)
}

// Invalidate сбрасывает кэш целиком. Вызывается после обновления
// данных каталога внешним загрузчиком.
func (c *CatalogCache) Invalidate() {
	c.providers.Purge()
	c.regions.Purge()
}

// observeCache обновляет метрики hit/miss.
func observeCache(hit bool) {
	if hit {
		cacheHitsTotal.Inc()
	} else {
		cacheMissesTotal.Inc()
	}
}
