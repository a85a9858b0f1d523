// catalog.go — фасад запросов каталога.
// Оркестрирует резолвер регионов, маппер типов, калькулятор даты
// удаления, форматтер и бюджетировщик для каждой формы запроса.
// Валидация линейна: провайдер → регион → категория → состояние/тип;
// первая неуспешная проверка прерывает запрос.
package service

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/cloudcatalog/catalog-module/internal/domain/model"
	"github.com/bigkaa/cloudcatalog/catalog-module/internal/repository"
)

// Prometheus-метрики запросов каталога.
var (
	queryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cm_query_total",
		Help: "Общее количество запросов к каталогу по формам.",
	}, []string{"query"})
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cm_query_duration_seconds",
		Help:    "Длительность запросов к каталогу.",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})
)

// Категории ресурсов каталога.
const (
	CategoryImages  = "images"
	CategoryServers = "servers"
)

// dateTokenPattern — дата в формате YYYYMMDD с проверкой числа дней
// в месяце (февраль — до 29 без учёта високосности).
var dateTokenPattern = regexp.MustCompile(
	`^\d{4}(` +
		`(01|03|05|07|08|10|12)(0[1-9]|[1-2][0-9]|3[0-1])` +
		`|(04|06|09|11)(0[1-9]|[1-2][0-9]|30)` +
		`|02(0[1-9]|[1-2][0-9])` +
		`)$`)

// tableSuffixPattern — суффикс имени таблицы каталога,
// отбрасываемый при выводе имени провайдера.
var tableSuffixPattern = regexp.MustCompile(`(servers|images)`)

// listingStates — состояния, попадающие в полный список образов
// провайдера: удалённые образы в него не входят.
var listingStates = []model.ImageState{
	model.ImageStateActive,
	model.ImageStateInactive,
	model.ImageStateDeprecated,
}

// Catalog — фасад запросов каталога.
type Catalog struct {
	images   repository.ImageRepository
	servers  repository.ServerRepository
	versions repository.VersionRepository
	resolver *RegionResolver
	cache    *CatalogCache
	budgeter *Budgeter
	logger   *slog.Logger
}

// NewCatalog создаёт фасад каталога.
func NewCatalog(
	images repository.ImageRepository,
	servers repository.ServerRepository,
	versions repository.VersionRepository,
	resolver *RegionResolver,
	cache *CatalogCache,
	budgeter *Budgeter,
	logger *slog.Logger,
) *Catalog {
	return &Catalog{
		images:   images,
		servers:  servers,
		versions: versions,
		resolver: resolver,
		cache:    cache,
		budgeter: budgeter,
		logger:   logger.With(slog.String("component", "catalog")),
	}
}

// observe регистрирует запрос и возвращает функцию фиксации длительности.
func observe(query string) func() {
	start := time.Now()
	queryTotal.WithLabelValues(query).Inc()
	return func() {
		queryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
	}
}

// --- Провайдеры и словари ---

// SupportedProviders возвращает отсортированный список провайдеров,
// выведенный из имён таблиц в versions. Результат кэшируется.
func (c *Catalog) SupportedProviders(ctx context.Context) ([]string, error) {
	if providers, ok := c.cache.Providers(); ok {
		return providers, nil
	}

	names, err := c.versions.TableNames(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	set := make(map[string]struct{})
	for _, name := range names {
		set[tableSuffixPattern.ReplaceAllString(name, "")] = struct{}{}
	}
	providers := make([]string, 0, len(set))
	for p := range set {
		providers = append(providers, p)
	}
	sort.Strings(providers)

	c.cache.SetProviders(providers)
	return providers, nil
}

// Providers возвращает список провайдеров как записи {name}.
func (c *Catalog) Providers(ctx context.Context) ([]*Formatted, error) {
	defer observe("providers")()

	providers, err := c.SupportedProviders(ctx)
	if err != nil {
		return nil, err
	}
	return nameList(providers), nil
}

// ImageStates возвращает список состояний образов как записи {name}.
func (c *Catalog) ImageStates() []*Formatted {
	return nameList(model.AllImageStates())
}

// ServerTypes возвращает типы серверов провайдера как записи {name}.
// Для провайдеров без таблицы серверов — статический легаси-словарь.
func (c *Catalog) ServerTypes(ctx context.Context, provider string) ([]*Formatted, error) {
	defer observe("server_types")()

	p, err := c.provider(ctx, provider)
	if err != nil {
		return nil, err
	}

	if p.ServersTable == "" {
		return nameList(legacyServerTypes), nil
	}

	types, err := c.servers.DistinctTypes(ctx, p)
	if err != nil {
		return nil, mapRepoError(err)
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return nameList(names), nil
}

// Regions возвращает регионы провайдера как записи {name}.
func (c *Catalog) Regions(ctx context.Context, provider string) ([]*Formatted, error) {
	defer observe("regions")()

	p, err := c.provider(ctx, provider)
	if err != nil {
		return nil, err
	}
	regions, err := c.regionNames(ctx, p)
	if err != nil {
		return nil, err
	}
	return nameList(regions), nil
}

// --- Образы ---

// ImagesByProvider возвращает полный список образов провайдера
// (состояния active, inactive, deprecated), усечённый до бюджета,
// если сжатие не согласовано.
func (c *Catalog) ImagesByProvider(ctx context.Context, provider string, compressible bool) ([]*Formatted, error) {
	defer observe("images_by_provider")()

	p, err := c.provider(ctx, provider)
	if err != nil {
		return nil, err
	}

	records, err := c.images.Select(ctx, p, repository.ImageFilter{States: listingStates})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return c.trimUnlessCompressible(FormatRecords(records, nil, p.ImagesExclude), compressible)
}

// ImagesByProviderState возвращает образы провайдера в указанном
// состоянии, усечённые до бюджета, если сжатие не согласовано.
func (c *Catalog) ImagesByProviderState(ctx context.Context, provider, state string, compressible bool) ([]*Formatted, error) {
	defer observe("images_by_provider_state")()

	p, err := c.provider(ctx, provider)
	if err != nil {
		return nil, err
	}
	if !model.ValidImageState(state) {
		return nil, ErrNotFound
	}

	records, err := c.images.Select(ctx, p, repository.ImageFilter{
		States: []model.ImageState{model.ImageState(state)},
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return c.trimUnlessCompressible(FormatRecords(records, nil, p.ImagesExclude), compressible)
}

// ImagesByProviderRegion возвращает образы провайдера в регионе.
// Для провайдера с алиасами регион разрешается в окружение; для
// провайдеров без столбца region список пуст.
func (c *Catalog) ImagesByProviderRegion(ctx context.Context, provider, region string) ([]*Formatted, error) {
	defer observe("images_by_provider_region")()

	p, err := c.provider(ctx, provider)
	if err != nil {
		return nil, err
	}
	if err := c.validateRegion(ctx, p, region); err != nil {
		return nil, err
	}

	filter, extra, queryable, err := c.imageRegionScope(ctx, p, region)
	if err != nil {
		return nil, err
	}
	if !queryable {
		return []*Formatted{}, nil
	}

	records, err := c.images.Select(ctx, p, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return FormatRecords(records, extra, p.ImagesExclude), nil
}

// ImagesByProviderRegionState возвращает образы провайдера в регионе
// и состоянии. Для провайдеров без столбца region фильтр региона
// вырождается в фильтр только по состоянию (поведение старого сервиса).
func (c *Catalog) ImagesByProviderRegionState(ctx context.Context, provider, region, state string) ([]*Formatted, error) {
	defer observe("images_by_provider_region_state")()

	p, err := c.provider(ctx, provider)
	if err != nil {
		return nil, err
	}
	if err := c.validateRegion(ctx, p, region); err != nil {
		return nil, err
	}
	if !model.ValidImageState(state) {
		return nil, ErrNotFound
	}

	filter, extra, queryable, err := c.imageRegionScope(ctx, p, region)
	if err != nil {
		return nil, err
	}
	if !queryable {
		// Старый сервис в этой форме игнорировал регион для
		// провайдеров без столбца region.
		filter = repository.ImageFilter{}
	}
	filter.States = []model.ImageState{model.ImageState(state)}

	records, err := c.images.Select(ctx, p, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return FormatRecords(records, extra, p.ImagesExclude), nil
}

// DeletionDate возвращает дату удаления (фактическую или проецируемую)
// образа в формате YYYYMMDD. Пустая строка — образ найден, но не
// запланирован к удалению. ErrNotFound — образ не найден вовсе.
func (c *Catalog) DeletionDate(ctx context.Context, provider, image string, region *string) (string, error) {
	defer observe("deletion_date")()

	p, err := c.provider(ctx, provider)
	if err != nil {
		return "", err
	}

	filter := repository.ImageFilter{Name: &image}
	if region != nil {
		if err := c.validateRegion(ctx, p, *region); err != nil {
			return "", err
		}
		scoped, _, queryable, err := c.imageRegionScope(ctx, p, *region)
		if err != nil {
			return "", err
		}
		if queryable {
			scoped.Name = &image
			filter = scoped
		}
	}

	records, err := c.images.Select(ctx, p, filter)
	if err != nil {
		return "", mapRepoError(err)
	}
	if len(records) == 0 {
		// Ни одной строки — неизвестное имя образа. Отличается от
		// «найден, но не deprecated/deleted» (пустой результат).
		return "", ErrNotFound
	}

	return ComputeDeletionDate(records, DeletionDelta(p)), nil
}

// ImagesToBeDeletedBy возвращает deprecated-образы, которые будут
// удалены до указанной даты (включая провайдерскую политику
// удержания), опционально в пределах региона.
func (c *Catalog) ImagesToBeDeletedBy(ctx context.Context, provider, dateToken string, region *string) ([]*Formatted, error) {
	defer observe("images_deleted_by")()

	p, err := c.provider(ctx, provider)
	if err != nil {
		return nil, err
	}
	if region != nil {
		if err := c.validateRegion(ctx, p, *region); err != nil {
			return nil, err
		}
	}
	deletedBy, err := parseDateToken(dateToken)
	if err != nil {
		return nil, err
	}

	// Дате удаления соответствует дата деградации на дельту раньше.
	delta := DeletionDelta(p)
	deprecatedBy := ShiftDate(deletedBy, model.DateDelta{
		Years:  -delta.Years,
		Months: -delta.Months,
		Days:   -delta.Days,
	})

	filter := repository.ImageFilter{
		States:           []model.ImageState{model.ImageStateDeprecated},
		DeprecatedBefore: &deprecatedBy,
	}
	extra := map[string]string(nil)

	if region != nil {
		switch {
		case p.AliasedRegions:
			env, err := c.resolver.Environment(ctx, *region)
			if err != nil {
				return nil, err
			}
			filter.Environment = &env
			extra = map[string]string{"region": *region}
		case p.ImagesHaveRegion:
			filter.Region = region
			// Исторический порядок региональной выборки deletedby.
			filter.OrderByDeletedOnAsc = true
		}
	}

	records, err := c.images.Select(ctx, p, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return FormatRecords(records, extra, p.ImagesExclude), nil
}

// --- Серверы ---

// ServersByProvider возвращает все серверы провайдера.
func (c *Catalog) ServersByProvider(ctx context.Context, provider string) ([]*Formatted, error) {
	defer observe("servers_by_provider")()

	p, err := c.provider(ctx, provider)
	if err != nil {
		return nil, err
	}
	if p.ServersTable == "" {
		return []*Formatted{}, nil
	}

	records, err := c.servers.Select(ctx, p, repository.ServerFilter{})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return FormatRecords(records, nil, p.ServersExclude), nil
}

// ServersByProviderRegion возвращает серверы провайдера в регионе.
// Для провайдера с алиасами фильтр строится по всем именам
// канонической группы региона.
func (c *Catalog) ServersByProviderRegion(ctx context.Context, provider, region string) ([]*Formatted, error) {
	defer observe("servers_by_provider_region")()

	p, err := c.provider(ctx, provider)
	if err != nil {
		return nil, err
	}
	if err := c.validateRegion(ctx, p, region); err != nil {
		return nil, err
	}
	return c.selectServers(ctx, p, region, nil)
}

// ServersByProviderType возвращает серверы провайдера указанного типа.
// Тип принимается в легаси-словаре (smt, regionserver[-shape]).
func (c *Catalog) ServersByProviderType(ctx context.Context, provider, typeToken string) ([]*Formatted, error) {
	defer observe("servers_by_provider_type")()

	p, err := c.provider(ctx, provider)
	if err != nil {
		return nil, err
	}
	mapped, err := c.mappedServerType(ctx, p, typeToken)
	if err != nil {
		return nil, err
	}
	if p.ServersTable == "" {
		return []*Formatted{}, nil
	}

	records, err := c.servers.Select(ctx, p, repository.ServerFilter{Type: &mapped})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return FormatRecords(records, nil, p.ServersExclude), nil
}

// ServersByProviderRegionType возвращает серверы провайдера в регионе
// и с указанным типом.
func (c *Catalog) ServersByProviderRegionType(ctx context.Context, provider, region, typeToken string) ([]*Formatted, error) {
	defer observe("servers_by_provider_region_type")()

	p, err := c.provider(ctx, provider)
	if err != nil {
		return nil, err
	}
	if err := c.validateRegion(ctx, p, region); err != nil {
		return nil, err
	}
	mapped, err := c.mappedServerType(ctx, p, typeToken)
	if err != nil {
		return nil, err
	}
	return c.selectServers(ctx, p, region, &mapped)
}

// --- Категории и версии ---

// ResourcesByProviderCategory возвращает ресурсы категории
// (images или servers) для провайдера.
func (c *Catalog) ResourcesByProviderCategory(ctx context.Context, provider, category string, compressible bool) ([]*Formatted, error) {
	// Провайдер валидируется до категории: неизвестный провайдер —
	// 404, и только потом неизвестная категория — 400.
	if _, err := c.provider(ctx, provider); err != nil {
		return nil, err
	}
	if err := ValidateCategory(category); err != nil {
		return nil, err
	}
	if category == CategoryImages {
		return c.ImagesByProvider(ctx, provider, compressible)
	}
	return c.ServersByProvider(ctx, provider)
}

// ResourcesByProviderRegionCategory возвращает ресурсы категории
// для провайдера в регионе.
func (c *Catalog) ResourcesByProviderRegionCategory(ctx context.Context, provider, region, category string) ([]*Formatted, error) {
	p, err := c.provider(ctx, provider)
	if err != nil {
		return nil, err
	}
	if err := c.validateRegion(ctx, p, region); err != nil {
		return nil, err
	}
	if err := ValidateCategory(category); err != nil {
		return nil, err
	}
	if category == CategoryImages {
		return c.ImagesByProviderRegion(ctx, provider, region)
	}
	return c.ServersByProviderRegion(ctx, provider, region)
}

// DataVersion возвращает версию данных таблицы провайдера и категории.
func (c *Catalog) DataVersion(ctx context.Context, provider, category string) (string, error) {
	defer observe("data_version")()

	p, err := c.provider(ctx, provider)
	if err != nil {
		return "", err
	}
	if err := ValidateCategory(category); err != nil {
		return "", err
	}

	version, err := c.versions.VersionFor(ctx, p.Name+category)
	if err != nil {
		return "", mapRepoError(err)
	}
	return version, nil
}

// DBServerVersion возвращает строку версии сервера PostgreSQL.
func (c *Catalog) DBServerVersion(ctx context.Context) (string, error) {
	version, err := c.versions.ServerVersion(ctx)
	if err != nil {
		return "", mapRepoError(err)
	}
	return version, nil
}

// ValidateCategory проверяет имя категории ресурсов.
func ValidateCategory(category string) error {
	if category != CategoryImages && category != CategoryServers {
		return ErrInvalidRequest
	}
	return nil
}

// --- Вспомогательные методы ---

// provider валидирует имя провайдера и возвращает его дескриптор.
func (c *Catalog) provider(ctx context.Context, name string) (*model.Provider, error) {
	supported, err := c.SupportedProviders(ctx)
	if err != nil {
		return nil, err
	}
	if !contains(supported, name) {
		return nil, ErrNotFound
	}
	p, ok := model.ProviderByName(name)
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// regionNames возвращает список регионов провайдера. Для провайдера
// с алиасами — отсортированное множество обоих имён каждого региона;
// для остальных — регионы серверов, затем регионов образов, с
// дедупликацией в порядке появления. Результат кэшируется.
func (c *Catalog) regionNames(ctx context.Context, p *model.Provider) ([]string, error) {
	if regions, ok := c.cache.Regions(p.Name); ok {
		return regions, nil
	}

	var regions []string
	if p.AliasedRegions {
		var err error
		regions, err = c.resolver.AllAliasRegions(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		seen := make(map[string]struct{})
		if p.ServersTable != "" {
			serverRegions, err := c.servers.DistinctRegions(ctx, p)
			if err != nil {
				return nil, mapRepoError(err)
			}
			for _, r := range serverRegions {
				if _, ok := seen[r]; !ok {
					seen[r] = struct{}{}
					regions = append(regions, r)
				}
			}
		}
		imageRegions, err := c.images.DistinctRegions(ctx, p)
		if err != nil {
			return nil, mapRepoError(err)
		}
		for _, r := range imageRegions {
			if _, ok := seen[r]; !ok {
				seen[r] = struct{}{}
				regions = append(regions, r)
			}
		}
	}

	c.cache.SetRegions(p.Name, regions)
	return regions, nil
}

// validateRegion проверяет принадлежность региона провайдеру.
func (c *Catalog) validateRegion(ctx context.Context, p *model.Provider, region string) error {
	regions, err := c.regionNames(ctx, p)
	if err != nil {
		return err
	}
	if !contains(regions, region) {
		return ErrNotFound
	}
	return nil
}

// imageRegionScope строит фильтр образов по региону.
// Возвращает фильтр, дополнительные атрибуты ответа и признак
// применимости регионального фильтра (false для провайдеров без
// столбца region и без алиасов).
func (c *Catalog) imageRegionScope(ctx context.Context, p *model.Provider, region string) (repository.ImageFilter, map[string]string, bool, error) {
	switch {
	case p.AliasedRegions:
		env, err := c.resolver.Environment(ctx, region)
		if err != nil {
			return repository.ImageFilter{}, nil, false, err
		}
		// У microsoft нет нативного столбца region — подставляем
		// запрошенное имя региона в ответ.
		return repository.ImageFilter{Environment: &env},
			map[string]string{"region": region}, true, nil
	case p.ImagesHaveRegion:
		return repository.ImageFilter{Region: &region}, nil, true, nil
	default:
		return repository.ImageFilter{}, nil, false, nil
	}
}

// mappedServerType нормализует внешний токен типа сервера и, для
// провайдеров с таблицей серверов, проверяет наличие типа в данных.
func (c *Catalog) mappedServerType(ctx context.Context, p *model.Provider, token string) (model.ServerType, error) {
	mapped, err := NormalizeServerType(token)
	if err != nil {
		return "", err
	}
	if p.ServersTable == "" {
		return mapped, nil
	}

	types, err := c.servers.DistinctTypes(ctx, p)
	if err != nil {
		return "", mapRepoError(err)
	}
	for _, t := range types {
		if t == mapped {
			return mapped, nil
		}
	}
	return "", ErrNotFound
}

// selectServers выбирает серверы провайдера в регионе с опциональным
// фильтром типа, учитывая алиасы регионов.
func (c *Catalog) selectServers(ctx context.Context, p *model.Provider, region string, mapped *model.ServerType) ([]*Formatted, error) {
	if p.ServersTable == "" {
		return []*Formatted{}, nil
	}

	filter := repository.ServerFilter{Type: mapped}
	if p.AliasedRegions {
		group, err := c.resolver.CanonicalGroup(ctx, region)
		if err != nil {
			return nil, err
		}
		filter.Regions = group
	} else {
		filter.Region = &region
	}

	records, err := c.servers.Select(ctx, p, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return FormatRecords(records, nil, p.ServersExclude), nil
}

// trimUnlessCompressible усекает список образов до бюджета, если
// клиент не согласовал сжатие (иначе бюджет контролируется по
// сжатому размеру на этапе сборки ответа).
func (c *Catalog) trimUnlessCompressible(items []*Formatted, compressible bool) ([]*Formatted, error) {
	if compressible {
		return items, nil
	}
	return c.budgeter.TrimImages(CategoryImages, items)
}

// parseDateToken валидирует и разбирает дату формата YYYYMMDD.
func parseDateToken(token string) (time.Time, error) {
	if !dateTokenPattern.MatchString(token) {
		return time.Time{}, ErrNotFound
	}
	t, err := time.Parse(dateFormat, token)
	if err != nil {
		return time.Time{}, ErrNotFound
	}
	return t, nil
}

// nameList оборачивает список имён в записи вида {name: ...}.
func nameList(names []string) []*Formatted {
	out := make([]*Formatted, 0, len(names))
	for _, name := range names {
		item := NewFormatted()
		item.Set("name", name)
		out = append(out, item)
	}
	return out
}
