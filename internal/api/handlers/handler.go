// handler.go — основной обработчик API Catalog Module.
// Объединяет health и каталожные обработчики и регистрирует маршруты.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/cloudcatalog/catalog-module/internal/config"
)

// APIHandler — основной обработчик API Catalog Module.
type APIHandler struct {
	catalog *CatalogHandler
	health  *HealthHandler
	logger  *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	catalog *CatalogHandler,
	health *HealthHandler,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		catalog: catalog,
		health:  health,
		logger:  logger.With(slog.String("component", "api_handler")),
	}
}

// Routes регистрирует все маршруты API на роутере.
// Конечные литеральные сегменты регистрируются в трёх вариантах
// (без расширения, .json, .xml); у параметрических сегментов
// расширение разбирается в обработчике.
func (h *APIHandler) Routes(router chi.Router) {
	router.Get("/", h.catalog.RootRedirect)
	router.Get("/package-version", h.catalog.GetPackageVersion)
	router.Get("/db-server-version", h.catalog.GetDBServerVersion)

	router.Get("/health/live", h.health.HealthLive)
	router.Get("/health/ready", h.health.HealthReady)
	router.Get("/metrics", h.health.GetMetrics)

	router.Route("/v1", func(r chi.Router) {
		getExt(r, "/providers", h.catalog.ListProviders)
		getExt(r, "/images/states", h.catalog.ListImageStates)
		getExt(r, "/{provider}/servers/types", h.catalog.ListServerTypes)
		getExt(r, "/{provider}/regions", h.catalog.ListRegions)
		getExt(r, "/{provider}/dataversion", h.catalog.GetDataVersion)

		r.Get("/{provider}/servers/{serverType}", h.catalog.ListServersByType)
		r.Get("/{provider}/{region}/servers/{serverType}", h.catalog.ListServersByRegionType)

		r.Get("/{provider}/images/{state}", h.catalog.ListImagesByState)
		r.Get("/{provider}/{region}/images/{state}", h.catalog.ListImagesByRegionState)

		r.Get("/{provider}/images/deletiondate/{image}", h.catalog.GetDeletionDate)
		r.Get("/{provider}/{region}/images/deletiondate/{image}", h.catalog.GetDeletionDateByRegion)

		r.Get("/{provider}/images/deletedby/{date}", h.catalog.ListImagesDeletedBy)
		r.Get("/{provider}/{region}/images/deletedby/{date}", h.catalog.ListImagesDeletedByRegion)

		r.Get("/{provider}/{category}", h.catalog.ListResourcesByCategory)
		r.Get("/{provider}/{region}/{category}", h.catalog.ListResourcesByRegionCategory)
	})

	// Незнакомые пути — 400 без тела, как в историческом API.
	router.NotFound(h.catalog.CatchAll)
}

// getExt регистрирует маршрут и его варианты с расширениями .json и .xml.
func getExt(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.Get(pattern, handler)
	r.Get(pattern+".json", handler)
	r.Get(pattern+".xml", handler)
}

// packageVersion возвращает версию пакета сервиса.
func packageVersion() string {
	return config.Version
}
