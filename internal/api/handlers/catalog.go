// catalog.go — HTTP-обработчики запросов каталога.
// Каждый обработчик разбирает параметры пути (включая расширение
// .json/.xml у конечного сегмента), вызывает фасад каталога и
// собирает ответ через Responder (формат, сжатие, бюджет размера).
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/cloudcatalog/catalog-module/internal/api/errors"
	"github.com/bigkaa/cloudcatalog/catalog-module/internal/service"
)

// publicCloudURL — адрес перенаправления с корневого пути.
const publicCloudURL = "https://www.suse.com/solutions/public-cloud/"

// CatalogHandler — обработчик запросов каталога.
type CatalogHandler struct {
	catalog   *service.Catalog
	responder *service.Responder
	logger    *slog.Logger
}

// NewCatalogHandler создаёт обработчик запросов каталога.
func NewCatalogHandler(catalog *service.Catalog, responder *service.Responder, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalog,
		responder: responder,
		logger:    logger.With(slog.String("component", "catalog_handler")),
	}
}

// requestFormat определяет формат ответа по расширению пути.
func requestFormat(r *http.Request) service.Format {
	if strings.HasSuffix(r.URL.Path, ".xml") {
		return service.FormatXML
	}
	return service.FormatJSON
}

// pathParam возвращает параметр пути с обрезанным расширением
// .json/.xml (расширение попадает в конечный параметр маршрута).
func pathParam(r *http.Request, name string) string {
	value := chi.URLParam(r, name)
	if v, ok := strings.CutSuffix(value, ".json"); ok {
		return v
	}
	if v, ok := strings.CutSuffix(value, ".xml"); ok {
		return v
	}
	return value
}

// providerParam возвращает имя провайдера в нижнем регистре.
// Регистр приводится один раз на границе API.
func providerParam(r *http.Request) string {
	return strings.ToLower(pathParam(r, "provider"))
}

// compressible сообщает, согласовал ли клиент поддерживаемое сжатие.
func compressible(r *http.Request) bool {
	return service.NegotiateCodec(r.Header.Get("Accept-Encoding")) != nil
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
func (h *CatalogHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "Ресурс не найден")
	case errors.Is(err, service.ErrInvalidRequest):
		apierrors.ValidationError(w, "Некорректный запрос")
	case errors.Is(err, service.ErrUpstreamQuery):
		// Некорректное значение в типизированном столбце — ошибка
		// входных данных, а не сервера.
		apierrors.ValidationError(w, "Некорректное значение параметра запроса")
	default:
		h.logger.Error("Ошибка обработки запроса каталога",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

// writePayload записывает собранный payload в ответ.
func writePayload(w http.ResponseWriter, p service.Payload) {
	w.Header().Set("Content-Type", p.ContentType)
	if p.Encoding != "" {
		w.Header().Set("Content-Encoding", p.Encoding)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(p.Body)
}

// respondCollection собирает и записывает ответ-коллекцию.
func (h *CatalogHandler) respondCollection(w http.ResponseWriter, r *http.Request, name, elementName string, items []*service.Formatted, budgeted bool) {
	payload, err := h.responder.Collection(name, elementName, items,
		requestFormat(r), r.Header.Get("Accept-Encoding"), budgeted)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writePayload(w, payload)
}

// respondScalar собирает и записывает скалярный ответ.
func (h *CatalogHandler) respondScalar(w http.ResponseWriter, r *http.Request, key, value string) {
	payload, err := h.responder.Scalar(key, value,
		requestFormat(r), r.Header.Get("Accept-Encoding"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writePayload(w, payload)
}

// --- Словари ---

// ListProviders обрабатывает GET /v1/providers[.json|.xml].
func (h *CatalogHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.catalog.Providers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondCollection(w, r, "providers", "provider", providers, false)
}

// ListImageStates обрабатывает GET /v1/images/states[.json|.xml].
func (h *CatalogHandler) ListImageStates(w http.ResponseWriter, r *http.Request) {
	h.respondCollection(w, r, "states", "state", h.catalog.ImageStates(), false)
}

// ListServerTypes обрабатывает GET /v1/{provider}/servers/types[.json|.xml].
func (h *CatalogHandler) ListServerTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.catalog.ServerTypes(r.Context(), providerParam(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondCollection(w, r, "types", "type", types, false)
}

// ListRegions обрабатывает GET /v1/{provider}/regions[.json|.xml].
func (h *CatalogHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.catalog.Regions(r.Context(), providerParam(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondCollection(w, r, "regions", "region", regions, false)
}

// --- Серверы ---

// ListServersByType обрабатывает GET /v1/{provider}/servers/{serverType}.
func (h *CatalogHandler) ListServersByType(w http.ResponseWriter, r *http.Request) {
	servers, err := h.catalog.ServersByProviderType(r.Context(),
		providerParam(r), pathParam(r, "serverType"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondCollection(w, r, "servers", "server", servers, false)
}

// ListServersByRegionType обрабатывает GET /v1/{provider}/{region}/servers/{serverType}.
func (h *CatalogHandler) ListServersByRegionType(w http.ResponseWriter, r *http.Request) {
	servers, err := h.catalog.ServersByProviderRegionType(r.Context(),
		providerParam(r), chi.URLParam(r, "region"), pathParam(r, "serverType"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondCollection(w, r, "servers", "server", servers, false)
}

// --- Образы ---

// ListImagesByState обрабатывает GET /v1/{provider}/images/{state}.
func (h *CatalogHandler) ListImagesByState(w http.ResponseWriter, r *http.Request) {
	images, err := h.catalog.ImagesByProviderState(r.Context(),
		providerParam(r), pathParam(r, "state"), compressible(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondCollection(w, r, "images", "image", images, true)
}

// ListImagesByRegionState обрабатывает GET /v1/{provider}/{region}/images/{state}.
func (h *CatalogHandler) ListImagesByRegionState(w http.ResponseWriter, r *http.Request) {
	images, err := h.catalog.ImagesByProviderRegionState(r.Context(),
		providerParam(r), chi.URLParam(r, "region"), pathParam(r, "state"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondCollection(w, r, "images", "image", images, false)
}

// GetDeletionDate обрабатывает GET /v1/{provider}/images/deletiondate/{image}.
func (h *CatalogHandler) GetDeletionDate(w http.ResponseWriter, r *http.Request) {
	date, err := h.catalog.DeletionDate(r.Context(),
		providerParam(r), pathParam(r, "image"), nil)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondScalar(w, r, "deletiondate", date)
}

// GetDeletionDateByRegion обрабатывает GET /v1/{provider}/{region}/images/deletiondate/{image}.
func (h *CatalogHandler) GetDeletionDateByRegion(w http.ResponseWriter, r *http.Request) {
	region := chi.URLParam(r, "region")
	date, err := h.catalog.DeletionDate(r.Context(),
		providerParam(r), pathParam(r, "image"), &region)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondScalar(w, r, "deletiondate", date)
}

// ListImagesDeletedBy обрабатывает GET /v1/{provider}/images/deletedby/{date}.
func (h *CatalogHandler) ListImagesDeletedBy(w http.ResponseWriter, r *http.Request) {
	images, err := h.catalog.ImagesToBeDeletedBy(r.Context(),
		providerParam(r), pathParam(r, "date"), nil)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondCollection(w, r, "images", "image", images, false)
}

// ListImagesDeletedByRegion обрабатывает GET /v1/{provider}/{region}/images/deletedby/{date}.
func (h *CatalogHandler) ListImagesDeletedByRegion(w http.ResponseWriter, r *http.Request) {
	region := chi.URLParam(r, "region")
	images, err := h.catalog.ImagesToBeDeletedBy(r.Context(),
		providerParam(r), pathParam(r, "date"), &region)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondCollection(w, r, "images", "image", images, false)
}

// --- Категории ---

// ListResourcesByCategory обрабатывает GET /v1/{provider}/{category}.
func (h *CatalogHandler) ListResourcesByCategory(w http.ResponseWriter, r *http.Request) {
	category := pathParam(r, "category")
	resources, err := h.catalog.ResourcesByProviderCategory(r.Context(),
		providerParam(r), category, compressible(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondCollection(w, r, category, strings.TrimSuffix(category, "s"), resources, true)
}

// ListResourcesByRegionCategory обрабатывает GET /v1/{provider}/{region}/{category}.
func (h *CatalogHandler) ListResourcesByRegionCategory(w http.ResponseWriter, r *http.Request) {
	category := pathParam(r, "category")
	resources, err := h.catalog.ResourcesByProviderRegionCategory(r.Context(),
		providerParam(r), chi.URLParam(r, "region"), category)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondCollection(w, r, category, strings.TrimSuffix(category, "s"), resources, false)
}

// --- Версии ---

// GetDataVersion обрабатывает GET /v1/{provider}/dataversion?category=.
func (h *CatalogHandler) GetDataVersion(w http.ResponseWriter, r *http.Request) {
	version, err := h.catalog.DataVersion(r.Context(),
		providerParam(r), r.URL.Query().Get("category"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondScalar(w, r, "version", version)
}

// GetPackageVersion обрабатывает GET /package-version.
func (h *CatalogHandler) GetPackageVersion(w http.ResponseWriter, r *http.Request) {
	h.respondScalar(w, r, "package version", packageVersion())
}

// GetDBServerVersion обрабатывает GET /db-server-version.
func (h *CatalogHandler) GetDBServerVersion(w http.ResponseWriter, r *http.Request) {
	version, err := h.catalog.DBServerVersion(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.respondScalar(w, r, "database server version", version)
}

// --- Служебные маршруты ---

// RootRedirect обрабатывает GET / — перенаправление на сайт каталога.
func (h *CatalogHandler) RootRedirect(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Location", publicCloudURL)
	w.WriteHeader(http.StatusMovedPermanently)
}

// CatchAll обрабатывает незнакомые пути: 400 без тела.
func (h *CatalogHandler) CatchAll(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusBadRequest)
}
