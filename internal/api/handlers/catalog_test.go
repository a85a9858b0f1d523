package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/cloudcatalog/catalog-module/internal/domain/model"
	"github.com/bigkaa/cloudcatalog/catalog-module/internal/repository"
	"github.com/bigkaa/cloudcatalog/catalog-module/internal/service"
)

// --- Mock repositories ---

type mockImageRepo struct {
	selectFn          func(ctx context.Context, p *model.Provider, filter repository.ImageFilter) ([]model.Record, error)
	distinctRegionsFn func(ctx context.Context, p *model.Provider) ([]string, error)
}

func (m *mockImageRepo) Select(ctx context.Context, p *model.Provider, filter repository.ImageFilter) ([]model.Record, error) {
	if m.selectFn != nil {
		return m.selectFn(ctx, p, filter)
	}
	return nil, nil
}

func (m *mockImageRepo) DistinctRegions(ctx context.Context, p *model.Provider) ([]string, error) {
	if m.distinctRegionsFn != nil {
		return m.distinctRegionsFn(ctx, p)
	}
	return []string{"us-east-1"}, nil
}

type mockServerRepo struct {
	selectFn func(ctx context.Context, p *model.Provider, filter repository.ServerFilter) ([]model.Record, error)
}

func (m *mockServerRepo) Select(ctx context.Context, p *model.Provider, filter repository.ServerFilter) ([]model.Record, error) {
	if m.selectFn != nil {
		return m.selectFn(ctx, p, filter)
	}
	return nil, nil
}

func (m *mockServerRepo) DistinctTypes(_ context.Context, _ *model.Provider) ([]model.ServerType, error) {
	return []model.ServerType{model.ServerTypeRegion, model.ServerTypeUpdate}, nil
}

func (m *mockServerRepo) DistinctRegions(_ context.Context, _ *model.Provider) ([]string, error) {
	return []string{"us-east-1"}, nil
}

type mockVersionRepo struct {
	versionForFn func(ctx context.Context, tablename string) (string, error)
}

func (m *mockVersionRepo) TableNames(_ context.Context) ([]string, error) {
	return []string{"amazonimages", "amazonservers", "googleimages", "googleservers"}, nil
}

func (m *mockVersionRepo) VersionFor(ctx context.Context, tablename string) (string, error) {
	if m.versionForFn != nil {
		return m.versionForFn(ctx, tablename)
	}
	return "1.0", nil
}

func (m *mockVersionRepo) ServerVersion(_ context.Context) (string, error) {
	return "PostgreSQL 15.4", nil
}

type mockRegionMapRepo struct{}

func (m *mockRegionMapRepo) LookupGroup(_ context.Context, _ string) ([]model.RegionAlias, error) {
	return nil, repository.ErrNotFound
}

func (m *mockRegionMapRepo) All(_ context.Context) ([]model.RegionAlias, error) {
	return nil, nil
}

func (m *mockRegionMapRepo) EnvironmentFor(_ context.Context, _ string) (string, error) {
	return "", repository.ErrNotFound
}

// mockReadiness — заглушка проверки готовности PostgreSQL.
type mockReadiness struct {
	status  string
	message string
}

func (m *mockReadiness) CheckReady() (string, string) {
	return m.status, m.message
}

// newTestRouter собирает роутер API с мок-репозиториями.
func newTestRouter(images repository.ImageRepository, servers repository.ServerRepository, versions repository.VersionRepository) http.Handler {
	if images == nil {
		images = &mockImageRepo{}
	}
	if servers == nil {
		servers = &mockServerRepo{}
	}
	if versions == nil {
		versions = &mockVersionRepo{}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	budgeter := service.NewBudgeter(0)
	catalog := service.NewCatalog(images, servers, versions,
		service.NewRegionResolver(&mockRegionMapRepo{}),
		service.NewCatalogCache(8, time.Minute),
		budgeter, logger)

	api := NewAPIHandler(
		NewCatalogHandler(catalog, service.NewResponder(budgeter), logger),
		NewHealthHandler(&mockReadiness{status: "ok"}),
		logger,
	)
	router := chi.NewRouter()
	api.Routes(router)
	return router
}

// get выполняет GET-запрос к тестовому роутеру.
func get(t *testing.T, router http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// --- Тесты ---

// TestListProviders проверяет список провайдеров во всех трёх
// вариантах пути: без расширения, .json и .xml.
func TestListProviders(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	for _, path := range []string{"/v1/providers", "/v1/providers.json"} {
		rec := get(t, router, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: статус %d, ожидался 200", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("%s: Content-Type = %q", path, ct)
		}

		var body map[string][]map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: разбор ответа: %v", path, err)
		}
		providers := body["providers"]
		if len(providers) != 2 || providers[0]["name"] != "amazon" || providers[1]["name"] != "google" {
			t.Errorf("%s: providers = %v", path, providers)
		}
	}

	rec := get(t, router, "/v1/providers.xml", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("providers.xml: статус %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("providers.xml: Content-Type = %q", ct)
	}
	xmlBody := rec.Body.String()
	if !strings.Contains(xmlBody, `<provider name="amazon"/>`) {
		t.Errorf("providers.xml: тело %q", xmlBody)
	}
}

// TestListImagesByState проверяет выборку образов по состоянию и
// обрезку расширения у параметрического сегмента.
func TestListImagesByState(t *testing.T) {
	published := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	name := "img-1"
	images := &mockImageRepo{
		selectFn: func(_ context.Context, _ *model.Provider, filter repository.ImageFilter) ([]model.Record, error) {
			if len(filter.States) != 1 || filter.States[0] != model.ImageStateActive {
				t.Errorf("filter.States = %v, ожидалось [active]", filter.States)
			}
			return []model.Record{{Fields: []model.Field{
				{Name: "name", Kind: model.KindText, Value: &name},
				{Name: "state", Kind: model.KindState, Value: model.ImageStateActive},
				{Name: "publishedon", Kind: model.KindDate, Value: &published},
			}}}, nil
		},
	}
	router := newTestRouter(images, nil, nil)

	rec := get(t, router, "/v1/amazon/images/active.json", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d, тело %s", rec.Code, rec.Body.String())
	}

	var body map[string][]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("разбор ответа: %v", err)
	}
	list := body["images"]
	if len(list) != 1 || list[0]["name"] != "img-1" || list[0]["publishedon"] != "20220301" {
		t.Errorf("images = %v", list)
	}
}

// TestListImagesByState_Compressed проверяет сжатие ответа при
// согласованном Accept-Encoding.
func TestListImagesByState_Compressed(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := get(t, router, "/v1/amazon/images/active", map[string]string{
		"Accept-Encoding": "gzip",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d", rec.Code)
	}
	if enc := rec.Header().Get("Content-Encoding"); enc != "gzip" {
		t.Errorf("Content-Encoding = %q, ожидалось gzip", enc)
	}
}

// TestUnknownProvider проверяет 404 с конвертом ошибки.
func TestUnknownProvider(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := get(t, router, "/v1/atlantis/images/active", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("статус %d, ожидался 404", rec.Code)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("разбор конверта ошибки: %v", err)
	}
	if body.Error.Code != "NOT_FOUND" {
		t.Errorf("code = %q, ожидался NOT_FOUND", body.Error.Code)
	}
}

// TestUnknownCategory проверяет 400 для неизвестной категории
// известного провайдера.
func TestUnknownCategory(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := get(t, router, "/v1/amazon/disks", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("статус %d, ожидался 400", rec.Code)
	}
}

// TestProviderCaseInsensitive проверяет приведение имени провайдера
// к нижнему регистру на границе API.
func TestProviderCaseInsensitive(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := get(t, router, "/v1/Amazon/regions", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("статус %d, ожидался 200", rec.Code)
	}
}

// TestGetDeletionDate проверяет скалярный ответ deletiondate.
func TestGetDeletionDate(t *testing.T) {
	deprecated := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	name := "img-1"
	images := &mockImageRepo{
		selectFn: func(_ context.Context, _ *model.Provider, filter repository.ImageFilter) ([]model.Record, error) {
			if filter.Name == nil || *filter.Name != "img-1" {
				return nil, nil
			}
			return []model.Record{{Fields: []model.Field{
				{Name: "name", Kind: model.KindText, Value: &name},
				{Name: "state", Kind: model.KindState, Value: model.ImageStateDeprecated},
				{Name: "deprecatedon", Kind: model.KindDate, Value: &deprecated},
			}}}, nil
		},
	}
	router := newTestRouter(images, nil, nil)

	rec := get(t, router, "/v1/amazon/images/deletiondate/img-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d, тело %s", rec.Code, rec.Body.String())
	}
	// amazon: deprecatedon + 2 года.
	if got := rec.Body.String(); got != `{"deletiondate":"20240101"}` {
		t.Errorf("тело = %s", got)
	}

	rec = get(t, router, "/v1/amazon/images/deletiondate/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("неизвестный образ: статус %d, ожидался 404", rec.Code)
	}
}

// TestGetDataVersion проверяет скалярный ответ dataversion с
// параметром category.
func TestGetDataVersion(t *testing.T) {
	versions := &mockVersionRepo{
		versionForFn: func(_ context.Context, tablename string) (string, error) {
			if tablename != "amazonimages" {
				t.Errorf("tablename = %q, ожидалось amazonimages", tablename)
			}
			return "1.5", nil
		},
	}
	router := newTestRouter(nil, nil, versions)

	rec := get(t, router, "/v1/amazon/dataversion?category=images", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d, тело %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != `{"version":"1.5"}` {
		t.Errorf("тело = %s", got)
	}

	rec = get(t, router, "/v1/amazon/dataversion?category=disks", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("неизвестная категория: статус %d, ожидался 400", rec.Code)
	}
}

// TestGetDBServerVersion проверяет ответ версии сервера БД.
func TestGetDBServerVersion(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := get(t, router, "/db-server-version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"database server version":"PostgreSQL 15.4"}` {
		t.Errorf("тело = %s", got)
	}
}

// TestGetPackageVersion проверяет ответ версии пакета.
func TestGetPackageVersion(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := get(t, router, "/package-version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"package version"`) {
		t.Errorf("тело = %s", rec.Body.String())
	}
}

// TestRootRedirect проверяет перенаправление с корневого пути.
func TestRootRedirect(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := get(t, router, "/", nil)
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("статус %d, ожидался 301", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != publicCloudURL {
		t.Errorf("Location = %q", loc)
	}
}

// TestCatchAll проверяет 400 без тела для незнакомого пути.
func TestCatchAll(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := get(t, router, "/totally/unknown/path", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("статус %d, ожидался 400", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("тело должно быть пустым: %q", rec.Body.String())
	}
}

// TestHealthReady проверяет readiness probe.
func TestHealthReady(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := get(t, router, "/health/ready", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d", rec.Code)
	}

	var body struct {
		Status string `json:"status"`
		Checks struct {
			PostgreSQL struct {
				Status string `json:"status"`
			} `json:"postgresql"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("разбор ответа: %v", err)
	}
	if body.Status != "ok" || body.Checks.PostgreSQL.Status != "ok" {
		t.Errorf("status = %q, postgresql = %q", body.Status, body.Checks.PostgreSQL.Status)
	}
}
