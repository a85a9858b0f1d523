// Точка входа Catalog Module — read-only каталог облачных образов
// и серверов инфраструктуры.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// создаёт репозитории, сервисный слой и API handlers, запускает
// мониторинг зависимостей (topologymetrics) и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/cloudcatalog/catalog-module/internal/api/handlers"
	"github.com/bigkaa/cloudcatalog/catalog-module/internal/api/middleware"
	"github.com/bigkaa/cloudcatalog/catalog-module/internal/config"
	"github.com/bigkaa/cloudcatalog/catalog-module/internal/database"
	"github.com/bigkaa/cloudcatalog/catalog-module/internal/repository"
	"github.com/bigkaa/cloudcatalog/catalog-module/internal/server"
	"github.com/bigkaa/cloudcatalog/catalog-module/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Catalog Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("CM_DEPHEALTH_GROUP") == "" {
		logger.Warn("CM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repositories
	imageRepo := repository.NewImageRepository(pool)
	serverRepo := repository.NewServerRepository(pool)
	regionMapRepo := repository.NewRegionMapRepository(pool)
	versionRepo := repository.NewVersionRepository(pool)

	// 6. Сервисный слой
	resolver := service.NewRegionResolver(regionMapRepo)
	cache := service.NewCatalogCache(cfg.CacheMaxEntries, cfg.CacheTTL)
	budgeter := service.NewBudgeter(cfg.MaxPayloadSize)
	responder := service.NewResponder(budgeter)
	catalog := service.NewCatalog(
		imageRepo, serverRepo, versionRepo,
		resolver, cache, budgeter,
		logger,
	)

	// 7. Readiness checker и handlers
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker)
	catalogHandler := handlers.NewCatalogHandler(catalog, responder, logger)
	apiHandler := handlers.NewAPIHandler(catalogHandler, healthHandler, logger)

	// 8. topologymetrics — мониторинг зависимостей (PostgreSQL)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"catalog-module",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		cfg.DephealthIsEntry,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 9. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler,
		middleware.RequestID(),
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Catalog Module остановлен")
}
