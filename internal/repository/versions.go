package repository

import (
	"context"
	"fmt"
)

// VersionRepository — доступ к таблице versions и служебным
// запросам о версии сервера БД.
// Строки versions (tablename, version) ведёт загрузчик данных;
// из их имён таблиц выводится список поддерживаемых провайдеров.
type VersionRepository interface {
	// TableNames возвращает все значения tablename таблицы versions.
	TableNames(ctx context.Context) ([]string, error)
	// VersionFor возвращает версию данных таблицы в строковом виде.
	// ErrNotFound, если строки нет; ErrDataIntegrity, если строк
	// больше одной — это неустранимое повреждение каталога.
	VersionFor(ctx context.Context, tablename string) (string, error)
	// ServerVersion возвращает строку версии сервера PostgreSQL.
	ServerVersion(ctx context.Context) (string, error)
}

// versionRepo — реализация VersionRepository через pgx.
type versionRepo struct {
	db DBTX
}

// NewVersionRepository создаёт репозиторий версий.
func NewVersionRepository(db DBTX) VersionRepository {
	return &versionRepo{db: db}
}

// TableNames возвращает все имена таблиц из versions.
func (r *versionRepo) TableNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, "SELECT tablename FROM versions")
	if err != nil {
		return nil, classify("выборка имён таблиц", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, classify("сканирование имён таблиц", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("итерация имён таблиц", err)
	}
	return names, nil
}

// VersionFor возвращает версию данных таблицы.
// Numeric выбирается как text, чтобы не терять точность представления.
func (r *versionRepo) VersionFor(ctx context.Context, tablename string) (string, error) {
	rows, err := r.db.Query(ctx,
		"SELECT version::text FROM versions WHERE tablename = $1", tablename)
	if err != nil {
		return "", classify("выборка версии данных", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return "", classify("сканирование версии данных", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return "", classify("итерация версий данных", err)
	}

	switch len(versions) {
	case 0:
		return "", ErrNotFound
	case 1:
		return versions[0], nil
	default:
		// Ровно одна строка на таблицу — инвариант каталога.
		return "", fmt.Errorf("versions: %d строк для %q: %w",
			len(versions), tablename, ErrDataIntegrity)
	}
}

// ServerVersion возвращает версию сервера PostgreSQL.
func (r *versionRepo) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := r.db.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", classify("запрос версии сервера БД", err)
	}
	return version, nil
}
