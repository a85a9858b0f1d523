package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/cloudcatalog/catalog-module/internal/domain/model"
)

// aliasColumns — столбцы таблицы microsoftregionmap.
const aliasColumns = "environment, region, canonicalname"

// RegionMapRepository — доступ к таблице алиасов регионов.
// Таблица существует только для провайдера с неоднозначными именами
// регионов (microsoft); остальные провайдеры её не используют.
type RegionMapRepository interface {
	// LookupGroup находит строку алиаса по «дружественному» или
	// каноническому имени и возвращает все строки с тем же
	// каноническим именем. ErrNotFound, если имя неизвестно.
	LookupGroup(ctx context.Context, nameOrAlias string) ([]model.RegionAlias, error)
	// All возвращает все строки таблицы алиасов.
	All(ctx context.Context) ([]model.RegionAlias, error)
	// EnvironmentFor возвращает окружение для региона или алиаса.
	// Предполагается одно окружение на каноническую группу; при
	// нескольких берётся первая найденная строка.
	EnvironmentFor(ctx context.Context, nameOrAlias string) (string, error)
}

// regionMapRepo — реализация RegionMapRepository через pgx.
type regionMapRepo struct {
	db DBTX
}

// NewRegionMapRepository создаёт репозиторий алиасов регионов.
func NewRegionMapRepository(db DBTX) RegionMapRepository {
	return &regionMapRepo{db: db}
}

// lookup находит первую строку алиаса по региону или каноническому имени.
func (r *regionMapRepo) lookup(ctx context.Context, nameOrAlias string) (model.RegionAlias, error) {
	query := "SELECT " + aliasColumns + " FROM microsoftregionmap" +
		" WHERE region = $1 OR canonicalname = $1 LIMIT 1"

	var alias model.RegionAlias
	err := r.db.QueryRow(ctx, query, nameOrAlias).Scan(
		&alias.Environment, &alias.Region, &alias.CanonicalName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RegionAlias{}, ErrNotFound
		}
		return model.RegionAlias{}, classify("поиск алиаса региона", err)
	}
	return alias, nil
}

// LookupGroup возвращает все строки канонической группы региона.
func (r *regionMapRepo) LookupGroup(ctx context.Context, nameOrAlias string) ([]model.RegionAlias, error) {
	alias, err := r.lookup(ctx, nameOrAlias)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + aliasColumns + " FROM microsoftregionmap" +
		" WHERE canonicalname = $1"
	rows, err := r.db.Query(ctx, query, alias.CanonicalName)
	if err != nil {
		return nil, classify("выборка группы алиасов", err)
	}
	return collectAliases(rows)
}

// All возвращает все строки таблицы алиасов.
func (r *regionMapRepo) All(ctx context.Context) ([]model.RegionAlias, error) {
	rows, err := r.db.Query(ctx, "SELECT "+aliasColumns+" FROM microsoftregionmap")
	if err != nil {
		return nil, classify("выборка алиасов регионов", err)
	}
	return collectAliases(rows)
}

// EnvironmentFor возвращает окружение для региона или алиаса.
func (r *regionMapRepo) EnvironmentFor(ctx context.Context, nameOrAlias string) (string, error) {
	alias, err := r.lookup(ctx, nameOrAlias)
	if err != nil {
		return "", err
	}
	return alias.Environment, nil
}

// collectAliases сканирует строки результата в список RegionAlias.
func collectAliases(rows pgx.Rows) ([]model.RegionAlias, error) {
	defer rows.Close()

	var aliases []model.RegionAlias
	for rows.Next() {
		var alias model.RegionAlias
		if err := rows.Scan(&alias.Environment, &alias.Region, &alias.CanonicalName); err != nil {
			return nil, classify("сканирование алиасов", err)
		}
		aliases = append(aliases, alias)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("итерация алиасов", err)
	}
	return aliases, nil
}
