package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/cloudcatalog/catalog-module/internal/domain/model"
)

// ServerFilter — параметры выборки серверов.
type ServerFilter struct {
	// Region — точное совпадение по региону.
	Region *string
	// Regions — членство в наборе регионов (раскрытая группа алиасов).
	Regions []string
	// Type — канонический тип сервера.
	Type *model.ServerType
}

// ServerRepository — доступ к таблицам серверов провайдеров.
// Вызывается только для провайдеров с ненулевым ServersTable.
type ServerRepository interface {
	// Select возвращает серверы провайдера по фильтру.
	Select(ctx context.Context, p *model.Provider, filter ServerFilter) ([]model.Record, error)
	// DistinctTypes возвращает различные типы серверов провайдера.
	DistinctTypes(ctx context.Context, p *model.Provider) ([]model.ServerType, error)
	// DistinctRegions возвращает различные регионы серверов
	// в порядке выдачи БД.
	DistinctRegions(ctx context.Context, p *model.Provider) ([]string, error)
}

// serverRepo — реализация ServerRepository через pgx.
type serverRepo struct {
	db DBTX
}

// NewServerRepository создаёт репозиторий серверов.
func NewServerRepository(db DBTX) ServerRepository {
	return &serverRepo{db: db}
}

// Select возвращает серверы провайдера по фильтру.
func (r *serverRepo) Select(ctx context.Context, p *model.Provider, filter ServerFilter) ([]model.Record, error) {
	where, args := buildServerWhere(filter)

	query := fmt.Sprintf("SELECT %s FROM %s %s",
		selectList(p.ServerColumns), p.ServersTable, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("выборка серверов", err)
	}
	records, err := collectRecords(rows, p.ServerColumns)
	if err != nil {
		return nil, classify("сканирование серверов", err)
	}
	return records, nil
}

// DistinctTypes возвращает различные типы серверов провайдера.
func (r *serverRepo) DistinctTypes(ctx context.Context, p *model.Provider) ([]model.ServerType, error) {
	query := fmt.Sprintf("SELECT DISTINCT type FROM %s", p.ServersTable)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, classify("выборка типов серверов", err)
	}
	defer rows.Close()

	var types []model.ServerType
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, classify("сканирование типов серверов", err)
		}
		types = append(types, model.ServerType(t))
	}
	if err := rows.Err(); err != nil {
		return nil, classify("итерация типов серверов", err)
	}
	return types, nil
}

// DistinctRegions возвращает различные регионы серверов провайдера.
func (r *serverRepo) DistinctRegions(ctx context.Context, p *model.Provider) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT region FROM %s", p.ServersTable)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, classify("выборка регионов серверов", err)
	}
	defer rows.Close()

	var regions []string
	for rows.Next() {
		var region string
		if err := rows.Scan(&region); err != nil {
			return nil, classify("сканирование регионов серверов", err)
		}
		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("итерация регионов серверов", err)
	}
	return regions, nil
}

// buildServerWhere строит WHERE-условие и аргументы выборки серверов.
func buildServerWhere(filter ServerFilter) (whereClause string, args []any) {
	var conditions []string
	argNum := 1

	if filter.Region != nil {
		conditions = append(conditions, fmt.Sprintf("region = $%d", argNum))
		args = append(args, *filter.Region)
		argNum++
	}

	if len(filter.Regions) > 0 {
		conditions = append(conditions, fmt.Sprintf("region = ANY($%d)", argNum))
		args = append(args, filter.Regions)
		argNum++
	}

	if filter.Type != nil {
		conditions = append(conditions,
			fmt.Sprintf("type = $%d::server_type", argNum))
		args = append(args, string(*filter.Type))
	}

	return joinConditions(conditions), args
}
