package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bigkaa/cloudcatalog/catalog-module/internal/domain/model"
)

// ImageFilter — параметры выборки образов.
// Все поля — указатели или срезы, пустое значение = фильтр не применяется.
type ImageFilter struct {
	// Region — точное совпадение по столбцу region.
	Region *string
	// Environment — точное совпадение по столбцу environment (microsoft).
	Environment *string
	// Name — точное совпадение по имени образа.
	Name *string
	// States — членство в наборе состояний.
	States []model.ImageState
	// DeprecatedBefore — deprecatedon строго раньше указанной даты.
	DeprecatedBefore *time.Time
	// OrderByDeletedOnAsc — сортировать по deletedon ASC вместо
	// publishedon DESC (используется региональными deletedby-запросами).
	OrderByDeletedOnAsc bool
}

// ImageRepository — доступ к таблицам образов провайдеров.
type ImageRepository interface {
	// Select возвращает образы провайдера по фильтру,
	// отсортированные по publishedon DESC (или deletedon ASC).
	Select(ctx context.Context, p *model.Provider, filter ImageFilter) ([]model.Record, error)
	// DistinctRegions возвращает различные значения столбца region
	// таблицы образов в порядке выдачи БД.
	DistinctRegions(ctx context.Context, p *model.Provider) ([]string, error)
}

// imageRepo — реализация ImageRepository через pgx.
type imageRepo struct {
	db DBTX
}

// NewImageRepository создаёт репозиторий образов.
func NewImageRepository(db DBTX) ImageRepository {
	return &imageRepo{db: db}
}

// Select возвращает образы провайдера по фильтру.
func (r *imageRepo) Select(ctx context.Context, p *model.Provider, filter ImageFilter) ([]model.Record, error) {
	where, args := buildImageWhere(filter)

	orderBy := "ORDER BY publishedon DESC"
	if filter.OrderByDeletedOnAsc {
		orderBy = "ORDER BY deletedon ASC"
	}

	query := fmt.Sprintf("SELECT %s FROM %s %s %s",
		selectList(p.ImageColumns), p.ImagesTable, where, orderBy)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("выборка образов", err)
	}
	records, err := collectRecords(rows, p.ImageColumns)
	if err != nil {
		return nil, classify("сканирование образов", err)
	}
	return records, nil
}

// DistinctRegions возвращает различные регионы таблицы образов.
// Для провайдеров без столбца region возвращает пустой список.
func (r *imageRepo) DistinctRegions(ctx context.Context, p *model.Provider) ([]string, error) {
	if !p.ImagesHaveRegion {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT DISTINCT region FROM %s", p.ImagesTable)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, classify("выборка регионов образов", err)
	}
	defer rows.Close()

	var regions []string
	for rows.Next() {
		var region *string
		if err := rows.Scan(&region); err != nil {
			return nil, classify("сканирование регионов образов", err)
		}
		if region != nil {
			regions = append(regions, *region)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify("итерация регионов образов", err)
	}
	return regions, nil
}

// buildImageWhere строит WHERE-условие и аргументы выборки образов.
// Enum-столбцы и даты фильтруются с явным кастом, чтобы ошибки
// приведения типов диагностировались как ErrBadValue.
func buildImageWhere(filter ImageFilter) (whereClause string, args []any) {
	var conditions []string
	argNum := 1

	if filter.Region != nil {
		conditions = append(conditions, fmt.Sprintf("region = $%d", argNum))
		args = append(args, *filter.Region)
		argNum++
	}

	if filter.Environment != nil {
		conditions = append(conditions, fmt.Sprintf("environment = $%d", argNum))
		args = append(args, *filter.Environment)
		argNum++
	}

	if filter.Name != nil {
		conditions = append(conditions, fmt.Sprintf("name = $%d", argNum))
		args = append(args, *filter.Name)
		argNum++
	}

	if len(filter.States) > 0 {
		conditions = append(conditions,
			fmt.Sprintf("state = ANY($%d::image_state[])", argNum))
		states := make([]string, len(filter.States))
		for i, s := range filter.States {
			states[i] = string(s)
		}
		args = append(args, states)
		argNum++
	}

	if filter.DeprecatedBefore != nil {
		conditions = append(conditions, fmt.Sprintf("deprecatedon < $%d", argNum))
		args = append(args, *filter.DeprecatedBefore)
	}

	return joinConditions(conditions), args
}

// joinConditions собирает WHERE-строку из списка условий.
func joinConditions(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}
	return where
}
