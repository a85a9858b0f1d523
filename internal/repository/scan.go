package repository

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/cloudcatalog/catalog-module/internal/domain/model"
)

// selectList строит список выражений SELECT по описанию столбцов.
// INET-столбцы выбираются как text, чтобы сканироваться в строку.
func selectList(cols []model.ColumnSpec) string {
	exprs := make([]string, len(cols))
	for i, c := range cols {
		if c.Kind == model.KindInet {
			exprs[i] = c.Name + "::text"
		} else {
			exprs[i] = c.Name
		}
	}
	return strings.Join(exprs, ", ")
}

// scanRecord сканирует одну строку результата в Record
// согласно описанию столбцов. Все столбцы допускают NULL.
func scanRecord(rows pgx.Rows, cols []model.ColumnSpec) (model.Record, error) {
	texts := make([]*string, len(cols))
	dates := make([]*time.Time, len(cols))
	nums := make([]*float64, len(cols))

	dests := make([]any, len(cols))
	for i, c := range cols {
		switch c.Kind {
		case model.KindDate:
			dests[i] = &dates[i]
		case model.KindDecimal:
			dests[i] = &nums[i]
		default:
			// Текстовые столбцы и enum'ы сканируются как строки.
			dests[i] = &texts[i]
		}
	}

	if err := rows.Scan(dests...); err != nil {
		return model.Record{}, err
	}

	fields := make([]model.Field, len(cols))
	for i, c := range cols {
		f := model.Field{Name: c.Name, Kind: c.Kind}
		switch c.Kind {
		case model.KindDate:
			f.Value = dates[i]
		case model.KindDecimal:
			f.Value = nums[i]
		case model.KindState:
			if texts[i] != nil {
				f.Value = model.ImageState(*texts[i])
			} else {
				f.Value = model.ImageState("")
			}
		case model.KindServerType:
			if texts[i] != nil {
				f.Value = model.ServerType(*texts[i])
			} else {
				f.Value = model.ServerType("")
			}
		default:
			f.Value = texts[i]
		}
		fields[i] = f
	}
	return model.Record{Fields: fields}, nil
}

// collectRecords сканирует все строки результата в список Record.
func collectRecords(rows pgx.Rows, cols []model.ColumnSpec) ([]model.Record, error) {
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		rec, err := scanRecord(rows, cols)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
