// Пакет repository — слой доступа к данным PostgreSQL каталога.
// Сервис — строго read-only потребитель таблиц каталога, которые
// наполняет внешний загрузчик данных. Все запросы — чистый SQL через
// pgx, без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrDataIntegrity — нарушение целостности данных каталога
	// (например, несколько строк versions для одной таблицы).
	ErrDataIntegrity = errors.New("нарушение целостности данных каталога")
	// ErrBadValue — значение фильтра не приводится к типу столбца
	// (invalid_text_representation при касте enum или даты).
	ErrBadValue = errors.New("некорректное значение для типизированного столбца")
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx. Write-методов нет:
// каталог читается, но никогда не изменяется этим сервисом.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// classify оборачивает ошибку запроса, распознавая ошибки приведения
// типов PostgreSQL (22P02) как ErrBadValue.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation {
		return fmt.Errorf("%s: %w: %s", op, ErrBadValue, pgErr.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}
