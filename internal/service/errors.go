// Пакет service — бизнес-логика каталога облачных образов:
// нормализация результатов пяти провайдеров, разрешение алиасов
// регионов, расчёт даты удаления и бюджетирование размера ответа.
package service

import "errors"

// Ошибки сервисного слоя. Транспортный слой отображает их в
// HTTP-статусы; сервис не выполняет повторов — все запросы read-only.
var (
	// ErrNotFound — неизвестный провайдер, регион, состояние, тип
	// сервера или образ без единой подходящей строки.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrInvalidRequest — некорректная категория или строка даты.
	ErrInvalidRequest = errors.New("некорректный запрос")
	// ErrDataIntegrity — повреждение данных каталога, не подлежит
	// восстановлению на уровне запроса.
	ErrDataIntegrity = errors.New("нарушение целостности каталога")
	// ErrUpstreamQuery — значение не приводится к типу столбца
	// на стороне хранилища.
	ErrUpstreamQuery = errors.New("ошибка запроса к хранилищу")
)
