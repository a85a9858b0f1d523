// deletion.go — расчёт даты удаления образа.
// Образ в состоянии deleted имеет фактическую дату удаления; для
// deprecated дата проецируется из deprecatedon по политике удержания
// провайдера. Дубликаты записей (копии образа в разных регионах)
// схлопываются; при конфликте выбирается самая ранняя дата — клиент
// должен видеть самое раннее возможное обязательство по удалению.
package service

import (
	"time"

	"github.com/bigkaa/cloudcatalog/catalog-module/internal/domain/model"
)

// dateFormat — внешний формат дат каталога (YYYYMMDD).
const dateFormat = "20060102"

// defaultDeletionDelta — системная политика удержания по умолчанию.
var defaultDeletionDelta = model.DateDelta{Months: 6}

// DeletionDelta возвращает политику удержания провайдера или
// системную политику по умолчанию.
func DeletionDelta(p *model.Provider) model.DateDelta {
	if p.DeletionDelta != nil {
		return *p.DeletionDelta
	}
	return defaultDeletionDelta
}

// deletionDetails — сводимый к множеству ключ: состояние и даты
// жизненного цикла одной записи образа. Нулевое время означает
// отсутствие даты.
type deletionDetails struct {
	state        model.ImageState
	deprecatedOn time.Time
	deletedOn    time.Time
}

// ShiftDate сдвигает дату на заданную дельту. Годы и месяцы
// применяются с прижатием дня к концу целевого месяца
// (31 января + 1 месяц = 28/29 февраля), затем добавляются дни.
// Отрицательные значения дельты вычитают.
func ShiftDate(t time.Time, delta model.DateDelta) time.Time {
	months := int(t.Month()) - 1 + delta.Years*12 + delta.Months
	year := t.Year() + months/12
	month := months % 12
	if month < 0 {
		month += 12
		year--
	}

	day := t.Day()
	if last := daysInMonth(year, time.Month(month+1)); day > last {
		day = last
	}

	shifted := time.Date(year, time.Month(month+1), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	return shifted.AddDate(0, 0, delta.Days)
}

// daysInMonth возвращает число дней в месяце.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ComputeDeletionDate вычисляет дату удаления для набора записей
// одного логического образа. Пустая строка — образ не запланирован
// к удалению (ни одной записи в состоянии deprecated/deleted).
// Вызывающий отвечает за проверку «образ вообще найден» до вызова.
func ComputeDeletionDate(records []model.Record, delta model.DateDelta) string {
	// Схлопываем дубликаты по кортежу (state, deprecatedon, deletedon).
	details := make(map[deletionDetails]struct{})
	for i := range records {
		rec := &records[i]
		state := rec.State()
		if state != model.ImageStateDeprecated && state != model.ImageStateDeleted {
			continue
		}
		d := deletionDetails{state: state}
		if t := rec.Date("deprecatedon"); t != nil {
			d.deprecatedOn = *t
		}
		if t := rec.Date("deletedon"); t != nil {
			d.deletedOn = *t
		}
		details[d] = struct{}{}
	}

	if len(details) == 0 {
		return ""
	}

	rep := resolveConflicts(details)

	// Для уже удалённого образа — фактическая дата удаления.
	if rep.state == model.ImageStateDeleted {
		if rep.deletedOn.IsZero() {
			return ""
		}
		return rep.deletedOn.Format(dateFormat)
	}

	// Для deprecated — проекция по политике удержания.
	if rep.deprecatedOn.IsZero() {
		return ""
	}
	return ShiftDate(rep.deprecatedOn, delta).Format(dateFormat)
}

// resolveConflicts сводит несколько противоречащих кортежей к одному
// синтетическому: состояние deleted предпочтительнее deprecated,
// даты — самые ранние ненулевые по всем кортежам.
func resolveConflicts(details map[deletionDetails]struct{}) deletionDetails {
	var rep deletionDetails
	first := true
	for d := range details {
		if first {
			rep = d
			first = false
			continue
		}
		if d.state == model.ImageStateDeleted {
			rep.state = model.ImageStateDeleted
		}
		rep.deprecatedOn = earliest(rep.deprecatedOn, d.deprecatedOn)
		rep.deletedOn = earliest(rep.deletedOn, d.deletedOn)
	}
	return rep
}

// earliest возвращает более раннюю из двух дат, игнорируя нулевые.
func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	default:
		return a
	}
}
