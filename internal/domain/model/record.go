package model

import "time"

// FieldKind — тип значения поля записи каталога.
type FieldKind int

// Виды полей. Определяют и способ сканирования из PostgreSQL,
// и способ форматирования в ответе.
const (
	// KindText — строковое поле, NULL отображается в пустую строку.
	KindText FieldKind = iota
	// KindInet — INET-столбец, выбирается как text.
	KindInet
	// KindDate — поле даты, форматируется как YYYYMMDD.
	KindDate
	// KindState — enum image_state.
	KindState
	// KindServerType — enum server_type, во внешнем представлении
	// отображается в легаси-словарь.
	KindServerType
	// KindDecimal — числовое поле, форматируется как float.
	KindDecimal
)

// ColumnSpec — описание столбца таблицы провайдера: имя и вид значения.
type ColumnSpec struct {
	Name string
	Kind FieldKind
}

// Field — одно поле записи: имя, вид и значение.
// Значение в зависимости от вида: *string (KindText, KindInet),
// *time.Time (KindDate), ImageState, ServerType, *float64 (KindDecimal).
type Field struct {
	Name  string
	Kind  FieldKind
	Value any
}

// Record — упорядоченное представление одной строки таблицы
// образов или серверов. Создаётся на время запроса и неизменяем.
type Record struct {
	Fields []Field
}

// Field возвращает поле по имени.
func (r *Record) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Text возвращает строковое значение поля или пустую строку,
// если поле отсутствует или NULL.
func (r *Record) Text(name string) string {
	f, ok := r.Field(name)
	if !ok {
		return ""
	}
	if s, ok := f.Value.(*string); ok && s != nil {
		return *s
	}
	return ""
}

// Date возвращает значение поля даты или nil.
func (r *Record) Date(name string) *time.Time {
	f, ok := r.Field(name)
	if !ok {
		return nil
	}
	if d, ok := f.Value.(*time.Time); ok {
		return d
	}
	return nil
}

// State возвращает состояние образа из поля state.
func (r *Record) State() ImageState {
	f, ok := r.Field("state")
	if !ok {
		return ""
	}
	if s, ok := f.Value.(ImageState); ok {
		return s
	}
	return ""
}
