// format.go — преобразование Record в канонический словарь атрибутов
// ответа. Здесь изолированы легаси-причуды старого сервиса: скрытие
// пустых urn/changeinfo и сворачивание shape в поле type. Поведение
// сохраняется ровно таким, каким его ожидают старые клиенты.
package service

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/bigkaa/cloudcatalog/catalog-module/internal/domain/model"
)

// Formatted — упорядоченный словарь строковых атрибутов результата.
// Порядок вставки сохраняется при сериализации в JSON и XML.
type Formatted struct {
	keys   []string
	values map[string]any
}

// NewFormatted создаёт пустой словарь атрибутов.
func NewFormatted() *Formatted {
	return &Formatted{values: make(map[string]any)}
}

// Set добавляет или заменяет атрибут. Позиция существующего
// атрибута сохраняется.
func (f *Formatted) Set(key string, value any) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get возвращает значение атрибута.
func (f *Formatted) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Keys возвращает имена атрибутов в порядке вставки.
func (f *Formatted) Keys() []string {
	return f.keys
}

// Len возвращает количество атрибутов.
func (f *Formatted) Len() int {
	return len(f.keys)
}

// MarshalJSON сериализует словарь как JSON-объект с сохранением
// порядка вставки атрибутов.
func (f *Formatted) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FormatRecord преобразует запись в словарь атрибутов ответа.
// Правила, в порядке приоритета:
//  1. пустые urn и changeinfo опускаются целиком (легаси-причуда);
//  2. внутреннее поле shape опускается — его значение сворачивается
//     во внешнее представление type;
//  3. поля из exclude опускаются;
//  4. числовые поля отдаются как float, enum'ы — строками, даты —
//     в формате YYYYMMDD, NULL-строки — пустой строкой;
//  5. extra добавляются последними и перекрывают одноимённые поля.
func FormatRecord(rec *model.Record, extra map[string]string, exclude []string) *Formatted {
	out := NewFormatted()

	for _, field := range rec.Fields {
		lower := strings.ToLower(field.Name)
		if (lower == "urn" || lower == "changeinfo") && rec.Text(field.Name) == "" {
			continue
		}
		if lower == "shape" {
			continue
		}
		if contains(exclude, field.Name) {
			continue
		}

		switch field.Kind {
		case model.KindDecimal:
			if v, ok := field.Value.(*float64); ok && v != nil {
				out.Set(field.Name, *v)
			} else {
				out.Set(field.Name, "")
			}
		case model.KindState:
			if s, ok := field.Value.(model.ImageState); ok {
				out.Set(field.Name, string(s))
			} else {
				out.Set(field.Name, "")
			}
		case model.KindServerType:
			t, _ := field.Value.(model.ServerType)
			out.Set(field.Name, DenormalizeServerType(t, rec.Text("shape")))
		case model.KindDate:
			if d, ok := field.Value.(*time.Time); ok && d != nil {
				out.Set(field.Name, d.Format(dateFormat))
			} else {
				out.Set(field.Name, "")
			}
		default:
			out.Set(field.Name, rec.Text(field.Name))
		}
	}

	// Детерминированный порядок дополнительных атрибутов.
	extraKeys := make([]string, 0, len(extra))
	for k := range extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		out.Set(k, extra[k])
	}

	return out
}

// FormatRecords преобразует список записей в список словарей атрибутов.
// Возвращает пустой (не nil) срез для пустого входа: коллекция в
// ответе всегда присутствует, даже пустая.
func FormatRecords(records []model.Record, extra map[string]string, exclude []string) []*Formatted {
	out := make([]*Formatted, 0, len(records))
	for i := range records {
		out = append(out, FormatRecord(&records[i], extra, exclude))
	}
	return out
}

// contains сообщает о присутствии строки в срезе.
func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
