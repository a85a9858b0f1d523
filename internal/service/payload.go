// payload.go — бюджетирование размера ответа.
// Транспортное окружение (шлюз) ограничивает размер ответа; списки
// образов могут его превышать. Список отсортирован по publishedon по
// убыванию, поэтому усечение с хвоста отбрасывает самые старые записи.
// Граница усечения выравнивается по дате публикации: дата либо
// представлена всеми своими записями, либо не представлена вовсе.
package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// DefaultMaxPayloadSize — максимальный размер ответа по умолчанию.
// Лимит полезной нагрузки шлюза — 6MB; 5MB оставляет запас на
// накладные расходы HTTP.
const DefaultMaxPayloadSize = 5000000

// Budgeter — контроль размера сериализованного ответа.
type Budgeter struct {
	maxBytes int
}

// NewBudgeter создаёт бюджетировщик с указанным лимитом в байтах.
func NewBudgeter(maxBytes int) *Budgeter {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPayloadSize
	}
	return &Budgeter{maxBytes: maxBytes}
}

// MaxBytes возвращает лимит размера ответа.
func (b *Budgeter) MaxBytes() int {
	return b.maxBytes
}

// EncodeCollection сериализует коллекцию в компактный JSON-объект
// с единственным ключом-именем коллекции: {"images":[...]}.
func EncodeCollection(name string, items []*Formatted) ([]byte, error) {
	var buf bytes.Buffer
	key, err := json.Marshal(name)
	if err != nil {
		return nil, err
	}
	buf.WriteByte('{')
	buf.Write(key)
	buf.WriteByte(':')
	list, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("сериализация коллекции %s: %w", name, err)
	}
	buf.Write(list)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// TrimImages усекает список образов до бюджета несжатого ответа.
// Если список помещается, возвращается без изменений.
func (b *Budgeter) TrimImages(name string, items []*Formatted) ([]*Formatted, error) {
	payload, err := EncodeCollection(name, items)
	if err != nil {
		return nil, err
	}
	if len(payload) <= b.maxBytes {
		return items, nil
	}
	return trimToSize(len(payload), b.maxBytes, items), nil
}

// trimToSize усекает список под заданный лимит, исходя из
// предположения о примерно равном размере записей. Доля усечения —
// ceil(((size-max)/size)*count); оценка приближённая и для
// неоднородных записей может усекать больше или меньше необходимого.
func trimToSize(payloadSize, maxSize int, items []*Formatted) []*Formatted {
	if payloadSize <= maxSize || len(items) == 0 {
		return items
	}

	trim := int(math.Ceil(
		float64(payloadSize-maxSize) / float64(payloadSize) * float64(len(items))))
	if trim <= 0 {
		return items
	}
	if trim >= len(items) {
		return items[:0]
	}

	// Дата публикации первой отброшенной записи — граница усечения.
	lastPublished := publishedOn(items[len(items)-trim])
	items = items[:len(items)-trim]

	// Выравнивание границы: дата не должна быть представлена частично.
	for len(items) > 0 && publishedOn(items[len(items)-1]) == lastPublished {
		items = items[:len(items)-1]
	}
	return items
}

// FitCompressed подбирает усечение списка так, чтобы сжатый ответ
// уложился в бюджет. Двоичным поиском по длине префикса несжатого
// payload находится наибольший префикс, сжатие которого помещается
// в лимит; его длина становится новым лимитом для trimToSize.
func (b *Budgeter) FitCompressed(compress func([]byte) ([]byte, error), payload []byte, items []*Formatted) ([]*Formatted, error) {
	low, high := 0, len(payload)
	for low < high {
		mid := (low + high) / 2
		compressed, err := compress(payload[:mid])
		if err != nil {
			return nil, fmt.Errorf("пробное сжатие префикса: %w", err)
		}
		if len(compressed) <= b.maxBytes {
			low = mid + 1
		} else {
			high = mid
		}
	}

	maxSize := low - 1
	if maxSize < 0 {
		maxSize = 0
	}
	return trimToSize(len(payload), maxSize, items), nil
}

// publishedOn возвращает атрибут publishedon записи.
func publishedOn(f *Formatted) string {
	v, _ := f.Get("publishedon")
	s, _ := v.(string)
	return s
}
