// respond.go — сборка финального payload ответа: сериализация в JSON
// или XML, согласование сжатия и контроль бюджета сжатого размера.
package service

import (
	"fmt"
)

// Format — формат сериализации ответа.
type Format int

// Поддерживаемые форматы ответа.
const (
	FormatJSON Format = iota
	FormatXML
)

// Типы содержимого ответов.
const (
	contentTypeJSON = "application/json;charset=utf-8"
	contentTypeXML  = "application/xml;charset=utf-8"
)

// Payload — собранный ответ: тело, тип содержимого и применённый
// алгоритм сжатия (пустая строка — без сжатия).
type Payload struct {
	Body        []byte
	ContentType string
	Encoding    string
}

// Responder — сборщик ответов с учётом бюджета размера.
type Responder struct {
	budgeter *Budgeter
}

// NewResponder создаёт сборщик ответов.
func NewResponder(budgeter *Budgeter) *Responder {
	return &Responder{budgeter: budgeter}
}

// contentType возвращает тип содержимого для формата.
func contentType(format Format) string {
	if format == FormatXML {
		return contentTypeXML
	}
	return contentTypeJSON
}

// encodeCollection сериализует коллекцию в выбранном формате.
func encodeCollection(name, elementName string, items []*Formatted, format Format) ([]byte, error) {
	if format == FormatXML {
		return xmlCollection(name, elementName, items), nil
	}
	return EncodeCollection(name, items)
}

// Collection собирает ответ-коллекцию {name: [...]}.
// budgeted включает контроль бюджета сжатого размера: если сжатый
// payload превышает лимит, список усекается двоичным поиском
// (FitCompressed) и сериализуется повторно.
func (r *Responder) Collection(name, elementName string, items []*Formatted, format Format, acceptEncoding string, budgeted bool) (Payload, error) {
	body, err := encodeCollection(name, elementName, items, format)
	if err != nil {
		return Payload{}, err
	}

	codec := NegotiateCodec(acceptEncoding)
	if codec == nil {
		return Payload{Body: body, ContentType: contentType(format)}, nil
	}

	compressed, err := codec.Compress(body)
	if err != nil {
		return Payload{}, fmt.Errorf("сжатие ответа: %w", err)
	}

	if budgeted && len(compressed) > r.budgeter.MaxBytes() {
		trimmed, err := r.budgeter.FitCompressed(codec.Compress, body, items)
		if err != nil {
			return Payload{}, err
		}
		body, err = encodeCollection(name, elementName, trimmed, format)
		if err != nil {
			return Payload{}, err
		}
		compressed, err = codec.Compress(body)
		if err != nil {
			return Payload{}, fmt.Errorf("сжатие усечённого ответа: %w", err)
		}
	}

	return Payload{
		Body:        compressed,
		ContentType: contentType(format),
		Encoding:    codec.ContentEncoding,
	}, nil
}

// Scalar собирает скалярный ответ с единственной парой ключ-значение
// без обёртки коллекции: {"deletiondate": "..."} либо <deletiondate>.
func (r *Responder) Scalar(key, value string, format Format, acceptEncoding string) (Payload, error) {
	var body []byte
	if format == FormatXML {
		body = xmlScalar(key, value)
	} else {
		single := NewFormatted()
		single.Set(key, value)
		var err error
		body, err = single.MarshalJSON()
		if err != nil {
			return Payload{}, err
		}
	}

	codec := NegotiateCodec(acceptEncoding)
	if codec == nil {
		return Payload{Body: body, ContentType: contentType(format)}, nil
	}

	compressed, err := codec.Compress(body)
	if err != nil {
		return Payload{}, fmt.Errorf("сжатие ответа: %w", err)
	}
	return Payload{
		Body:        compressed,
		ContentType: contentType(format),
		Encoding:    codec.ContentEncoding,
	}, nil
}
