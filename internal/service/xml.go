// xml.go — XML-представление ответов.
// Старый сервис отдавал XML с атрибутной записью элементов
// (<images><image name="..." state="..."/></images>) и отступом в два
// пробела; формат сохраняется для .xml-вариантов всех маршрутов.
package service

import (
	"bytes"
	"strconv"
)

// xmlDeclaration — пролог каждого XML-ответа.
const xmlDeclaration = "<?xml version=\"1.0\" ?>\n"

// xmlCollection сериализует коллекцию словарей атрибутов:
// корневой элемент — имя коллекции, каждая запись — пустой элемент
// с атрибутами в порядке вставки.
func xmlCollection(collectionName, elementName string, items []*Formatted) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlDeclaration)

	if len(items) == 0 {
		buf.WriteString("<" + collectionName + "/>\n")
		return buf.Bytes()
	}

	buf.WriteString("<" + collectionName + ">\n")
	for _, item := range items {
		buf.WriteString("  <" + elementName)
		for _, key := range item.Keys() {
			v, _ := item.Get(key)
			buf.WriteString(" " + key + "=\"" + escapeXMLAttr(attrString(v)) + "\"")
		}
		buf.WriteString("/>\n")
	}
	buf.WriteString("</" + collectionName + ">\n")
	return buf.Bytes()
}

// xmlScalar сериализует скалярный ответ: тег — ключ, текст — значение.
func xmlScalar(key, value string) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlDeclaration)
	buf.WriteString("<" + key + ">" + escapeXMLText(value) + "</" + key + ">\n")
	return buf.Bytes()
}

// attrString приводит значение атрибута к строке.
// Числа форматируются с десятичной точкой (1 → "1.0").
func attrString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		if !bytes.ContainsRune([]byte(s), '.') {
			s += ".0"
		}
		return s
	default:
		return ""
	}
}

// escapeXMLAttr экранирует спецсимволы в значении атрибута.
func escapeXMLAttr(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

// escapeXMLText экранирует спецсимволы в тексте элемента.
func escapeXMLText(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
