// encoding.go — согласование и применение сжатия ответа.
// Клиент перечисляет допустимые алгоритмы в Accept-Encoding; сервис
// отвечает либо сырым payload, либо сжатым одним из поддерживаемых
// алгоритмов с соответствующим Content-Encoding.
package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// Codec — алгоритм сжатия ответа.
type Codec struct {
	// Name — токен Accept-Encoding (bzip2, gzip, xz).
	Name string
	// ContentEncoding — значение заголовка Content-Encoding.
	// Для xz исторически отдаётся lzma.
	ContentEncoding string
}

// codecs — поддерживаемые алгоритмы в порядке предпочтения.
var codecs = []Codec{
	{Name: "bzip2", ContentEncoding: "bzip2"},
	{Name: "gzip", ContentEncoding: "gzip"},
	{Name: "xz", ContentEncoding: "lzma"},
}

// NegotiateCodec выбирает алгоритм сжатия по заголовку
// Accept-Encoding. Токены сравниваются точно (без q-значений);
// nil — сжатие не согласовано.
func NegotiateCodec(acceptEncoding string) *Codec {
	if acceptEncoding == "" {
		return nil
	}

	accepted := make(map[string]struct{})
	for _, token := range strings.Split(acceptEncoding, ",") {
		accepted[strings.TrimSpace(token)] = struct{}{}
	}

	for i := range codecs {
		if _, ok := accepted[codecs[i].Name]; ok {
			return &codecs[i]
		}
	}
	return nil
}

// Compress сжимает данные алгоритмом кодека с максимальной степенью.
func (c *Codec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	switch c.Name {
	case "bzip2":
		w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: bzip2.BestCompression})
		if err != nil {
			return nil, fmt.Errorf("bzip2: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("bzip2: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("bzip2: %w", err)
		}
	case "gzip":
		w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
	case "xz":
		w, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
	default:
		return nil, fmt.Errorf("неизвестный алгоритм сжатия %q", c.Name)
	}

	return buf.Bytes(), nil
}
