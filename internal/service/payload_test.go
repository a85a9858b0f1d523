package service

import (
	"strings"
	"testing"
)

// makeImages создаёт список записей образов с заданными датами
// публикации (по одной записи на дату, в порядке среза).
func makeImages(publishedOn ...string) []*Formatted {
	out := make([]*Formatted, 0, len(publishedOn))
	for i, p := range publishedOn {
		f := NewFormatted()
		f.Set("name", "img-"+strings.Repeat("x", i%3))
		f.Set("publishedon", p)
		out = append(out, f)
	}
	return out
}

// TestBudgeter_TrimImages_UnderBudget проверяет, что помещающийся
// в бюджет список не изменяется.
func TestBudgeter_TrimImages_UnderBudget(t *testing.T) {
	b := NewBudgeter(DefaultMaxPayloadSize)
	items := makeImages("20220101", "20220102")

	got, err := b.TrimImages("images", items)
	if err != nil {
		t.Fatalf("TrimImages ошибка: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, ожидался 2 (без усечения)", len(got))
	}
}

// TestBudgeter_TrimImages_OverBudget проверяет усечение с хвоста
// при превышении бюджета.
func TestBudgeter_TrimImages_OverBudget(t *testing.T) {
	// Каждая запись занимает десятки байт; бюджет в 200 байт
	// вынуждает отбросить часть хвоста.
	b := NewBudgeter(200)
	items := makeImages(
		"20220110", "20220109", "20220108", "20220107", "20220106",
		"20220105", "20220104", "20220103", "20220102", "20220101",
	)

	got, err := b.TrimImages("images", items)
	if err != nil {
		t.Fatalf("TrimImages ошибка: %v", err)
	}
	if len(got) >= len(items) {
		t.Fatalf("len = %d, ожидалось усечение списка из %d", len(got), len(items))
	}
	// Уцелевшие записи — самые свежие (начало списка).
	for i, f := range got {
		if want := items[i]; f != want {
			t.Errorf("позиция %d: усечение должно идти с хвоста", i)
		}
	}
}

// TestTrimToSize_PublishedOnBoundary проверяет выравнивание границы
// усечения: дата публикации представлена либо целиком, либо никак.
func TestTrimToSize_PublishedOnBoundary(t *testing.T) {
	// Пять записей: три с датой 20220105, две с 20220101.
	items := makeImages("20220105", "20220105", "20220105", "20220101", "20220101")

	// payloadSize/maxSize подобраны так, чтобы доля усечения
	// составила одну запись (последнюю, 20220101).
	got := trimToSize(1000, 900, items)

	// После отбрасывания одной записи с датой 20220101 оставшаяся
	// запись той же даты тоже должна быть отброшена.
	if len(got) != 3 {
		t.Fatalf("len = %d, ожидался 3 (граница по дате публикации)", len(got))
	}
	for _, f := range got {
		if publishedOn(f) != "20220105" {
			t.Errorf("в результате не должно быть частично представленных дат")
		}
	}
}

// TestTrimToSize_AllTrimmed проверяет поведение при доле усечения,
// охватывающей весь список.
func TestTrimToSize_AllTrimmed(t *testing.T) {
	items := makeImages("20220101", "20220101")
	got := trimToSize(1000, 1, items)
	if len(got) != 0 {
		t.Errorf("len = %d, ожидался 0", len(got))
	}
}

// TestBudgeter_FitCompressed проверяет подбор усечения под бюджет
// сжатого размера двоичным поиском.
func TestBudgeter_FitCompressed(t *testing.T) {
	b := NewBudgeter(100)
	items := makeImages(
		"20220110", "20220109", "20220108", "20220107", "20220106",
		"20220105", "20220104", "20220103", "20220102", "20220101",
	)
	payload, err := EncodeCollection("images", items)
	if err != nil {
		t.Fatalf("EncodeCollection ошибка: %v", err)
	}

	// «Сжатие» 2:1 — детерминированная функция для проверки поиска.
	halve := func(data []byte) ([]byte, error) {
		return data[:len(data)/2], nil
	}

	got, err := b.FitCompressed(halve, payload, items)
	if err != nil {
		t.Fatalf("FitCompressed ошибка: %v", err)
	}
	if len(got) >= len(items) {
		t.Fatalf("len = %d, ожидалось усечение списка из %d", len(got), len(items))
	}

	// Усечённый список, сериализованный и «сжатый», должен
	// помещаться в бюджет.
	trimmedPayload, err := EncodeCollection("images", got)
	if err != nil {
		t.Fatalf("EncodeCollection ошибка: %v", err)
	}
	compressed, _ := halve(trimmedPayload)
	if len(compressed) > b.MaxBytes() {
		t.Errorf("сжатый усечённый payload %d байт превышает бюджет %d",
			len(compressed), b.MaxBytes())
	}
}

// TestEncodeCollection проверяет компактную сериализацию коллекции.
func TestEncodeCollection(t *testing.T) {
	f := NewFormatted()
	f.Set("name", "img-1")

	got, err := EncodeCollection("images", []*Formatted{f})
	if err != nil {
		t.Fatalf("EncodeCollection ошибка: %v", err)
	}
	want := `{"images":[{"name":"img-1"}]}`
	if string(got) != want {
		t.Errorf("EncodeCollection = %s, ожидалось %s", got, want)
	}
}

// TestEncodeCollection_Empty проверяет сериализацию пустой коллекции.
func TestEncodeCollection_Empty(t *testing.T) {
	got, err := EncodeCollection("images", []*Formatted{})
	if err != nil {
		t.Fatalf("EncodeCollection ошибка: %v", err)
	}
	if string(got) != `{"images":[]}` {
		t.Errorf("EncodeCollection = %s, ожидалось {\"images\":[]}", got)
	}
}
