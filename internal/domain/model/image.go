// Пакет model — доменные модели каталога облачных образов.
// Record — универсальное представление строки таблицы провайдера,
// Provider — дескриптор схемы провайдера (закрытое множество из пяти).
package model

import "sort"

// ImageState — состояние жизненного цикла образа.
type ImageState string

// Допустимые состояния образа.
const (
	ImageStateActive     ImageState = "active"
	ImageStateInactive   ImageState = "inactive"
	ImageStateDeprecated ImageState = "deprecated"
	ImageStateDeleted    ImageState = "deleted"
)

// imageStates — множество всех допустимых состояний.
var imageStates = map[ImageState]struct{}{
	ImageStateActive:     {},
	ImageStateInactive:   {},
	ImageStateDeprecated: {},
	ImageStateDeleted:    {},
}

// ValidImageState сообщает, является ли токен допустимым состоянием образа.
func ValidImageState(token string) bool {
	_, ok := imageStates[ImageState(token)]
	return ok
}

// AllImageStates возвращает отсортированный список имён состояний.
// Порядок стабилен для ответа /v1/images/states.
func AllImageStates() []string {
	names := make([]string, 0, len(imageStates))
	for s := range imageStates {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return names
}
