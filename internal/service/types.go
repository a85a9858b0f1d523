// types.go — отображение легаси-словаря типов серверов (smt,
// regionserver[-shape]) в каноническую классификацию {region, update}
// и обратно. Легаси-имена сохраняются во внешнем API для обратной
// совместимости со старыми клиентами.
package service

import (
	"github.com/bigkaa/cloudcatalog/catalog-module/internal/domain/model"
)

// legacyTypeMap — принимаемые извне токены типа сервера и их
// канонические значения.
var legacyTypeMap = map[string]model.ServerType{
	"smt":               model.ServerTypeUpdate,
	"regionserver":      model.ServerTypeRegion,
	"regionserver-sap":  model.ServerTypeRegion,
	"regionserver-sles": model.ServerTypeRegion,
	"update":            model.ServerTypeUpdate,
	"region":            model.ServerTypeRegion,
}

// legacyNameMap — обратное отображение канонического типа в
// легаси-имя для внешнего представления.
var legacyNameMap = map[model.ServerType]string{
	model.ServerTypeUpdate: "smt",
	model.ServerTypeRegion: "regionserver",
}

// legacyServerTypes — статический список типов для провайдеров без
// таблицы серверов (alibaba, oracle): поведение старого сервиса
// сохраняется без обращения к хранилищу.
var legacyServerTypes = []string{"smt", "regionserver"}

// NormalizeServerType переводит внешний токен типа сервера в
// каноническое значение. ErrNotFound для неизвестного токена.
func NormalizeServerType(token string) (model.ServerType, error) {
	t, ok := legacyTypeMap[token]
	if !ok {
		return "", ErrNotFound
	}
	return t, nil
}

// DenormalizeServerType восстанавливает легаси-имя типа сервера,
// добавляя суффикс shape (например, -sles, -sap), если он задан.
func DenormalizeServerType(t model.ServerType, shape string) string {
	name, ok := legacyNameMap[t]
	if !ok {
		// Неизвестный канонический тип наружу не отображаем.
		return string(t)
	}
	if shape != "" {
		return name + "-" + shape
	}
	return name
}
