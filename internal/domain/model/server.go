package model

// ServerType — каноническая классификация серверов провайдера.
// Внутри сервиса используются только значения region и update;
// легаси-словарь (smt, regionserver[-shape]) живёт в сервисном слое.
type ServerType string

// Допустимые типы серверов.
const (
	ServerTypeRegion ServerType = "region"
	ServerTypeUpdate ServerType = "update"
)
