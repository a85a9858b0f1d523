package model

// DateDelta — относительный сдвиг даты в годах, месяцах и днях.
// Используется политикой удержания для проекции даты удаления.
type DateDelta struct {
	Years  int
	Months int
	Days   int
}

// Provider — дескриптор схемы одного провайдера: имена таблиц,
// упорядоченные списки столбцов и поведенческие особенности.
// Схемы пяти провайдеров различаются (разные первичные ключи,
// необязательный столбец region), поэтому вместо рефлексии —
// закрытое множество дескрипторов.
type Provider struct {
	// Name — имя провайдера в нижнем регистре (amazon, google, ...).
	Name string
	// ImagesTable — имя таблицы образов.
	ImagesTable string
	// ServersTable — имя таблицы серверов; пусто, если у провайдера
	// нет таблицы серверов (alibaba, oracle).
	ServersTable string
	// ImagesHaveRegion — есть ли у таблицы образов столбец region.
	ImagesHaveRegion bool
	// AliasedRegions — регионы провайдера разрешаются через таблицу
	// алиасов (microsoftregionmap), а не по столбцу region.
	AliasedRegions bool
	// ImageColumns — упорядоченный список столбцов таблицы образов.
	ImageColumns []ColumnSpec
	// ServerColumns — упорядоченный список столбцов таблицы серверов.
	ServerColumns []ColumnSpec
	// ImagesExclude — имена полей образов, исключаемые из ответа.
	ImagesExclude []string
	// ServersExclude — имена полей серверов, исключаемые из ответа.
	ServersExclude []string
	// DeletionDelta — политика удержания провайдера; nil — системная
	// политика по умолчанию.
	DeletionDelta *DateDelta
}

// baseImageColumns — столбцы, общие для всех таблиц образов.
var baseImageColumns = []ColumnSpec{
	{Name: "name", Kind: KindText},
	{Name: "state", Kind: KindState},
	{Name: "replacementname", Kind: KindText},
	{Name: "publishedon", Kind: KindDate},
	{Name: "deprecatedon", Kind: KindDate},
	{Name: "deletedon", Kind: KindDate},
	{Name: "changeinfo", Kind: KindText},
}

// serverColumns — столбцы таблиц серверов (одинаковы у всех провайдеров).
var serverColumns = []ColumnSpec{
	{Name: "type", Kind: KindServerType},
	{Name: "shape", Kind: KindText},
	{Name: "name", Kind: KindText},
	{Name: "ip", Kind: KindInet},
	{Name: "region", Kind: KindText},
	{Name: "ipv6", Kind: KindInet},
}

// imageColumns собирает полный список столбцов образов из базового
// набора и дополнительных столбцов провайдера.
func imageColumns(extra ...ColumnSpec) []ColumnSpec {
	cols := make([]ColumnSpec, 0, len(baseImageColumns)+len(extra))
	cols = append(cols, baseImageColumns...)
	cols = append(cols, extra...)
	return cols
}

// Providers — закрытое множество известных провайдеров.
// Список поддерживаемых (отдаваемых наружу) провайдеров определяется
// таблицей versions; этот словарь описывает схему каждого из них.
var Providers = map[string]*Provider{
	"amazon": {
		Name:             "amazon",
		ImagesTable:      "amazonimages",
		ServersTable:     "amazonservers",
		ImagesHaveRegion: true,
		ImageColumns: imageColumns(
			ColumnSpec{Name: "id", Kind: KindText},
			ColumnSpec{Name: "replacementid", Kind: KindText},
			ColumnSpec{Name: "region", Kind: KindText},
		),
		ServerColumns:  serverColumns,
		ServersExclude: []string{"id"},
		DeletionDelta:  &DateDelta{Years: 2},
	},
	"alibaba": {
		Name:             "alibaba",
		ImagesTable:      "alibabaimages",
		ImagesHaveRegion: true,
		ImageColumns: imageColumns(
			ColumnSpec{Name: "id", Kind: KindText},
			ColumnSpec{Name: "replacementid", Kind: KindText},
			ColumnSpec{Name: "region", Kind: KindText},
		),
	},
	"google": {
		Name:         "google",
		ImagesTable:  "googleimages",
		ServersTable: "googleservers",
		ImageColumns: imageColumns(
			ColumnSpec{Name: "project", Kind: KindText},
		),
		ServerColumns:  serverColumns,
		ServersExclude: []string{"id"},
	},
	"microsoft": {
		Name:           "microsoft",
		ImagesTable:    "microsoftimages",
		ServersTable:   "microsoftservers",
		AliasedRegions: true,
		ImageColumns: imageColumns(
			ColumnSpec{Name: "environment", Kind: KindText},
			ColumnSpec{Name: "urn", Kind: KindText},
		),
		ServerColumns:  serverColumns,
		ImagesExclude:  []string{"id"},
		ServersExclude: []string{"id"},
	},
	"oracle": {
		Name:        "oracle",
		ImagesTable: "oracleimages",
		ImageColumns: imageColumns(
			ColumnSpec{Name: "id", Kind: KindText},
			ColumnSpec{Name: "replacementid", Kind: KindText},
		),
	},
}

// ProviderByName возвращает дескриптор провайдера по имени.
func ProviderByName(name string) (*Provider, bool) {
	p, ok := Providers[name]
	return p, ok
}
