package model

// RegionAlias — строка таблицы алиасов регионов microsoftregionmap.
// Один канонический регион имеет несколько «дружественных» имён;
// все строки с общим CanonicalName взаимозаменяемы при поиске.
type RegionAlias struct {
	// Environment — облако Azure, к которому относится регион
	// (PublicCloud, ChinaCloud, ...). Предполагается ровно одно
	// окружение на каноническую группу.
	Environment string
	// Region — «дружественное» имя региона (например, "West US").
	Region string
	// CanonicalName — техническое каноническое имя (например, "westus").
	CanonicalName string
}
