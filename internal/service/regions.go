// regions.go — разрешение алиасов регионов.
// Один провайдер (microsoft) публикует для каждого региона и
// «дружественное», и каноническое имя; оба должны разрешаться в один
// и тот же набор данных. Для остальных провайдеров регион сравнивается
// со столбцом region напрямую, без этого слоя.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bigkaa/cloudcatalog/catalog-module/internal/repository"
)

// RegionResolver — разрешение имён регионов через таблицу алиасов.
type RegionResolver struct {
	aliases repository.RegionMapRepository
}

// NewRegionResolver создаёт резолвер регионов.
func NewRegionResolver(aliases repository.RegionMapRepository) *RegionResolver {
	return &RegionResolver{aliases: aliases}
}

// CanonicalGroup возвращает все «сырые» имена регионов канонической
// группы, к которой принадлежит указанное имя или алиас. Именно по
// этому набору строится фильтр членства к таблицам серверов.
// ErrNotFound, если имя не совпадает ни с region, ни с canonicalname.
func (rr *RegionResolver) CanonicalGroup(ctx context.Context, nameOrAlias string) ([]string, error) {
	group, err := rr.aliases.LookupGroup(ctx, nameOrAlias)
	if err != nil {
		return nil, mapRepoError(err)
	}

	// Дедупликация с сохранением порядка строк группы.
	seen := make(map[string]struct{}, len(group))
	var regions []string
	for _, alias := range group {
		if _, ok := seen[alias.Region]; ok {
			continue
		}
		seen[alias.Region] = struct{}{}
		regions = append(regions, alias.Region)
	}
	return regions, nil
}

// AllAliasRegions возвращает отсортированное множество всех имён
// регионов (и «дружественных», и канонических) из таблицы алиасов.
func (rr *RegionResolver) AllAliasRegions(ctx context.Context) ([]string, error) {
	aliases, err := rr.aliases.All(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	set := make(map[string]struct{}, len(aliases)*2)
	for _, alias := range aliases {
		set[alias.Region] = struct{}{}
		set[alias.CanonicalName] = struct{}{}
	}

	regions := make([]string, 0, len(set))
	for r := range set {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions, nil
}

// Environment возвращает окружение для региона или алиаса.
// Каноническая группа считается принадлежащей одному окружению;
// при нескольких окружениях берётся первая строка (известное
// ограничение исходных данных).
func (rr *RegionResolver) Environment(ctx context.Context, nameOrAlias string) (string, error) {
	env, err := rr.aliases.EnvironmentFor(ctx, nameOrAlias)
	if err != nil {
		return "", mapRepoError(err)
	}
	return env, nil
}

// mapRepoError переводит ошибки репозитория в ошибки сервисного слоя.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrBadValue):
		return fmt.Errorf("%w: %v", ErrUpstreamQuery, err)
	case errors.Is(err, repository.ErrDataIntegrity):
		return fmt.Errorf("%w: %v", ErrDataIntegrity, err)
	default:
		return err
	}
}
