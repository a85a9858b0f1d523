package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bigkaa/cloudcatalog/catalog-module/internal/domain/model"
)

func strPtr(s string) *string { return &s }

// TestBuildImageWhere проверяет сборку WHERE-условия выборки образов.
func TestBuildImageWhere(t *testing.T) {
	deprecated := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		filter    ImageFilter
		wantWhere string
		wantArgs  int
	}{
		{
			"пустой фильтр",
			ImageFilter{},
			"",
			0,
		},
		{
			"регион",
			ImageFilter{Region: strPtr("us-east-1")},
			"WHERE region = $1",
			1,
		},
		{
			"окружение и имя",
			ImageFilter{Environment: strPtr("PublicAzure"), Name: strPtr("img-1")},
			"WHERE environment = $1 AND name = $2",
			2,
		},
		{
			"состояния",
			ImageFilter{States: []model.ImageState{model.ImageStateActive, model.ImageStateDeprecated}},
			"WHERE state = ANY($1::image_state[])",
			1,
		},
		{
			"регион, состояние и граница деградации",
			ImageFilter{
				Region:           strPtr("us-east-1"),
				States:           []model.ImageState{model.ImageStateDeprecated},
				DeprecatedBefore: &deprecated,
			},
			"WHERE region = $1 AND state = ANY($2::image_state[]) AND deprecatedon < $3",
			3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			where, args := buildImageWhere(tc.filter)
			if where != tc.wantWhere {
				t.Errorf("where = %q, ожидалось %q", where, tc.wantWhere)
			}
			if len(args) != tc.wantArgs {
				t.Errorf("len(args) = %d, ожидалось %d", len(args), tc.wantArgs)
			}
		})
	}
}

// TestBuildServerWhere проверяет сборку WHERE-условия выборки серверов.
func TestBuildServerWhere(t *testing.T) {
	typeRegion := model.ServerTypeRegion

	cases := []struct {
		name      string
		filter    ServerFilter
		wantWhere string
		wantArgs  int
	}{
		{
			"пустой фильтр",
			ServerFilter{},
			"",
			0,
		},
		{
			"точный регион и тип",
			ServerFilter{Region: strPtr("us-east-1"), Type: &typeRegion},
			"WHERE region = $1 AND type = $2::server_type",
			2,
		},
		{
			"группа регионов",
			ServerFilter{Regions: []string{"useast", "us-east"}},
			"WHERE region = ANY($1)",
			1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			where, args := buildServerWhere(tc.filter)
			if where != tc.wantWhere {
				t.Errorf("where = %q, ожидалось %q", where, tc.wantWhere)
			}
			if len(args) != tc.wantArgs {
				t.Errorf("len(args) = %d, ожидалось %d", len(args), tc.wantArgs)
			}
		})
	}
}

// TestSelectList проверяет каст INET-столбцов к text в списке выборки.
func TestSelectList(t *testing.T) {
	cols := []model.ColumnSpec{
		{Name: "type", Kind: model.KindServerType},
		{Name: "name", Kind: model.KindText},
		{Name: "ip", Kind: model.KindInet},
	}
	got := selectList(cols)
	want := "type, name, ip::text"
	if got != want {
		t.Errorf("selectList = %q, ожидалось %q", got, want)
	}
}

// TestClassify проверяет распознавание ошибок приведения типов
// PostgreSQL как ErrBadValue.
func TestClassify(t *testing.T) {
	castErr := &pgconn.PgError{Code: "22P02", Message: "invalid input value"}
	if got := classify("выборка", castErr); !errors.Is(got, ErrBadValue) {
		t.Errorf("22P02: err = %v, ожидался ErrBadValue", got)
	}

	plain := errors.New("connection refused")
	got := classify("выборка", plain)
	if errors.Is(got, ErrBadValue) {
		t.Errorf("обычная ошибка не должна распознаваться как ErrBadValue")
	}
	if !errors.Is(got, plain) {
		t.Errorf("исходная ошибка должна сохраняться в цепочке: %v", got)
	}
}
