package repository

import (
	"context"
	"errors"

	"menuapi/internal/domain/model"
	"menuapi/internal/filter"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Filter filter.ProductFilter
	Offset int
	Limit  int
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	// 条件に合う商品をid昇順で返す。件数はページング前の総数
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	// トッピングは名前で解決し、無ければ作る
	Create(ctx context.Context, p model.Product) (model.Product, error)
	// 全カラムとトッピングを置き換える
	Update(ctx context.Context, p model.Product) (model.Product, error)
	Delete(ctx context.Context, id int64) error
}
