package repository

import (
	"context"
	"sort"

	"menuapi/internal/domain/model"
	repo "menuapi/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 絞り込み済みの商品をid昇順でページングして返す。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	//countとfindで同じ条件を使う
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.Product{}).Scopes(q.Filter.Scopes()...)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return []model.Product{}, 0, errors.Wrap(err, "count products")
	}

	products := []model.Product{}
	err := base().
		Preload("Toppings").
		Order("products.id asc").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&products).Error
	if err != nil {
		return []model.Product{}, 0, errors.Wrap(err, "list products")
	}

	for i := range products {
		normalizeToppings(&products[i])
	}
	return products, total, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	return findProduct(r.db.WithContext(ctx), id)
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	var created model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		toppings, err := resolveToppings(tx, p.Toppings)
		if err != nil {
			return err
		}
		p.ID = 0
		p.Toppings = toppings

		//トッピング自体は作成済みなので中間テーブルだけ入れる
		if err := tx.Omit("Toppings.*").Create(&p).Error; err != nil {
			return errors.Wrap(err, "create product")
		}

		created, err = findProduct(tx, p.ID)
		return err
	})
	if err != nil {
		return model.Product{}, err
	}
	return created, nil
}

// 商品の更新（全カラム + トッピング置き換え）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) (model.Product, error) {
	var updated model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"name":         p.Name,
			"description":  p.Description,
			"price":        p.Price,
			"rating":       p.Rating,
			"category":     p.Category,
			"product_type": p.ProductType,
		})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "update product %d", p.ID)
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}

		toppings, err := resolveToppings(tx, p.Toppings)
		if err != nil {
			return err
		}
		assoc := tx.Model(&model.Product{ID: p.ID}).Association("Toppings")
		if len(toppings) == 0 {
			err = assoc.Clear()
		} else {
			err = assoc.Replace(toppings)
		}
		if err != nil {
			return errors.Wrapf(err, "replace toppings of product %d", p.ID)
		}

		updated, err = findProduct(tx, p.ID)
		return err
	})
	if err != nil {
		return model.Product{}, err
	}
	return updated, nil
}

// 商品削除（物理削除）
func (r *ProductGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := findProduct(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&p).Association("Toppings").Clear(); err != nil {
			return errors.Wrapf(err, "clear toppings of product %d", id)
		}

		res := tx.Delete(&model.Product{}, id)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "delete product %d", id)
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

func findProduct(db *gorm.DB, id int64) (model.Product, error) {
	var p model.Product
	err := db.Preload("Toppings").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, errors.Wrapf(err, "find product %d", id)
	}
	normalizeToppings(&p)
	return p, nil
}

// 名前からトッピングを引く。無いものはここで作る
func resolveToppings(tx *gorm.DB, in []model.Topping) ([]model.Topping, error) {
	out := []model.Topping{}
	if len(in) == 0 {
		return out, nil
	}

	names := make([]string, 0, len(in))
	rows := make([]model.Topping, 0, len(in))
	seen := map[string]struct{}{}
	for _, t := range in {
		if _, ok := seen[t.Name]; ok {
			continue
		}
		seen[t.Name] = struct{}{}
		names = append(names, t.Name)
		rows = append(rows, model.Topping{Name: t.Name})
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "upsert toppings")
	}

	if err := tx.Where("name IN ?", names).Order("name asc").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "load toppings")
	}
	return out, nil
}

// JSONは常に名前順の配列（nullにしない）
func normalizeToppings(p *model.Product) {
	if p.Toppings == nil {
		p.Toppings = []model.Topping{}
	}
	sort.Slice(p.Toppings, func(i, j int) bool {
		return p.Toppings[i].Name < p.Toppings[j].Name
	})
}
