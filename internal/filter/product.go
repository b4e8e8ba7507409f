package filter

import (
	"strings"

	"menuapi/internal/domain/model"
	"menuapi/internal/validator"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

const (
	KeyMinPrice    = "min_price"
	KeyMaxPrice    = "max_price"
	KeyMinRating   = "min_rating"
	KeyCategory    = "category"
	KeyToppings    = "toppings"
	KeyProductType = "product_type"
)

type ProductFilter struct {
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	MinRating   *float64
	Category    string
	Toppings    []string
	ProductType model.ProductType
}

type productParam struct {
	key   string
	parse func(f *ProductFilter, values []string) string
	scope func(f ProductFilter) func(*gorm.DB) *gorm.DB
}

// 知らないキーは無視。条件はすべてAND、toppingsだけは複数値のOR
var productParams = []productParam{
	{
		key: KeyMinPrice,
		parse: func(f *ProductFilter, values []string) string {
			d, msg := parsePrice(values[0])
			f.MinPrice = d
			return msg
		},
		scope: func(f ProductFilter) func(*gorm.DB) *gorm.DB {
			if f.MinPrice == nil {
				return nil
			}
			return where("products.price >= ?", *f.MinPrice)
		},
	},
	{
		key: KeyMaxPrice,
		parse: func(f *ProductFilter, values []string) string {
			d, msg := parsePrice(values[0])
			f.MaxPrice = d
			return msg
		},
		scope: func(f ProductFilter) func(*gorm.DB) *gorm.DB {
			if f.MaxPrice == nil {
				return nil
			}
			return where("products.price <= ?", *f.MaxPrice)
		},
	},
	{
		key: KeyMinRating,
		parse: func(f *ProductFilter, values []string) string {
			r, err := cast.ToFloat64E(strings.TrimSpace(values[0]))
			if err != nil {
				return "a valid number is required"
			}
			if r < model.MinRating || r > model.MaxRating {
				return "ensure this value is between 0 and 5"
			}
			f.MinRating = &r
			return ""
		},
		scope: func(f ProductFilter) func(*gorm.DB) *gorm.DB {
			if f.MinRating == nil {
				return nil
			}
			return where("products.rating >= ?", *f.MinRating)
		},
	},
	{
		key: KeyCategory,
		parse: func(f *ProductFilter, values []string) string {
			f.Category = values[0]
			return ""
		},
		scope: func(f ProductFilter) func(*gorm.DB) *gorm.DB {
			if f.Category == "" {
				return nil
			}
			return where("products.category = ?", f.Category)
		},
	},
	{
		key: KeyToppings,
		parse: func(f *ProductFilter, values []string) string {
			seen := map[string]struct{}{}
			for _, v := range values {
				v = strings.TrimSpace(v)
				if v == "" {
					continue
				}
				if _, ok := seen[v]; ok {
					continue
				}
				seen[v] = struct{}{}
				f.Toppings = append(f.Toppings, v)
			}
			return ""
		},
		scope: func(f ProductFilter) func(*gorm.DB) *gorm.DB {
			if len(f.Toppings) == 0 {
				return nil
			}
			// サブクエリなので商品は重複しない
			return where(`products.id IN (
SELECT product_toppings.product_id FROM product_toppings
JOIN toppings ON toppings.id = product_toppings.topping_id
WHERE toppings.name IN ?)`, f.Toppings)
		},
	},
	{
		key: KeyProductType,
		parse: func(f *ProductFilter, values []string) string {
			f.ProductType = model.ProductType(values[0])
			return ""
		},
		scope: func(f ProductFilter) func(*gorm.DB) *gorm.DB {
			if f.ProductType == "" {
				return nil
			}
			return where("products.product_type = ?", f.ProductType)
		},
	},
}

// 数値が壊れていればキー名のFieldErrorsを返す。
// 同じキーが複数あれば空でない最初の値を使う（toppingsは全部）
func ParseProduct(q map[string][]string) (ProductFilter, error) {
	var f ProductFilter
	errs := validator.FieldErrors{}

	for _, p := range productParams {
		values := nonEmpty(q[p.key])
		if len(values) == 0 {
			continue
		}
		if msg := p.parse(&f, values); msg != "" {
			errs.Add(p.key, msg)
		}
	}

	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		errs.Add(KeyMinPrice, "must be less than or equal to max_price")
	}

	if err := errs.OrNil(); err != nil {
		return ProductFilter{}, err
	}
	return f, nil
}

// 指定された条件ごとのgormスコープ
func (f ProductFilter) Scopes() []func(*gorm.DB) *gorm.DB {
	var out []func(*gorm.DB) *gorm.DB
	for _, p := range productParams {
		if s := p.scope(f); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Scopesと同じ条件をメモリ上で判定する
func (f ProductFilter) Match(p model.Product) bool {
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.MinRating != nil && p.Rating < *f.MinRating {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.ProductType != "" && p.ProductType != f.ProductType {
		return false
	}
	if len(f.Toppings) > 0 {
		for _, want := range f.Toppings {
			for _, have := range p.Toppings {
				if have.Name == want {
					return true
				}
			}
		}
		return false
	}
	return true
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func where(query string, args ...interface{}) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(query, args...)
	}
}

func parsePrice(s string) (*decimal.Decimal, string) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, "a valid number is required"
	}
	if d.IsNegative() {
		return nil, "ensure this value is greater than or equal to 0"
	}
	return &d, ""
}
