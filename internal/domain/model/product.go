package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductTypeVeg    ProductType = "Veg"
	ProductTypeNonVeg ProductType = "Non-Veg"
)

// 評価の範囲
const (
	MinRating = 0.0
	MaxRating = 5.0
)

type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:varchar(255);not null;default:''" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;index" json:"price"`
	Rating      float64         `gorm:"type:decimal(3,2);not null;default:0" json:"rating"`
	Category    string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Toppings    []Topping       `gorm:"many2many:product_toppings" json:"toppings"`
	ProductType ProductType     `gorm:"type:varchar(7);not null;index" json:"product_type"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// トッピング名を名前順で返す
func (p Product) ToppingNames() []string {
	names := make([]string, 0, len(p.Toppings))
	for _, t := range p.Toppings {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}
