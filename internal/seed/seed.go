package seed

import (
	"context"
	"io"
	"strings"

	"menuapi/internal/domain/model"
	"menuapi/internal/usecase"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

const toppingSep = ";"

// CSVの1行。ヘッダは
// name,description,price,rating,category,toppings,product_type
// toppingsは;区切り（空でもよい）
type Row struct {
	Name        string `csv:"name"`
	Description string `csv:"description"`
	Price       string `csv:"price"`
	Rating      string `csv:"rating"`
	Category    string `csv:"category"`
	Toppings    string `csv:"toppings"`
	ProductType string `csv:"product_type"`
}

type ProductCreator interface {
	Create(ctx context.Context, in usecase.ProductInput) (model.Product, error)
}

// Runはrを全部読んでから1行ずつ作成する。失敗した行で止まる。
// APIと同じusecaseを通すので検証と監査ログも同じ。
// ctxには作成者のidentityが必要。
func Run(ctx context.Context, r io.Reader, creator ProductCreator) (int, error) {
	var rows []Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return 0, errors.Wrap(err, "read csv")
	}

	created := 0
	for i, row := range rows {
		// ヘッダが1行目
		line := i + 2
		in, err := row.toInput()
		if err != nil {
			return created, errors.Wrapf(err, "line %d", line)
		}
		if _, err := creator.Create(ctx, in); err != nil {
			return created, errors.Wrapf(err, "line %d (%s)", line, row.Name)
		}
		created++
	}
	return created, nil
}

func (r Row) toInput() (usecase.ProductInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
	if err != nil {
		return usecase.ProductInput{}, errors.Wrapf(err, "price %q", r.Price)
	}
	rating, err := cast.ToFloat64E(strings.TrimSpace(r.Rating))
	if err != nil {
		return usecase.ProductInput{}, errors.Wrapf(err, "rating %q", r.Rating)
	}

	toppings := []string{}
	for _, t := range strings.Split(r.Toppings, toppingSep) {
		if t = strings.TrimSpace(t); t != "" {
			toppings = append(toppings, t)
		}
	}

	return usecase.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       &price,
		Rating:      &rating,
		Category:    r.Category,
		Toppings:    toppings,
		ProductType: strings.TrimSpace(r.ProductType),
	}, nil
}
