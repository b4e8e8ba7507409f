package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"menuapi/internal/domain/model"
	"menuapi/internal/filter"
	"menuapi/internal/identity"
	"menuapi/internal/pagination"
	repo "menuapi/internal/repository"
	"menuapi/internal/validator"

	"github.com/shopspring/decimal"
)

// decimal(10,2)の上限
var maxPrice = decimal.RequireFromString("99999999.99")

type ProductUsecase struct {
	products  repo.ProductRepository
	tx        repo.TransactionManager
	validator *validator.Validator
	now       func() time.Time
}

// DI
func NewProductUsecase(products repo.ProductRepository, tx repo.TransactionManager) *ProductUsecase {
	return &ProductUsecase{
		products:  products,
		tx:        tx,
		validator: validator.New(),
		now:       time.Now,
	}
}

// POST/PUTの入力（全項目）
type ProductInput struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description" validate:"max=255"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Rating      *float64         `json:"rating" validate:"required,gte=0,lte=5"`
	Category    string           `json:"category" validate:"required,max=100"`
	Toppings    []string         `json:"toppings" validate:"max=50,dive,required,max=100"`
	ProductType string           `json:"product_type" validate:"required,oneof=Veg Non-Veg"`
}

// PATCHの入力。nilは「変更しない」
type ProductPatchInput struct {
	Name        *string          `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string          `json:"description" validate:"omitnil,max=255"`
	Price       *decimal.Decimal `json:"price"`
	Rating      *float64         `json:"rating" validate:"omitnil,gte=0,lte=5"`
	Category    *string          `json:"category" validate:"omitnil,min=1,max=100"`
	Toppings    []string         `json:"toppings" validate:"omitempty,max=50,dive,required,max=100"`
	ProductType *string          `json:"product_type" validate:"omitnil,oneof=Veg Non-Veg"`
}

type ProductListOutput struct {
	Items   []model.Product
	Total   int64
	Request pagination.Request
}

// GET /products
func (u *ProductUsecase) ListProducts(ctx context.Context, q url.Values) (ProductListOutput, error) {
	errs := validator.FieldErrors{}

	req, err := pagination.ParseRequest(q)
	mergeFieldErrors(errs, err)
	f, err := filter.ParseProduct(q)
	mergeFieldErrors(errs, err)

	if err := errs.OrNil(); err != nil {
		return ProductListOutput{}, NewValidationError(err)
	}

	items, total, err := u.products.List(ctx, repo.ProductListQuery{
		Filter: f,
		Offset: req.Offset(),
		Limit:  req.Limit(),
	})
	if err != nil {
		return ProductListOutput{}, internalError(err)
	}

	return ProductListOutput{Items: items, Total: total, Request: req}, nil
}

func (u *ProductUsecase) Get(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, invalidID()
	}

	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, errNotFound
	}
	if err != nil {
		return model.Product{}, internalError(err)
	}
	return p, nil
}

func (u *ProductUsecase) Create(ctx context.Context, in ProductInput) (model.Product, error) {
	actor, ok := identity.FromContext(ctx)
	if !ok {
		return model.Product{}, errUnauthorized
	}

	p, err := u.fromInput(in)
	if err != nil {
		return model.Product{}, err
	}

	var created model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		created, err = r.Products().Create(ctx, p)
		if err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, u.auditLog(actor, model.AuditActionCreateProduct, created.ID, nil, &created))
	})
	if err != nil {
		return model.Product{}, internalError(err)
	}
	return created, nil
}

// PUT: 全項目を置き換える。無い任意項目は初期値に戻る
func (u *ProductUsecase) Replace(ctx context.Context, id int64, in ProductInput) (model.Product, error) {
	return u.update(ctx, id, func(before model.Product) (model.Product, error) {
		p, err := u.fromInput(in)
		if err != nil {
			return model.Product{}, err
		}
		p.ID = before.ID
		return p, nil
	})
}

// PATCH: 渡された項目だけ変える
func (u *ProductUsecase) Patch(ctx context.Context, id int64, in ProductPatchInput) (model.Product, error) {
	return u.update(ctx, id, func(before model.Product) (model.Product, error) {
		return u.applyPatch(before, in)
	})
}

func (u *ProductUsecase) Delete(ctx context.Context, id int64) error {
	actor, ok := identity.FromContext(ctx)
	if !ok {
		return errUnauthorized
	}
	if id <= 0 {
		return invalidID()
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := r.Products().Delete(ctx, id); err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, u.auditLog(actor, model.AuditActionDeleteProduct, id, &before, nil))
	})
	return u.mapWriteError(err)
}

// 取得 → 変更 → 保存 → 監査ログを1トランザクションで
func (u *ProductUsecase) update(ctx context.Context, id int64, change func(before model.Product) (model.Product, error)) (model.Product, error) {
	actor, ok := identity.FromContext(ctx)
	if !ok {
		return model.Product{}, errUnauthorized
	}
	if id <= 0 {
		return model.Product{}, invalidID()
	}

	var updated model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}
		next, err := change(before)
		if err != nil {
			return err
		}
		updated, err = r.Products().Update(ctx, next)
		if err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, u.auditLog(actor, model.AuditActionUpdateProduct, id, &before, &updated))
	})
	if err != nil {
		return model.Product{}, u.mapWriteError(err)
	}
	return updated, nil
}

func (u *ProductUsecase) mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	return internalError(err)
}

func (u *ProductUsecase) fromInput(in ProductInput) (model.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Toppings = trimAll(in.Toppings)

	errs := validator.FieldErrors{}
	mergeFieldErrors(errs, u.validator.Struct(in))
	if in.Price != nil {
		if msg := checkPrice(*in.Price); msg != "" {
			errs.Add("price", msg)
		}
	}
	if err := errs.OrNil(); err != nil {
		return model.Product{}, NewValidationError(err)
	}

	return model.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		Rating:      roundRating(*in.Rating),
		Category:    in.Category,
		Toppings:    model.ToppingsFromNames(dedupe(in.Toppings)),
		ProductType: model.ProductType(in.ProductType),
	}, nil
}

func (u *ProductUsecase) applyPatch(p model.Product, in ProductPatchInput) (model.Product, error) {
	if in.Name != nil {
		s := strings.TrimSpace(*in.Name)
		in.Name = &s
	}
	if in.Category != nil {
		s := strings.TrimSpace(*in.Category)
		in.Category = &s
	}
	in.Toppings = trimAll(in.Toppings)

	errs := validator.FieldErrors{}
	mergeFieldErrors(errs, u.validator.Struct(in))
	if in.Price != nil {
		if msg := checkPrice(*in.Price); msg != "" {
			errs.Add("price", msg)
		}
	}
	if err := errs.OrNil(); err != nil {
		return model.Product{}, NewValidationError(err)
	}

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Rating != nil {
		p.Rating = roundRating(*in.Rating)
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	// nilは未指定、[]は全部外す
	if in.Toppings != nil {
		p.Toppings = model.ToppingsFromNames(dedupe(in.Toppings))
	}
	if in.ProductType != nil {
		p.ProductType = model.ProductType(*in.ProductType)
	}
	return p, nil
}

func (u *ProductUsecase) auditLog(actor identity.Identity, action model.AuditAction, id int64, before, after *model.Product) model.AuditLog {
	return model.AuditLog{
		ActorUserID:  actor.UserID,
		Action:       action,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   id,
		BeforeJSON:   snapshot(before),
		AfterJSON:    snapshot(after),
		CreatedAt:    u.now(),
	}
}

func snapshot(p *model.Product) string {
	if p == nil {
		return ""
	}
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(b)
}

func checkPrice(d decimal.Decimal) string {
	switch {
	case d.IsNegative():
		return "ensure this value is greater than or equal to 0"
	case !d.Equal(d.Round(2)):
		return "ensure that there are no more than 2 decimal places"
	case d.GreaterThan(maxPrice):
		return "ensure that there are no more than 10 digits in total"
	}
	return ""
}

// ratingはdecimal(3,2)
func roundRating(r float64) float64 {
	return math.Round(r*100) / 100
}

// nilはnilのまま返す
func trimAll(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.TrimSpace(n)
	}
	return out
}

func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	seen := map[string]struct{}{}
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func mergeFieldErrors(dst validator.FieldErrors, err error) {
	if err == nil {
		return
	}
	fe, ok := validator.AsFieldErrors(err)
	if !ok {
		dst.Add("non_field_errors", err.Error())
		return
	}
	for k, v := range fe {
		dst.Add(k, v)
	}
}

func invalidID() error {
	return &HTTPError{
		Status:  http.StatusBadRequest,
		Message: "validation failed",
		Fields:  map[string]string{"id": "a valid positive integer is required"},
	}
}
