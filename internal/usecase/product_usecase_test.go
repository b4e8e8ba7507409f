package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"menuapi/internal/domain/model"
	"menuapi/internal/identity"
	repo "menuapi/internal/repository"
	"menuapi/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mocks
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	updated, _ := args.Get(0).(model.Product)
	return updated, args.Error(1)
}

func (m *ProductRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Get(1).(int64), args.Error(2)
}

// txの中でも同じモックを返す
type TxManagerMock struct {
	products *ProductRepoMock
	audits   *AuditRepoMock
	calls    int
}

func (m *TxManagerMock) Products() repo.ProductRepository   { return m.products }
func (m *TxManagerMock) AuditLogs() repo.AuditLogRepository { return m.audits }

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.calls++
	return fn(m)
}

type fixture struct {
	products *ProductRepoMock
	audits   *AuditRepoMock
	tx       *TxManagerMock
	uc       *usecase.ProductUsecase
}

func newFixture() fixture {
	products := new(ProductRepoMock)
	audits := new(AuditRepoMock)
	tx := &TxManagerMock{products: products, audits: audits}
	return fixture{
		products: products,
		audits:   audits,
		tx:       tx,
		uc:       usecase.NewProductUsecase(products, tx),
	}
}

func authed() context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{UserID: 9, Username: "admin"})
}

func ptr[T any](v T) *T { return &v }

func validInput() usecase.ProductInput {
	return usecase.ProductInput{
		Name:        "  Lemon Tea ",
		Description: "fresh",
		Price:       ptr(decimal.RequireFromString("4.50")),
		Rating:      ptr(4.2),
		Category:    "drinks",
		Toppings:    []string{"lemon", " ice", "lemon"},
		ProductType: "Veg",
	}
}

func assertStatus(t *testing.T, err error, status int) *usecase.HTTPError {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, status, he.Status)
	return he
}

// =====================
// List
// =====================

func TestProductUsecase_ListProducts_Success(t *testing.T) {
	f := newFixture()
	q, _ := url.ParseQuery("page=2&page_size=5&category=drinks&color=red")

	f.products.On("List", mock.Anything, mock.MatchedBy(func(q repo.ProductListQuery) bool {
		return q.Offset == 5 && q.Limit == 5 && q.Filter.Category == "drinks"
	})).Return([]model.Product{{ID: 6, Name: "A"}}, int64(6), nil)

	out, err := f.uc.ListProducts(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(6), out.Total)
	assert.Equal(t, 2, out.Request.Page)
	assert.Len(t, out.Items, 1)
	f.products.AssertExpectations(t)
}

// pageとフィルタのエラーはまとめて返す
func TestProductUsecase_ListProducts_Invalid(t *testing.T) {
	f := newFixture()
	q, _ := url.ParseQuery("page=zero&min_price=cheap")

	_, err := f.uc.ListProducts(context.Background(), q)
	he := assertStatus(t, err, http.StatusBadRequest)
	assert.Contains(t, he.Fields, "page")
	assert.Contains(t, he.Fields, "min_price")
	f.products.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestProductUsecase_ListProducts_DBError(t *testing.T) {
	f := newFixture()
	f.products.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), errors.New("db down"))

	_, err := f.uc.ListProducts(context.Background(), url.Values{})
	he := assertStatus(t, err, http.StatusInternalServerError)
	assert.Equal(t, "internal error", he.Message)
}

// =====================
// Get
// =====================

func TestProductUsecase_Get(t *testing.T) {
	f := newFixture()
	f.products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1, Name: "A"}, nil)
	f.products.On("FindByID", mock.Anything, int64(2)).Return(nil, repo.ErrNotFound)

	p, err := f.uc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "A", p.Name)

	_, err = f.uc.Get(context.Background(), 2)
	assertStatus(t, err, http.StatusNotFound)

	_, err = f.uc.Get(context.Background(), 0)
	assertStatus(t, err, http.StatusBadRequest)
}

// =====================
// Create
// =====================

func TestProductUsecase_Create_Success(t *testing.T) {
	f := newFixture()
	ctx := authed()

	f.products.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.Name == "Lemon Tea" &&
			p.Price.Equal(decimal.RequireFromString("4.5")) &&
			assert.ObjectsAreEqual([]string{"ice", "lemon"}, p.ToppingNames())
	})).Return(model.Product{ID: 10, Name: "Lemon Tea"}, nil)
	f.audits.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.ActorUserID == 9 &&
			l.Action == model.AuditActionCreateProduct &&
			l.ResourceID == 10 &&
			l.BeforeJSON == "" && l.AfterJSON != ""
	})).Return(nil)

	p, err := f.uc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.ID)
	assert.Equal(t, 1, f.tx.calls)
	f.products.AssertExpectations(t)
	f.audits.AssertExpectations(t)
}

// 認証なしでは何もしない
func TestProductUsecase_Create_Unauthorized(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Create(context.Background(), validInput())
	assertStatus(t, err, http.StatusUnauthorized)
	assert.Zero(t, f.tx.calls)
	f.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductUsecase_Create_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(in *usecase.ProductInput)
		field string
	}{
		{"blank name", func(in *usecase.ProductInput) { in.Name = "   " }, "name"},
		{"missing price", func(in *usecase.ProductInput) { in.Price = nil }, "price"},
		{"negative price", func(in *usecase.ProductInput) { in.Price = ptr(decimal.NewFromInt(-1)) }, "price"},
		{"price precision", func(in *usecase.ProductInput) { in.Price = ptr(decimal.RequireFromString("1.234")) }, "price"},
		{"price too large", func(in *usecase.ProductInput) { in.Price = ptr(decimal.RequireFromString("100000000")) }, "price"},
		{"missing rating", func(in *usecase.ProductInput) { in.Rating = nil }, "rating"},
		{"rating too high", func(in *usecase.ProductInput) { in.Rating = ptr(5.5) }, "rating"},
		{"missing category", func(in *usecase.ProductInput) { in.Category = "" }, "category"},
		{"bad product type", func(in *usecase.ProductInput) { in.ProductType = "Vegan" }, "product_type"},
		{"blank topping", func(in *usecase.ProductInput) { in.Toppings = []string{"ok", " "} }, "toppings[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			in := validInput()
			tt.edit(&in)

			_, err := f.uc.Create(authed(), in)
			he := assertStatus(t, err, http.StatusBadRequest)
			assert.Contains(t, he.Fields, tt.field)
			assert.Zero(t, f.tx.calls)
		})
	}
}

func TestProductUsecase_Create_RatingRounded(t *testing.T) {
	f := newFixture()
	in := validInput()
	in.Rating = ptr(4.256)

	f.products.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.Rating == 4.26
	})).Return(model.Product{ID: 1}, nil)
	f.audits.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.uc.Create(authed(), in)
	require.NoError(t, err)
	f.products.AssertExpectations(t)
}

func TestProductUsecase_Create_AuditFailure(t *testing.T) {
	f := newFixture()
	f.products.On("Create", mock.Anything, mock.Anything).Return(model.Product{ID: 1}, nil)
	f.audits.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	_, err := f.uc.Create(authed(), validInput())
	assertStatus(t, err, http.StatusInternalServerError)
}

// =====================
// Replace / Patch
// =====================

func existing() model.Product {
	return model.Product{
		ID:          3,
		Name:        "Tea",
		Description: "hot",
		Price:       decimal.RequireFromString("3.00"),
		Rating:      4,
		Category:    "drinks",
		Toppings:    model.ToppingsFromNames([]string{"mint"}),
		ProductType: model.ProductTypeVeg,
	}
}

func TestProductUsecase_Replace_Success(t *testing.T) {
	f := newFixture()
	in := validInput()
	in.Description = ""
	in.Toppings = nil

	f.products.On("FindByID", mock.Anything, int64(3)).Return(existing(), nil)
	f.products.On("Update", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		// 省略した項目は初期値に戻る
		return p.ID == 3 && p.Name == "Lemon Tea" && p.Description == "" && len(p.Toppings) == 0
	})).Return(model.Product{ID: 3, Name: "Lemon Tea"}, nil)
	f.audits.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateProduct && l.BeforeJSON != "" && l.AfterJSON != ""
	})).Return(nil)

	p, err := f.uc.Replace(authed(), 3, in)
	require.NoError(t, err)
	assert.Equal(t, "Lemon Tea", p.Name)
	f.products.AssertExpectations(t)
	f.audits.AssertExpectations(t)
}

func TestProductUsecase_Replace_NotFound(t *testing.T) {
	f := newFixture()
	f.products.On("FindByID", mock.Anything, int64(99)).Return(nil, repo.ErrNotFound)

	_, err := f.uc.Replace(authed(), 99, validInput())
	assertStatus(t, err, http.StatusNotFound)
	f.products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProductUsecase_Replace_Validation(t *testing.T) {
	f := newFixture()
	f.products.On("FindByID", mock.Anything, int64(3)).Return(existing(), nil)
	in := validInput()
	in.Name = ""

	_, err := f.uc.Replace(authed(), 3, in)
	he := assertStatus(t, err, http.StatusBadRequest)
	assert.Contains(t, he.Fields, "name")
	f.products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// PATCHは指定した項目以外を変えない
func TestProductUsecase_Patch_OnlySuppliedFields(t *testing.T) {
	f := newFixture()
	before := existing()
	f.products.On("FindByID", mock.Anything, int64(3)).Return(before, nil)

	var saved model.Product
	f.products.On("Update", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(model.Product) }).
		Return(model.Product{ID: 3}, nil)
	f.audits.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.uc.Patch(authed(), 3, usecase.ProductPatchInput{Price: ptr(decimal.RequireFromString("3.75"))})
	require.NoError(t, err)

	assert.True(t, saved.Price.Equal(decimal.RequireFromString("3.75")))
	assert.Equal(t, before.Name, saved.Name)
	assert.Equal(t, before.Description, saved.Description)
	assert.Equal(t, before.Rating, saved.Rating)
	assert.Equal(t, before.Category, saved.Category)
	assert.Equal(t, before.ProductType, saved.ProductType)
	assert.Equal(t, []string{"mint"}, saved.ToppingNames())
}

func TestProductUsecase_Patch_ClearToppings(t *testing.T) {
	f := newFixture()
	f.products.On("FindByID", mock.Anything, int64(3)).Return(existing(), nil)
	f.products.On("Update", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return len(p.Toppings) == 0
	})).Return(model.Product{ID: 3}, nil)
	f.audits.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.uc.Patch(authed(), 3, usecase.ProductPatchInput{Toppings: []string{}})
	require.NoError(t, err)
	f.products.AssertExpectations(t)
}

func TestProductUsecase_Patch_Validation(t *testing.T) {
	f := newFixture()
	f.products.On("FindByID", mock.Anything, int64(3)).Return(existing(), nil)

	_, err := f.uc.Patch(authed(), 3, usecase.ProductPatchInput{
		Name:        ptr(" "),
		ProductType: ptr("Vegan"),
	})
	he := assertStatus(t, err, http.StatusBadRequest)
	assert.Contains(t, he.Fields, "name")
	assert.Contains(t, he.Fields, "product_type")
}

func TestProductUsecase_Patch_Unauthorized(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Patch(context.Background(), 3, usecase.ProductPatchInput{Name: ptr("x")})
	assertStatus(t, err, http.StatusUnauthorized)
	f.products.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

// =====================
// Delete
// =====================

func TestProductUsecase_Delete(t *testing.T) {
	f := newFixture()
	f.products.On("FindByID", mock.Anything, int64(3)).Return(existing(), nil)
	f.products.On("Delete", mock.Anything, int64(3)).Return(nil)
	f.audits.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionDeleteProduct && l.ResourceID == 3 && l.AfterJSON == ""
	})).Return(nil)

	require.NoError(t, f.uc.Delete(authed(), 3))
	f.products.AssertExpectations(t)
	f.audits.AssertExpectations(t)
}

func TestProductUsecase_Delete_NotFound(t *testing.T) {
	f := newFixture()
	f.products.On("FindByID", mock.Anything, int64(4)).Return(nil, repo.ErrNotFound)

	err := f.uc.Delete(authed(), 4)
	assertStatus(t, err, http.StatusNotFound)
	f.products.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProductUsecase_Delete_Unauthorized(t *testing.T) {
	f := newFixture()

	err := f.uc.Delete(context.Background(), 3)
	assertStatus(t, err, http.StatusUnauthorized)
	assert.Zero(t, f.tx.calls)
}
