package seed

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"menuapi/internal/identity"
	"menuapi/internal/infra/db/dbtest"
	infraRepo "menuapi/internal/infra/repository"
	"menuapi/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const menuCSV = `name,description,price,rating,category,toppings,product_type
Lemon Tea,Fresh tea,4.50,4.2,drinks,lemon; ice,Veg
Chicken Wrap,,9.75,4.1,mains,cheese,Non-Veg
Smoothie,Mixed fruit,10,3.9,drinks,,Veg
`

func newUsecase(t *testing.T) *usecase.ProductUsecase {
	t.Helper()
	db := dbtest.Open(t)
	return usecase.NewProductUsecase(infraRepo.NewProductGormRepository(db), infraRepo.NewTxManagerGorm(db))
}

func seedCtx() context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{UserID: 1, Username: "seed"})
}

func TestRun(t *testing.T) {
	uc := newUsecase(t)

	n, err := Run(seedCtx(), strings.NewReader(menuCSV), uc)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	out, err := uc.ListProducts(context.Background(), url.Values{})
	require.NoError(t, err)
	require.Len(t, out.Items, 3)
	assert.Equal(t, "Lemon Tea", out.Items[0].Name)
	assert.Equal(t, []string{"ice", "lemon"}, out.Items[0].ToppingNames())
	assert.Empty(t, out.Items[2].Toppings)
	assert.Equal(t, "Non-Veg", string(out.Items[1].ProductType))
}

func TestRun_StopsAtBadRow(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		created int
		wantErr string
	}{
		{
			name:    "bad price",
			csv:     "name,description,price,rating,category,toppings,product_type\nTea,,4.50,4,drinks,,Veg\nCake,,cheap,4,desserts,,Veg\n",
			created: 1,
			wantErr: "line 3",
		},
		{
			name:    "bad rating",
			csv:     "name,description,price,rating,category,toppings,product_type\nTea,,4.50,great,drinks,,Veg\n",
			wantErr: "rating",
		},
		{
			name:    "rejected by validation",
			csv:     "name,description,price,rating,category,toppings,product_type\nTea,,4.50,4,drinks,,Vegan\n",
			wantErr: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Run(seedCtx(), strings.NewReader(tt.csv), newUsecase(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.created, n)
		})
	}
}

// identityが無いと作成できない
func TestRun_RequiresIdentity(t *testing.T) {
	n, err := Run(context.Background(), strings.NewReader(menuCSV), newUsecase(t))
	require.Error(t, err)
	assert.Equal(t, 0, n)
}
