package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string   `json:"name" validate:"required,max=5"`
	Rating   *float64 `json:"rating" validate:"required,gte=0,lte=5"`
	Kind     string   `json:"product_type" validate:"required,oneof=Veg Non-Veg"`
	Toppings []string `json:"toppings" validate:"max=2,dive,required"`
	Note     *string  `json:"note" validate:"omitnil,min=1"`
}

func ptr[T any](v T) *T { return &v }

func TestValidator_Struct_OK(t *testing.T) {
	v := New()

	err := v.Struct(sample{Name: "Tea", Rating: ptr(0.0), Kind: "Veg"})
	assert.NoError(t, err)

	// nilのポインタは検証しない
	err = v.Struct(sample{Name: "Tea", Rating: ptr(5.0), Kind: "Non-Veg", Note: nil})
	assert.NoError(t, err)
}

func TestValidator_Struct_FieldErrorsUseJSONNames(t *testing.T) {
	v := New()

	err := v.Struct(sample{Name: "Too long", Rating: ptr(7.0), Kind: "Vegan", Toppings: []string{"a", ""}, Note: ptr("")})
	require.Error(t, err)

	fe, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "ensure this field has no more than 5 characters", fe["name"])
	assert.Equal(t, "ensure this value is less than or equal to 5", fe["rating"])
	assert.Equal(t, "must be one of: Veg, Non-Veg", fe["product_type"])
	assert.Equal(t, "this field is required", fe["toppings[1]"])
	assert.Equal(t, "this field may not be blank", fe["note"])
}

// ポインタがnilならrequired
func TestValidator_Struct_RequiredPointer(t *testing.T) {
	v := New()

	err := v.Struct(sample{Name: "Tea", Kind: "Veg"})
	fe, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "this field is required", fe["rating"])
}

func TestFieldErrors_OrNilAndMessage(t *testing.T) {
	assert.NoError(t, FieldErrors{}.OrNil())

	fe := FieldErrors{}
	fe.Add("b", "second")
	fe.Add("a", "first")
	fe.Add("a", "ignored")

	err := fe.OrNil()
	require.Error(t, err)
	assert.Equal(t, "validation failed: a: first; b: second", err.Error())

	got, ok := AsFieldErrors(errors.Join(errors.New("x"), err))
	assert.True(t, ok)
	assert.Equal(t, "first", got["a"])
}
