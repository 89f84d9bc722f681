package uom

import (
	"errors"
	"testing"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standard(t *testing.T) *Registry {
	t.Helper()
	r, err := StandardRegistry()
	require.NoError(t, err)
	return r
}

func TestConvert(t *testing.T) {
	r := standard(t)
	kg := r.MustUnit("kg")
	g := r.MustUnit("g")
	ton := r.MustUnit("t")
	mm := r.MustUnit("mm")

	got, err := Convert(2.5, kg, g)
	require.NoError(t, err)
	assert.InDelta(t, 2500, got, 1e-9)

	got, err = Convert(1500, kg, ton)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got, 1e-9)

	got, err = Convert(42, kg, kg)
	require.NoError(t, err)
	assert.Equal(t, 42.0, got)

	_, err = Convert(1, kg, mm)
	assert.True(t, errors.Is(err, ErrCategoryMismatch))
	assert.Contains(t, err.Error(), "kg (Weight)")

	_, err = Convert(1, nil, kg)
	assert.ErrorIs(t, err, ErrMissingUnit)
}

func TestRegistryLookups(t *testing.T) {
	r := standard(t)

	length, ok := r.CategoryByCode("length")
	require.True(t, ok)

	ref, ok := r.Reference(length.ID)
	require.True(t, ok)
	assert.Equal(t, "m", ref.Code)

	assert.Len(t, r.Units(length.ID), 5)

	m := r.MustUnit("m")
	related, ok := r.RelatedUnit(length.ID, m)
	require.True(t, ok)
	assert.Equal(t, m.ID, related.ID)

	weight, _ := r.CategoryByCode("weight")
	_, ok = r.RelatedUnit(weight.ID, m)
	assert.False(t, ok)

	assert.Panics(t, func() { r.MustUnit("furlong") })
}

func TestRegistryDefaults(t *testing.T) {
	r := standard(t)

	tests := []struct {
		dim  Dimension
		role Role
		code string
	}{
		{Length, Reference, "m"},
		{Length, Milli, "mm"},
		{Length, Micro, "um"},
		{Weight, Reference, "kg"},
		{Surface, Reference, "m2"},
		{Grammage, Reference, "gsm"},
		{Density, Reference, "gcm3"},
		{Speed, PerMinute, "m_min"},
		{Count, Reference, "unit"},
	}
	for _, tt := range tests {
		u, err := r.Default(tt.dim, tt.role)
		if assert.NoError(t, err, "%s/%s", tt.dim, tt.role) {
			assert.Equal(t, tt.code, u.Code, "%s/%s", tt.dim, tt.role)
		}
	}

	_, err := r.Default(Surface, Micro)
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestRegistryDefaultsFallBackToCategory(t *testing.T) {
	cat := model.UoMCategory{ID: model.NewID(), Code: "length", Name: "Length"}
	meter := model.NewUoM("metre", "Metre", &cat, model.UoMReference, 1)
	milli := model.NewUoM("millimetre", "Millimetre", &cat, model.UoMSmaller, 1000)
	r := NewRegistry([]model.UoMCategory{cat}, []model.UoM{meter, milli})

	u, err := r.Default(Length, Reference)
	require.NoError(t, err)
	assert.Equal(t, "metre", u.Code)

	u, err = r.Default(Length, Milli)
	require.NoError(t, err)
	assert.Equal(t, "millimetre", u.Code)

	_, err = r.Default(Weight, Reference)
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestProductUnitsDoNotShadowCodes(t *testing.T) {
	r := standard(t)
	cat := model.UoMCategory{ID: model.NewID(), Name: "Film A"}
	pid := model.NewID()
	custom := model.NewUoM("kg", "kg", &cat, model.UoMSmaller, 20)
	custom.ProductID = &pid
	r.AddCategory(cat)
	r.Add(custom)

	assert.NotEqual(t, custom.ID, r.MustUnit("kg").ID)
	got, ok := r.Unit(custom.ID)
	require.True(t, ok)
	assert.Equal(t, "Film A", got.Category.Name)
}
