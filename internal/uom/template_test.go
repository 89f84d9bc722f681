package uom

import (
	"testing"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coilTemplate() model.UoMCategoryTemplate {
	return model.NewUoMCategoryTemplate("Coil units", "name",
		model.UoMTemplate{ID: model.NewID(), Name: "Coil", Type: model.UoMReference, Rounding: 1, Active: true, Default: true},
		model.UoMTemplate{ID: model.NewID(), Name: "m", Type: model.UoMSmaller, FactorFrom: "length", Rounding: 0.01, Active: true, RelatedUoMCode: "m", DefaultPurchase: true},
		model.UoMTemplate{ID: model.NewID(), Name: "kg", Type: model.UoMSmaller, FactorFrom: "net_coil_weight", Rounding: 0.001, Active: true, RelatedUoMCode: "kg"},
	)
}

func coilProduct() model.Product {
	tmplID := model.NewID()
	cat := &model.ProductCategory{ID: model.NewID(), Name: "Stretch", UoMTemplateID: &tmplID}
	p := model.NewProduct("STRETCH 23 500", cat, nil)
	p.Length = 1500
	p.NetCoilWeight = 16.5
	return p
}

func TestGenerate_NewCategory(t *testing.T) {
	r := standard(t)
	p := coilProduct()
	tmpl := coilTemplate()

	g, err := Generate(r, &p, tmpl)
	require.NoError(t, err)

	assert.True(t, g.NewCategory)
	assert.False(t, g.KeptReference)
	assert.Equal(t, "STRETCH 23 500", g.Category.Name)
	assert.Equal(t, "Coil", g.Reference.Name)
	assert.Equal(t, 1.0, g.Reference.Factor)
	require.Len(t, g.Created, 2)

	byName := map[string]model.UoM{}
	for _, u := range g.Created {
		byName[u.Name] = u
	}
	assert.Equal(t, 1500.0, byName["m"].Factor)
	assert.Equal(t, 16.5, byName["kg"].Factor)
	assert.Equal(t, r.MustUnit("m").ID, *byName["m"].RelatedUoMID)
	assert.Equal(t, g.Reference.ID, g.DefaultID)
	assert.Equal(t, byName["m"].ID, g.DefaultPurchaseID)

	g.Apply(r, &p)
	assert.Equal(t, g.Reference.ID, *p.UoMID)
	assert.Equal(t, byName["m"].ID, *p.PurchaseUoMID)

	// 2 coils of 1500 m
	got, err := Convert(2, p.UoM, r.MustUnit("m"))
	require.ErrorIs(t, err, ErrCategoryMismatch)
	meters, ok := r.RelatedUnit(g.Category.ID, r.MustUnit("m"))
	require.True(t, ok)
	got, err = Convert(2, p.UoM, meters)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, got)
}

func TestGenerate_RegenerateKeepsReference(t *testing.T) {
	r := standard(t)
	p := coilProduct()
	tmpl := coilTemplate()

	first, err := Generate(r, &p, tmpl)
	require.NoError(t, err)
	first.Apply(r, &p)

	p.Length = 2000
	second, err := Generate(r, &p, tmpl)
	require.NoError(t, err)

	assert.False(t, second.NewCategory)
	assert.True(t, second.KeptReference)
	assert.Equal(t, first.Reference.ID, second.Reference.ID)
	assert.Len(t, second.Archived, 2)
	for _, u := range second.Archived {
		assert.False(t, u.Active)
	}
	second.Apply(r, &p)

	meters, ok := r.RelatedUnit(second.Category.ID, r.MustUnit("m"))
	require.True(t, ok)
	assert.Equal(t, 2000.0, meters.Factor)
}

func TestGenerate_Errors(t *testing.T) {
	r := standard(t)

	t.Run("empty name", func(t *testing.T) {
		p := coilProduct()
		p.Name = ""
		_, err := Generate(r, &p, coilTemplate())
		assert.ErrorContains(t, err, "unable to create a new UoM category")
	})

	t.Run("name taken", func(t *testing.T) {
		p := coilProduct()
		p.Name = "Weight"
		_, err := Generate(r, &p, coilTemplate())
		assert.ErrorContains(t, err, "already an UoM category with this name (Weight)")
	})

	t.Run("zero factor", func(t *testing.T) {
		p := coilProduct()
		p.NetCoilWeight = 0
		_, err := Generate(r, &p, coilTemplate())
		assert.ErrorContains(t, err, "factor equal to 0.0")
	})

	t.Run("missing ratio", func(t *testing.T) {
		p := coilProduct()
		tmpl := coilTemplate()
		tmpl.UoMTemplates[2].FactorFrom = ""
		_, err := Generate(r, &p, tmpl)
		assert.ErrorContains(t, err, "conversion ratio is missing")
	})

	t.Run("two defaults", func(t *testing.T) {
		p := coilProduct()
		tmpl := coilTemplate()
		tmpl.UoMTemplates[2].Default = true
		_, err := Generate(r, &p, tmpl)
		assert.ErrorContains(t, err, `one "default" uom template (found 2)`)
	})
}

func TestMissingUnits(t *testing.T) {
	r := standard(t)
	p := coilProduct()
	assert.True(t, MissingUnits(r, &p))

	g, err := Generate(r, &p, coilTemplate())
	require.NoError(t, err)
	g.Apply(r, &p)
	assert.False(t, MissingUnits(r, &p))

	p.Active = false
	p.UoMID = nil
	assert.False(t, MissingUnits(r, &p))
}
