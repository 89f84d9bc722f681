package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUoM(t *testing.T) {
	cat := &UoMCategory{ID: NewID(), Name: "Length"}
	mm := NewUoM("mm", "mm", cat, UoMSmaller, 1000)

	assert.NotEmpty(t, mm.ID)
	assert.Equal(t, cat.ID, mm.CategoryID)
	assert.True(t, mm.Active)
	assert.Equal(t, "mm (Length)", mm.DisplayName())
}

func TestBoMDisplayName(t *testing.T) {
	recipe := NewRecipe("RCP/00001")
	if got := recipe.DisplayName(); got != "RCP/00001" {
		t.Errorf("expected recipe number, got %q", got)
	}

	recipe.Code = "PE"
	if got := recipe.DisplayName(); got != "PE: RCP/00001" {
		t.Errorf("expected code prefix, got %q", got)
	}

	product := NewProduct("Stretch film 23µm", nil, nil)
	bom := NewProductionBoM(&product, 1, nil)
	if got := bom.DisplayName(); got != "Stretch film 23µm" {
		t.Errorf("expected product name, got %q", got)
	}
}

func TestBoMHasRecipe(t *testing.T) {
	recipe := NewRecipe("RCP/00001")
	bom := NewProductionBoM(nil, 1, nil)
	assert.False(t, bom.HasRecipe())

	bom.RecipeID = &recipe.ID
	assert.True(t, bom.HasRecipe())

	// recipes never count as linked
	recipe.RecipeID = &bom.ID
	assert.False(t, recipe.HasRecipe())
}

func TestExtruderDisplayName(t *testing.T) {
	e := NewExtruder("A", 60)
	assert.Equal(t, "A(60%)", e.DisplayName())

	e.Concentration = 33.5
	assert.Equal(t, "A(33.5%)", e.DisplayName())
}

func TestBoMLineFlags(t *testing.T) {
	glue := &ProductCategory{Name: "Glue", IsGlue: true}
	film := &ProductCategory{Name: "Film", IsCompanyFilm: true, FilmType: FilmExtruded}

	glueProduct := NewProduct("PU glue", glue, nil)
	filmProduct := NewProduct("PE film", film, nil)

	gl := NewBoMLine(&glueProduct, 1)
	fl := NewBoMLine(&filmProduct, 1)

	assert.True(t, gl.IsGlue())
	assert.False(t, gl.IsCoating())
	assert.False(t, fl.IsGlue())
	assert.True(t, filmProduct.IsFilm())
	assert.False(t, glueProduct.IsFilm())
	assert.Equal(t, FilmExtruded, filmProduct.FilmType())

	assert.False(t, fl.IsRecipeDerived())
	id := NewID()
	fl.RecipeLineID = &id
	assert.True(t, fl.IsRecipeDerived())
}

func TestProductWithoutCategory(t *testing.T) {
	p := NewProduct("Loose", nil, nil)
	assert.Equal(t, FilmNone, p.FilmType())
	assert.False(t, p.IsFilm())
}
