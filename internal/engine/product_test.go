package engine

import (
	"testing"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRefreshProduct_ExtrudedFilm(t *testing.T) {
	s := newCoilScenario(t)

	assert.Equal(t, 0.92, s.film.Density)
	assert.Equal(t, 46.0, s.film.ExtrudedGrammage)
	assert.Equal(t, 46.0, s.film.TotalGrammage)
	assert.InDelta(t, 500.0, s.film.Surface, 1e-9)
	assert.Equal(t, 23.0, s.film.NetCoilWeight)
	assert.Equal(t, 23.0, s.film.GrossCoilWeight)
	assert.Equal(t, 23.0, UnitWeight(s.film))
}

func TestRefreshProduct_TheoreticalDensity(t *testing.T) {
	f := newFixture(t)
	p := product("Film", category("Film", func(c *model.ProductCategory) {
		c.IsCompanyFilm = true
		c.FilmType = model.FilmExtruded
	}), f.m)
	p.FormulaCode = "F1"
	p.ColorCode = "NAT"
	p.Thickness = 20

	table := NewDensityTable([]model.TheoreticalDensity{
		{FormulaCode: "F1", ColorCode: "NAT", Density: 0.935},
		{FormulaCode: "F1", ColorCode: "WHT", Density: 1.1},
	})
	f.e.RefreshProduct(p, nil, table)

	assert.Equal(t, 0.94, p.Density)
	assert.Equal(t, 18.8, p.ExtrudedGrammage)
}

func TestProductDensity_UnknownCodes(t *testing.T) {
	p := &model.Product{FormulaCode: "F9", ColorCode: "RED"}
	assert.Equal(t, 0.0, ProductDensity(p, NewDensityTable(nil)))
}

func TestRefreshProduct_LaminatedFilmWithMandrel(t *testing.T) {
	f := newFixture(t)
	company := category("Company film", func(c *model.ProductCategory) { c.IsCompanyFilm = true })
	bought := category("Bought film", func(c *model.ProductCategory) { c.IsSubcontractedFilm = true })
	mandrels := category("Mandrel", func(c *model.ProductCategory) { c.IsMandrel = true })
	laminated := category("Laminated", func(c *model.ProductCategory) {
		c.IsCompanyFilm = true
		c.FilmType = model.FilmLaminated
	})

	p := product("Laminate", laminated, f.m)
	p.Thickness = 20
	p.IsManualDensity = true
	p.ManualDensity = 1
	p.Width = 1000
	p.Length = 100

	mandrel := product("Core 76", mandrels, f.unit)
	mandrel.Weight = 1.5

	bom := model.NewProductionBoM(p, 1, f.m)
	own := model.NewBoMLine(product("PE", company, f.m), 1)
	own.Grammage = 10
	other := model.NewBoMLine(product("PET", bought, f.m), 1)
	other.Grammage = 15
	core := model.NewBoMLine(mandrel, 1)
	bom.Lines = []model.BoMLine{own, other, core}

	f.e.RefreshProduct(p, &bom, nil)

	assert.Equal(t, 45.0, p.TotalGrammage)
	assert.Equal(t, 30.0, p.CompanyFilmGrammage)
	assert.Equal(t, 0.0, p.ExtrudedGrammage)
	assert.Equal(t, 4.5, p.NetCoilWeight)
	assert.Equal(t, 6.0, p.GrossCoilWeight)
	if assert.NotNil(t, p.Mandrel) {
		assert.Equal(t, mandrel.ID, *p.MandrelID)
	}

	mandrel.IsManualWeight = true
	mandrel.ManualWeight = 2
	f.e.RefreshProduct(p, &bom, nil)
	assert.Equal(t, 6.5, p.GrossCoilWeight)
}

func TestRefreshProduct_GluedFilm(t *testing.T) {
	f := newFixture(t)
	glued := category("Glued", func(c *model.ProductCategory) {
		c.IsCompanyFilm = true
		c.FilmType = model.FilmGlued
	})
	p := product("Duplex", glued, f.m)
	// thickness is ignored for glued films
	p.Thickness = 50
	p.IsManualDensity = true
	p.ManualDensity = 1

	bom := model.NewProductionBoM(p, 1, f.m)
	a := model.NewBoMLine(product("A", glued, f.m), 1)
	a.Grammage = 12.5
	b := model.NewBoMLine(product("B", glued, f.m), 1)
	b.Grammage = 7.5
	bom.Lines = []model.BoMLine{a, b}

	f.e.RefreshProduct(p, &bom, nil)
	assert.Equal(t, 20.0, p.TotalGrammage)
}

func TestTotalGrammage_Manual(t *testing.T) {
	p := &model.Product{IsManualTotalGrammage: true, ManualTotalGrammage: 33}
	assert.Equal(t, 33.0, TotalGrammage(p, nil))
}

func TestTotalGrammage_NotACompanyFilm(t *testing.T) {
	p := &model.Product{Category: category("Bought", func(c *model.ProductCategory) { c.IsSubcontractedFilm = true })}
	assert.Equal(t, 0.0, TotalGrammage(p, nil))
	assert.Equal(t, 0.0, ExtrudedGrammage(p))
}

func TestUnitWeight_Manual(t *testing.T) {
	p := &model.Product{NetCoilWeight: 23, IsManualWeight: true, ManualWeight: 25}
	assert.Equal(t, 25.0, UnitWeight(p))
}
