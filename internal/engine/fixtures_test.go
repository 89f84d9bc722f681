package engine

import (
	"testing"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/uom"
	"github.com/stretchr/testify/require"
)

type unitSpec struct {
	name    string
	typ     model.UoMType
	factor  float64
	related *model.UoM
}

type fixture struct {
	e     *Engine
	units *uom.Registry
	kg    *model.UoM
	m     *model.UoM
	m2    *model.UoM
	unit  *model.UoM
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := uom.StandardRegistry()
	require.NoError(t, err)
	return &fixture{
		e:     New(reg, model.DefaultAppConfig()),
		units: reg,
		kg:    reg.MustUnit("kg"),
		m:     reg.MustUnit("m"),
		m2:    reg.MustUnit("m2"),
		unit:  reg.MustUnit("unit"),
	}
}

// productCategory registers a product specific unit category and returns
// its units in declaration order.
func (f *fixture) productCategory(name string, specs ...unitSpec) []*model.UoM {
	cat := f.units.AddCategory(model.UoMCategory{ID: model.NewID(), Name: name})
	out := make([]*model.UoM, 0, len(specs))
	for _, s := range specs {
		u := model.NewUoM("", s.name, cat, s.typ, s.factor)
		if s.related != nil {
			id := s.related.ID
			u.RelatedUoMID = &id
		}
		f.units.Add(u)
		registered, _ := f.units.Unit(u.ID)
		out = append(out, registered)
	}
	return out
}

func category(name string, apply func(c *model.ProductCategory)) *model.ProductCategory {
	c := &model.ProductCategory{ID: model.NewID(), Name: name}
	if apply != nil {
		apply(c)
	}
	return c
}

func product(name string, c *model.ProductCategory, unit *model.UoM) *model.Product {
	p := model.NewProduct(name, c, unit)
	return &p
}

// coilScenario is a 500 mm extruded film sold in 1000 m coils of 23 kg,
// produced from a two layer recipe.
type coilScenario struct {
	*fixture
	film     *model.Product
	coil     *model.UoM
	coilKg   *model.UoM
	recipe   *model.BoM
	bom      *model.BoM
	wc       *model.Workcenter
	resins   []*model.Product
	extruder []*model.Extruder
}

func newCoilScenario(t *testing.T) *coilScenario {
	t.Helper()
	f := newFixture(t)
	s := &coilScenario{fixture: f}

	units := f.productCategory("Coil 500",
		unitSpec{"coil", model.UoMReference, 1, nil},
		unitSpec{"m (coil)", model.UoMSmaller, 1000, f.m},
		unitSpec{"kg (coil)", model.UoMSmaller, 23, f.kg},
	)
	s.coil, s.coilKg = units[0], units[2]

	filmCat := category("Extruded film", func(c *model.ProductCategory) {
		c.IsCompanyFilm = true
		c.FilmType = model.FilmExtruded
	})
	s.film = product("PE 50µ 500mm", filmCat, s.coil)
	s.film.Thickness = 50
	s.film.Width = 500
	s.film.Length = 1000
	s.film.IsManualDensity = true
	s.film.ManualDensity = 0.92
	f.e.RefreshProduct(s.film, nil, nil)

	resinCat := category("Resin", nil)
	for _, r := range []struct {
		name    string
		density float64
	}{{"LDPE", 0.92}, {"HDPE", 0.95}, {"Masterbatch", 0.90}} {
		p := product(r.name, resinCat, f.kg)
		p.Density = r.density
		s.resins = append(s.resins, p)
	}

	recipe := model.NewRecipe("RCP/00001")
	recipe.Extruders = []model.Extruder{
		model.NewExtruder("A", 60),
		model.NewExtruder("B", 40),
	}
	for i := range recipe.Extruders {
		recipe.Extruders[i].BoMID = recipe.ID
	}
	recipe.Lines = []model.BoMLine{
		recipeLine(&recipe, s.resins[0], &recipe.Extruders[0], 100),
		recipeLine(&recipe, s.resins[1], &recipe.Extruders[1], 50),
		recipeLine(&recipe, s.resins[2], &recipe.Extruders[1], 50),
	}
	f.e.RefreshRecipe(&recipe)
	s.recipe = &recipe

	s.wc = &model.Workcenter{ID: model.NewID(), Name: "Extruder 1", StartupTime: 10, WastePercentage: 2}

	b := model.NewProductionBoM(s.film, 2, s.coil)
	b.RecipeID = &recipe.ID
	b.WorkcenterID = &s.wc.ID
	b.Workcenter = s.wc
	b.TotalProductionWidth = 1000
	b.MachineSpeed = 100
	b.MachineTimeNumber = 1
	b.WastePercentage = 3
	s.bom = &b
	return s
}

func (s *coilScenario) production() *Production {
	return &Production{BoM: s.bom, Recipe: s.recipe}
}

func recipeLine(b *model.BoM, p *model.Product, ex *model.Extruder, layer float64) model.BoMLine {
	l := model.NewBoMLine(p, 0)
	l.BoMID = &b.ID
	l.ExtruderID = &ex.ID
	l.LayerConcentration = layer
	return l
}
