package engine

import (
	"testing"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartupWaste(t *testing.T) {
	// 100 m/min for 10 min over 1 m of 46 g/m²
	assert.InDelta(t, 46.0, StartupWaste(100, 10, 1000, 46), 1e-9)
	assert.Equal(t, 0.0, StartupWaste(0, 10, 1000, 46))
}

func TestProductStartupWaste(t *testing.T) {
	assert.InDelta(t, 23.0, ProductStartupWaste(46, 1000, 500, 1), 1e-9)
	assert.InDelta(t, 46.0, ProductStartupWaste(46, 1000, 500, 2), 1e-9)
	assert.Equal(t, 0.0, ProductStartupWaste(46, 0, 500, 1))
}

func TestPercentageWaste(t *testing.T) {
	wc := &model.Workcenter{WastePercentage: 2}
	assert.InDelta(t, 2.3, PercentageWaste(46, 3, wc), 1e-9)
	assert.InDelta(t, 1.38, PercentageWaste(46, 3, nil), 1e-9)
}

func TestBorderFactor(t *testing.T) {
	b := &model.BoM{TotalProductionWidth: 1000}
	tests := []struct {
		name   string
		line   model.BoMLine
		expect float64
	}{
		{"wider film", model.BoMLine{Product: &model.Product{Width: 1100}}, 0.1},
		{"same width", model.BoMLine{Product: &model.Product{Width: 1000}}, 0},
		{"narrower film", model.BoMLine{Product: &model.Product{Width: 800}}, 0},
		{"manual factor", model.BoMLine{Product: &model.Product{Width: 800}, IsManualBorderFactor: true, ManualBorderFactor: -0.05}, -0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expect, BorderFactor(b, &tt.line), 1e-9)
		})
	}

	assert.Equal(t, 0.0, BorderFactor(&model.BoM{}, &tests[0].line))
}

func TestWasteOf_ReadsComputedSteps(t *testing.T) {
	s := newCoilScenario(t)
	require.NoError(t, s.e.Recompute(s.production()))

	w := WasteOf(s.bom)
	assert.Equal(t, 46.0, w.Startup)
	assert.Equal(t, 23.0, w.ProductStartup)
	assert.Equal(t, 2.3, w.Percentage)
	assert.Equal(t, 25.3, w.Qty)
	assert.Equal(t, 0.0, w.Border)
	assert.Equal(t, 25.3, w.Total())
}

func TestQuantityInKg_FallsBackToRawMaterialWeight(t *testing.T) {
	s := newCoilScenario(t)
	s.bom.UoMID = &s.unit.ID
	s.bom.UoM = s.unit
	s.bom.RawMaterialWeight = 12

	assert.Equal(t, 12.0, s.e.QuantityInKg(s.bom))
	assert.Equal(t, 0.0, s.e.QuantityInMeters(s.bom))
}

func TestQuantityInMeters(t *testing.T) {
	s := newCoilScenario(t)
	assert.Equal(t, 2000.0, s.e.QuantityInMeters(s.bom))
	assert.Equal(t, 46.0, s.e.QuantityInKg(s.bom))
}

func TestByproductQuantity(t *testing.T) {
	s := newCoilScenario(t)
	s.bom.WasteQty = 25.3
	s.bom.BorderWasteQty = 2.2

	scrap := product("Scrap", category("Waste", func(c *model.ProductCategory) { c.IsWaste = true }), s.kg)
	bp := &model.Byproduct{ProductID: scrap.ID, Product: scrap, UoMID: &s.kg.ID, UoM: s.kg, WasteManagement: true}

	qty, err := s.e.ByproductQuantity(s.bom, bp)
	require.NoError(t, err)
	assert.Equal(t, 27.5, qty)

	bp.UoMID = &s.unit.ID
	bp.UoM = s.unit
	_, err = s.e.ByproductQuantity(s.bom, bp)
	require.Error(t, err)
	assert.True(t, IsConversion(err))
	assert.Equal(t,
		"It is not possible to input waste on by-product Scrap (maybe this product does not handle kilograms).",
		err.Error())
}
