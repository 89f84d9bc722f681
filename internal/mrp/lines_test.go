package mrp

import (
	"strings"
	"testing"

	"github.com/piwi3910/FilmBoM/internal/engine"
	"github.com/piwi3910/FilmBoM/internal/importer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, csv string) importer.ImportResult {
	t.Helper()
	res := importer.ImportCSVFromReader(strings.NewReader(csv), ',')
	require.Empty(t, res.Errors)
	return res
}

func TestImportRecipeLines_Replace(t *testing.T) {
	e := newEnv(t)
	b := e.production(t)

	res := readLines(t, "Product,Extruder,Layer %,Unit\nLDPE,A,100,kg\nHDPE,B,100,kg\n")
	recipe, err := e.svc.ImportRecipeLines(e.ctx, e.recipe.ID, res, true)
	require.NoError(t, err)
	assert.Len(t, recipe.Lines, 2)

	b = e.reload(t, b.ID)
	assert.Equal(t, []float64{27.6, 18.4}, lineQuantities(b))
	acts, err := e.store.Activities(e.ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, acts, 5)
}

func TestImportRecipeLines_Append(t *testing.T) {
	e := newEnv(t)

	res := readLines(t, "Product,Extruder,Layer %,Alternative\nHDPE,A,100,yes\nLDPE,B,100,yes\n")
	recipe, err := e.svc.ImportRecipeLines(e.ctx, e.recipe.ID, res, false)
	require.NoError(t, err)
	assert.Len(t, recipe.Lines, 3)
	assert.Len(t, recipe.AltLines, 2)
}

func TestImportRecipeLines_LayerPairBalancingTo100(t *testing.T) {
	e := newEnv(t)

	res := readLines(t, "Product,Extruder,Layer %\nLDPE,A,100\nHDPE,B,120\nMasterbatch,B,-20\n")
	recipe, err := e.svc.ImportRecipeLines(e.ctx, e.recipe.ID, res, true)
	require.NoError(t, err)
	require.Len(t, recipe.Lines, 3)

	var layers, concentrations []float64
	for _, l := range recipe.Lines {
		layers = append(layers, l.LayerConcentration)
		concentrations = append(concentrations, l.Concentration)
	}
	assert.Equal(t, []float64{100, 120, -20}, layers)
	assert.Equal(t, []float64{60, 48, -8}, concentrations)
}

func TestImportRecipeLines_Rejected(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		csv  string
		msg  string
	}{
		{"unknown product", "Product,Extruder,Layer %\nPVC,A,100\nHDPE,B,100\n", "Line 2: unknown product PVC."},
		{"foreign unit", "Product,Extruder,Layer %,Unit\nLDPE,A,100,m\nHDPE,B,100,kg\n", "Line 2: m is not a unit of product LDPE."},
		{"unknown extruder", "Product,Extruder,Layer %\nLDPE,C,100\n", "Recipe (RCP/00001) has no extruder C."},
		{"layer total", "Product,Extruder,Layer %\nLDPE,A,100\nHDPE,B,60\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.ImportRecipeLines(e.ctx, e.recipe.ID, readLines(t, tt.csv), true)
			require.Error(t, err)
			assert.True(t, engine.IsValidation(err))
			if tt.msg != "" {
				assert.Equal(t, tt.msg, err.Error())
			}
			assert.Len(t, e.reload(t, e.recipe.ID).Lines, 3)
		})
	}
}

func TestImportRecipeLines_ReaderErrors(t *testing.T) {
	e := newEnv(t)

	res := importer.ImportCSVFromReader(strings.NewReader("Product,Extruder,Layer %\nLDPE,A,abc\n"), ',')
	_, err := e.svc.ImportRecipeLines(e.ctx, e.recipe.ID, res, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Line 2: Invalid layer concentration 'abc'")
}
