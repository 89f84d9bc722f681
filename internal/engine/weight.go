package engine

import (
	"fmt"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/precision"
	"github.com/piwi3910/FilmBoM/internal/uom"
)

// countQuantity expresses the BoM quantity in the reference unit of its
// unit category, which counts produced units (coils, pieces).
func (e *Engine) countQuantity(b *model.BoM) (float64, error) {
	unit := e.unit(b.UoMID, b.UoM)
	if unit == nil {
		return b.Quantity, nil
	}
	ref, ok := e.Units.Reference(unit.CategoryID)
	if !ok {
		return b.Quantity, nil
	}
	return uom.Convert(b.Quantity, unit, ref)
}

// RawMaterialWeight is the weight in kg of material needed to produce the
// BoM quantity. Glued films are assembled from components and have none.
func (e *Engine) RawMaterialWeight(b *model.BoM) (float64, error) {
	p := b.Product
	if p == nil || p.FilmType() == model.FilmGlued {
		return 0, nil
	}
	qty, err := e.countQuantity(b)
	if err != nil {
		return 0, fmt.Errorf("failed to count quantity to produce: %w", err)
	}
	return e.Precision.Round(precision.Triple, UnitWeight(p)*qty), nil
}

// RecipeLines distributes the raw material weight of production BoM b over
// the lines of recipe. Each generated line carries the recipe line stamp
// and the recipe concentration.
func (e *Engine) RecipeLines(b *model.BoM, recipe *model.BoM) ([]model.BoMLine, error) {
	kg := e.kilogram()
	ApplyConcentrations(recipe)

	lines := make([]model.BoMLine, 0, len(recipe.Lines))
	for i := range recipe.Lines {
		rl := &recipe.Lines[i]
		unit := e.unit(rl.UoMID, rl.UoM)
		if !uom.SameCategory(kg, unit) {
			return nil, &ConversionError{
				Msg: fmt.Sprintf("Cannot convert UoMs while importing recipe. UoMs categories should be the same on the BoM (%s) and the component (%s).",
					kg.DisplayName(), unit.DisplayName()),
				Err: uom.ErrCategoryMismatch,
			}
		}
		weight, err := uom.Convert(b.RawMaterialWeight, kg, unit)
		if err != nil {
			return nil, &ConversionError{Msg: err.Error(), Err: err}
		}

		line := model.BoMLine{
			ID:                   model.NewID(),
			BoMID:                &b.ID,
			Sequence:             rl.Sequence,
			ProductID:            rl.ProductID,
			Product:              rl.Product,
			Quantity:             e.Precision.Round(precision.ProductUoM, weight*rl.Concentration/100),
			UoMID:                &unit.ID,
			UoM:                  unit,
			ExtruderID:           rl.ExtruderID,
			RecipeLineID:         &rl.ID,
			RelatedConcentration: rl.Concentration,
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ReplaceRecipeLines drops every recipe-derived line of b and appends
// lines. The order guarantees stale lines never coexist with new ones.
func ReplaceRecipeLines(b *model.BoM, lines []model.BoMLine) {
	kept := b.Lines[:0]
	for _, l := range b.Lines {
		if !l.IsRecipeDerived() {
			kept = append(kept, l)
		}
	}
	b.Lines = append(kept, lines...)
}

// Density is the concentration weighted density of the BoM lines.
func (e *Engine) Density(b *model.BoM) float64 {
	total := 0.0
	for i := range b.Lines {
		l := &b.Lines[i]
		if l.Density() != 0 && l.Concentration != 0 {
			total += l.Density() * l.Concentration / 100
		}
	}
	return e.Precision.Round(precision.Double, total)
}
