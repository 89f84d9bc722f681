package engine

import (
	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/precision"
)

// LineConcentration is the share of the whole recipe held by a line:
// its share of the layer times the layer share of the recipe.
func LineConcentration(l *model.BoMLine, ex *model.Extruder) float64 {
	if l.LayerConcentration == 0 || ex == nil || ex.Concentration == 0 {
		return 0
	}
	return l.LayerConcentration * ex.Concentration / 100
}

func extruderIndex(b *model.BoM) map[string]*model.Extruder {
	idx := make(map[string]*model.Extruder, len(b.Extruders))
	for i := range b.Extruders {
		idx[b.Extruders[i].ID] = &b.Extruders[i]
	}
	return idx
}

// lineExtruder finds the extruder of a line, preferring the BoM's own
// extruder list over the line's loaded association.
func lineExtruder(l *model.BoMLine, idx map[string]*model.Extruder) *model.Extruder {
	if l.ExtruderID == nil {
		return nil
	}
	if ex, ok := idx[*l.ExtruderID]; ok {
		return ex
	}
	if l.Extruder != nil && l.Extruder.ID == *l.ExtruderID {
		return l.Extruder
	}
	return nil
}

// ApplyConcentrations refreshes the effective concentration of every line
// and alternative line of a recipe.
func ApplyConcentrations(b *model.BoM) {
	idx := extruderIndex(b)
	for i := range b.Lines {
		b.Lines[i].Concentration = LineConcentration(&b.Lines[i], lineExtruder(&b.Lines[i], idx))
	}
	for i := range b.AltLines {
		b.AltLines[i].Concentration = LineConcentration(&b.AltLines[i], lineExtruder(&b.AltLines[i], idx))
	}
}

// LayerTotals sums layer concentrations per extruder id. Lines without an
// extruder are grouped under the empty id.
func (e *Engine) LayerTotals(lines []model.BoMLine) map[string]float64 {
	raw := make(map[string][]float64)
	for _, l := range lines {
		key := ""
		if l.ExtruderID != nil {
			key = *l.ExtruderID
		}
		raw[key] = append(raw[key], l.LayerConcentration)
	}
	totals := make(map[string]float64, len(raw))
	for k, values := range raw {
		totals[k] = e.Precision.Sum(precision.Concentration, values...)
	}
	return totals
}

// ValidateExtruders checks that the extruders of a recipe share 100%.
func (e *Engine) ValidateExtruders(b *model.BoM) error {
	if !b.IsRecipe() || len(b.Extruders) == 0 {
		return nil
	}
	values := make([]float64, len(b.Extruders))
	for i, ex := range b.Extruders {
		values[i] = ex.Concentration
	}
	total := e.Precision.Sum(precision.Concentration, values...)
	if !e.Precision.Equal(precision.Concentration, total, 100) {
		return validationf("Total concentration of BoM's extruders is %s%% (should be 100%%).", formatNumber(total))
	}
	return nil
}

// ValidateLines checks the recipe lines total and every layer total.
func (e *Engine) ValidateLines(b *model.BoM) error {
	if !b.IsRecipe() || len(b.Lines) == 0 {
		return nil
	}
	return e.validateLineSet(b, b.Lines, "Total concentration of recipe components is %s%% (should be 100%%).")
}

// ValidateAltLines applies the ValidateLines rules to alternative lines.
func (e *Engine) ValidateAltLines(b *model.BoM) error {
	if !b.IsRecipe() || len(b.AltLines) == 0 {
		return nil
	}
	return e.validateLineSet(b, b.AltLines, "Total concentration of alternative BoM lines is %s%% (should be 100%%).")
}

func (e *Engine) validateLineSet(b *model.BoM, lines []model.BoMLine, totalMsg string) error {
	idx := extruderIndex(b)
	values := make([]float64, len(lines))
	for i := range lines {
		values[i] = LineConcentration(&lines[i], lineExtruder(&lines[i], idx))
	}
	total := e.Precision.Sum(precision.Concentration, values...)
	if !e.Precision.Equal(precision.Concentration, total, 100) {
		return validationf(totalMsg, formatNumber(total))
	}

	// a single line may exceed 100% so each layer is checked on its own
	layers := e.LayerTotals(lines)
	for i := range lines {
		key := ""
		if lines[i].ExtruderID != nil {
			key = *lines[i].ExtruderID
		}
		if !e.Precision.Equal(precision.Concentration, layers[key], 100) {
			return validationf("All layers should have a total concentration of 100%% (total concentration of layer %s is %s%%).",
				lineExtruder(&lines[i], idx).DisplayName(), formatNumber(layers[key]))
		}
	}
	return nil
}

// ValidateProductionLines checks that the lines a production BoM imported
// from its recipe still cover 100% of it.
func (e *Engine) ValidateProductionLines(b *model.BoM) error {
	if !b.HasRecipe() {
		return nil
	}
	var values []float64
	for _, l := range b.Lines {
		if l.IsRecipeDerived() {
			values = append(values, l.RelatedConcentration)
		}
	}
	if len(values) == 0 {
		return nil
	}
	total := e.Precision.Sum(precision.Concentration, values...)
	if !e.Precision.Equal(precision.Concentration, total, 100) {
		return validationf("Total concentration of recipe components is %s%% (should be 100%%).", formatNumber(total))
	}
	return nil
}

// ValidateLineOwnership checks that a line belongs to exactly one BoM,
// either as a component or as an alternative component.
func ValidateLineOwnership(l *model.BoMLine) error {
	owned := l.BoMID != nil && *l.BoMID != ""
	alt := l.AltBoMID != nil && *l.AltBoMID != ""
	switch {
	case !owned && !alt:
		return validationf("BoM Line should be related to a BoM.")
	case owned && alt:
		return validationf("BoM Line %s cannot be both a component and an alternative component.", lineName(l))
	}
	return nil
}

func lineName(l *model.BoMLine) string {
	if l.Product != nil {
		return l.Product.Name
	}
	return l.ID
}

// Validate runs every rule that applies to b and returns the first
// violation.
func (e *Engine) Validate(b *model.BoM) error {
	for i := range b.Lines {
		if err := ValidateLineOwnership(&b.Lines[i]); err != nil {
			return err
		}
	}
	for i := range b.AltLines {
		if err := ValidateLineOwnership(&b.AltLines[i]); err != nil {
			return err
		}
	}
	checks := []func(*model.BoM) error{
		e.ValidateExtruders,
		e.ValidateLines,
		e.ValidateAltLines,
		e.ValidateProductionLines,
	}
	for _, check := range checks {
		if err := check(b); err != nil {
			return err
		}
	}
	return nil
}
