package engine

import (
	"fmt"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/precision"
)

// Stored fields of a production BoM that derived fields depend on.
const (
	FieldQuantity          Field = "quantity"
	FieldUoM               Field = "uom"
	FieldProduct           Field = "product"
	FieldRecipe            Field = "recipe"
	FieldRecipeLines       Field = "recipe_lines"
	FieldWorkcenter        Field = "workcenter"
	FieldTotalWidth        Field = "total_production_width"
	FieldMachineSpeed      Field = "machine_speed"
	FieldMachineTimeNumber Field = "machine_time_number"
	FieldWastePercentage   Field = "waste_percentage"
	FieldWasteManagement   Field = "waste_management"
	FieldComponents        Field = "components"
)

// Derived fields of a production BoM.
const (
	FieldRawMaterialWeight   Field = "raw_material_weight"
	FieldRecipeComponents    Field = "recipe_components"
	FieldDensity             Field = "density"
	FieldFilmFactors         Field = "film_factors"
	FieldStartupWaste        Field = "startup_waste"
	FieldProductStartupWaste Field = "product_startup_waste"
	FieldPercentageWaste     Field = "percentage_waste"
	FieldWasteQty            Field = "waste_qty"
	FieldBorderWaste         Field = "border_waste"
	FieldFilmQuantities      Field = "film_quantities"
	FieldByproducts          Field = "byproducts"
)

// Production is a production BoM being recomputed, with the recipe it
// imports when linked. Changes are recorded with Touch and applied by
// Engine.Flush.
type Production struct {
	BoM    *model.BoM
	Recipe *model.BoM

	// LinesRegenerated is set once recipe-derived lines were rebuilt.
	LinesRegenerated bool

	dirty []Field
}

// Touch records modified stored fields.
func (p *Production) Touch(fields ...Field) {
	p.dirty = append(p.dirty, fields...)
}

// Dirty returns the fields recorded since the last flush.
func (p *Production) Dirty() []Field {
	return append([]Field(nil), p.dirty...)
}

type run struct {
	e *Engine
	p *Production
}

var productionGraph = mustGraph(
	Node[*run]{Field: FieldRawMaterialWeight, Inputs: []Field{FieldQuantity, FieldUoM, FieldProduct}, Compute: computeRawMaterialWeight},
	Node[*run]{Field: FieldRecipeComponents, Inputs: []Field{FieldRawMaterialWeight, FieldRecipe, FieldRecipeLines}, Compute: computeRecipeComponents},
	Node[*run]{Field: FieldDensity, Inputs: []Field{FieldRecipeComponents, FieldComponents}, Compute: computeDensity},
	Node[*run]{Field: FieldFilmFactors, Inputs: []Field{FieldTotalWidth, FieldComponents, FieldProduct}, Compute: computeFilmFactors},
	Node[*run]{Field: FieldStartupWaste, Inputs: []Field{FieldMachineSpeed, FieldWorkcenter, FieldTotalWidth, FieldProduct}, Compute: computeStartupWaste},
	Node[*run]{Field: FieldProductStartupWaste, Inputs: []Field{FieldStartupWaste, FieldTotalWidth, FieldProduct, FieldMachineTimeNumber}, Compute: computeProductStartupWaste},
	Node[*run]{Field: FieldPercentageWaste, Inputs: []Field{FieldQuantity, FieldUoM, FieldRawMaterialWeight, FieldWorkcenter, FieldWastePercentage}, Compute: computePercentageWaste},
	Node[*run]{Field: FieldWasteQty, Inputs: []Field{FieldProductStartupWaste, FieldPercentageWaste}, Compute: computeWasteQty},
	Node[*run]{Field: FieldBorderWaste, Inputs: []Field{FieldFilmFactors, FieldQuantity, FieldUoM}, Compute: computeBorderWaste},
	Node[*run]{Field: FieldFilmQuantities, Inputs: []Field{FieldFilmFactors, FieldQuantity, FieldUoM, FieldWasteQty, FieldWasteManagement}, Compute: computeFilmQuantities},
	Node[*run]{Field: FieldByproducts, Inputs: []Field{FieldWasteQty, FieldBorderWaste, FieldWasteManagement}, Compute: computeByproducts},
)

func mustGraph(nodes ...Node[*run]) *Graph[*run] {
	g, err := NewGraph(nodes...)
	if err != nil {
		panic(err)
	}
	return g
}

// Recompute refreshes the derived fields of p affected by changed, or all
// of them when changed is empty.
func (e *Engine) Recompute(p *Production, changed ...Field) error {
	return productionGraph.Recompute(&run{e: e, p: p}, changed...)
}

// Flush recomputes what the touched fields affect and clears them.
func (e *Engine) Flush(p *Production) error {
	changed := p.dirty
	p.dirty = nil
	if len(changed) == 0 {
		return nil
	}
	return e.Recompute(p, changed...)
}

func (r *run) round(v float64) float64 {
	return r.e.Precision.Round(precision.Triple, v)
}

func computeRawMaterialWeight(r *run) error {
	w, err := r.e.RawMaterialWeight(r.p.BoM)
	if err != nil {
		return err
	}
	r.p.BoM.RawMaterialWeight = w
	return nil
}

func computeRecipeComponents(r *run) error {
	b := r.p.BoM
	if !b.HasRecipe() {
		ReplaceRecipeLines(b, nil)
		r.p.LinesRegenerated = true
		return nil
	}
	if r.p.Recipe == nil || r.p.Recipe.ID != *b.RecipeID {
		return fmt.Errorf("recipe %s of BoM %s is not loaded", *b.RecipeID, b.ID)
	}
	lines, err := r.e.RecipeLines(b, r.p.Recipe)
	if err != nil {
		return err
	}
	ReplaceRecipeLines(b, lines)
	r.p.LinesRegenerated = true
	return nil
}

func computeDensity(r *run) error {
	b := r.p.BoM
	if b.HasRecipe() && r.p.Recipe != nil {
		b.Density = r.p.Recipe.Density
		return nil
	}
	b.Density = r.e.Density(b)
	return nil
}

func computeFilmFactors(r *run) error {
	r.e.RefreshFilmFactors(r.p.BoM)
	return nil
}

func computeStartupWaste(r *run) error {
	b := r.p.BoM
	grammage := 0.0
	if b.Product != nil {
		grammage = b.Product.TotalGrammage
	}
	startup := 0.0
	if b.Workcenter != nil {
		startup = b.Workcenter.StartupTime
	}
	b.StartupWaste = r.round(StartupWaste(b.MachineSpeed, startup, b.TotalProductionWidth, grammage))
	return nil
}

func computeProductStartupWaste(r *run) error {
	b := r.p.BoM
	width := 0.0
	if b.Product != nil {
		width = b.Product.Width
	}
	b.ProductStartupWaste = r.round(ProductStartupWaste(b.StartupWaste, b.TotalProductionWidth, width, b.MachineTimeNumber))
	return nil
}

func computePercentageWaste(r *run) error {
	b := r.p.BoM
	b.PercentageWaste = r.round(PercentageWaste(r.e.QuantityInKg(b), b.WastePercentage, b.Workcenter))
	return nil
}

func computeWasteQty(r *run) error {
	b := r.p.BoM
	b.WasteQty = r.round(b.ProductStartupWaste + b.PercentageWaste)
	return nil
}

func computeBorderWaste(r *run) error {
	b := r.p.BoM
	b.BorderWasteQty = r.round(r.e.BorderWaste(b))
	return nil
}

func computeFilmQuantities(r *run) error {
	return r.e.RefreshFilmQuantities(r.p.BoM)
}

func computeByproducts(r *run) error {
	b := r.p.BoM
	if !b.WasteManagement {
		return nil
	}
	for i := range b.Byproducts {
		bp := &b.Byproducts[i]
		if !bp.WasteManagement {
			continue
		}
		qty, err := r.e.ByproductQuantity(b, bp)
		if err != nil {
			return err
		}
		bp.Quantity = qty
	}
	return nil
}

// RefreshRecipe recomputes the concentrations and density of a recipe.
func (e *Engine) RefreshRecipe(recipe *model.BoM) {
	ApplyConcentrations(recipe)
	recipe.Density = e.Density(recipe)
}
