package engine

import (
	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/precision"
	"github.com/piwi3910/FilmBoM/internal/uom"
)

// DensityTable holds theoretical densities keyed by formula and color code.
type DensityTable map[[2]string]float64

// NewDensityTable indexes theoretical density rows.
func NewDensityTable(rows []model.TheoreticalDensity) DensityTable {
	t := make(DensityTable, len(rows))
	for _, r := range rows {
		t[[2]string{r.FormulaCode, r.ColorCode}] = r.Density
	}
	return t
}

// Lookup returns the density for a formula and color code.
func (t DensityTable) Lookup(formula, color string) (float64, bool) {
	d, ok := t[[2]string{formula, color}]
	return d, ok
}

// ProductDensity returns the manual density when set, else the theoretical
// density of the product formula and color.
func ProductDensity(p *model.Product, table DensityTable) float64 {
	if p.IsManualDensity {
		return p.ManualDensity
	}
	if p.FormulaCode == "" || p.ColorCode == "" {
		return 0
	}
	d, _ := table.Lookup(p.FormulaCode, p.ColorCode)
	return d
}

// thicknessGrammage converts a thickness in µm and a density in g/cm³ to
// g/m².
func thicknessGrammage(p *model.Product) float64 {
	return (p.Thickness / 10000 * p.Density) * 10000
}

// ExtrudedGrammage is the grammage of the extruded layer of a company film.
func ExtrudedGrammage(p *model.Product) float64 {
	if p.IsManualExtrudedGrammage {
		return p.ManualExtrudedGrammage
	}
	if p.Category == nil || !p.Category.IsCompanyFilm {
		return 0
	}
	switch p.Category.FilmType {
	case model.FilmExtruded, model.FilmLaminated:
		if p.Thickness != 0 && p.Density != 0 {
			return thicknessGrammage(p)
		}
	}
	return 0
}

func sumGrammage(bom *model.BoM, keep func(*model.BoMLine) bool) float64 {
	if bom == nil {
		return 0
	}
	total := 0.0
	for i := range bom.Lines {
		if keep(&bom.Lines[i]) {
			total += bom.Lines[i].Grammage
		}
	}
	return total
}

func grammageFromBoM(p *model.Product, bom *model.BoM, keep func(*model.BoMLine) bool) float64 {
	switch p.Category.FilmType {
	case model.FilmExtruded:
		return p.ExtrudedGrammage
	case model.FilmGlued:
		return sumGrammage(bom, keep)
	case model.FilmLaminated:
		if p.Thickness != 0 && p.Density != 0 {
			return sumGrammage(bom, keep) + thicknessGrammage(p)
		}
	}
	return 0
}

// TotalGrammage is the grammage of the whole film. Glued and laminated
// films add up the grammages of the components of their first BoM.
func TotalGrammage(p *model.Product, firstBoM *model.BoM) float64 {
	if p.IsManualTotalGrammage {
		return p.ManualTotalGrammage
	}
	if p.Category == nil || !p.Category.IsCompanyFilm {
		return 0
	}
	return grammageFromBoM(p, firstBoM, func(*model.BoMLine) bool { return true })
}

// CompanyFilmGrammage is TotalGrammage restricted to components that are
// company films themselves.
func CompanyFilmGrammage(p *model.Product, firstBoM *model.BoM) float64 {
	if p.Category == nil || !p.Category.IsCompanyFilm {
		return 0
	}
	return grammageFromBoM(p, firstBoM, func(l *model.BoMLine) bool {
		return l.Product != nil && l.Product.Category != nil && l.Product.Category.IsCompanyFilm
	})
}

// Surface returns the film surface in m² (width in mm, length in m).
func (e *Engine) Surface(p *model.Product) float64 {
	width, err := uom.Convert(p.Width, e.Units.MustDefault(uom.Length, uom.Milli), e.meter())
	if err != nil {
		return 0
	}
	return width * p.Length
}

// NetCoilWeight is the film weight of one coil in kg.
func NetCoilWeight(p *model.Product) float64 {
	return p.Surface * p.TotalGrammage / 1000
}

// MandrelWeight returns the weight of the product mandrel, honouring the
// mandrel's manual weight.
func MandrelWeight(p *model.Product) float64 {
	if p.Mandrel == nil {
		return 0
	}
	if p.Mandrel.IsManualWeight {
		return p.Mandrel.ManualWeight
	}
	return p.Mandrel.Weight
}

// UnitWeight is the weight of one unit of a produced film.
func UnitWeight(p *model.Product) float64 {
	if p.IsManualWeight {
		return p.ManualWeight
	}
	return p.NetCoilWeight
}

// firstMandrel returns the first mandrel component of a BoM.
func firstMandrel(bom *model.BoM) *model.Product {
	if bom == nil {
		return nil
	}
	for _, l := range bom.Lines {
		if l.Product != nil && l.Product.Category != nil && l.Product.Category.IsMandrel {
			return l.Product
		}
	}
	return nil
}

// RefreshProduct recomputes every derived field of p. firstBoM is the
// first BoM producing p, or nil.
func (e *Engine) RefreshProduct(p *model.Product, firstBoM *model.BoM, densities DensityTable) {
	p.Density = e.Precision.Round(precision.Double, ProductDensity(p, densities))
	p.ExtrudedGrammage = e.Precision.Round(precision.Single, ExtrudedGrammage(p))
	p.TotalGrammage = e.Precision.Round(precision.Single, TotalGrammage(p, firstBoM))
	p.CompanyFilmGrammage = e.Precision.Round(precision.Single, CompanyFilmGrammage(p, firstBoM))
	p.Surface = e.Surface(p)

	if mandrel := firstMandrel(firstBoM); mandrel != nil {
		p.MandrelID = &mandrel.ID
		p.Mandrel = mandrel
	} else if firstBoM != nil {
		p.MandrelID = nil
		p.Mandrel = nil
	}
	p.NetCoilWeight = e.Precision.Round(precision.Triple, NetCoilWeight(p))
	p.GrossCoilWeight = e.Precision.Round(precision.Triple, p.NetCoilWeight+MandrelWeight(p))
}
