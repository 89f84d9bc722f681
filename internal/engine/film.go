package engine

import (
	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/precision"
	"github.com/piwi3910/FilmBoM/internal/uom"
)

// CoverageFactor is the share of the production width a film covers.
// Components that are not films cover nothing.
func CoverageFactor(b *model.BoM, p *model.Product) float64 {
	if !p.IsFilm() || b.TotalProductionWidth == 0 || p.Width == 0 {
		return 0
	}
	return p.Width / b.TotalProductionWidth
}

// FilmGrammage is the grammage a film brings to the produced film once
// border and stretching are removed. Never negative.
func FilmGrammage(totalGrammage, coverage, border, stretching float64) float64 {
	if totalGrammage == 0 || coverage == 0 {
		return 0
	}
	g := totalGrammage * (coverage - border) * (1 - stretching)
	if g > 0 {
		return g
	}
	return 0
}

// FilmQuantity is the quantity of film component l needed for b, in the
// line unit: the produced length (plus the waste length when waste
// management is on), reduced by stretching.
func (e *Engine) FilmQuantity(b *model.BoM, l *model.BoMLine) (float64, error) {
	meter := e.meter()
	qtyM, bomMeters, ok := e.relatedQuantity(b, meter)
	if !ok {
		return 0, nil
	}
	if b.WasteManagement {
		bomUnit := e.unit(b.UoMID, b.UoM)
		if kgUnit, ok := e.Units.RelatedUnit(bomUnit.CategoryID, e.kilogram()); ok {
			wasteM, err := uom.Convert(b.WasteQty, kgUnit, bomMeters)
			if err != nil {
				return 0, &ConversionError{Msg: err.Error(), Err: err}
			}
			qtyM += wasteM
		}
	}
	stretched := qtyM * (1 - l.StretchingFactor)

	lineUnit := e.unit(l.UoMID, l.UoM)
	if lineUnit == nil {
		return 0, nil
	}
	lineMeters, ok := e.Units.RelatedUnit(lineUnit.CategoryID, meter)
	if !ok {
		return 0, nil
	}
	qty, err := uom.Convert(stretched, lineMeters, lineUnit)
	if err != nil {
		return 0, &ConversionError{Msg: err.Error(), Err: err}
	}
	return e.Precision.Round(precision.ProductUoM, qty), nil
}

// filmLines returns the film components of b in line order.
func filmLines(b *model.BoM) []*model.BoMLine {
	var films []*model.BoMLine
	for i := range b.Lines {
		if b.Lines[i].Product.IsFilm() {
			films = append(films, &b.Lines[i])
		}
	}
	return films
}

// GlueTarget returns the film a glue is applied to: the covering film with
// the lowest coverage factor.
func GlueTarget(b *model.BoM) *model.BoMLine {
	var target *model.BoMLine
	for _, f := range filmLines(b) {
		if f.CoverageFactor == 0 {
			continue
		}
		if target == nil || f.CoverageFactor < target.CoverageFactor {
			target = f
		}
	}
	return target
}

// TreatmentCoverage is the coverage of a glue (the lowest film coverage)
// or of a coating (the coverage of the coated film).
func TreatmentCoverage(b *model.BoM, l *model.BoMLine) float64 {
	switch {
	case l.IsGlue():
		films := filmLines(b)
		if len(films) == 0 {
			return 0
		}
		lowest := films[0].CoverageFactor
		for _, f := range films[1:] {
			if f.CoverageFactor < lowest {
				lowest = f.CoverageFactor
			}
		}
		return lowest
	case l.IsCoating():
		if target := lineByID(b, l.FilmToTreatID); target != nil {
			return target.CoverageFactor
		}
	}
	return 0
}

func lineByID(b *model.BoM, id *string) *model.BoMLine {
	if id == nil {
		return nil
	}
	for i := range b.Lines {
		if b.Lines[i].ID == *id {
			return &b.Lines[i]
		}
	}
	return nil
}

// TreatmentQuantity is the quantity of glue or coating l needed to treat
// its film, in the line unit.
func (e *Engine) TreatmentQuantity(b *model.BoM, l *model.BoMLine) (float64, error) {
	target := lineByID(b, l.FilmToTreatID)
	if l.Grammage == 0 || target == nil || l.CoverageFactor == 0 {
		return 0, nil
	}
	targetUnit := e.unit(target.UoMID, target.UoM)
	if targetUnit == nil {
		return 0, nil
	}
	squareMeters, ok := e.Units.RelatedUnit(targetUnit.CategoryID, e.squareMeter())
	if !ok {
		return 0, nil
	}
	surface, err := uom.Convert(target.Quantity, targetUnit, squareMeters)
	if err != nil {
		return 0, &ConversionError{Msg: err.Error(), Err: err}
	}
	kg := l.Grammage * surface * l.CoverageFactor / 1000

	qty, err := uom.Convert(kg, e.kilogram(), e.unit(l.UoMID, l.UoM))
	if err != nil {
		name := l.ProductID
		if l.Product != nil {
			name = l.Product.Name
		}
		return 0, &ConversionError{
			Msg: "Cannot express the quantity of " + name + " in its unit of measure (the unit should handle kilograms).",
			Err: err,
		}
	}
	return e.Precision.Round(precision.ProductUoM, qty), nil
}

// RefreshFilmFactors recomputes coverage, border and grammage of every film
// component and the coverage of every treatment.
func (e *Engine) RefreshFilmFactors(b *model.BoM) {
	for _, f := range filmLines(b) {
		f.IsFilmComponent = true
		f.CoverageFactor = e.Precision.Round(precision.Double, CoverageFactor(b, f.Product))
		f.BorderFactor = e.Precision.Round(precision.Double, BorderFactor(b, f))
		f.Grammage = e.Precision.Round(precision.Single,
			FilmGrammage(f.Product.TotalGrammage, f.CoverageFactor, f.BorderFactor, f.StretchingFactor))
	}
	for i := range b.Lines {
		l := &b.Lines[i]
		if !l.IsGlue() && !l.IsCoating() {
			continue
		}
		if l.IsGlue() {
			if target := GlueTarget(b); target != nil {
				l.FilmToTreatID = &target.ID
			}
		}
		l.CoverageFactor = e.Precision.Round(precision.Double, TreatmentCoverage(b, l))
	}
}

// RefreshFilmQuantities recomputes the quantities of film components and
// then of treatments, which depend on the film quantities.
func (e *Engine) RefreshFilmQuantities(b *model.BoM) error {
	for _, f := range filmLines(b) {
		qty, err := e.FilmQuantity(b, f)
		if err != nil {
			return err
		}
		f.Quantity = qty
	}
	for i := range b.Lines {
		l := &b.Lines[i]
		if !l.IsGlue() && !l.IsCoating() {
			continue
		}
		qty, err := e.TreatmentQuantity(b, l)
		if err != nil {
			return err
		}
		l.Quantity = qty
	}
	return nil
}

// FilmInput describes a film component to add to a production BoM.
type FilmInput struct {
	Product            *model.Product
	UoM                *model.UoM
	StretchingFactor   float64
	ManualBorderFactor *float64
}

// NewFilmLine builds a film component line for b.
func (e *Engine) NewFilmLine(b *model.BoM, in FilmInput) (model.BoMLine, error) {
	if in.Product == nil || !in.Product.IsFilm() {
		return model.BoMLine{}, validationf("Only film products can be added as film components.")
	}
	if e.MaxFilmComponents > 0 && len(filmLines(b))+1 > e.MaxFilmComponents {
		return model.BoMLine{}, validationf("A production BoM cannot hold more than %d film components.", e.MaxFilmComponents)
	}
	if in.StretchingFactor < 0 || in.StretchingFactor >= 1 {
		return model.BoMLine{}, validationf("Stretching factor should be between 0 and 1 (got %s).", formatNumber(in.StretchingFactor))
	}

	line := model.NewBoMLine(in.Product, 0)
	line.BoMID = &b.ID
	line.Sequence = len(b.Lines) + 1
	if in.UoM != nil {
		line.UoMID = &in.UoM.ID
		line.UoM = in.UoM
	}
	line.IsFilmComponent = true
	line.StretchingFactor = in.StretchingFactor
	if in.ManualBorderFactor != nil {
		line.IsManualBorderFactor = true
		line.ManualBorderFactor = *in.ManualBorderFactor
	}
	line.CoverageFactor = e.Precision.Round(precision.Double, CoverageFactor(b, in.Product))
	line.BorderFactor = e.Precision.Round(precision.Double, BorderFactor(b, &line))
	line.Grammage = e.Precision.Round(precision.Single,
		FilmGrammage(in.Product.TotalGrammage, line.CoverageFactor, line.BorderFactor, line.StretchingFactor))

	qty, err := e.FilmQuantity(b, &line)
	if err != nil {
		return model.BoMLine{}, err
	}
	line.Quantity = qty
	return line, nil
}

// TreatmentInput describes a glue or coating to add to a production BoM.
type TreatmentInput struct {
	Product  *model.Product
	UoM      *model.UoM
	Grammage float64
	// FilmToCoatID selects the coated film. Glues ignore it.
	FilmToCoatID *string
}

// NewTreatmentLine builds a glue or coating line for b.
func (e *Engine) NewTreatmentLine(b *model.BoM, in TreatmentInput) (model.BoMLine, error) {
	if in.Product == nil || in.Product.Category == nil || (!in.Product.Category.IsGlue && !in.Product.Category.IsCoating) {
		return model.BoMLine{}, validationf("Only glue or coating products can be added as treatments.")
	}
	grammage := in.Grammage
	if grammage == 0 {
		grammage = 1
	}

	line := model.NewBoMLine(in.Product, 0)
	line.BoMID = &b.ID
	line.Sequence = len(b.Lines) + 1
	if in.UoM != nil {
		line.UoMID = &in.UoM.ID
		line.UoM = in.UoM
	}
	line.Grammage = e.Precision.Round(precision.Single, grammage)

	if in.Product.Category.IsGlue {
		if len(filmLines(b)) < 2 {
			return model.BoMLine{}, validationf("At least two films are needed to add a glue.")
		}
		target := GlueTarget(b)
		if target == nil {
			return model.BoMLine{}, validationf("None of the films covers the production width.")
		}
		line.FilmToTreatID = &target.ID
	} else {
		target := lineByID(b, in.FilmToCoatID)
		if target == nil || !target.Product.IsFilm() {
			return model.BoMLine{}, validationf("Select the film component to coat.")
		}
		line.FilmToTreatID = &target.ID
	}
	line.CoverageFactor = e.Precision.Round(precision.Double, TreatmentCoverage(b, &line))

	qty, err := e.TreatmentQuantity(b, &line)
	if err != nil {
		return model.BoMLine{}, err
	}
	line.Quantity = qty
	return line, nil
}
