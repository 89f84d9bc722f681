package engine

import (
	"fmt"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/precision"
	"github.com/piwi3910/FilmBoM/internal/uom"
)

// StartupWaste is the mass in kg lost while the machine warms up over the
// whole production width. Widths are in mm, speed in m/min, startup time in
// minutes and grammage in g/m².
func StartupWaste(speed, startupTime, totalWidth, totalGrammage float64) float64 {
	return speed * startupTime * (totalWidth / 1000) * (totalGrammage / 1000)
}

// ProductStartupWaste scales the startup waste down to the product share of
// the production width.
func ProductStartupWaste(startupWaste, totalWidth, productWidth, machineTimeNumber float64) float64 {
	if totalWidth == 0 {
		return 0
	}
	return startupWaste / (totalWidth / 1000) * (productWidth / 1000) * machineTimeNumber
}

// PercentageWaste applies the workcenter and BoM waste percentages to the
// quantity to produce in kg.
func PercentageWaste(qtyKg, bomPct float64, wc *model.Workcenter) float64 {
	pct := bomPct
	if wc != nil {
		pct += wc.WastePercentage
	}
	return qtyKg * pct / 100
}

// BorderFactor is the share of a film wider than the production width that
// ends up as border. A manual factor is used as is.
func BorderFactor(b *model.BoM, l *model.BoMLine) float64 {
	if l.IsManualBorderFactor {
		return l.ManualBorderFactor
	}
	if b.TotalProductionWidth == 0 || l.Product == nil || l.Product.Width == 0 {
		return 0
	}
	f := (l.Product.Width - b.TotalProductionWidth) / b.TotalProductionWidth
	if f > 0 {
		return f
	}
	return 0
}

// relatedQuantity expresses the BoM quantity in the unit of its category
// standing for std. ok is false when the category has no such unit.
func (e *Engine) relatedQuantity(b *model.BoM, std *model.UoM) (float64, *model.UoM, bool) {
	unit := e.unit(b.UoMID, b.UoM)
	if unit == nil {
		return 0, nil, false
	}
	related, ok := e.Units.RelatedUnit(unit.CategoryID, std)
	if !ok {
		return 0, nil, false
	}
	qty, err := uom.Convert(b.Quantity, unit, related)
	if err != nil {
		return 0, nil, false
	}
	return qty, related, true
}

// QuantityInMeters is the produced length, 0 when the BoM unit has no
// length equivalent.
func (e *Engine) QuantityInMeters(b *model.BoM) float64 {
	qty, _, _ := e.relatedQuantity(b, e.meter())
	return qty
}

// QuantityInKg is the produced weight. BoM units without a weight
// equivalent fall back to the raw material weight.
func (e *Engine) QuantityInKg(b *model.BoM) float64 {
	if qty, _, ok := e.relatedQuantity(b, e.kilogram()); ok {
		return qty
	}
	return b.RawMaterialWeight
}

// BorderWaste sums the border mass in kg of every film component.
func (e *Engine) BorderWaste(b *model.BoM) float64 {
	qtyM := e.QuantityInMeters(b)
	total := 0.0
	for i := range b.Lines {
		l := &b.Lines[i]
		if !l.IsFilmComponent || l.Product == nil {
			continue
		}
		stretched := qtyM * (1 - l.StretchingFactor)
		total += stretched * (l.Product.Width / 1000) * l.BorderFactor * l.Product.TotalGrammage / 1000
	}
	return total
}

// Waste holds the waste quantities of a production BoM in kg.
type Waste struct {
	Startup        float64
	ProductStartup float64
	Percentage     float64
	Qty            float64
	Border         float64
}

// Total is the mass recorded on the waste byproduct.
func (w Waste) Total() float64 {
	return w.Qty + w.Border
}

// WasteOf reads the waste quantities last computed for b.
func WasteOf(b *model.BoM) Waste {
	return Waste{
		Startup:        b.StartupWaste,
		ProductStartup: b.ProductStartupWaste,
		Percentage:     b.PercentageWaste,
		Qty:            b.WasteQty,
		Border:         b.BorderWasteQty,
	}
}

// ByproductQuantity converts the total waste of b into the unit of the
// waste byproduct.
func (e *Engine) ByproductQuantity(b *model.BoM, bp *model.Byproduct) (float64, error) {
	unit := e.unit(bp.UoMID, bp.UoM)
	qty, err := uom.Convert(b.WasteQty+b.BorderWasteQty, e.kilogram(), unit)
	if err != nil {
		name := bp.ProductID
		if bp.Product != nil {
			name = bp.Product.Name
		}
		return 0, &ConversionError{
			Msg: fmt.Sprintf("It is not possible to input waste on by-product %s (maybe this product does not handle kilograms).", name),
			Err: err,
		}
	}
	return e.Precision.Round(precision.ProductUoM, qty), nil
}
