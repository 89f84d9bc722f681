package export

import (
	"fmt"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/precision"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	SheetBoMs       = "BoMs"
	SheetComponents = "Components"
	SheetByproducts = "By-products"
)

var (
	bomHeaders = []interface{}{
		"BoM", "Type", "Product", "Quantity", "Unit", "Recipe", "Workcenter",
		"Production width (mm)", "Machine speed (m/min)", "Density (g/cm3)", "Raw material (kg)",
		"Startup waste (kg)", "Product startup waste (kg)", "Percentage waste (kg)", "Waste (kg)", "Border waste (kg)",
	}
	componentHeaders = []interface{}{"BoM", "Sequence", "Product", "Kind", "Extruder", "Layer concentration (%)", "Concentration (%)", "Quantity", "Unit"}
	byproductHeaders = []interface{}{"BoM", "Product", "Quantity", "Unit", "Waste"}
)

// ExportXLSX writes boms to an Excel workbook with one sheet for BoM
// headers, one for components and one for by-products. Recipes list their
// components with layer concentrations; production BoMs list computed
// quantities.
func ExportXLSX(path string, boms []model.BoM, recipeNumbers map[string]string, prec precision.Config) error {
	if len(boms) == 0 {
		return fmt.Errorf("no BoMs to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetBoMs); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetComponents, SheetByproducts} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	w := &sheetWriter{f: f}
	w.header(SheetBoMs, bomHeaders, bold)
	w.header(SheetComponents, componentHeaders, bold)
	w.header(SheetByproducts, byproductHeaders, bold)

	for i := range boms {
		b := &boms[i]
		recipe := ""
		if b.RecipeID != nil {
			recipe = recipeNumbers[*b.RecipeID]
		}
		w.row(SheetBoMs, []interface{}{
			b.DisplayName(), string(b.Type), productName(b),
			prec.Round(precision.ProductUoM, b.Quantity), unitName(b.UoM), recipe, workcenterName(b),
			b.TotalProductionWidth, b.MachineSpeed,
			prec.Round(precision.Quadruple, b.Density), prec.Round(precision.Triple, b.RawMaterialWeight),
			prec.Round(precision.Triple, b.StartupWaste), prec.Round(precision.Triple, b.ProductStartupWaste),
			prec.Round(precision.Triple, b.PercentageWaste), prec.Round(precision.Triple, b.WasteQty),
			prec.Round(precision.Triple, b.BorderWasteQty),
		})

		for j := range b.Lines {
			l := &b.Lines[j]
			concentration := l.Concentration
			if l.IsRecipeDerived() {
				concentration = l.RelatedConcentration
			}
			w.row(SheetComponents, []interface{}{
				b.DisplayName(), l.Sequence, lineProduct(l), lineKind(l), extruderName(l),
				prec.Round(precision.Concentration, l.LayerConcentration),
				prec.Round(precision.Concentration, concentration),
				prec.Round(precision.ProductUoM, l.Quantity), unitName(l.UoM),
			})
		}

		for _, bp := range b.Byproducts {
			name := bp.ProductID
			if bp.Product != nil {
				name = bp.Product.Name
			}
			w.row(SheetByproducts, []interface{}{
				b.DisplayName(), name, prec.Round(precision.ProductUoM, bp.Quantity), unitName(bp.UoM), bp.WasteManagement,
			})
		}
	}
	if w.err != nil {
		return w.err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// sheetWriter appends rows to workbook sheets and keeps the first error.
type sheetWriter struct {
	f    *excelize.File
	next map[string]int
	err  error
}

func (w *sheetWriter) header(sheet string, cells []interface{}, style int) {
	w.row(sheet, cells)
	if w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(cells), 1)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, style); err != nil {
		w.err = fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
}

func (w *sheetWriter) row(sheet string, cells []interface{}) {
	if w.err != nil {
		return
	}
	if w.next == nil {
		w.next = map[string]int{}
	}
	w.next[sheet]++
	cell, err := excelize.CoordinatesToCellName(1, w.next[sheet])
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &cells); err != nil {
		w.err = fmt.Errorf("failed to write %s row %d: %w", sheet, w.next[sheet], err)
	}
}
