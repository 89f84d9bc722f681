// Package export renders production BoMs as printable production sheets,
// QR-coded labels, spreadsheets and slitting drawings.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/precision"
)

// laneColor represents an RGB color for a slitting lane.
type laneColor struct {
	R, G, B int
}

var laneColors = []laneColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	webHeight    = 30.0
	sheetQRSize  = 28.0
)

// Sheet is the content of one production sheet page.
type Sheet struct {
	BoM    *model.BoM
	Recipe string
}

// ExportPDF generates a PDF document with one production sheet per
// production BoM, followed by a summary page.
func ExportPDF(path string, boms []model.BoM, recipeNumbers map[string]string, prec precision.Config) error {
	var sheets []Sheet
	for i := range boms {
		if boms[i].IsRecipe() {
			continue
		}
		s := Sheet{BoM: &boms[i]}
		if boms[i].RecipeID != nil {
			s.Recipe = recipeNumbers[*boms[i].RecipeID]
		}
		sheets = append(sheets, s)
	}
	if len(sheets) == 0 {
		return fmt.Errorf("no production BoMs to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for i, s := range sheets {
		pdf.AddPage()
		if err := renderSheetPage(pdf, s, recipeNumbers, prec, i+1); err != nil {
			return err
		}
	}

	pdf.AddPage()
	renderSummaryPage(pdf, sheets, prec)

	return pdf.OutputFileAndClose(path)
}

// renderSheetPage draws a single production BoM on the current PDF page.
func renderSheetPage(pdf *fpdf.Fpdf, s Sheet, recipeNumbers map[string]string, prec precision.Config, num int) error {
	b := s.BoM
	contentW := pageWidth - marginLeft - marginRight - sheetQRSize - 5

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(contentW, headerHeight, fmt.Sprintf("Production sheet %d: %s", num, b.DisplayName()), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Quantity: %s %s | Raw material: %s kg | Density: %s g/cm3 | Workcenter: %s",
		prec.Format(precision.ProductUoM, b.Quantity), unitName(b.UoM),
		prec.Format(precision.Triple, b.RawMaterialWeight),
		prec.Format(precision.Quadruple, b.Density),
		workcenterName(b))
	pdf.CellFormat(contentW, 5, stats, "", 0, "L", false, 0, "")
	if s.Recipe != "" {
		pdf.SetXY(marginLeft, marginTop+headerHeight+5)
		pdf.CellFormat(contentW, 5, "Recipe: "+s.Recipe, "", 0, "L", false, 0, "")
	}

	if err := placeQR(pdf, pageWidth-marginRight-sheetQRSize, marginTop, sheetQRSize, NewLabelInfo(b, recipeNumbers)); err != nil {
		return fmt.Errorf("failed to render QR code for %q: %w", b.DisplayName(), err)
	}

	y := marginTop + headerHeight + 15
	if layout, err := SlittingLayout(b); err == nil {
		drawWeb(pdf, layout, y)
		y += webHeight + 10
	}

	y = drawComponents(pdf, b, prec, y)
	y = drawWaste(pdf, b, prec, y+5)
	drawByproducts(pdf, b, prec, y+5)
	return nil
}

// drawWeb renders the production web with its product lanes and trimmed
// borders.
func drawWeb(pdf *fpdf.Fpdf, s Slitting, y float64) {
	drawWidth := pageWidth - marginLeft - marginRight
	scale := drawWidth / s.TotalWidth

	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(marginLeft, y, drawWidth, webHeight, "FD")

	if s.Border > 0 {
		bw := s.Border * scale
		for _, x := range []float64{marginLeft, marginLeft + drawWidth - bw} {
			pdf.SetFillColor(255, 200, 200)
			pdf.SetDrawColor(200, 0, 0)
			pdf.SetLineWidth(0.3)
			pdf.Rect(x, y, bw, webHeight, "FD")
			drawHatchPattern(pdf, x, y, bw, webHeight)
		}
	}

	for i, lane := range s.Lanes {
		col := laneColors[i%len(laneColors)]
		lx := marginLeft + lane.X*scale
		lw := lane.Width * scale

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(lx, y, lw, webHeight, "FD")

		label := fmt.Sprintf("#%d %.0f mm", lane.Index, lane.Width)
		pdf.SetFont("Helvetica", "", labelFontSize(lw, webHeight))
		if labelW := pdf.GetStringWidth(label); labelW < lw-2 {
			pdf.SetTextColor(0, 0, 0)
			pdf.SetXY(lx+(lw-labelW)/2, y+webHeight/2-2)
			pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
		}
	}

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)
	widthLabel := fmt.Sprintf("%.0f mm (trim %.0f mm)", s.TotalWidth, s.Trim())
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(marginLeft+(drawWidth-wLabelW)/2, y+webHeight+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// drawHatchPattern draws diagonal lines inside a rectangle to mark trimmed
// borders.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)

	spacing := 4.0
	for d := spacing; d < w+h; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)
		pdf.Line(x1, y1, x2, y2)
	}
}

// drawComponents renders the component table and returns the y below it.
func drawComponents(pdf *fpdf.Fpdf, b *model.BoM, prec precision.Config, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Components", "", 0, "L", false, 0, "")
	y += 8

	colWidths := []float64{12, 80, 30, 30, 35, 35, 30}
	headers := []string{"#", "Product", "Kind", "Extruder", "Concentration", "Quantity", "Unit"}
	y = tableHeader(pdf, colWidths, headers, y)

	pdf.SetFont("Helvetica", "", 9)
	for i := range b.Lines {
		l := &b.Lines[i]
		concentration := ""
		if l.IsRecipeDerived() {
			concentration = prec.Format(precision.Concentration, l.RelatedConcentration) + " %"
		}
		y = tableRow(pdf, colWidths, []string{
			fmt.Sprintf("%d", i+1),
			lineProduct(l),
			lineKind(l),
			extruderName(l),
			concentration,
			prec.Format(precision.ProductUoM, l.Quantity),
			unitName(l.UoM),
		}, y, i)
	}
	return y
}

// drawWaste renders the waste breakdown and returns the y below it.
func drawWaste(pdf *fpdf.Fpdf, b *model.BoM, prec precision.Config, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Waste", "", 0, "L", false, 0, "")
	y += 8

	items := []struct {
		label string
		value float64
	}{
		{"Startup waste (web)", b.StartupWaste},
		{"Startup waste (product)", b.ProductStartupWaste},
		{"Percentage waste", b.PercentageWaste},
		{"Total waste", b.WasteQty},
		{"Border waste", b.BorderWasteQty},
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 5, prec.Format(precision.Triple, item.value)+" kg", "", 0, "R", false, 0, "")
		y += 5
	}
	return y
}

func drawByproducts(pdf *fpdf.Fpdf, b *model.BoM, prec precision.Config, y float64) {
	if len(b.Byproducts) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "By-products", "", 0, "L", false, 0, "")
	y += 8

	pdf.SetFont("Helvetica", "", 9)
	for _, bp := range b.Byproducts {
		name := bp.ProductID
		if bp.Product != nil {
			name = bp.Product.Name
		}
		text := fmt.Sprintf("- %s: %s %s", name, prec.Format(precision.ProductUoM, bp.Quantity), unitName(bp.UoM))
		if bp.WasteManagement {
			text += " (waste)"
		}
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(200, 5, text, "", 0, "L", false, 0, "")
		y += 5
	}
}

func tableHeader(pdf *fpdf.Fpdf, colWidths []float64, headers []string, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	return y + 6
}

func tableRow(pdf *fpdf.Fpdf, colWidths []float64, cells []string, y float64, i int) float64 {
	if i%2 == 0 {
		pdf.SetFillColor(245, 245, 245)
	} else {
		pdf.SetFillColor(255, 255, 255)
	}
	xPos := marginLeft
	for j, cell := range cells {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
		xPos += colWidths[j]
	}
	return y + 6
}

// renderSummaryPage draws the final summary page with totals.
func renderSummaryPage(pdf *fpdf.Fpdf, sheets []Sheet, prec precision.Config) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Production Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	raw, waste := Totals(sheets)

	summaryItems := []struct {
		label string
		value string
	}{
		{"Production BoMs", fmt.Sprintf("%d", len(sheets))},
		{"Raw material", prec.Format(precision.Triple, raw) + " kg"},
		{"Waste", prec.Format(precision.Triple, waste) + " kg"},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}
	y += 5

	colWidths := []float64{15, 80, 40, 40, 40, 35}
	y = tableHeader(pdf, colWidths, []string{"#", "BoM", "Quantity", "Raw material (kg)", "Waste (kg)", "Recipe"}, y)
	pdf.SetFont("Helvetica", "", 9)
	for i, s := range sheets {
		y = tableRow(pdf, colWidths, []string{
			fmt.Sprintf("%d", i+1),
			s.BoM.DisplayName(),
			prec.Format(precision.ProductUoM, s.BoM.Quantity) + " " + unitName(s.BoM.UoM),
			prec.Format(precision.Triple, s.BoM.RawMaterialWeight),
			prec.Format(precision.Triple, s.BoM.WasteQty),
			s.Recipe,
		}, y, i)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by FilmBoM", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// Totals sums the raw material weight and waste of the sheets.
func Totals(sheets []Sheet) (raw, waste float64) {
	for _, s := range sheets {
		raw += s.BoM.RawMaterialWeight
		waste += s.BoM.WasteQty
	}
	return raw, waste
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}

func productName(b *model.BoM) string {
	if b.Product != nil {
		return b.Product.Name
	}
	return b.DisplayName()
}

func unitName(u *model.UoM) string {
	if u == nil {
		return ""
	}
	return u.Name
}

func workcenterName(b *model.BoM) string {
	if b.Workcenter == nil {
		return "-"
	}
	return b.Workcenter.Name
}

func lineProduct(l *model.BoMLine) string {
	if l.Product != nil {
		return l.Product.Name
	}
	return l.ProductID
}

func extruderName(l *model.BoMLine) string {
	if l.Extruder == nil {
		return ""
	}
	return l.Extruder.DisplayName()
}

// lineKind classifies a line for display.
func lineKind(l *model.BoMLine) string {
	switch {
	case l.IsRecipeDerived():
		return "Recipe"
	case l.IsFilmComponent:
		return "Film"
	case l.IsGlue():
		return "Glue"
	case l.IsCoating():
		return "Coating"
	default:
		return "Component"
	}
}
