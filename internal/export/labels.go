package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/precision"
	qrcode "github.com/skip2/go-qrcode"
)

// LabelInfo holds the data encoded into each production label's QR code.
type LabelInfo struct {
	BoMID             string  `json:"bom_id"`
	BoM               string  `json:"bom"`
	Product           string  `json:"product"`
	Recipe            string  `json:"recipe,omitempty"`
	Quantity          float64 `json:"quantity"`
	Unit              string  `json:"uom"`
	RawMaterialWeight float64 `json:"raw_material_kg"`
	WasteQty          float64 `json:"waste_kg"`
	Density           float64 `json:"density"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
const (
	labelMarginTop  = 12.7
	labelMarginLeft = 4.8
	labelWidth      = 66.7
	labelHeight     = 25.4
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0
	labelPadding    = 2.0
)

// NewLabelInfo builds the label of a production BoM. recipeNumbers maps
// recipe ids to their numbers.
func NewLabelInfo(b *model.BoM, recipeNumbers map[string]string) LabelInfo {
	info := LabelInfo{
		BoMID:             b.ID,
		BoM:               b.DisplayName(),
		Product:           productName(b),
		Quantity:          b.Quantity,
		Unit:              unitName(b.UoM),
		RawMaterialWeight: b.RawMaterialWeight,
		WasteQty:          b.WasteQty,
		Density:           b.Density,
	}
	if b.RecipeID != nil {
		info.Recipe = recipeNumbers[*b.RecipeID]
	}
	return info
}

// CollectLabelInfos extracts label information from production BoMs,
// skipping recipes.
func CollectLabelInfos(boms []model.BoM, recipeNumbers map[string]string) []LabelInfo {
	var labels []LabelInfo
	for i := range boms {
		if boms[i].IsRecipe() {
			continue
		}
		labels = append(labels, NewLabelInfo(&boms[i], recipeNumbers))
	}
	return labels
}

// ExportLabels generates a PDF of QR-coded labels, one per production BoM,
// laid out on a standard label sheet (Avery 5160 / 3 columns x 10 rows on
// US Letter).
func ExportLabels(path string, boms []model.BoM, recipeNumbers map[string]string, prec precision.Config) error {
	labels := CollectLabelInfos(boms, recipeNumbers)
	if len(labels) == 0 {
		return fmt.Errorf("no production BoMs to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label, prec); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.BoM, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// placeQR encodes info as JSON into a QR code drawn at (x, y).
func placeQR(pdf *fpdf.Fpdf, x, y, size float64, info LabelInfo) error {
	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := "qr_" + info.BoMID
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions(imgName, x, y, size, size, false, opts, 0, "")
	return nil
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo, prec precision.Config) error {
	// cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	if err := placeQR(pdf, x+labelWidth-qrSize-labelPadding, y+(labelHeight-qrSize)/2, qrSize, info); err != nil {
		return err
	}

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, truncate(pdf, info.Product, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	qty := fmt.Sprintf("%s %s", prec.Format(precision.ProductUoM, info.Quantity), info.Unit)
	pdf.CellFormat(textW, 3.5, qty, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	weights := fmt.Sprintf("Raw %s kg | Waste %s kg",
		prec.Format(precision.Triple, info.RawMaterialWeight), prec.Format(precision.Triple, info.WasteQty))
	pdf.CellFormat(textW, 3, weights, "", 1, "L", false, 0, "")

	if info.Recipe != "" {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(0, 90, 150)
		pdf.CellFormat(textW, 3, "Recipe "+info.Recipe, "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncate shortens s with an ellipsis until it fits w.
func truncate(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}
