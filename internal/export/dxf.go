package export

import (
	"fmt"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
)

// DXF layer names.
const (
	LayerWeb    = "WEB"
	LayerSlit   = "SLIT"
	LayerBorder = "BORDER"
	LayerText   = "TEXT"
)

// ExportDXF draws the slitting layout of production BoM b over length mm
// of web: the web outline, one slit line per lane boundary, the trimmed
// borders and a lane caption. Coordinates are in mm with x across the web.
func ExportDXF(path string, b *model.BoM, length float64) error {
	s, err := SlittingLayout(b)
	if err != nil {
		return err
	}
	if length <= 0 {
		length = 1000
	}

	d := dxf.NewDrawing()
	d.AddLayer(LayerWeb, color.White, dxf.DefaultLineType, true)
	if err := rect(d, 0, 0, s.TotalWidth, length); err != nil {
		return err
	}

	d.AddLayer(LayerBorder, color.Red, dxf.DefaultLineType, true)
	if s.Border > 0 {
		if err := rect(d, 0, 0, s.Border, length); err != nil {
			return err
		}
		if err := rect(d, s.TotalWidth-s.Border, 0, s.Border, length); err != nil {
			return err
		}
	}

	d.AddLayer(LayerSlit, color.Cyan, dxf.DefaultLineType, true)
	for _, x := range slitPositions(s) {
		if _, err := d.Line(x, 0, 0, x, length, 0); err != nil {
			return fmt.Errorf("failed to draw slit at %.1f mm: %w", x, err)
		}
	}

	d.AddLayer(LayerText, color.Yellow, dxf.DefaultLineType, true)
	height := s.ProductWidth / 20
	for _, lane := range s.Lanes {
		caption := fmt.Sprintf("#%d %.0f", lane.Index, lane.Width)
		if _, err := d.Text(caption, lane.X+height, length/2, 0, height); err != nil {
			return fmt.Errorf("failed to write lane caption: %w", err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF file: %w", err)
	}
	return nil
}

// slitPositions returns the x of every knife: both lane edges, shared
// edges counted once.
func slitPositions(s Slitting) []float64 {
	if len(s.Lanes) == 0 {
		return nil
	}
	xs := make([]float64, 0, len(s.Lanes)+1)
	for _, lane := range s.Lanes {
		xs = append(xs, lane.X)
	}
	last := s.Lanes[len(s.Lanes)-1]
	return append(xs, last.X+last.Width)
}

func rect(d *drawing.Drawing, x, y, w, h float64) error {
	corners := [][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return fmt.Errorf("failed to draw outline: %w", err)
		}
	}
	return nil
}
