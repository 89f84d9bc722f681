package export

import (
	"fmt"
	"math"

	"github.com/piwi3910/FilmBoM/internal/model"
)

// Lane is one product-width strip of the production web. X is measured
// from the left edge of the web, in mm.
type Lane struct {
	Index int
	X     float64
	Width float64
}

// Slitting describes how the production web is cut into product coils.
// Border is the trimmed width on each side of the web, in mm.
type Slitting struct {
	TotalWidth   float64
	ProductWidth float64
	Border       float64
	Lanes        []Lane
}

// Trim returns the total trimmed width.
func (s Slitting) Trim() float64 {
	return 2 * s.Border
}

// SlittingLayout centers as many product-width lanes as fit in the total
// production width of b.
func SlittingLayout(b *model.BoM) (Slitting, error) {
	if b.Product == nil || b.Product.Width <= 0 {
		return Slitting{}, fmt.Errorf("BoM %s: the product has no width", b.DisplayName())
	}
	total, width := b.TotalProductionWidth, b.Product.Width
	if total <= 0 {
		return Slitting{}, fmt.Errorf("BoM %s: the total production width is not set", b.DisplayName())
	}
	if width > total {
		return Slitting{}, fmt.Errorf("BoM %s: the product width (%.0f mm) exceeds the production width (%.0f mm)",
			b.DisplayName(), width, total)
	}

	n := int(math.Floor(total/width + 1e-9))
	s := Slitting{
		TotalWidth:   total,
		ProductWidth: width,
		Border:       (total - float64(n)*width) / 2,
	}
	for i := 0; i < n; i++ {
		s.Lanes = append(s.Lanes, Lane{Index: i + 1, X: s.Border + float64(i)*width, Width: width})
	}
	return s, nil
}
