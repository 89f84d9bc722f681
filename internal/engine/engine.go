// Package engine computes the derived values of recipes and production
// BoMs: concentrations, product grammages and weights, raw material
// distribution, waste and film component quantities. It works on loaded
// model values and never touches storage.
package engine

import (
	"strconv"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/precision"
	"github.com/piwi3910/FilmBoM/internal/uom"
)

// Engine bundles the unit catalogue and the precision settings every
// calculation depends on.
type Engine struct {
	Units             *uom.Registry
	Precision         precision.Config
	MaxFilmComponents int
}

// New creates an Engine from the application configuration.
func New(units *uom.Registry, cfg model.AppConfig) *Engine {
	return &Engine{
		Units:             units,
		Precision:         precision.New(cfg.Precision),
		MaxFilmComponents: cfg.MaxFilmComponents,
	}
}

// unit resolves the registry copy of a unit referenced by id or pointer.
func (e *Engine) unit(id *string, u *model.UoM) *model.UoM {
	if u != nil {
		return e.Units.Resolve(u)
	}
	if id != nil {
		if found, ok := e.Units.Unit(*id); ok {
			return found
		}
	}
	return nil
}

func (e *Engine) kilogram() *model.UoM {
	return e.Units.MustDefault(uom.Weight, uom.Reference)
}

func (e *Engine) meter() *model.UoM {
	return e.Units.MustDefault(uom.Length, uom.Reference)
}

func (e *Engine) squareMeter() *model.UoM {
	return e.Units.MustDefault(uom.Surface, uom.Reference)
}

// formatNumber renders a total the way it appears in messages.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
