package mrp

import (
	"context"
	"errors"
	"strings"

	"github.com/piwi3910/FilmBoM/internal/importer"
	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/store"
)

// ImportRecipeLines adds the components read by the importer to a recipe.
// With replace, the current components and alternative components are
// removed first. The whole file is applied as a single recipe edit, so a
// file leaving a layer under 100% is rejected without changing anything.
func (s *Service) ImportRecipeLines(ctx context.Context, recipeID string, res importer.ImportResult, replace bool) (*model.BoM, error) {
	if len(res.Errors) > 0 {
		return nil, invalid("The file could not be imported:\n%s", strings.Join(res.Errors, "\n"))
	}
	if len(res.Lines) == 0 {
		return nil, invalid("The file does not contain any component.")
	}

	var out *model.BoM
	err := s.run(ctx, "import_recipe_lines", func(w *work) error {
		current, err := w.store.BoM(w.ctx, recipeID)
		if err != nil {
			return err
		}
		var edit RecipeEdit
		if replace {
			for _, l := range current.Lines {
				edit.Delete = append(edit.Delete, l.ID)
			}
			for _, l := range current.AltLines {
				edit.Delete = append(edit.Delete, l.ID)
			}
		}
		for _, line := range res.Lines {
			in, err := w.resolveLine(line)
			if err != nil {
				return err
			}
			edit.Add = append(edit.Add, in)
		}

		recipe, err := w.editRecipe(recipeID, edit)
		if err != nil {
			return err
		}
		w.log.Info("recipe lines imported", "recipe", recipe.RecipeNumber, "lines", len(res.Lines), "replace", replace)
		out = recipe
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resolveLine maps the product and unit names of an imported line to
// catalogue records.
func (w *work) resolveLine(line importer.Line) (LineInput, error) {
	p, err := w.store.ProductByName(w.ctx, line.Product)
	if errors.Is(err, store.ErrNotFound) {
		return LineInput{}, invalid("%s: unknown product %s.", line.Row, line.Product)
	}
	if err != nil {
		return LineInput{}, err
	}
	in := LineInput{
		ProductID:          p.ID,
		Extruder:           line.Extruder,
		LayerConcentration: line.LayerConcentration,
		Alternative:        line.Alternative,
	}
	if line.Unit == "" {
		return in, nil
	}
	u := w.productUnit(p, line.Unit)
	if u == nil {
		return LineInput{}, invalid("%s: %s is not a unit of product %s.", line.Row, line.Unit, p.Name)
	}
	in.UoMID = &u.ID
	return in, nil
}

// productUnit finds a unit by code or name within the unit category of p.
func (w *work) productUnit(p *model.Product, ref string) *model.UoM {
	if p.UoM == nil {
		return nil
	}
	category := p.UoM.CategoryID
	if u, ok := w.e.Units.UnitByCode(ref); ok && u.CategoryID == category {
		return u
	}
	for _, u := range w.e.Units.Units(category) {
		if strings.EqualFold(u.Name, ref) {
			return u
		}
	}
	return nil
}
