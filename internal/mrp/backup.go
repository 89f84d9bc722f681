package mrp

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/piwi3910/FilmBoM/internal/importer"
	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/project"
	"github.com/piwi3910/FilmBoM/internal/store"
)

// RestoreReport lists the recipe numbers handled by RestoreRecipes.
type RestoreReport struct {
	Restored []string
	// Skipped recipes already exist and are left untouched.
	Skipped []string
}

// BackupRecipes returns the portable form of every recipe, archived ones
// included when withArchived is set.
func (s *Service) BackupRecipes(ctx context.Context, withArchived bool) ([]project.Recipe, error) {
	recipes, err := s.store.Recipes(ctx, withArchived)
	if err != nil {
		return nil, err
	}
	out := make([]project.Recipe, 0, len(recipes))
	for i := range recipes {
		out = append(out, project.RecipeFromBoM(&recipes[i]))
	}
	return out, nil
}

// RestoreRecipes recreates backed up recipes under their original number.
// Products, units and workcenters are matched by name. The recipe
// sequence is moved past every restored number.
func (s *Service) RestoreRecipes(ctx context.Context, recipes []project.Recipe) (RestoreReport, error) {
	var rep RestoreReport
	err := s.run(ctx, "restore_recipes", func(w *work) error {
		rep = RestoreReport{}
		for _, r := range recipes {
			_, err := w.store.RecipeByNumber(w.ctx, r.Number)
			if err == nil {
				rep.Skipped = append(rep.Skipped, r.Number)
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if err := w.restoreRecipe(r); err != nil {
				return err
			}
			if n, ok := sequenceNumber(r.Number, s.cfg.RecipeSequencePrefix); ok {
				if err := w.store.AdvanceSequence(w.ctx, recipeSequence, n); err != nil {
					return err
				}
			}
			rep.Restored = append(rep.Restored, r.Number)
		}
		w.log.Info("recipes restored", "restored", len(rep.Restored), "skipped", len(rep.Skipped))
		return nil
	})
	if err != nil {
		return RestoreReport{}, err
	}
	return rep, nil
}

func (w *work) restoreRecipe(r project.Recipe) error {
	recipe := model.NewRecipe(r.Number)
	recipe.Code = r.Code
	if r.Workcenter != "" {
		wc, err := w.store.WorkcenterByName(w.ctx, r.Workcenter)
		if errors.Is(err, store.ErrNotFound) {
			return invalid("Recipe %s: unknown workcenter %s.", r.Number, r.Workcenter)
		}
		if err != nil {
			return err
		}
		recipe.WorkcenterID = &wc.ID
	}
	for i, ex := range r.Extruders {
		e := model.NewExtruder(ex.Name, ex.Concentration)
		e.BoMID = recipe.ID
		e.Sequence = i + 1
		recipe.Extruders = append(recipe.Extruders, e)
	}
	if err := w.saveRecipe(&recipe); err != nil {
		return err
	}

	var edit RecipeEdit
	for _, l := range r.Lines {
		in, err := w.resolveLine(importer.Line{
			Product:            l.Product,
			Extruder:           l.Extruder,
			LayerConcentration: l.LayerConcentration,
			Unit:               l.Unit,
			Alternative:        l.Alternative,
			Row:                "Recipe " + r.Number,
		})
		if err != nil {
			return err
		}
		edit.Add = append(edit.Add, in)
	}
	if len(edit.Add) > 0 {
		if _, err := w.editRecipe(recipe.ID, edit); err != nil {
			return err
		}
	}
	if !r.Active {
		return w.store.SetActive(w.ctx, false, recipe.ID)
	}
	return nil
}

// sequenceNumber extracts n from a number formatted as prefix followed by
// digits.
func sequenceNumber(number, prefix string) (int, bool) {
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ExportSet loads the BoMs to export, every active one when ids is empty,
// along with the numbers of all recipes keyed by id.
func (s *Service) ExportSet(ctx context.Context, ids ...string) ([]model.BoM, map[string]string, error) {
	boms, err := s.store.BoMs(ctx, ids...)
	if err != nil {
		return nil, nil, err
	}
	recipes, err := s.store.Recipes(ctx, true)
	if err != nil {
		return nil, nil, err
	}
	numbers := make(map[string]string, len(recipes))
	for _, r := range recipes {
		numbers[r.ID] = r.RecipeNumber
	}
	return boms, numbers, nil
}
