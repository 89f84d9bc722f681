// Package mrp runs every user operation on recipes and production BoMs as a
// single unit of work: load, compute with the engine, validate, write. Any
// error rolls the whole operation back.
package mrp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/piwi3910/FilmBoM/internal/engine"
	"github.com/piwi3910/FilmBoM/internal/logger"
	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/store"
)

const recipeSequence = "bom.recipe"

const (
	activitySummary = "Recipe has changed"
	noteAdded       = "Component (%s) has been added to recipe (%s). You should recompute quantities."
	noteChanged     = "Component (%s) of recipe (%s) has changed. You should recompute quantities."
	noteDeleted     = "Component (%s) of recipe (%s) has been deleted. You should recompute quantities."
)

// ErrRecipeDeletion is matched by errors returned when deleting recipes.
var ErrRecipeDeletion = errors.New("recipes cannot be deleted")

// RecipeDeletionError lists the recipes a delete request targeted.
type RecipeDeletionError struct {
	Recipes []string
}

func (e *RecipeDeletionError) Error() string {
	if len(e.Recipes) == 1 {
		return fmt.Sprintf("It is not possible to delete recipe (%s). Instead, you should archive it.", e.Recipes[0])
	}
	return fmt.Sprintf("It is not possible to delete recipes (%s). Instead, you should archive them.", strings.Join(e.Recipes, ", "))
}

func (e *RecipeDeletionError) Is(target error) bool {
	return target == ErrRecipeDeletion
}

func invalid(format string, args ...any) error {
	return &engine.ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Service exposes the recipe and production BoM operations.
type Service struct {
	store *store.Store
	cfg   model.AppConfig
	log   *logger.Logger
}

// New creates a Service. A nil log discards messages.
func New(st *store.Store, cfg model.AppConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: st, cfg: cfg, log: log}
}

// work is the state of one unit of work.
type work struct {
	ctx   context.Context
	store *store.Store
	e     *engine.Engine
	log   *logger.Logger
}

func (s *Service) run(ctx context.Context, op string, fn func(w *work) error) error {
	log := s.log.With("op", op)
	log.Debug("unit of work started")
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		units, err := tx.Units(ctx)
		if err != nil {
			return err
		}
		return fn(&work{ctx: ctx, store: tx, e: engine.New(units, s.cfg), log: log})
	})
	if err != nil {
		log.Warn("unit of work rolled back", "error", err)
		return err
	}
	log.Debug("unit of work committed")
	return nil
}

func (w *work) recipe(id string) (*model.BoM, error) {
	b, err := w.store.BoM(w.ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsRecipe() {
		return nil, invalid("BoM (%s) is not a recipe.", b.DisplayName())
	}
	w.e.RefreshRecipe(b)
	return b, nil
}

func (w *work) production(id string) (*engine.Production, error) {
	b, err := w.store.BoM(w.ctx, id)
	if err != nil {
		return nil, err
	}
	if b.IsRecipe() {
		return nil, invalid("BoM (%s) is a recipe, not a production BoM.", b.DisplayName())
	}
	p := &engine.Production{BoM: b}
	if b.HasRecipe() {
		if p.Recipe, err = w.recipe(*b.RecipeID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (w *work) saveRecipe(recipe *model.BoM) error {
	w.e.RefreshRecipe(recipe)
	if err := w.e.Validate(recipe); err != nil {
		return err
	}
	return w.store.SaveBoM(w.ctx, recipe)
}

func (w *work) saveProduction(p *engine.Production) error {
	if err := w.e.Flush(p); err != nil {
		return err
	}
	if err := w.e.Validate(p.BoM); err != nil {
		return err
	}
	return w.store.SaveBoM(w.ctx, p.BoM)
}

// propagate records one done activity per note on every production BoM of
// recipe and recomputes their recipe lines. A nil notes slice recomputes
// without activities.
func (w *work) propagate(recipe *model.BoM, notes []string) error {
	boms, err := w.store.ProductionBoMs(w.ctx, recipe.ID)
	if err != nil {
		return err
	}
	for i := range boms {
		b := &boms[i]
		for _, note := range notes {
			a := &model.Activity{BoMID: b.ID, Summary: activitySummary, Note: note, Done: true}
			if err := w.store.AddActivity(w.ctx, a); err != nil {
				return err
			}
		}
		p := &engine.Production{BoM: b, Recipe: recipe}
		p.Touch(engine.FieldRecipeLines)
		if err := w.saveProduction(p); err != nil {
			return err
		}
	}
	if len(boms) > 0 {
		w.log.Info("recipe change propagated", "recipe", recipe.RecipeNumber, "boms", len(boms), "notes", len(notes))
	}
	return nil
}

func (w *work) unit(id *string, fallback *model.UoM) (*model.UoM, error) {
	if id == nil {
		return fallback, nil
	}
	u, ok := w.e.Units.Unit(*id)
	if !ok {
		return nil, fmt.Errorf("unit %s: %w", *id, store.ErrNotFound)
	}
	return u, nil
}
