package mrp

import (
	"context"
	"errors"
	"fmt"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/store"
)

// ExtruderInput describes one layer of a recipe.
type ExtruderInput struct {
	Name          string
	Concentration float64
}

// RecipeInput describes a new recipe.
type RecipeInput struct {
	Code         string
	WorkcenterID *string
	Extruders    []ExtruderInput
}

// LineInput describes a recipe component. Extruder is the id or name of a
// recipe extruder.
type LineInput struct {
	ProductID          string
	Extruder           string
	LayerConcentration float64
	UoMID              *string
	Alternative        bool
}

// LineChange modifies a recipe component. Nil fields are left unchanged.
type LineChange struct {
	LineID             string
	ProductID          *string
	Extruder           *string
	LayerConcentration *float64
}

// RecipeEdit groups component changes validated and propagated together.
type RecipeEdit struct {
	Add    []LineInput
	Change []LineChange
	Delete []string
}

// CreateRecipe creates a numbered recipe with its extruders.
func (s *Service) CreateRecipe(ctx context.Context, in RecipeInput) (*model.BoM, error) {
	var out *model.BoM
	err := s.run(ctx, "create_recipe", func(w *work) error {
		number, err := w.store.NextNumber(w.ctx, recipeSequence, s.cfg.RecipeSequencePrefix)
		if err != nil {
			return err
		}
		recipe := model.NewRecipe(number)
		recipe.Code = in.Code
		if in.WorkcenterID != nil {
			if _, err := w.store.Workcenter(w.ctx, *in.WorkcenterID); err != nil {
				return err
			}
			recipe.WorkcenterID = in.WorkcenterID
		}
		for i, ex := range in.Extruders {
			e := model.NewExtruder(ex.Name, ex.Concentration)
			e.BoMID = recipe.ID
			e.Sequence = i + 1
			recipe.Extruders = append(recipe.Extruders, e)
		}
		if err := w.saveRecipe(&recipe); err != nil {
			return err
		}
		w.log.Info("recipe created", "recipe", recipe.RecipeNumber, "extruders", len(recipe.Extruders))
		out = &recipe
		return nil
	})
	return out, err
}

// SetExtruders updates the concentration of named extruders and adds the
// missing ones. Extruders not listed are removed unless a component uses
// them. Production BoMs of the recipe are recomputed.
func (s *Service) SetExtruders(ctx context.Context, recipeID string, extruders []ExtruderInput) (*model.BoM, error) {
	var out *model.BoM
	err := s.run(ctx, "set_extruders", func(w *work) error {
		recipe, err := w.recipe(recipeID)
		if err != nil {
			return err
		}
		byName := make(map[string]model.Extruder, len(recipe.Extruders))
		for _, ex := range recipe.Extruders {
			byName[ex.Name] = ex
		}
		next := make([]model.Extruder, 0, len(extruders))
		listed := make(map[string]bool, len(extruders))
		for i, in := range extruders {
			ex, ok := byName[in.Name]
			if !ok {
				ex = model.NewExtruder(in.Name, 0)
				ex.BoMID = recipe.ID
			}
			ex.Concentration = in.Concentration
			ex.Sequence = i + 1
			listed[ex.ID] = true
			next = append(next, ex)
		}
		for _, l := range append(append([]model.BoMLine{}, recipe.Lines...), recipe.AltLines...) {
			if l.ExtruderID != nil && !listed[*l.ExtruderID] {
				return invalid("Extruder %s is still used by component %s.", extruderName(recipe, *l.ExtruderID), productName(&l))
			}
		}
		recipe.Extruders = next
		if err := w.saveRecipe(recipe); err != nil {
			return err
		}
		out = recipe
		return w.propagate(recipe, nil)
	})
	return out, err
}

// EditRecipe applies component changes. Every production BoM importing the
// recipe gets one done activity per changed component and is recomputed in
// the same unit of work. Alternative components do not propagate.
func (s *Service) EditRecipe(ctx context.Context, recipeID string, edit RecipeEdit) (*model.BoM, error) {
	var out *model.BoM
	err := s.run(ctx, "edit_recipe", func(w *work) error {
		recipe, err := w.editRecipe(recipeID, edit)
		out = recipe
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (w *work) editRecipe(recipeID string, edit RecipeEdit) (*model.BoM, error) {
	recipe, err := w.recipe(recipeID)
	if err != nil {
		return nil, err
	}
	name := recipe.DisplayName()
	var notes []string

	for _, id := range edit.Delete {
		l, alt := findLine(recipe, id)
		if l == nil {
			return nil, fmt.Errorf("component %s of recipe %s: %w", id, name, store.ErrNotFound)
		}
		if !alt {
			notes = append(notes, fmt.Sprintf(noteDeleted, productName(l), name))
		}
		removeLine(recipe, id)
	}

	for _, ch := range edit.Change {
		l, alt := findLine(recipe, ch.LineID)
		if l == nil {
			return nil, fmt.Errorf("component %s of recipe %s: %w", ch.LineID, name, store.ErrNotFound)
		}
		changed, err := w.applyChange(recipe, l, ch)
		if err != nil {
			return nil, err
		}
		if changed && !alt {
			notes = append(notes, fmt.Sprintf(noteChanged, productName(l), name))
		}
	}

	for _, in := range edit.Add {
		l, err := w.newRecipeLine(recipe, in)
		if err != nil {
			return nil, err
		}
		if in.Alternative {
			recipe.AltLines = append(recipe.AltLines, l)
			continue
		}
		recipe.Lines = append(recipe.Lines, l)
		notes = append(notes, fmt.Sprintf(noteAdded, productName(&l), name))
	}

	if err := w.saveRecipe(recipe); err != nil {
		return nil, err
	}
	if len(notes) > 0 {
		if err := w.propagate(recipe, notes); err != nil {
			return nil, err
		}
	}
	return recipe, nil
}

// AddRecipeLine adds one component.
func (s *Service) AddRecipeLine(ctx context.Context, recipeID string, in LineInput) (*model.BoM, error) {
	return s.EditRecipe(ctx, recipeID, RecipeEdit{Add: []LineInput{in}})
}

// ChangeRecipeLine modifies one component.
func (s *Service) ChangeRecipeLine(ctx context.Context, recipeID string, ch LineChange) (*model.BoM, error) {
	return s.EditRecipe(ctx, recipeID, RecipeEdit{Change: []LineChange{ch}})
}

// DeleteRecipeLine removes one component.
func (s *Service) DeleteRecipeLine(ctx context.Context, recipeID, lineID string) (*model.BoM, error) {
	return s.EditRecipe(ctx, recipeID, RecipeEdit{Delete: []string{lineID}})
}

// ValidateRecipe runs every concentration rule on a stored recipe.
func (s *Service) ValidateRecipe(ctx context.Context, recipeID string) error {
	return s.run(ctx, "validate_recipe", func(w *work) error {
		recipe, err := w.recipe(recipeID)
		if err != nil {
			return err
		}
		return w.e.Validate(recipe)
	})
}

// ResolveRecipe finds a recipe by number, falling back to its id.
func (s *Service) ResolveRecipe(ctx context.Context, ref string) (*model.BoM, error) {
	b, err := s.store.RecipeByNumber(ctx, ref)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	b, err = s.store.BoM(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !b.IsRecipe() {
		return nil, invalid("BoM (%s) is not a recipe.", b.DisplayName())
	}
	return b, nil
}

// ProductionBoMCount returns the number of active production BoMs
// importing a recipe.
func (s *Service) ProductionBoMCount(ctx context.Context, recipeID string) (int64, error) {
	return s.store.CountProductionBoMs(ctx, recipeID)
}

func (w *work) newRecipeLine(recipe *model.BoM, in LineInput) (model.BoMLine, error) {
	p, err := w.store.Product(w.ctx, in.ProductID)
	if err != nil {
		return model.BoMLine{}, err
	}
	ex := findExtruder(recipe, in.Extruder)
	if ex == nil {
		return model.BoMLine{}, invalid("Recipe (%s) has no extruder %s.", recipe.DisplayName(), in.Extruder)
	}
	unit, err := w.unit(in.UoMID, p.UoM)
	if err != nil {
		return model.BoMLine{}, err
	}

	l := model.NewBoMLine(p, 0)
	if unit != nil {
		l.UoMID = &unit.ID
		l.UoM = unit
	}
	if in.Alternative {
		l.AltBoMID = &recipe.ID
		l.Sequence = len(recipe.AltLines) + 1
	} else {
		l.BoMID = &recipe.ID
		l.Sequence = len(recipe.Lines) + 1
	}
	l.ExtruderID = &ex.ID
	l.LayerConcentration = in.LayerConcentration
	return l, nil
}

// applyChange reports whether a field driving production quantities
// changed.
func (w *work) applyChange(recipe *model.BoM, l *model.BoMLine, ch LineChange) (bool, error) {
	changed := false
	if ch.ProductID != nil && *ch.ProductID != l.ProductID {
		p, err := w.store.Product(w.ctx, *ch.ProductID)
		if err != nil {
			return false, err
		}
		l.ProductID = p.ID
		l.Product = p
		if p.UoM != nil {
			l.UoMID = &p.UoM.ID
			l.UoM = p.UoM
		}
		changed = true
	}
	if ch.Extruder != nil {
		ex := findExtruder(recipe, *ch.Extruder)
		if ex == nil {
			return false, invalid("Recipe (%s) has no extruder %s.", recipe.DisplayName(), *ch.Extruder)
		}
		if l.ExtruderID == nil || *l.ExtruderID != ex.ID {
			l.ExtruderID = &ex.ID
			changed = true
		}
	}
	if ch.LayerConcentration != nil && *ch.LayerConcentration != l.LayerConcentration {
		l.LayerConcentration = *ch.LayerConcentration
		changed = true
	}
	return changed, nil
}

func findLine(b *model.BoM, id string) (*model.BoMLine, bool) {
	for i := range b.Lines {
		if b.Lines[i].ID == id {
			return &b.Lines[i], false
		}
	}
	for i := range b.AltLines {
		if b.AltLines[i].ID == id {
			return &b.AltLines[i], true
		}
	}
	return nil, false
}

func removeLine(b *model.BoM, id string) {
	filter := func(lines []model.BoMLine) []model.BoMLine {
		kept := lines[:0]
		for _, l := range lines {
			if l.ID != id {
				kept = append(kept, l)
			}
		}
		return kept
	}
	b.Lines = filter(b.Lines)
	b.AltLines = filter(b.AltLines)
}

func findExtruder(b *model.BoM, ref string) *model.Extruder {
	for i := range b.Extruders {
		if b.Extruders[i].ID == ref || b.Extruders[i].Name == ref {
			return &b.Extruders[i]
		}
	}
	return nil
}

func extruderName(b *model.BoM, id string) string {
	if ex := findExtruder(b, id); ex != nil {
		return ex.DisplayName()
	}
	return id
}

func productName(l *model.BoMLine) string {
	if l.Product != nil {
		return l.Product.Name
	}
	return l.ProductID
}
