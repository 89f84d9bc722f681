package mrp

import (
	"context"
	"fmt"

	"github.com/piwi3910/FilmBoM/internal/engine"
	"github.com/piwi3910/FilmBoM/internal/model"
)

// ProductionInput describes a new production BoM. UoMID defaults to the
// product unit.
type ProductionInput struct {
	Code                 string
	ProductID            string
	Quantity             float64
	UoMID                *string
	WorkcenterID         *string
	RecipeID             *string
	TotalProductionWidth float64
	MachineSpeed         float64
	MachineTimeNumber    float64
	WastePercentage      float64
}

// ProductionUpdate modifies stored fields of a production BoM. Nil fields
// are left unchanged.
type ProductionUpdate struct {
	Quantity             *float64
	UoMID                *string
	WorkcenterID         *string
	ClearWorkcenter      bool
	TotalProductionWidth *float64
	MachineSpeed         *float64
	MachineTimeNumber    *float64
	WastePercentage      *float64
}

// ByproductInput describes a byproduct created with a recipe import or
// with waste management.
type ByproductInput struct {
	ProductID string
	UoMID     *string
}

// FilmRequest adds a film component.
type FilmRequest struct {
	ProductID          string
	UoMID              *string
	StretchingFactor   float64
	ManualBorderFactor *float64
}

// TreatmentRequest adds a glue or a coating.
type TreatmentRequest struct {
	ProductID    string
	UoMID        *string
	Grammage     float64
	FilmToCoatID *string
}

// CreateProduction creates a production BoM and computes every derived
// field, importing the recipe when one is given.
func (s *Service) CreateProduction(ctx context.Context, in ProductionInput) (*model.BoM, error) {
	var out *model.BoM
	err := s.run(ctx, "create_production", func(w *work) error {
		product, err := w.store.Product(w.ctx, in.ProductID)
		if err != nil {
			return err
		}
		unit, err := w.unit(in.UoMID, product.UoM)
		if err != nil {
			return err
		}
		b := model.NewProductionBoM(product, in.Quantity, unit)
		b.Code = in.Code
		b.TotalProductionWidth = in.TotalProductionWidth
		b.MachineSpeed = in.MachineSpeed
		b.MachineTimeNumber = in.MachineTimeNumber
		b.WastePercentage = in.WastePercentage
		p := &engine.Production{BoM: &b}

		if in.RecipeID != nil {
			if err := w.importRecipe(p, in.RecipeID, nil); err != nil {
				return err
			}
		}
		if in.WorkcenterID != nil {
			if err := w.setWorkcenter(p, in.WorkcenterID); err != nil {
				return err
			}
		}
		if err := w.e.Recompute(p); err != nil {
			return err
		}
		if err := w.saveProduction(p); err != nil {
			return err
		}
		w.log.Info("production BoM created", "bom", b.DisplayName(), "raw_material_weight", b.RawMaterialWeight)
		out = &b
		return nil
	})
	return out, err
}

// ImportRecipe replaces the recipe of a production BoM. Recipe-derived
// lines and recipe byproducts are dropped first. A nil recipeID unlinks the
// recipe and clears the workcenter.
func (s *Service) ImportRecipe(ctx context.Context, bomID string, recipeID *string, byproduct *ByproductInput) (*model.BoM, error) {
	var out *model.BoM
	err := s.run(ctx, "import_recipe", func(w *work) error {
		p, err := w.production(bomID)
		if err != nil {
			return err
		}
		if err := w.importRecipe(p, recipeID, byproduct); err != nil {
			return err
		}
		if err := w.saveProduction(p); err != nil {
			return err
		}
		w.log.Info("recipe imported", "bom", p.BoM.DisplayName(), "lines", len(p.BoM.Lines))
		out = p.BoM
		return nil
	})
	return out, err
}

// ClearRecipe unlinks the recipe of a production BoM.
func (s *Service) ClearRecipe(ctx context.Context, bomID string) (*model.BoM, error) {
	return s.ImportRecipe(ctx, bomID, nil, nil)
}

func (w *work) importRecipe(p *engine.Production, recipeID *string, byproduct *ByproductInput) error {
	b := p.BoM
	engine.ReplaceRecipeLines(b, nil)
	kept := b.Byproducts[:0]
	for _, bp := range b.Byproducts {
		if bp.RecipeID == nil {
			kept = append(kept, bp)
		}
	}
	b.Byproducts = kept

	if recipeID == nil {
		b.RecipeID = nil
		b.Recipe = nil
		p.Recipe = nil
		b.WorkcenterID = nil
		b.Workcenter = nil
		p.Touch(engine.FieldRecipe, engine.FieldWorkcenter)
		return nil
	}

	recipe, err := w.recipe(*recipeID)
	if err != nil {
		return err
	}
	if !recipe.Active {
		return invalid("Recipe (%s) is archived.", recipe.DisplayName())
	}
	if byproduct != nil {
		bp, err := w.newByproduct(b, *byproduct)
		if err != nil {
			return err
		}
		bp.RecipeID = &recipe.ID
		b.Byproducts = append(b.Byproducts, bp)
	}
	b.RecipeID = &recipe.ID
	p.Recipe = recipe
	p.Touch(engine.FieldRecipe)
	return w.setWorkcenter(p, recipe.WorkcenterID)
}

func (w *work) setWorkcenter(p *engine.Production, id *string) error {
	b := p.BoM
	if id == nil {
		b.WorkcenterID = nil
		b.Workcenter = nil
	} else {
		wc, err := w.store.Workcenter(w.ctx, *id)
		if err != nil {
			return err
		}
		b.WorkcenterID = &wc.ID
		b.Workcenter = wc
	}
	p.Touch(engine.FieldWorkcenter)
	return nil
}

func (w *work) newByproduct(b *model.BoM, in ByproductInput) (model.Byproduct, error) {
	product, err := w.store.Product(w.ctx, in.ProductID)
	if err != nil {
		return model.Byproduct{}, err
	}
	unit, err := w.unit(in.UoMID, product.UoM)
	if err != nil {
		return model.Byproduct{}, err
	}
	bp := model.Byproduct{ID: model.NewID(), BoMID: b.ID, ProductID: product.ID, Product: product}
	if unit != nil {
		bp.UoMID = &unit.ID
		bp.UoM = unit
	}
	return bp, nil
}

// RecomputeRecipeQuantities regenerates the recipe lines of a production
// BoM from its current raw material weight. Running it twice gives the
// same lines.
func (s *Service) RecomputeRecipeQuantities(ctx context.Context, bomID string) (*model.BoM, error) {
	var out *model.BoM
	err := s.run(ctx, "recompute_recipe_quantities", func(w *work) error {
		p, err := w.production(bomID)
		if err != nil {
			return err
		}
		p.Touch(engine.FieldRawMaterialWeight)
		if err := w.saveProduction(p); err != nil {
			return err
		}
		out = p.BoM
		return nil
	})
	return out, err
}

// Recompute refreshes every derived field of a production BoM.
func (s *Service) Recompute(ctx context.Context, bomID string) (*model.BoM, error) {
	var out *model.BoM
	err := s.run(ctx, "recompute", func(w *work) error {
		p, err := w.production(bomID)
		if err != nil {
			return err
		}
		if err := w.e.Recompute(p); err != nil {
			return err
		}
		if err := w.saveProduction(p); err != nil {
			return err
		}
		out = p.BoM
		return nil
	})
	return out, err
}

// UpdateProduction writes stored fields and recomputes what they affect.
func (s *Service) UpdateProduction(ctx context.Context, bomID string, up ProductionUpdate) (*model.BoM, error) {
	var out *model.BoM
	err := s.run(ctx, "update_production", func(w *work) error {
		p, err := w.production(bomID)
		if err != nil {
			return err
		}
		b := p.BoM
		if up.Quantity != nil {
			if *up.Quantity < 0 {
				return invalid("The quantity to produce cannot be negative.")
			}
			b.Quantity = *up.Quantity
			p.Touch(engine.FieldQuantity)
		}
		if up.UoMID != nil {
			unit, err := w.unit(up.UoMID, nil)
			if err != nil {
				return err
			}
			b.UoMID = &unit.ID
			b.UoM = unit
			p.Touch(engine.FieldUoM)
		}
		switch {
		case up.ClearWorkcenter:
			if err := w.setWorkcenter(p, nil); err != nil {
				return err
			}
		case up.WorkcenterID != nil:
			if err := w.setWorkcenter(p, up.WorkcenterID); err != nil {
				return err
			}
		}
		setFloat(p, &b.TotalProductionWidth, up.TotalProductionWidth, engine.FieldTotalWidth)
		setFloat(p, &b.MachineSpeed, up.MachineSpeed, engine.FieldMachineSpeed)
		setFloat(p, &b.MachineTimeNumber, up.MachineTimeNumber, engine.FieldMachineTimeNumber)
		setFloat(p, &b.WastePercentage, up.WastePercentage, engine.FieldWastePercentage)

		dirty := p.Dirty()
		if err := w.saveProduction(p); err != nil {
			return err
		}
		w.log.Debug("production BoM updated", "bom", b.DisplayName(), "fields", dirty)
		out = b
		return nil
	})
	return out, err
}

func setFloat(p *engine.Production, dst *float64, v *float64, f engine.Field) {
	if v == nil {
		return
	}
	*dst = *v
	p.Touch(f)
}

// SetWasteManagement turns waste management on or off. Turning it on
// records the waste on a byproduct, created from in when the BoM has none.
func (s *Service) SetWasteManagement(ctx context.Context, bomID string, enabled bool, in *ByproductInput) (*model.BoM, error) {
	var out *model.BoM
	err := s.run(ctx, "set_waste_management", func(w *work) error {
		p, err := w.production(bomID)
		if err != nil {
			return err
		}
		b := p.BoM
		if enabled {
			if !hasWasteByproduct(b) {
				if in == nil {
					return invalid("Select the by-product receiving the waste of %s.", b.DisplayName())
				}
				bp, err := w.newByproduct(b, *in)
				if err != nil {
					return err
				}
				bp.WasteManagement = true
				b.Byproducts = append(b.Byproducts, bp)
			}
		} else {
			kept := b.Byproducts[:0]
			for _, bp := range b.Byproducts {
				if !bp.WasteManagement {
					kept = append(kept, bp)
				}
			}
			b.Byproducts = kept
		}
		b.WasteManagement = enabled
		p.Touch(engine.FieldWasteManagement)
		if err := w.saveProduction(p); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

func hasWasteByproduct(b *model.BoM) bool {
	for _, bp := range b.Byproducts {
		if bp.WasteManagement {
			return true
		}
	}
	return false
}

// AddFilm adds a film component to a production BoM.
func (s *Service) AddFilm(ctx context.Context, bomID string, req FilmRequest) (*model.BoMLine, error) {
	var out *model.BoMLine
	err := s.run(ctx, "add_film", func(w *work) error {
		p, err := w.production(bomID)
		if err != nil {
			return err
		}
		product, err := w.store.Product(w.ctx, req.ProductID)
		if err != nil {
			return err
		}
		unit, err := w.unit(req.UoMID, product.UoM)
		if err != nil {
			return err
		}
		line, err := w.e.NewFilmLine(p.BoM, engine.FilmInput{
			Product:            product,
			UoM:                unit,
			StretchingFactor:   req.StretchingFactor,
			ManualBorderFactor: req.ManualBorderFactor,
		})
		if err != nil {
			return err
		}
		return w.addComponent(p, line, &out)
	})
	return out, err
}

// AddTreatment adds a glue or a coating to a production BoM.
func (s *Service) AddTreatment(ctx context.Context, bomID string, req TreatmentRequest) (*model.BoMLine, error) {
	var out *model.BoMLine
	err := s.run(ctx, "add_treatment", func(w *work) error {
		p, err := w.production(bomID)
		if err != nil {
			return err
		}
		product, err := w.store.Product(w.ctx, req.ProductID)
		if err != nil {
			return err
		}
		unit, err := w.unit(req.UoMID, product.UoM)
		if err != nil {
			return err
		}
		line, err := w.e.NewTreatmentLine(p.BoM, engine.TreatmentInput{
			Product:      product,
			UoM:          unit,
			Grammage:     req.Grammage,
			FilmToCoatID: req.FilmToCoatID,
		})
		if err != nil {
			return err
		}
		return w.addComponent(p, line, &out)
	})
	return out, err
}

func (w *work) addComponent(p *engine.Production, line model.BoMLine, out **model.BoMLine) error {
	b := p.BoM
	b.Lines = append(b.Lines, line)
	p.Touch(engine.FieldComponents)
	if err := w.saveProduction(p); err != nil {
		return err
	}
	for i := range b.Lines {
		if b.Lines[i].ID == line.ID {
			*out = &b.Lines[i]
		}
	}
	w.log.Info("component added", "bom", b.DisplayName(), "product", productName(&line))
	return nil
}

// RemoveComponent deletes a line that was not generated from the recipe.
func (s *Service) RemoveComponent(ctx context.Context, bomID, lineID string) (*model.BoM, error) {
	var out *model.BoM
	err := s.run(ctx, "remove_component", func(w *work) error {
		p, err := w.production(bomID)
		if err != nil {
			return err
		}
		b := p.BoM
		l, _ := findLine(b, lineID)
		if l == nil {
			return invalid("Component %s does not belong to %s.", lineID, b.DisplayName())
		}
		if l.IsRecipeDerived() {
			return invalid("Component %s comes from the recipe. Change the recipe instead.", productName(l))
		}
		for i := range b.Lines {
			if b.Lines[i].FilmToTreatID != nil && *b.Lines[i].FilmToTreatID == lineID {
				return invalid("Component %s is treated by %s.", productName(l), productName(&b.Lines[i]))
			}
		}
		removeLine(b, lineID)
		p.Touch(engine.FieldComponents)
		if err := w.saveProduction(p); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

// Waste returns the waste breakdown of a production BoM as stored.
func (s *Service) Waste(ctx context.Context, bomID string) (engine.Waste, error) {
	var out engine.Waste
	err := s.run(ctx, "waste", func(w *work) error {
		p, err := w.production(bomID)
		if err != nil {
			return err
		}
		out = engine.WasteOf(p.BoM)
		return nil
	})
	if err != nil {
		return engine.Waste{}, fmt.Errorf("failed to read waste of BoM %s: %w", bomID, err)
	}
	return out, nil
}
