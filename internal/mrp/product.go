package mrp

import (
	"context"

	"github.com/piwi3910/FilmBoM/internal/engine"
	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/uom"
)

// RefreshProduct recomputes the derived fields of a product, then the
// production BoMs making it, whose waste depends on its grammage and width.
func (s *Service) RefreshProduct(ctx context.Context, productID string) (*model.Product, error) {
	var out *model.Product
	err := s.run(ctx, "refresh_product", func(w *work) error {
		p, err := w.refreshProduct(productID)
		out = p
		return err
	})
	return out, err
}

func (w *work) refreshProduct(productID string) (*model.Product, error) {
	p, err := w.store.Product(w.ctx, productID)
	if err != nil {
		return nil, err
	}
	first, err := w.store.FirstBoM(w.ctx, p.ID)
	if err != nil {
		return nil, err
	}
	rows, err := w.store.Densities(w.ctx)
	if err != nil {
		return nil, err
	}
	w.e.RefreshProduct(p, first, engine.NewDensityTable(rows))
	if err := w.store.SaveProduct(w.ctx, p); err != nil {
		return nil, err
	}

	boms, err := w.store.ProductBoMs(w.ctx, p.ID)
	if err != nil {
		return nil, err
	}
	for i := range boms {
		prod, err := w.production(boms[i].ID)
		if err != nil {
			return nil, err
		}
		prod.Touch(engine.FieldProduct)
		if err := w.saveProduction(prod); err != nil {
			return nil, err
		}
	}
	w.log.Info("product refreshed", "product", p.Name, "total_grammage", p.TotalGrammage, "boms", len(boms))
	return p, nil
}

// GenerateUoMs creates the units of a product from the unit template of its
// category and makes them the product sale and purchase units.
func (s *Service) GenerateUoMs(ctx context.Context, productID string) (*uom.Generation, error) {
	var out *uom.Generation
	err := s.run(ctx, "generate_uoms", func(w *work) error {
		g, err := w.generateUoMs(productID)
		out = g
		return err
	})
	return out, err
}

func (w *work) generateUoMs(productID string) (*uom.Generation, error) {
	p, err := w.store.Product(w.ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Category == nil || p.Category.UoMTemplateID == nil {
		return nil, invalid("The category of product %s has no unit of measure template.", p.Name)
	}
	tmpl, err := w.store.CategoryTemplate(w.ctx, *p.Category.UoMTemplateID)
	if err != nil {
		return nil, err
	}
	g, err := uom.Generate(w.e.Units, p, *tmpl)
	if err != nil {
		return nil, &engine.ValidationError{Msg: err.Error()}
	}
	if err := w.store.SaveUnits(w.ctx, g); err != nil {
		return nil, err
	}
	g.Apply(w.e.Units, p)
	if err := w.store.SaveProduct(w.ctx, p); err != nil {
		return nil, err
	}
	w.log.Info("units generated", "product", p.Name, "category", g.Category.Name,
		"created", len(g.Created), "archived", len(g.Archived))
	return g, nil
}

// MissingUoMBanner reports whether a product still needs its units
// generated.
func (s *Service) MissingUoMBanner(ctx context.Context, productID string) (bool, error) {
	p, err := s.store.Product(ctx, productID)
	if err != nil {
		return false, err
	}
	units, err := s.store.Units(ctx)
	if err != nil {
		return false, err
	}
	return uom.MissingUnits(units, p), nil
}

// ArchiveBoMs deactivates BoMs. Archived recipes stay readable but are
// hidden from default queries.
func (s *Service) ArchiveBoMs(ctx context.Context, ids ...string) error {
	return s.setActive(ctx, "archive_boms", false, ids)
}

// RestoreBoMs reactivates archived BoMs.
func (s *Service) RestoreBoMs(ctx context.Context, ids ...string) error {
	return s.setActive(ctx, "restore_boms", true, ids)
}

func (s *Service) setActive(ctx context.Context, op string, active bool, ids []string) error {
	return s.run(ctx, op, func(w *work) error {
		for _, id := range ids {
			if _, err := w.store.BoM(w.ctx, id); err != nil {
				return err
			}
		}
		return w.store.SetActive(w.ctx, active, ids...)
	})
}

// DeleteBoMs removes production BoMs. Recipes are never deleted: the
// request fails with a RecipeDeletionError naming them and nothing is
// removed.
func (s *Service) DeleteBoMs(ctx context.Context, ids ...string) error {
	return s.run(ctx, "delete_boms", func(w *work) error {
		var recipes []string
		for _, id := range ids {
			b, err := w.store.BoM(w.ctx, id)
			if err != nil {
				return err
			}
			if b.IsRecipe() {
				recipes = append(recipes, b.DisplayName())
			}
		}
		if len(recipes) > 0 {
			return &RecipeDeletionError{Recipes: recipes}
		}
		for _, id := range ids {
			if err := w.store.DeleteBoM(w.ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}
