package mrp

import (
	"context"
	"errors"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/project"
	"github.com/piwi3910/FilmBoM/internal/store"
	"github.com/piwi3910/FilmBoM/internal/uom"
)

// defaultUnitCode is given to new catalogue products without a unit.
const defaultUnitCode = "unit"

// CatalogueReport counts the master data records written by LoadCatalogue.
type CatalogueReport struct {
	Templates   int
	Categories  int
	Workcenters int
	Densities   int
	Products    int
	// Generated counts the products whose units were generated.
	Generated int
}

// LoadCatalogue writes a master data file. Records are matched by name and
// updated in place. Products are refreshed and get their units generated
// when their category has a unit template. Nothing is written if any entry
// is rejected.
func (s *Service) LoadCatalogue(ctx context.Context, c project.Catalogue) (CatalogueReport, error) {
	var rep CatalogueReport
	if err := c.Validate(); err != nil {
		return rep, invalid("%s", err.Error())
	}
	err := s.run(ctx, "load_catalogue", func(w *work) error {
		rep = CatalogueReport{}
		templates := make(map[string]string, len(c.UnitTemplates))
		for _, entry := range c.UnitTemplates {
			id, err := w.saveTemplate(entry)
			if err != nil {
				return err
			}
			templates[entry.Name] = id
			rep.Templates++
		}

		for _, entry := range c.Categories {
			if err := w.saveCategory(entry, templates); err != nil {
				return err
			}
			rep.Categories++
		}

		for _, entry := range c.Workcenters {
			wc, err := w.store.WorkcenterByName(w.ctx, entry.Name)
			if errors.Is(err, store.ErrNotFound) {
				wc, err = &model.Workcenter{ID: model.NewID(), Name: entry.Name}, nil
			}
			if err != nil {
				return err
			}
			wc.StartupTime = entry.StartupTime
			wc.WastePercentage = entry.WastePercentage
			if err := w.store.Save(w.ctx, wc); err != nil {
				return err
			}
			rep.Workcenters++
		}

		for _, entry := range c.Densities {
			d := &model.TheoreticalDensity{FormulaCode: entry.Formula, ColorCode: entry.Color, Density: entry.Density}
			if err := w.store.SaveDensity(w.ctx, d); err != nil {
				return err
			}
			rep.Densities++
		}

		ids := make([]string, 0, len(c.Products))
		for _, entry := range c.Products {
			id, err := w.saveProduct(entry)
			if err != nil {
				return err
			}
			ids = append(ids, id)
			rep.Products++
		}
		for _, id := range ids {
			p, err := w.refreshProduct(id)
			if err != nil {
				return err
			}
			if !uom.MissingUnits(w.e.Units, p) {
				continue
			}
			if _, err := w.generateUoMs(id); err != nil {
				return err
			}
			rep.Generated++
		}
		w.log.Info("catalogue loaded", "templates", rep.Templates, "categories", rep.Categories,
			"workcenters", rep.Workcenters, "densities", rep.Densities, "products", rep.Products, "generated", rep.Generated)
		return nil
	})
	if err != nil {
		return CatalogueReport{}, err
	}
	return rep, nil
}

// saveTemplate writes a unit category template. Unit templates of an
// existing template keep their ids when their name matches, so units
// generated from them stay linked.
func (w *work) saveTemplate(entry project.UnitCategoryTemplate) (string, error) {
	tmpl := entry.Model()
	if err := tmpl.Validate(); err != nil {
		return "", invalid("%s", err.Error())
	}
	existing, err := w.store.CategoryTemplateByName(w.ctx, entry.Name)
	switch {
	case err == nil:
		tmpl.ID = existing.ID
		ids := make(map[string]string, len(existing.UoMTemplates))
		for _, ut := range existing.UoMTemplates {
			ids[ut.Name] = ut.ID
		}
		for i := range tmpl.UoMTemplates {
			if id, ok := ids[tmpl.UoMTemplates[i].Name]; ok {
				tmpl.UoMTemplates[i].ID = id
			}
		}
	case !errors.Is(err, store.ErrNotFound):
		return "", err
	}
	if err := w.store.SaveCategoryTemplate(w.ctx, &tmpl); err != nil {
		return "", err
	}
	return tmpl.ID, nil
}

func (w *work) saveCategory(entry project.Category, templates map[string]string) error {
	c, err := w.store.CategoryByName(w.ctx, entry.Name)
	if errors.Is(err, store.ErrNotFound) {
		c, err = &model.ProductCategory{ID: model.NewID()}, nil
	}
	if err != nil {
		return err
	}
	entry.Apply(c)
	c.UoMTemplateID = nil
	if entry.UnitTemplate != "" {
		id, ok := templates[entry.UnitTemplate]
		if !ok {
			tmpl, err := w.store.CategoryTemplateByName(w.ctx, entry.UnitTemplate)
			if errors.Is(err, store.ErrNotFound) {
				return invalid("Category %s: unknown unit template %s.", entry.Name, entry.UnitTemplate)
			}
			if err != nil {
				return err
			}
			id = tmpl.ID
		}
		c.UoMTemplateID = &id
	}
	return w.store.Save(w.ctx, c)
}

func (w *work) saveProduct(entry project.Product) (string, error) {
	p, err := w.store.ProductByName(w.ctx, entry.Name)
	isNew := errors.Is(err, store.ErrNotFound)
	if isNew {
		fresh := model.NewProduct(entry.Name, nil, nil)
		p, err = &fresh, nil
	}
	if err != nil {
		return "", err
	}
	entry.Apply(p)

	p.CategoryID = nil
	if entry.Category != "" {
		c, err := w.store.CategoryByName(w.ctx, entry.Category)
		if errors.Is(err, store.ErrNotFound) {
			return "", invalid("Product %s: unknown category %s.", entry.Name, entry.Category)
		}
		if err != nil {
			return "", err
		}
		p.CategoryID = &c.ID
	}

	code := entry.Unit
	if code == "" && isNew {
		code = defaultUnitCode
	}
	if code != "" {
		u, ok := w.e.Units.UnitByCode(code)
		if !ok {
			return "", invalid("Product %s: unknown unit %s.", entry.Name, code)
		}
		p.UoMID = &u.ID
		p.PurchaseUoMID = &u.ID
		p.UoMCategoryID = &u.CategoryID
	}
	if err := w.store.SaveProduct(w.ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}
