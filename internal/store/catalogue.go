package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/uom"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed inserts the standard unit catalogue. Categories and units already
// present (matched by code) are left untouched.
func (s *Store) Seed(ctx context.Context) error {
	fixture, err := uom.LoadFixture()
	if err != nil {
		return err
	}
	return s.Transaction(ctx, func(tx *Store) error {
		db := tx.with(ctx)
		created := 0
		for _, fc := range fixture.Categories {
			var cat model.UoMCategory
			err := db.Where("code = ?", fc.Code).Take(&cat).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				cat = model.UoMCategory{ID: model.NewID(), Code: fc.Code, Name: fc.Name}
				if err := db.Create(&cat).Error; err != nil {
					return fmt.Errorf("failed to seed category %s: %w", fc.Code, err)
				}
			} else if err != nil {
				return fmt.Errorf("failed to read category %s: %w", fc.Code, err)
			}

			for _, fu := range fc.Units {
				var count int64
				if err := db.Model(&model.UoM{}).
					Where("code = ? AND product_id IS NULL", fu.Code).
					Count(&count).Error; err != nil {
					return fmt.Errorf("failed to read unit %s: %w", fu.Code, err)
				}
				if count > 0 {
					continue
				}
				u := model.NewUoM(fu.Code, fu.Name, &cat, fu.Type, fu.Factor)
				u.Category = nil
				u.Rounding = fu.Rounding
				if err := db.Create(&u).Error; err != nil {
					return fmt.Errorf("failed to seed unit %s: %w", fu.Code, err)
				}
				created++
			}
		}
		tx.log.Info("unit catalogue seeded", "created", created)
		return nil
	})
}

// Units loads every category and unit into a registry.
func (s *Store) Units(ctx context.Context) (*uom.Registry, error) {
	var categories []model.UoMCategory
	if err := s.with(ctx).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load unit categories: %w", err)
	}
	var units []model.UoM
	if err := s.with(ctx).Find(&units).Error; err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}
	return uom.NewRegistry(categories, units), nil
}

// SaveUnits writes a unit generation: the category and every unit.
func (s *Store) SaveUnits(ctx context.Context, g *uom.Generation) error {
	db := s.with(ctx)
	if err := db.Omit("UoMs").Save(&g.Category).Error; err != nil {
		return fmt.Errorf("failed to save unit category %s: %w", g.Category.Name, err)
	}
	for _, u := range g.Units() {
		u.Category = nil
		if err := db.Omit("Category").Save(&u).Error; err != nil {
			return fmt.Errorf("failed to save unit %s: %w", u.Name, err)
		}
	}
	return nil
}

// CategoryTemplate loads a unit category template with its unit templates.
func (s *Store) CategoryTemplate(ctx context.Context, id string) (*model.UoMCategoryTemplate, error) {
	var t model.UoMCategoryTemplate
	err := s.with(ctx).Preload("UoMTemplates").Take(&t, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "unit category template", id)
	}
	return &t, nil
}

func preloadProduct(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("UoM").Preload("PurchaseUoM").
		Preload("Mandrel").Preload("Mandrel.Category")
}

// Product loads a product with its category, units and mandrel.
func (s *Store) Product(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	if err := preloadProduct(s.with(ctx)).Take(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "product", id)
	}
	return &p, nil
}

// ProductByName loads an active product by name or code.
func (s *Store) ProductByName(ctx context.Context, name string) (*model.Product, error) {
	var p model.Product
	err := preloadProduct(s.with(ctx)).
		Where("active = ? AND (name = ? OR code = ?)", true, name, name).
		Order("name").Take(&p).Error
	if err != nil {
		return nil, notFound(err, "product", name)
	}
	return &p, nil
}

// Products lists active products ordered by name.
func (s *Store) Products(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := preloadProduct(s.with(ctx)).Where("active = ?", true).Order("name").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// SaveProduct writes the product row only.
func (s *Store) SaveProduct(ctx context.Context, p *model.Product) error {
	if err := s.with(ctx).Omit("Category", "UoM", "PurchaseUoM", "Mandrel").Save(p).Error; err != nil {
		return fmt.Errorf("failed to save product %s: %w", p.Name, err)
	}
	return nil
}

// Densities loads the theoretical density table.
func (s *Store) Densities(ctx context.Context) ([]model.TheoreticalDensity, error) {
	var rows []model.TheoreticalDensity
	if err := s.with(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load densities: %w", err)
	}
	return rows, nil
}

// Workcenter loads a workcenter.
func (s *Store) Workcenter(ctx context.Context, id string) (*model.Workcenter, error) {
	var wc model.Workcenter
	if err := s.with(ctx).Take(&wc, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "workcenter", id)
	}
	return &wc, nil
}

// WorkcenterByName loads a workcenter by name.
func (s *Store) WorkcenterByName(ctx context.Context, name string) (*model.Workcenter, error) {
	var wc model.Workcenter
	if err := s.with(ctx).Where("name = ?", name).Order("id").Take(&wc).Error; err != nil {
		return nil, notFound(err, "workcenter", name)
	}
	return &wc, nil
}

// CategoryByName loads a product category by name.
func (s *Store) CategoryByName(ctx context.Context, name string) (*model.ProductCategory, error) {
	var c model.ProductCategory
	if err := s.with(ctx).Where("name = ?", name).Order("id").Take(&c).Error; err != nil {
		return nil, notFound(err, "product category", name)
	}
	return &c, nil
}

// CategoryTemplateByName loads a unit category template by name.
func (s *Store) CategoryTemplateByName(ctx context.Context, name string) (*model.UoMCategoryTemplate, error) {
	var t model.UoMCategoryTemplate
	err := s.with(ctx).Preload("UoMTemplates").Where("name = ?", name).Order("id").Take(&t).Error
	if err != nil {
		return nil, notFound(err, "unit category template", name)
	}
	return &t, nil
}

// SaveCategoryTemplate writes a template and replaces its unit templates.
func (s *Store) SaveCategoryTemplate(ctx context.Context, t *model.UoMCategoryTemplate) error {
	db := s.with(ctx)
	if err := db.Omit(clause.Associations).Save(t).Error; err != nil {
		return fmt.Errorf("failed to save unit category template %s: %w", t.Name, err)
	}
	ids := make([]string, len(t.UoMTemplates))
	for i := range t.UoMTemplates {
		t.UoMTemplates[i].CategoryTemplateID = t.ID
		ids[i] = t.UoMTemplates[i].ID
	}
	if err := replaceChildren(db, &model.UoMTemplate{}, "category_template_id", t.ID, ids); err != nil {
		return err
	}
	for i := range t.UoMTemplates {
		if err := db.Save(&t.UoMTemplates[i]).Error; err != nil {
			return fmt.Errorf("failed to save unit template %s: %w", t.UoMTemplates[i].Name, err)
		}
	}
	return nil
}

// Save writes the row of any master data value, leaving associations
// untouched.
func (s *Store) Save(ctx context.Context, value any) error {
	if err := s.with(ctx).Omit(clause.Associations).Save(value).Error; err != nil {
		return fmt.Errorf("failed to save %T: %w", value, err)
	}
	return nil
}

// SaveDensity inserts or updates the density of a formula and color pair.
func (s *Store) SaveDensity(ctx context.Context, d *model.TheoreticalDensity) error {
	db := s.with(ctx)
	var existing model.TheoreticalDensity
	err := db.Where("formula_code = ? AND color_code = ?", d.FormulaCode, d.ColorCode).Take(&existing).Error
	switch {
	case err == nil:
		d.ID = existing.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("failed to read density %s/%s: %w", d.FormulaCode, d.ColorCode, err)
	}
	if err := db.Save(d).Error; err != nil {
		return fmt.Errorf("failed to save density %s/%s: %w", d.FormulaCode, d.ColorCode, err)
	}
	return nil
}
