package store

import (
	"context"
	"fmt"

	"github.com/piwi3910/FilmBoM/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func bySequence(db *gorm.DB) *gorm.DB {
	return db.Order("sequence, id")
}

func preloadBoM(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Product.Category").Preload("Product.UoM").Preload("Product.Mandrel").
		Preload("UoM").
		Preload("Workcenter").
		Preload("Extruders", bySequence).
		Preload("Lines", bySequence).Preload("Lines.Product.Category").Preload("Lines.UoM").Preload("Lines.Extruder").
		Preload("AltLines", bySequence).Preload("AltLines.Product.Category").Preload("AltLines.UoM").Preload("AltLines.Extruder").
		Preload("Byproducts").Preload("Byproducts.Product.Category").Preload("Byproducts.UoM")
}

// BoM loads a BoM with every association the calculations read.
func (s *Store) BoM(ctx context.Context, id string) (*model.BoM, error) {
	var b model.BoM
	if err := preloadBoM(s.with(ctx)).Take(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "BoM", id)
	}
	return &b, nil
}

// Recipes lists recipes ordered by number. Archived recipes are included
// only when withArchived is set.
func (s *Store) Recipes(ctx context.Context, withArchived bool) ([]model.BoM, error) {
	db := s.with(ctx).Where("type = ?", model.BoMRecipe)
	if !withArchived {
		db = db.Where("active = ?", true)
	}
	var recipes []model.BoM
	if err := preloadBoM(db).Order("recipe_number").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// BoMs loads the given BoMs in order. With no ids every active BoM is
// returned, recipes first.
func (s *Store) BoMs(ctx context.Context, ids ...string) ([]model.BoM, error) {
	var boms []model.BoM
	if len(ids) == 0 {
		err := preloadBoM(s.with(ctx)).Where("active = ?", true).
			Order("CASE WHEN type = 'recipe' THEN 0 ELSE 1 END, recipe_number, created_at, id").
			Find(&boms).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list BoMs: %w", err)
		}
		return boms, nil
	}
	for _, id := range ids {
		b, err := s.BoM(ctx, id)
		if err != nil {
			return nil, err
		}
		boms = append(boms, *b)
	}
	return boms, nil
}

// RecipeByNumber loads a recipe by its number.
func (s *Store) RecipeByNumber(ctx context.Context, number string) (*model.BoM, error) {
	var b model.BoM
	err := preloadBoM(s.with(ctx)).
		Where("type = ? AND recipe_number = ?", model.BoMRecipe, number).
		Take(&b).Error
	if err != nil {
		return nil, notFound(err, "recipe", number)
	}
	return &b, nil
}

// ProductionBoMs lists the active production BoMs importing recipeID.
func (s *Store) ProductionBoMs(ctx context.Context, recipeID string) ([]model.BoM, error) {
	var boms []model.BoM
	err := preloadBoM(s.with(ctx)).
		Where("type = ? AND recipe_id = ? AND active = ?", model.BoMNormal, recipeID, true).
		Order("created_at, id").
		Find(&boms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list BoMs of recipe %s: %w", recipeID, err)
	}
	return boms, nil
}

// CountProductionBoMs counts the active production BoMs importing recipeID.
func (s *Store) CountProductionBoMs(ctx context.Context, recipeID string) (int64, error) {
	var n int64
	err := s.with(ctx).Model(&model.BoM{}).
		Where("type = ? AND recipe_id = ? AND active = ?", model.BoMNormal, recipeID, true).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count BoMs of recipe %s: %w", recipeID, err)
	}
	return n, nil
}

// ProductBoMs lists the active production BoMs making productID.
func (s *Store) ProductBoMs(ctx context.Context, productID string) ([]model.BoM, error) {
	var boms []model.BoM
	err := s.with(ctx).
		Where("type = ? AND product_id = ? AND active = ?", model.BoMNormal, productID, true).
		Order("created_at, id").
		Find(&boms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list BoMs of product %s: %w", productID, err)
	}
	return boms, nil
}

// FirstBoM returns the earliest active BoM producing productID, or nil.
func (s *Store) FirstBoM(ctx context.Context, productID string) (*model.BoM, error) {
	var boms []model.BoM
	err := preloadBoM(s.with(ctx)).
		Where("type <> ? AND product_id = ? AND active = ?", model.BoMRecipe, productID, true).
		Order("created_at, id").Limit(1).
		Find(&boms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load first BoM of product %s: %w", productID, err)
	}
	if len(boms) == 0 {
		return nil, nil
	}
	return &boms[0], nil
}

// SaveBoM writes the BoM row and replaces its extruders, lines, alternative
// lines and byproducts with the loaded ones.
func (s *Store) SaveBoM(ctx context.Context, b *model.BoM) error {
	db := s.with(ctx)
	if err := db.Omit(clause.Associations).Save(b).Error; err != nil {
		return fmt.Errorf("failed to save BoM %s: %w", b.ID, err)
	}

	extruders := make([]string, len(b.Extruders))
	for i := range b.Extruders {
		b.Extruders[i].BoMID = b.ID
		extruders[i] = b.Extruders[i].ID
	}
	if err := replaceChildren(db, &model.Extruder{}, "bom_id", b.ID, extruders); err != nil {
		return err
	}
	for i := range b.Extruders {
		if err := db.Save(&b.Extruders[i]).Error; err != nil {
			return fmt.Errorf("failed to save extruder %s: %w", b.Extruders[i].Name, err)
		}
	}

	if err := saveLines(db, b.Lines, "bom_id", b.ID); err != nil {
		return err
	}
	if err := saveLines(db, b.AltLines, "alt_bom_id", b.ID); err != nil {
		return err
	}

	byproducts := make([]string, len(b.Byproducts))
	for i := range b.Byproducts {
		b.Byproducts[i].BoMID = b.ID
		byproducts[i] = b.Byproducts[i].ID
	}
	if err := replaceChildren(db, &model.Byproduct{}, "bom_id", b.ID, byproducts); err != nil {
		return err
	}
	for i := range b.Byproducts {
		if err := db.Omit(clause.Associations).Save(&b.Byproducts[i]).Error; err != nil {
			return fmt.Errorf("failed to save byproduct of BoM %s: %w", b.ID, err)
		}
	}
	return nil
}

// saveLines removes the stored lines that are no longer loaded before
// writing the loaded ones, so replaced recipe lines never coexist with
// their successors.
func saveLines(db *gorm.DB, lines []model.BoMLine, column, bomID string) error {
	ids := make([]string, len(lines))
	for i := range lines {
		ids[i] = lines[i].ID
	}
	if err := replaceChildren(db, &model.BoMLine{}, column, bomID, ids); err != nil {
		return err
	}
	for i := range lines {
		if err := db.Omit(clause.Associations).Save(&lines[i]).Error; err != nil {
			return fmt.Errorf("failed to save line %s: %w", lines[i].ID, err)
		}
	}
	return nil
}

// replaceChildren deletes the rows of table whose column equals parentID
// and whose id is not in keep.
func replaceChildren(db *gorm.DB, table any, column, parentID string, keep []string) error {
	q := db.Where(column+" = ?", parentID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	if err := q.Delete(table).Error; err != nil {
		return fmt.Errorf("failed to delete stale %T of %s: %w", table, parentID, err)
	}
	return nil
}

// SetActive archives or restores BoMs.
func (s *Store) SetActive(ctx context.Context, active bool, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.with(ctx).Model(&model.BoM{}).Where("id IN ?", ids).Update("active", active).Error
	if err != nil {
		return fmt.Errorf("failed to update BoMs: %w", err)
	}
	return nil
}

// DeleteBoM removes a BoM and its children.
func (s *Store) DeleteBoM(ctx context.Context, id string) error {
	db := s.with(ctx)
	for _, child := range []struct {
		table  any
		column string
	}{
		{&model.Extruder{}, "bom_id"},
		{&model.BoMLine{}, "bom_id"},
		{&model.BoMLine{}, "alt_bom_id"},
		{&model.Byproduct{}, "bom_id"},
	} {
		if err := replaceChildren(db, child.table, child.column, id, nil); err != nil {
			return err
		}
	}
	if err := db.Delete(&model.BoM{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete BoM %s: %w", id, err)
	}
	return nil
}

// AddActivity records an activity on a BoM.
func (s *Store) AddActivity(ctx context.Context, a *model.Activity) error {
	if err := s.with(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to record activity on BoM %s: %w", a.BoMID, err)
	}
	return nil
}

// Activities lists the activities of a BoM, oldest first.
func (s *Store) Activities(ctx context.Context, bomID string) ([]model.Activity, error) {
	var out []model.Activity
	if err := s.with(ctx).Where("bom_id = ?", bomID).Order("created_at, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list activities of BoM %s: %w", bomID, err)
	}
	return out, nil
}
