// Package uom converts quantities between units of measure and keeps an
// in-memory index of the unit catalogue.
package uom

import (
	"errors"
	"fmt"
	"sort"

	"github.com/piwi3910/FilmBoM/internal/model"
)

var (
	// ErrCategoryMismatch is returned when converting between units of
	// different categories.
	ErrCategoryMismatch = errors.New("units belong to different categories")
	ErrMissingUnit      = errors.New("unit of measure is missing")
	ErrUnknownUnit      = errors.New("unknown unit of measure")
)

// Convert expresses qty, given in unit from, in unit to.
func Convert(qty float64, from, to *model.UoM) (float64, error) {
	if from == nil || to == nil {
		return 0, ErrMissingUnit
	}
	if from.ID == to.ID {
		return qty, nil
	}
	if from.CategoryID != to.CategoryID {
		return 0, fmt.Errorf("%w: %s and %s", ErrCategoryMismatch, from.DisplayName(), to.DisplayName())
	}
	if from.Factor == 0 || to.Factor == 0 {
		return 0, fmt.Errorf("unit %s or %s has a zero factor", from.Name, to.Name)
	}
	return qty / from.Factor * to.Factor, nil
}

// SameCategory reports whether both units exist and share a category.
func SameCategory(a, b *model.UoM) bool {
	return a != nil && b != nil && a.CategoryID == b.CategoryID
}

// Registry indexes categories and units by id, code and name.
type Registry struct {
	categories map[string]*model.UoMCategory
	units      map[string]*model.UoM
	byCode     map[string]*model.UoM
}

// NewRegistry builds a registry. Units keep a pointer to their category.
func NewRegistry(categories []model.UoMCategory, units []model.UoM) *Registry {
	r := &Registry{
		categories: make(map[string]*model.UoMCategory),
		units:      make(map[string]*model.UoM),
		byCode:     make(map[string]*model.UoM),
	}
	for _, c := range categories {
		r.AddCategory(c)
	}
	r.Add(units...)
	return r
}

// AddCategory registers or replaces a category.
func (r *Registry) AddCategory(c model.UoMCategory) *model.UoMCategory {
	c.UoMs = nil
	r.categories[c.ID] = &c
	return &c
}

// Add registers or replaces units.
func (r *Registry) Add(units ...model.UoM) {
	for _, u := range units {
		if c, ok := r.categories[u.CategoryID]; ok {
			u.Category = c
		}
		r.units[u.ID] = &u
		// product specific units never shadow the standard catalogue
		if u.Code != "" && u.ProductID == nil {
			r.byCode[u.Code] = &u
		}
	}
}

// Unit returns the unit with the given id.
func (r *Registry) Unit(id string) (*model.UoM, bool) {
	u, ok := r.units[id]
	return u, ok
}

// UnitByCode returns the standard unit with the given code.
func (r *Registry) UnitByCode(code string) (*model.UoM, bool) {
	u, ok := r.byCode[code]
	return u, ok
}

// MustUnit returns the standard unit with the given code or panics.
// Intended for fixtures and tests.
func (r *Registry) MustUnit(code string) *model.UoM {
	u, ok := r.byCode[code]
	if !ok {
		panic(fmt.Sprintf("uom: no unit with code %q", code))
	}
	return u
}

// Category returns the category with the given id.
func (r *Registry) Category(id string) (*model.UoMCategory, bool) {
	c, ok := r.categories[id]
	return c, ok
}

// CategoryByCode returns the category with the given code.
func (r *Registry) CategoryByCode(code string) (*model.UoMCategory, bool) {
	for _, c := range r.categories {
		if c.Code == code {
			return c, true
		}
	}
	return nil, false
}

// CategoryByName returns the category with the given name.
func (r *Registry) CategoryByName(name string) (*model.UoMCategory, bool) {
	for _, c := range r.categories {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Units returns the active units of a category ordered by name.
func (r *Registry) Units(categoryID string) []*model.UoM {
	var out []*model.UoM
	for _, u := range r.units {
		if u.CategoryID == categoryID && u.Active {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Reference returns the active reference unit of a category.
func (r *Registry) Reference(categoryID string) (*model.UoM, bool) {
	for _, u := range r.Units(categoryID) {
		if u.Type == model.UoMReference {
			return u, true
		}
	}
	return nil, false
}

// RelatedUnit returns the active unit of a category that stands for the
// standard unit related.
func (r *Registry) RelatedUnit(categoryID string, related *model.UoM) (*model.UoM, bool) {
	if related == nil {
		return nil, false
	}
	if related.CategoryID == categoryID {
		return related, true
	}
	for _, u := range r.Units(categoryID) {
		if u.RelatedUoMID != nil && *u.RelatedUoMID == related.ID {
			return u, true
		}
	}
	return nil, false
}

// Resolve returns the registry copy of u, which carries its category.
// Unknown units are returned unchanged.
func (r *Registry) Resolve(u *model.UoM) *model.UoM {
	if u == nil {
		return nil
	}
	if known, ok := r.units[u.ID]; ok {
		return known
	}
	return u
}
