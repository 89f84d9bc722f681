package uom

import (
	"fmt"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/precision"
)

// productTextFields lists the product fields a category name can come from.
var productTextFields = map[string]func(*model.Product) string{
	"name":         func(p *model.Product) string { return p.Name },
	"code":         func(p *model.Product) string { return p.Code },
	"formula_code": func(p *model.Product) string { return p.FormulaCode },
	"color_code":   func(p *model.Product) string { return p.ColorCode },
}

// productFloatFields lists the product fields a unit factor can come from.
var productFloatFields = map[string]func(*model.Product) float64{
	"length":            func(p *model.Product) float64 { return p.Length },
	"width":             func(p *model.Product) float64 { return p.Width },
	"thickness":         func(p *model.Product) float64 { return p.Thickness },
	"surface":           func(p *model.Product) float64 { return p.Surface },
	"density":           func(p *model.Product) float64 { return p.Density },
	"total_grammage":    func(p *model.Product) float64 { return p.TotalGrammage },
	"net_coil_weight":   func(p *model.Product) float64 { return p.NetCoilWeight },
	"gross_coil_weight": func(p *model.Product) float64 { return p.GrossCoilWeight },
	"weight":            func(p *model.Product) float64 { return p.Weight },
}

// Generation is the set of changes that gives a product its own units.
type Generation struct {
	Category    model.UoMCategory
	NewCategory bool
	// Reference is the reference unit, kept from a previous generation
	// when KeptReference is set.
	Reference     model.UoM
	KeptReference bool
	Created       []model.UoM
	Archived      []model.UoM

	DefaultID         string
	DefaultPurchaseID string
}

// Generate computes the units of product p from the category template tmpl.
// Running it again for the same product keeps the reference unit, archives
// the other units and recreates them with fresh factors.
func Generate(r *Registry, p *model.Product, tmpl model.UoMCategoryTemplate) (*Generation, error) {
	nameOf, ok := productTextFields[tmpl.NameFrom]
	if !ok {
		return nil, fmt.Errorf("unknown product field %q for category names", tmpl.NameFrom)
	}
	name := nameOf(p)
	if name == "" {
		return nil, fmt.Errorf("unable to create a new UoM category with this name (field name: %s, field value: %s)", tmpl.NameFrom, name)
	}

	g := &Generation{}
	var kept *model.UoM
	if cat, ok := r.CategoryByName(name); ok {
		if cat.TemplateID == nil || *cat.TemplateID != tmpl.ID {
			return nil, fmt.Errorf("there is already an UoM category with this name (%s)", name)
		}
		g.Category = *cat
		for _, u := range r.Units(cat.ID) {
			if u.Type == model.UoMReference && kept == nil {
				kept = u
				continue
			}
			archived := *u
			archived.Active = false
			g.Archived = append(g.Archived, archived)
		}
	} else {
		g.NewCategory = true
		g.Category = model.UoMCategory{ID: model.NewID(), Name: name, TemplateID: &tmpl.ID}
	}

	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	for _, ut := range tmpl.UoMTemplates {
		if !ut.Active {
			continue
		}
		if ut.Type == model.UoMReference && kept != nil {
			ref := *kept
			ref.Name = ut.Name
			ref.Rounding = ut.Rounding
			ref.TemplateID = &ut.ID
			g.Reference = ref
			g.KeptReference = true
			g.assignDefaults(ut, ref.ID)
			continue
		}
		u, err := g.unitFromTemplate(r, p, ut)
		if err != nil {
			return nil, err
		}
		if ut.Type == model.UoMReference {
			g.Reference = u
		} else {
			g.Created = append(g.Created, u)
		}
		g.assignDefaults(ut, u.ID)
	}
	return g, nil
}

func (g *Generation) assignDefaults(ut model.UoMTemplate, unitID string) {
	if ut.Default {
		g.DefaultID = unitID
	}
	if ut.DefaultPurchase {
		g.DefaultPurchaseID = unitID
	}
}

func (g *Generation) unitFromTemplate(r *Registry, p *model.Product, ut model.UoMTemplate) (model.UoM, error) {
	factor := 1.0
	if ut.Type != model.UoMReference {
		switch {
		case ut.FactorFrom != "" && !ut.UserDefinedRatio:
			field, ok := productFloatFields[ut.FactorFrom]
			if !ok {
				return model.UoM{}, fmt.Errorf("unknown product field %q for unit factors", ut.FactorFrom)
			}
			factor = field(p)
		case ut.UserDefinedRatio && ut.Factor != 0:
			factor = ut.Factor
		default:
			return model.UoM{}, fmt.Errorf("unable to create UoM %s: conversion ratio is missing", ut.Name)
		}
	}
	if precision.RoundTo(factor, 3) == 0 {
		return model.UoM{}, fmt.Errorf("cannot create an uom with a factor equal to 0.0 (field name: %s, field value: %g)", ut.FactorFrom, factor)
	}

	u := model.NewUoM("", ut.Name, &g.Category, ut.Type, factor)
	u.Category = nil
	u.Rounding = ut.Rounding
	u.TemplateID = &ut.ID
	u.ProductID = &p.ID
	if ut.RelatedUoMCode != "" {
		related, ok := r.UnitByCode(ut.RelatedUoMCode)
		if !ok {
			return model.UoM{}, fmt.Errorf("%w: %s", ErrUnknownUnit, ut.RelatedUoMCode)
		}
		u.RelatedUoMID = &related.ID
	}
	return u, nil
}

// Units returns every unit the generation writes, archived ones included.
func (g *Generation) Units() []model.UoM {
	units := []model.UoM{g.Reference}
	units = append(units, g.Created...)
	return append(units, g.Archived...)
}

// Apply registers the generated category and units in r and points the
// product at its new default units.
func (g *Generation) Apply(r *Registry, p *model.Product) {
	cat := r.AddCategory(g.Category)
	r.Add(g.Units()...)

	p.UoMCategoryID = &cat.ID
	if u, ok := r.Unit(g.DefaultID); ok {
		p.UoMID = &u.ID
		p.UoM = u
	}
	if u, ok := r.Unit(g.DefaultPurchaseID); ok {
		p.PurchaseUoMID = &u.ID
		p.PurchaseUoM = u
	}
}

// MissingUnits reports whether product p uses a category with a unit
// template but has not had its units generated yet.
func MissingUnits(r *Registry, p *model.Product) bool {
	if !p.Active || p.Category == nil || p.Category.UoMTemplateID == nil {
		return false
	}
	generated := func(id *string) bool {
		if id == nil {
			return false
		}
		u, ok := r.Unit(*id)
		return ok && u.TemplateID != nil
	}
	return !generated(p.UoMID) || !generated(p.PurchaseUoMID)
}
