package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/FilmBoM/internal/model"
	"gopkg.in/yaml.v3"
)

// UnitTemplate describes one unit generated for the products of a category.
type UnitTemplate struct {
	Name             string        `json:"name" yaml:"name"`
	Type             model.UoMType `json:"type" yaml:"type"`
	FactorFrom       string        `json:"factor_from,omitempty" yaml:"factor_from,omitempty"`
	Factor           float64       `json:"factor,omitempty" yaml:"factor,omitempty"`
	UserDefinedRatio bool          `json:"user_defined_ratio,omitempty" yaml:"user_defined_ratio,omitempty"`
	Rounding         float64       `json:"rounding,omitempty" yaml:"rounding,omitempty"`
	Default          bool          `json:"default,omitempty" yaml:"default,omitempty"`
	DefaultPurchase  bool          `json:"default_purchase,omitempty" yaml:"default_purchase,omitempty"`
	Related          string        `json:"related,omitempty" yaml:"related,omitempty"`
}

// UnitCategoryTemplate is a named set of unit templates.
type UnitCategoryTemplate struct {
	Name     string         `json:"name" yaml:"name"`
	NameFrom string         `json:"name_from" yaml:"name_from"`
	Units    []UnitTemplate `json:"units" yaml:"units"`
}

// Model converts the entry into an active category template. Units
// without a rounding get 0.001.
func (t UnitCategoryTemplate) Model() model.UoMCategoryTemplate {
	units := make([]model.UoMTemplate, 0, len(t.Units))
	for _, u := range t.Units {
		rounding := u.Rounding
		if rounding == 0 {
			rounding = 0.001
		}
		units = append(units, model.UoMTemplate{
			ID:               model.NewID(),
			Name:             u.Name,
			Type:             u.Type,
			FactorFrom:       u.FactorFrom,
			Factor:           u.Factor,
			UserDefinedRatio: u.UserDefinedRatio,
			Rounding:         rounding,
			Active:           true,
			Default:          u.Default,
			DefaultPurchase:  u.DefaultPurchase,
			RelatedUoMCode:   u.Related,
		})
	}
	return model.NewUoMCategoryTemplate(t.Name, t.NameFrom, units...)
}

// Category is a product category with its unit template referenced by name.
type Category struct {
	Name              string         `json:"name" yaml:"name"`
	FilmType          model.FilmType `json:"film_type,omitempty" yaml:"film_type,omitempty"`
	CompanyFilm       bool           `json:"company_film,omitempty" yaml:"company_film,omitempty"`
	SubcontractedFilm bool           `json:"subcontracted_film,omitempty" yaml:"subcontracted_film,omitempty"`
	Glue              bool           `json:"glue,omitempty" yaml:"glue,omitempty"`
	Coating           bool           `json:"coating,omitempty" yaml:"coating,omitempty"`
	Waste             bool           `json:"waste,omitempty" yaml:"waste,omitempty"`
	Mandrel           bool           `json:"mandrel,omitempty" yaml:"mandrel,omitempty"`
	UnitTemplate      string         `json:"unit_template,omitempty" yaml:"unit_template,omitempty"`
}

// Apply copies the classification flags onto c.
func (e Category) Apply(c *model.ProductCategory) {
	c.Name = e.Name
	c.FilmType = e.FilmType
	c.IsCompanyFilm = e.CompanyFilm
	c.IsSubcontractedFilm = e.SubcontractedFilm
	c.IsGlue = e.Glue
	c.IsCoating = e.Coating
	c.IsWaste = e.Waste
	c.IsMandrel = e.Mandrel
}

// Workcenter is a production machine.
type Workcenter struct {
	Name            string  `json:"name" yaml:"name"`
	StartupTime     float64 `json:"startup_time" yaml:"startup_time"`
	WastePercentage float64 `json:"waste_percentage" yaml:"waste_percentage"`
}

// Density is a theoretical density keyed by formula and color code.
type Density struct {
	Formula string  `json:"formula" yaml:"formula"`
	Color   string  `json:"color" yaml:"color"`
	Density float64 `json:"density" yaml:"density"`
}

// Product references its category by name and its unit by code. Density
// comes from the density table unless a manual density is set; any manual
// value replaces the computed one.
type Product struct {
	Name      string  `json:"name" yaml:"name"`
	Code      string  `json:"code,omitempty" yaml:"code,omitempty"`
	Category  string  `json:"category,omitempty" yaml:"category,omitempty"`
	Unit      string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Thickness float64 `json:"thickness,omitempty" yaml:"thickness,omitempty"`
	Width     float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Length    float64 `json:"length,omitempty" yaml:"length,omitempty"`
	Formula   string  `json:"formula,omitempty" yaml:"formula,omitempty"`
	Color     string  `json:"color,omitempty" yaml:"color,omitempty"`
	Weight    float64 `json:"weight,omitempty" yaml:"weight,omitempty"`

	ManualDensity          *float64 `json:"manual_density,omitempty" yaml:"manual_density,omitempty"`
	ManualExtrudedGrammage *float64 `json:"manual_extruded_grammage,omitempty" yaml:"manual_extruded_grammage,omitempty"`
	ManualTotalGrammage    *float64 `json:"manual_total_grammage,omitempty" yaml:"manual_total_grammage,omitempty"`
	ManualWeight           *float64 `json:"manual_weight,omitempty" yaml:"manual_weight,omitempty"`
}

// Apply copies the product fields onto p. Category and units are resolved
// by the caller.
func (e Product) Apply(p *model.Product) {
	p.Name = e.Name
	p.Code = e.Code
	p.Active = true
	p.Thickness = e.Thickness
	p.Width = e.Width
	p.Length = e.Length
	p.FormulaCode = e.Formula
	p.ColorCode = e.Color
	p.Weight = e.Weight
	manual := func(flag *bool, dst *float64, v *float64) {
		*flag = v != nil
		*dst = 0
		if v != nil {
			*dst = *v
		}
	}
	manual(&p.IsManualDensity, &p.ManualDensity, e.ManualDensity)
	manual(&p.IsManualExtrudedGrammage, &p.ManualExtrudedGrammage, e.ManualExtrudedGrammage)
	manual(&p.IsManualTotalGrammage, &p.ManualTotalGrammage, e.ManualTotalGrammage)
	manual(&p.IsManualWeight, &p.ManualWeight, e.ManualWeight)
}

// Catalogue is the master data file: unit templates, product categories,
// workcenters, densities and products.
type Catalogue struct {
	UnitTemplates []UnitCategoryTemplate `json:"unit_templates" yaml:"unit_templates"`
	Categories    []Category             `json:"categories" yaml:"categories"`
	Workcenters   []Workcenter           `json:"workcenters" yaml:"workcenters"`
	Densities     []Density              `json:"densities" yaml:"densities"`
	Products      []Product              `json:"products" yaml:"products"`
}

// DefaultCataloguePath returns the default file path for the catalogue file.
// This is located at ~/.filmbom/catalogue.yaml.
func DefaultCataloguePath() string {
	return filepath.Join(DefaultConfigDir(), "catalogue.yaml")
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// SaveCatalogue writes the catalogue as YAML or JSON depending on the file
// extension. It creates parent directories if they do not exist.
func SaveCatalogue(path string, c Catalogue) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCatalogue reads a YAML or JSON catalogue file and checks that every
// entry is named.
func LoadCatalogue(path string) (Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalogue{}, err
	}
	var c Catalogue
	if isYAML(path) {
		err = yaml.Unmarshal(data, &c)
	} else {
		err = json.Unmarshal(data, &c)
	}
	if err != nil {
		return Catalogue{}, fmt.Errorf("failed to parse catalogue %s: %w", filepath.Base(path), err)
	}
	if err := c.Validate(); err != nil {
		return Catalogue{}, err
	}
	return c, nil
}

// Validate reports the first unnamed or duplicated entry.
func (c Catalogue) Validate() error {
	check := func(kind string, names []string) error {
		seen := make(map[string]bool, len(names))
		for i, n := range names {
			if strings.TrimSpace(n) == "" {
				return fmt.Errorf("%s %d has no name", kind, i+1)
			}
			if seen[n] {
				return fmt.Errorf("%s %s is listed twice", kind, n)
			}
			seen[n] = true
		}
		return nil
	}
	var templates, categories, workcenters, products []string
	for _, t := range c.UnitTemplates {
		templates = append(templates, t.Name)
	}
	for _, e := range c.Categories {
		categories = append(categories, e.Name)
	}
	for _, w := range c.Workcenters {
		workcenters = append(workcenters, w.Name)
	}
	for _, p := range c.Products {
		products = append(products, p.Name)
	}
	for _, err := range []error{
		check("unit template", templates),
		check("category", categories),
		check("workcenter", workcenters),
		check("product", products),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// MergeCatalogue adds the entries of imported missing from existing.
// Entries are matched by name, densities by formula and color.
func MergeCatalogue(existing, imported Catalogue) Catalogue {
	templates := make(map[string]bool, len(existing.UnitTemplates))
	for _, t := range existing.UnitTemplates {
		templates[t.Name] = true
	}
	for _, t := range imported.UnitTemplates {
		if !templates[t.Name] {
			existing.UnitTemplates = append(existing.UnitTemplates, t)
			templates[t.Name] = true
		}
	}

	categories := make(map[string]bool, len(existing.Categories))
	for _, e := range existing.Categories {
		categories[e.Name] = true
	}
	for _, e := range imported.Categories {
		if !categories[e.Name] {
			existing.Categories = append(existing.Categories, e)
			categories[e.Name] = true
		}
	}

	workcenters := make(map[string]bool, len(existing.Workcenters))
	for _, w := range existing.Workcenters {
		workcenters[w.Name] = true
	}
	for _, w := range imported.Workcenters {
		if !workcenters[w.Name] {
			existing.Workcenters = append(existing.Workcenters, w)
			workcenters[w.Name] = true
		}
	}

	densities := make(map[[2]string]bool, len(existing.Densities))
	for _, d := range existing.Densities {
		densities[[2]string{d.Formula, d.Color}] = true
	}
	for _, d := range imported.Densities {
		key := [2]string{d.Formula, d.Color}
		if !densities[key] {
			existing.Densities = append(existing.Densities, d)
			densities[key] = true
		}
	}

	products := make(map[string]bool, len(existing.Products))
	for _, p := range existing.Products {
		products[p.Name] = true
	}
	for _, p := range imported.Products {
		if !products[p.Name] {
			existing.Products = append(existing.Products, p)
			products[p.Name] = true
		}
	}
	return existing
}
