package uom

import (
	_ "embed"
	"fmt"

	"github.com/piwi3910/FilmBoM/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed data/units.yaml
var unitsYAML []byte

// Dimension is the physical quantity a unit measures. Its value is the
// code of the matching standard category.
type Dimension string

const (
	Length   Dimension = "length"
	Weight   Dimension = "weight"
	Surface  Dimension = "surface"
	Grammage Dimension = "grammage"
	Density  Dimension = "density"
	Speed    Dimension = "speed"
	Count    Dimension = "unit"
)

// Role selects one unit within a dimension.
type Role string

const (
	Reference Role = "reference"
	Milli     Role = "milli"
	Micro     Role = "micro"
	PerMinute Role = "per_minute"
)

// Key identifies a default unit.
type Key struct {
	Dimension Dimension
	Role      Role
}

var defaultUnits = map[Key]string{
	{Length, Reference}:   "m",
	{Length, Milli}:       "mm",
	{Length, Micro}:       "um",
	{Weight, Reference}:   "kg",
	{Surface, Reference}:  "m2",
	{Grammage, Reference}: "gsm",
	{Density, Reference}:  "gcm3",
	{Speed, PerMinute}:    "m_min",
	{Count, Reference}:    "unit",
}

var roleFactors = map[Role]float64{
	Milli: 1000,
	Micro: 1000000,
}

// Default returns the default unit for a dimension and role. When the
// catalogue lacks the expected unit it falls back to the unit of the
// dimension category matching the role.
func (r *Registry) Default(d Dimension, role Role) (*model.UoM, error) {
	if code, ok := defaultUnits[Key{d, role}]; ok {
		if u, ok := r.UnitByCode(code); ok && u.Active {
			return u, nil
		}
	}
	cat, ok := r.CategoryByCode(string(d))
	if !ok {
		return nil, fmt.Errorf("%w: no %s category", ErrUnknownUnit, d)
	}
	for _, u := range r.Units(cat.ID) {
		switch role {
		case Reference:
			if u.Type == model.UoMReference {
				return u, nil
			}
		case PerMinute:
			if u.Type == model.UoMSmaller {
				return u, nil
			}
		default:
			if u.Type == model.UoMSmaller && u.Factor == roleFactors[role] {
				return u, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no %s %s unit", ErrUnknownUnit, role, d)
}

// MustDefault is Default for units the catalogue always provides.
func (r *Registry) MustDefault(d Dimension, role Role) *model.UoM {
	u, err := r.Default(d, role)
	if err != nil {
		panic(err)
	}
	return u
}

// Fixture is the standard unit catalogue.
type Fixture struct {
	Categories []FixtureCategory `yaml:"categories"`
}

type FixtureCategory struct {
	Code  string        `yaml:"code"`
	Name  string        `yaml:"name"`
	Units []FixtureUnit `yaml:"units"`
}

type FixtureUnit struct {
	Code     string        `yaml:"code"`
	Name     string        `yaml:"name"`
	Type     model.UoMType `yaml:"type"`
	Factor   float64       `yaml:"factor"`
	Rounding float64       `yaml:"rounding"`
}

// LoadFixture parses the embedded unit catalogue.
func LoadFixture() (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(unitsYAML, &f); err != nil {
		return Fixture{}, fmt.Errorf("failed to parse unit catalogue: %w", err)
	}
	return f, nil
}

// Build turns the fixture into records with fresh identifiers.
func (f Fixture) Build() ([]model.UoMCategory, []model.UoM) {
	var categories []model.UoMCategory
	var units []model.UoM
	for _, fc := range f.Categories {
		cat := model.UoMCategory{ID: model.NewID(), Code: fc.Code, Name: fc.Name}
		categories = append(categories, cat)
		for _, fu := range fc.Units {
			u := model.NewUoM(fu.Code, fu.Name, &cat, fu.Type, fu.Factor)
			u.Category = nil
			u.Rounding = fu.Rounding
			units = append(units, u)
		}
	}
	return categories, units
}

// StandardRegistry returns a registry holding the embedded catalogue.
func StandardRegistry() (*Registry, error) {
	f, err := LoadFixture()
	if err != nil {
		return nil, err
	}
	categories, units := f.Build()
	return NewRegistry(categories, units), nil
}
