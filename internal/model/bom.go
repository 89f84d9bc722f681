package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// BoMType distinguishes recipes from production BoMs.
type BoMType string

const (
	BoMNormal    BoMType = "normal"
	BoMRecipe    BoMType = "recipe"
	BoMPackaging BoMType = "packaging"
)

// BoM is either a recipe (extruders plus concentration lines) or a
// production BoM that may import a recipe. Widths are in mm, machine speed
// in m/min, percentages in percent and weights in kg.
type BoM struct {
	ID           string   `gorm:"primaryKey;size:36" json:"id"`
	Code         string   `gorm:"size:64" json:"code,omitempty"`
	Type         BoMType  `gorm:"size:16;index;not null" json:"type"`
	RecipeNumber string   `gorm:"size:32;index" json:"recipe_number,omitempty"`
	Active       bool     `gorm:"index" json:"active"`
	ProductID    *string  `gorm:"size:36;index" json:"product_id,omitempty"`
	Product      *Product `gorm:"foreignKey:ProductID" json:"-"`
	Quantity     float64  `json:"quantity"`
	UoMID        *string  `gorm:"size:36" json:"uom_id,omitempty"`
	UoM          *UoM     `gorm:"foreignKey:UoMID" json:"-"`

	RecipeID     *string     `gorm:"size:36;index" json:"recipe_id,omitempty"`
	Recipe       *BoM        `gorm:"foreignKey:RecipeID" json:"-"`
	WorkcenterID *string     `gorm:"size:36" json:"workcenter_id,omitempty"`
	Workcenter   *Workcenter `gorm:"foreignKey:WorkcenterID" json:"-"`

	TotalProductionWidth float64 `json:"total_production_width"`
	MachineSpeed         float64 `json:"machine_speed"`
	MachineTimeNumber    float64 `json:"machine_time_number"`
	WastePercentage      float64 `json:"waste_percentage"`
	WasteManagement      bool    `json:"waste_management"`

	// Derived values, refreshed by the engine.
	Density             float64 `json:"density"`
	RawMaterialWeight   float64 `json:"raw_material_weight"`
	StartupWaste        float64 `json:"startup_waste"`
	ProductStartupWaste float64 `json:"product_startup_waste"`
	PercentageWaste     float64 `json:"percentage_waste"`
	WasteQty            float64 `json:"waste_qty"`
	BorderWasteQty      float64 `json:"border_waste_qty"`

	Extruders  []Extruder  `gorm:"foreignKey:BoMID" json:"extruders,omitempty"`
	Lines      []BoMLine   `gorm:"foreignKey:BoMID" json:"lines,omitempty"`
	AltLines   []BoMLine   `gorm:"foreignKey:AltBoMID" json:"alt_lines,omitempty"`
	Byproducts []Byproduct `gorm:"foreignKey:BoMID" json:"byproducts,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BoM) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	return nil
}

// NewRecipe creates an active recipe BoM with quantity 1.
func NewRecipe(number string) BoM {
	return BoM{ID: NewID(), Type: BoMRecipe, RecipeNumber: number, Active: true, Quantity: 1}
}

// NewProductionBoM creates an active production BoM for qty units of product.
func NewProductionBoM(product *Product, qty float64, unit *UoM) BoM {
	b := BoM{ID: NewID(), Type: BoMNormal, Active: true, Quantity: qty}
	if product != nil {
		b.ProductID = &product.ID
		b.Product = product
	}
	if unit != nil {
		b.UoMID = &unit.ID
		b.UoM = unit
	}
	return b
}

func (b *BoM) IsRecipe() bool {
	return b.Type == BoMRecipe
}

// HasRecipe reports whether a production BoM is linked to a recipe.
func (b *BoM) HasRecipe() bool {
	return b.Type == BoMNormal && b.RecipeID != nil && *b.RecipeID != ""
}

// DisplayName renders recipes by number and other BoMs by product name,
// prefixed with the code when one is set.
func (b *BoM) DisplayName() string {
	name := b.RecipeNumber
	if !b.IsRecipe() {
		name = ""
		if b.Product != nil {
			name = b.Product.Name
		}
	}
	if b.Code != "" {
		return fmt.Sprintf("%s: %s", b.Code, name)
	}
	return name
}

// Extruder is one layer of a recipe. Concentration is in percent.
type Extruder struct {
	ID            string  `gorm:"primaryKey;size:36" json:"id"`
	BoMID         string  `gorm:"size:36;index;not null" json:"bom_id"`
	Name          string  `gorm:"size:64;not null" json:"name"`
	Sequence      int     `json:"sequence"`
	Concentration float64 `json:"concentration"`
}

func (e *Extruder) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = NewID()
	}
	return nil
}

func NewExtruder(name string, concentration float64) Extruder {
	return Extruder{ID: NewID(), Name: name, Concentration: concentration}
}

// DisplayName renders the extruder as "Name(concentration%)".
func (e *Extruder) DisplayName() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s(%g%%)", e.Name, e.Concentration)
}

// BoMLine is a component of a BoM or an alternative component of a recipe.
// Exactly one of BoMID and AltBoMID is set.
type BoMLine struct {
	ID        string   `gorm:"primaryKey;size:36" json:"id"`
	BoMID     *string  `gorm:"size:36;index" json:"bom_id,omitempty"`
	AltBoMID  *string  `gorm:"size:36;index" json:"alt_bom_id,omitempty"`
	Sequence  int      `json:"sequence"`
	ProductID string   `gorm:"size:36;index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  float64  `json:"quantity"`
	UoMID     *string  `gorm:"size:36" json:"uom_id,omitempty"`
	UoM       *UoM     `gorm:"foreignKey:UoMID" json:"-"`

	ExtruderID         *string   `gorm:"size:36;index" json:"extruder_id,omitempty"`
	Extruder           *Extruder `gorm:"foreignKey:ExtruderID" json:"-"`
	LayerConcentration float64   `json:"layer_concentration"`
	// Concentration is the effective share of the recipe, derived from
	// the layer concentration and the extruder concentration.
	Concentration float64 `json:"concentration"`

	// RecipeLineID stamps production lines generated from a recipe line.
	RecipeLineID         *string `gorm:"size:36;index" json:"recipe_line_id,omitempty"`
	RelatedConcentration float64 `json:"related_concentration"`

	// Film component factors (coverage, stretching and border as fractions).
	IsFilmComponent      bool    `json:"is_film_component"`
	Grammage             float64 `json:"grammage"`
	CoverageFactor       float64 `json:"coverage_factor"`
	StretchingFactor     float64 `json:"stretching_factor"`
	BorderFactor         float64 `json:"border_factor"`
	IsManualBorderFactor bool    `json:"is_manual_border_factor"`
	ManualBorderFactor   float64 `json:"manual_border_factor"`
	FilmToTreatID        *string `gorm:"size:36" json:"film_to_treat_id,omitempty"`
}

func (l *BoMLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = NewID()
	}
	return nil
}

// NewBoMLine creates a line for product expressed in the product unit.
func NewBoMLine(product *Product, qty float64) BoMLine {
	l := BoMLine{ID: NewID(), ProductID: product.ID, Product: product, Quantity: qty}
	if product.UoM != nil {
		l.UoMID = &product.UoM.ID
		l.UoM = product.UoM
	}
	return l
}

// IsRecipeDerived reports whether the line was generated from a recipe.
func (l *BoMLine) IsRecipeDerived() bool {
	return l.RecipeLineID != nil && *l.RecipeLineID != ""
}

// IsGlue reports whether the line carries a glue component.
func (l *BoMLine) IsGlue() bool {
	return l.Product != nil && l.Product.Category != nil && l.Product.Category.IsGlue
}

// IsCoating reports whether the line carries a coating component.
func (l *BoMLine) IsCoating() bool {
	return l.Product != nil && l.Product.Category != nil && l.Product.Category.IsCoating
}

// Density returns the density of the line product.
func (l *BoMLine) Density() float64 {
	if l.Product == nil {
		return 0
	}
	return l.Product.Density
}

// Byproduct is a secondary output of a production BoM, such as waste.
type Byproduct struct {
	ID              string   `gorm:"primaryKey;size:36" json:"id"`
	BoMID           string   `gorm:"size:36;index;not null" json:"bom_id"`
	ProductID       string   `gorm:"size:36;not null" json:"product_id"`
	Product         *Product `gorm:"foreignKey:ProductID" json:"-"`
	Quantity        float64  `json:"quantity"`
	UoMID           *string  `gorm:"size:36" json:"uom_id,omitempty"`
	UoM             *UoM     `gorm:"foreignKey:UoMID" json:"-"`
	WasteManagement bool     `json:"waste_management"`
	RecipeID        *string  `gorm:"size:36;index" json:"recipe_id,omitempty"`
}

func (b *Byproduct) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	return nil
}
