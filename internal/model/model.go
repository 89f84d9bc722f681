package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.New().String()
}

// UoMType positions a unit relative to the reference unit of its category.
type UoMType string

const (
	UoMReference UoMType = "reference"
	UoMBigger    UoMType = "bigger"
	UoMSmaller   UoMType = "smaller"
)

// UoMCategory groups units that can be converted into each other.
type UoMCategory struct {
	ID         string  `gorm:"primaryKey;size:36" json:"id"`
	Code       string  `gorm:"size:64;index" json:"code,omitempty"`
	Name       string  `gorm:"size:128;not null" json:"name"`
	TemplateID *string `gorm:"size:36;index" json:"template_id,omitempty"`
	UoMs       []UoM   `gorm:"foreignKey:CategoryID" json:"uoms,omitempty"`
}

func (c *UoMCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

// UoM is a unit of measure. Factor is the number of this unit in one
// reference unit of the category (reference units have factor 1).
type UoM struct {
	ID         string       `gorm:"primaryKey;size:36" json:"id"`
	Code       string       `gorm:"size:64;index" json:"code,omitempty"`
	Name       string       `gorm:"size:128;not null" json:"name"`
	CategoryID string       `gorm:"size:36;index;not null" json:"category_id"`
	Category   *UoMCategory `gorm:"foreignKey:CategoryID" json:"-"`
	Type       UoMType      `gorm:"size:16" json:"type"`
	Factor     float64      `json:"factor"`
	Rounding   float64      `json:"rounding"`
	Active     bool         `json:"active"`

	// RelatedUoMID points to the standard unit a product specific unit
	// stands for (the coil "meter" unit is related to the global meter).
	RelatedUoMID *string `gorm:"size:36;index" json:"related_uom_id,omitempty"`
	TemplateID   *string `gorm:"size:36;index" json:"template_id,omitempty"`
	ProductID    *string `gorm:"size:36;index" json:"product_id,omitempty"`
}

func (u *UoM) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

// NewUoM creates an active unit in the given category.
func NewUoM(code, name string, category *UoMCategory, typ UoMType, factor float64) UoM {
	return UoM{
		ID:         NewID(),
		Code:       code,
		Name:       name,
		CategoryID: category.ID,
		Category:   category,
		Type:       typ,
		Factor:     factor,
		Rounding:   0.001,
		Active:     true,
	}
}

// DisplayName returns the unit name qualified by its category.
func (u *UoM) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Category != nil && u.Category.Name != "" {
		return fmt.Sprintf("%s (%s)", u.Name, u.Category.Name)
	}
	return u.Name
}

// FilmType classifies the film produced from products of a category.
type FilmType string

const (
	FilmNone      FilmType = ""
	FilmExtruded  FilmType = "extruded"
	FilmLaminated FilmType = "laminated"
	FilmGlued     FilmType = "glued"
)

// ProductCategory carries the classification flags the calculations
// branch on.
type ProductCategory struct {
	ID                  string   `gorm:"primaryKey;size:36" json:"id"`
	Name                string   `gorm:"size:128;not null" json:"name"`
	FilmType            FilmType `gorm:"size:16" json:"film_type,omitempty"`
	IsCompanyFilm       bool     `json:"is_company_film"`
	IsSubcontractedFilm bool     `json:"is_subcontracted_film"`
	IsGlue              bool     `json:"is_glue"`
	IsCoating           bool     `json:"is_coating"`
	IsWaste             bool     `json:"is_waste"`
	IsMandrel           bool     `json:"is_mandrel"`
	UoMTemplateID       *string  `gorm:"size:36;index" json:"uom_template_id,omitempty"`
}

func (c *ProductCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

// IsFilm reports whether products of the category are films.
func (c *ProductCategory) IsFilm() bool {
	return c != nil && (c.IsCompanyFilm || c.IsSubcontractedFilm)
}

// Product is a raw material, film or finished good.
// Thickness is in µm, Width in mm, Length in m, densities in g/cm³,
// grammages in g/m² and weights in kg.
type Product struct {
	ID            string           `gorm:"primaryKey;size:36" json:"id"`
	Code          string           `gorm:"size:64;index" json:"code,omitempty"`
	Name          string           `gorm:"size:256;not null" json:"name"`
	Active        bool             `json:"active"`
	CategoryID    *string          `gorm:"size:36;index" json:"category_id,omitempty"`
	Category      *ProductCategory `gorm:"foreignKey:CategoryID" json:"-"`
	UoMID         *string          `gorm:"size:36" json:"uom_id,omitempty"`
	UoM           *UoM             `gorm:"foreignKey:UoMID" json:"-"`
	PurchaseUoMID *string          `gorm:"size:36" json:"purchase_uom_id,omitempty"`
	PurchaseUoM   *UoM             `gorm:"foreignKey:PurchaseUoMID" json:"-"`
	UoMCategoryID *string          `gorm:"size:36" json:"uom_category_id,omitempty"`

	Thickness   float64 `json:"thickness"`
	Width       float64 `json:"width"`
	Length      float64 `json:"length"`
	FormulaCode string  `gorm:"size:64" json:"formula_code,omitempty"`
	ColorCode   string  `gorm:"size:64" json:"color_code,omitempty"`

	// Weight is the unit weight of products that are not films (mandrels).
	// MandrelID is derived from the first mandrel component of the product BoM.
	Weight    float64  `json:"weight"`
	MandrelID *string  `gorm:"size:36" json:"mandrel_id,omitempty"`
	Mandrel   *Product `gorm:"foreignKey:MandrelID" json:"-"`

	IsManualDensity          bool    `json:"is_manual_density"`
	ManualDensity            float64 `json:"manual_density"`
	IsManualExtrudedGrammage bool    `json:"is_manual_extruded_grammage"`
	ManualExtrudedGrammage   float64 `json:"manual_extruded_grammage"`
	IsManualTotalGrammage    bool    `json:"is_manual_total_grammage"`
	ManualTotalGrammage      float64 `json:"manual_total_grammage"`
	IsManualWeight           bool    `json:"is_manual_weight"`
	ManualWeight             float64 `json:"manual_weight"`

	// Derived values, refreshed by the engine.
	Density             float64 `json:"density"`
	ExtrudedGrammage    float64 `json:"extruded_grammage"`
	TotalGrammage       float64 `json:"total_grammage"`
	CompanyFilmGrammage float64 `json:"company_film_grammage"`
	Surface             float64 `json:"surface"`
	NetCoilWeight       float64 `json:"net_coil_weight"`
	GrossCoilWeight     float64 `json:"gross_coil_weight"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

// NewProduct creates an active product in the given category.
func NewProduct(name string, category *ProductCategory, unit *UoM) Product {
	p := Product{ID: NewID(), Name: name, Active: true}
	if category != nil {
		p.CategoryID = &category.ID
		p.Category = category
	}
	if unit != nil {
		p.UoMID = &unit.ID
		p.UoM = unit
		p.PurchaseUoMID = &unit.ID
		p.PurchaseUoM = unit
	}
	return p
}

// FilmType returns the film type of the product category.
func (p *Product) FilmType() FilmType {
	if p == nil || p.Category == nil {
		return FilmNone
	}
	return p.Category.FilmType
}

// IsFilm reports whether the product is a film component.
func (p *Product) IsFilm() bool {
	return p != nil && p.Category.IsFilm()
}

// TheoreticalDensity maps a formula and color code to a density in g/cm³.
type TheoreticalDensity struct {
	ID          string  `gorm:"primaryKey;size:36" json:"id"`
	FormulaCode string  `gorm:"size:64;uniqueIndex:idx_density_codes" json:"formula_code"`
	ColorCode   string  `gorm:"size:64;uniqueIndex:idx_density_codes" json:"color_code"`
	Density     float64 `json:"density"`
}

func (d *TheoreticalDensity) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = NewID()
	}
	return nil
}

// Workcenter is a production machine. StartupTime is in minutes,
// WastePercentage in percent.
type Workcenter struct {
	ID              string  `gorm:"primaryKey;size:36" json:"id"`
	Name            string  `gorm:"size:128;not null" json:"name"`
	StartupTime     float64 `json:"startup_time"`
	WastePercentage float64 `json:"waste_percentage"`
}

func (w *Workcenter) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = NewID()
	}
	return nil
}

// Activity is an audit note attached to a production BoM.
type Activity struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	BoMID     string    `gorm:"size:36;index;not null" json:"bom_id"`
	Summary   string    `gorm:"size:256" json:"summary"`
	Note      string    `json:"note"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = NewID()
	}
	return nil
}
