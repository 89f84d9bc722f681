package model

import (
	"fmt"

	"gorm.io/gorm"
)

// UoMCategoryTemplate describes the unit category generated for each
// product of a product category. NameFrom names the product text field
// whose value becomes the category name.
type UoMCategoryTemplate struct {
	ID           string        `gorm:"primaryKey;size:36" json:"id"`
	Name         string        `gorm:"size:128;not null" json:"name"`
	NameFrom     string        `gorm:"size:64;not null" json:"name_from"`
	Active       bool          `json:"active"`
	UoMTemplates []UoMTemplate `gorm:"foreignKey:CategoryTemplateID" json:"uom_templates"`
}

func (t *UoMCategoryTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	return nil
}

// NewUoMCategoryTemplate creates an active category template.
func NewUoMCategoryTemplate(name, nameFrom string, units ...UoMTemplate) UoMCategoryTemplate {
	t := UoMCategoryTemplate{ID: NewID(), Name: name, NameFrom: nameFrom, Active: true}
	for _, u := range units {
		u.CategoryTemplateID = t.ID
		t.UoMTemplates = append(t.UoMTemplates, u)
	}
	return t
}

// UoMTemplate describes one generated unit. Its factor is either read from
// the product field FactorFrom or, with UserDefinedRatio, taken from Factor.
type UoMTemplate struct {
	ID                 string  `gorm:"primaryKey;size:36" json:"id"`
	CategoryTemplateID string  `gorm:"size:36;index;not null" json:"category_template_id"`
	Name               string  `gorm:"size:128;not null" json:"name"`
	Type               UoMType `gorm:"size:16" json:"type"`
	FactorFrom         string  `gorm:"size:64" json:"factor_from,omitempty"`
	Factor             float64 `json:"factor"`
	UserDefinedRatio   bool    `json:"user_defined_ratio"`
	Rounding           float64 `json:"rounding"`
	Active             bool    `json:"active"`
	Default            bool    `json:"default"`
	DefaultPurchase    bool    `json:"default_purchase"`
	// RelatedUoMCode links generated units to a standard unit (m, kg, m²).
	RelatedUoMCode string `gorm:"size:64" json:"related_uom_code,omitempty"`
}

func (t *UoMTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	return nil
}

// Validate checks a unit template on its own.
func (t UoMTemplate) Validate() error {
	if t.Rounding <= 0 {
		return fmt.Errorf("the rounding precision of unit template %s must be strictly positive", t.Name)
	}
	if t.UserDefinedRatio && t.Factor == 0 {
		return fmt.Errorf("the conversion ratio of unit template %s cannot be 0", t.Name)
	}
	return nil
}

// Validate checks that the category template has exactly one reference,
// one default and one default purchase unit template.
func (t UoMCategoryTemplate) Validate() error {
	var refs, defaults, purchases int
	for _, u := range t.UoMTemplates {
		if !u.Active {
			continue
		}
		if err := u.Validate(); err != nil {
			return err
		}
		if u.Type == UoMReference {
			refs++
		}
		if u.Default {
			defaults++
		}
		if u.DefaultPurchase {
			purchases++
		}
	}
	if refs != 1 {
		return fmt.Errorf("category template %s should have one \"reference\" uom template (found %d)", t.Name, refs)
	}
	if defaults != 1 {
		return fmt.Errorf("category template %s should have one \"default\" uom template (found %d)", t.Name, defaults)
	}
	if purchases != 1 {
		return fmt.Errorf("category template %s should have one \"default purchase\" uom template (found %d)", t.Name, purchases)
	}
	return nil
}
