package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coilTemplate() UoMCategoryTemplate {
	return NewUoMCategoryTemplate("Coil units", "name",
		UoMTemplate{Name: "Coil", Type: UoMReference, Rounding: 1, Active: true, Default: true, DefaultPurchase: true},
		UoMTemplate{Name: "m", Type: UoMSmaller, FactorFrom: "length", Rounding: 0.01, Active: true, RelatedUoMCode: "m"},
		UoMTemplate{Name: "kg", Type: UoMSmaller, FactorFrom: "net_coil_weight", Rounding: 0.001, Active: true, RelatedUoMCode: "kg"},
	)
}

func TestNewUoMCategoryTemplate(t *testing.T) {
	tmpl := coilTemplate()
	require.Len(t, tmpl.UoMTemplates, 3)
	for _, u := range tmpl.UoMTemplates {
		assert.Equal(t, tmpl.ID, u.CategoryTemplateID)
	}
	assert.NoError(t, tmpl.Validate())
}

func TestUoMCategoryTemplate_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*UoMCategoryTemplate)
		want   string
	}{
		{
			name:   "no reference",
			mutate: func(c *UoMCategoryTemplate) { c.UoMTemplates[0].Type = UoMBigger },
			want:   `one "reference" uom template (found 0)`,
		},
		{
			name:   "two references",
			mutate: func(c *UoMCategoryTemplate) { c.UoMTemplates[1].Type = UoMReference },
			want:   `one "reference" uom template (found 2)`,
		},
		{
			name:   "two defaults",
			mutate: func(c *UoMCategoryTemplate) { c.UoMTemplates[2].Default = true },
			want:   `one "default" uom template (found 2)`,
		},
		{
			name:   "no default purchase",
			mutate: func(c *UoMCategoryTemplate) { c.UoMTemplates[0].DefaultPurchase = false },
			want:   `one "default purchase" uom template (found 0)`,
		},
		{
			name: "zero user ratio",
			mutate: func(c *UoMCategoryTemplate) {
				c.UoMTemplates[1].UserDefinedRatio = true
				c.UoMTemplates[1].Factor = 0
			},
			want: "cannot be 0",
		},
		{
			name:   "zero rounding",
			mutate: func(c *UoMCategoryTemplate) { c.UoMTemplates[2].Rounding = 0 },
			want:   "strictly positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := coilTemplate()
			tt.mutate(&tmpl)
			err := tmpl.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestUoMCategoryTemplate_InactiveIgnored(t *testing.T) {
	tmpl := coilTemplate()
	extra := UoMTemplate{Name: "Old coil", Type: UoMReference, Rounding: 1, Active: false, Default: true}
	tmpl.UoMTemplates = append(tmpl.UoMTemplates, extra)
	assert.NoError(t, tmpl.Validate())
}
