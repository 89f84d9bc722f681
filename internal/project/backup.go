package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/FilmBoM/internal/model"
)

// BackupVersion is written to every backup file.
const BackupVersion = "1.0.0"

// RecipeLine is a recipe component referencing its product, extruder and
// unit by name so that a backup can be restored into another database.
type RecipeLine struct {
	Product            string  `json:"product" yaml:"product"`
	Extruder           string  `json:"extruder" yaml:"extruder"`
	LayerConcentration float64 `json:"layer_concentration" yaml:"layer_concentration"`
	Unit               string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Alternative        bool    `json:"alternative,omitempty" yaml:"alternative,omitempty"`
}

// RecipeExtruder is one layer of a backed up recipe.
type RecipeExtruder struct {
	Name          string  `json:"name" yaml:"name"`
	Concentration float64 `json:"concentration" yaml:"concentration"`
}

// Recipe is the portable form of a recipe BoM.
type Recipe struct {
	Number     string           `json:"number" yaml:"number"`
	Code       string           `json:"code,omitempty" yaml:"code,omitempty"`
	Active     bool             `json:"active" yaml:"active"`
	Workcenter string           `json:"workcenter,omitempty" yaml:"workcenter,omitempty"`
	Extruders  []RecipeExtruder `json:"extruders" yaml:"extruders"`
	Lines      []RecipeLine     `json:"lines" yaml:"lines"`
}

// RecipeFromBoM converts a loaded recipe into its portable form. Units are
// referenced by code when they have one.
func RecipeFromBoM(b *model.BoM) Recipe {
	r := Recipe{
		Number:    b.RecipeNumber,
		Code:      b.Code,
		Active:    b.Active,
		Extruders: make([]RecipeExtruder, 0, len(b.Extruders)),
		Lines:     make([]RecipeLine, 0, len(b.Lines)+len(b.AltLines)),
	}
	if b.Workcenter != nil {
		r.Workcenter = b.Workcenter.Name
	}
	names := make(map[string]string, len(b.Extruders))
	for _, ex := range b.Extruders {
		names[ex.ID] = ex.Name
		r.Extruders = append(r.Extruders, RecipeExtruder{Name: ex.Name, Concentration: ex.Concentration})
	}
	add := func(l model.BoMLine, alternative bool) {
		line := RecipeLine{LayerConcentration: l.LayerConcentration, Alternative: alternative}
		if l.Product != nil {
			line.Product = l.Product.Name
		}
		if l.ExtruderID != nil {
			line.Extruder = names[*l.ExtruderID]
		}
		if l.UoM != nil {
			line.Unit = l.UoM.Code
			if line.Unit == "" {
				line.Unit = l.UoM.Name
			}
		}
		r.Lines = append(r.Lines, line)
	}
	for _, l := range b.Lines {
		add(l, false)
	}
	for _, l := range b.AltLines {
		add(l, true)
	}
	return r
}

// BackupData is the top-level structure for import/export of all application data.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Recipes   []Recipe        `json:"recipes"`
}

// ExportAllData exports the config and the recipes to a single JSON file at
// the specified path.
func ExportAllData(exportPath string, config model.AppConfig, recipes []Recipe) error {
	if recipes == nil {
		recipes = []Recipe{}
	}
	backup := BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Recipes:   recipes,
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup data: %w", err)
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := os.WriteFile(exportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying the imported config and restoring
// the recipes.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	backup := BackupData{Config: model.DefaultAppConfig()}
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	// Ensure RecentExports is never nil
	if backup.Config.RecentExports == nil {
		backup.Config.RecentExports = []string{}
	}
	for i, r := range backup.Recipes {
		if r.Number == "" {
			return BackupData{}, fmt.Errorf("invalid backup file: recipe %d has no number", i+1)
		}
	}
	return backup, nil
}
