package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/FilmBoM/internal/model"
)

func testRecipe() *model.BoM {
	kgCat := &model.UoMCategory{ID: "weight", Name: "Weight"}
	kg := model.NewUoM("kg", "kg", kgCat, model.UoMReference, 1)
	bag := model.NewUoM("", "bag", kgCat, model.UoMBigger, 0.04)
	ldpe := model.NewProduct("LDPE", nil, &kg)
	hdpe := model.NewProduct("HDPE", nil, &kg)

	b := model.NewRecipe("RCP/00007")
	b.Code = "R7"
	b.Workcenter = &model.Workcenter{Name: "Extruder 1"}
	a := model.NewExtruder("A", 100)
	b.Extruders = []model.Extruder{a}

	l := model.NewBoMLine(&ldpe, 0)
	l.ExtruderID = &a.ID
	l.LayerConcentration = 100
	alt := model.NewBoMLine(&hdpe, 0)
	alt.ExtruderID = &a.ID
	alt.LayerConcentration = 100
	alt.UoM = &bag
	b.Lines = []model.BoMLine{l}
	b.AltLines = []model.BoMLine{alt}
	return &b
}

func TestRecipeFromBoM(t *testing.T) {
	r := RecipeFromBoM(testRecipe())

	if r.Number != "RCP/00007" || r.Code != "R7" || !r.Active {
		t.Errorf("unexpected header: %+v", r)
	}
	if r.Workcenter != "Extruder 1" {
		t.Errorf("expected workcenter Extruder 1, got %s", r.Workcenter)
	}
	if len(r.Extruders) != 1 || r.Extruders[0].Name != "A" || r.Extruders[0].Concentration != 100 {
		t.Errorf("unexpected extruders: %+v", r.Extruders)
	}
	if len(r.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(r.Lines))
	}
	if r.Lines[0].Product != "LDPE" || r.Lines[0].Extruder != "A" || r.Lines[0].Unit != "kg" || r.Lines[0].Alternative {
		t.Errorf("unexpected main line: %+v", r.Lines[0])
	}
	// units without a code are referenced by name
	if r.Lines[1].Product != "HDPE" || r.Lines[1].Unit != "bag" || !r.Lines[1].Alternative {
		t.Errorf("unexpected alternative line: %+v", r.Lines[1])
	}
}

func TestExportAndImportAllData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")

	cfg := model.DefaultAppConfig()
	cfg.MaxFilmComponents = 5
	cfg.RecipeSequencePrefix = "REC-"

	if err := ExportAllData(path, cfg, []Recipe{RecipeFromBoM(testRecipe())}); err != nil {
		t.Fatalf("ExportAllData failed: %v", err)
	}

	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}

	if backup.Version != BackupVersion {
		t.Errorf("expected version %s, got %s", BackupVersion, backup.Version)
	}
	if backup.CreatedAt == "" {
		t.Error("expected non-empty CreatedAt")
	}
	if backup.Config.MaxFilmComponents != 5 {
		t.Errorf("expected MaxFilmComponents=5, got %d", backup.Config.MaxFilmComponents)
	}
	if backup.Config.RecipeSequencePrefix != "REC-" {
		t.Errorf("expected prefix REC-, got %s", backup.Config.RecipeSequencePrefix)
	}
	if len(backup.Recipes) != 1 || len(backup.Recipes[0].Lines) != 2 {
		t.Fatalf("expected one recipe with 2 lines, got %+v", backup.Recipes)
	}
	if backup.Recipes[0].Lines[0].LayerConcentration != 100 {
		t.Errorf("expected layer concentration 100, got %f", backup.Recipes[0].Lines[0].LayerConcentration)
	}
}

func TestImportAllDataMissingFile(t *testing.T) {
	_, err := ImportAllData(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportAllDataInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ImportAllData(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestImportAllDataMissingVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "noversion.json")
	data := []byte(`{"config":{"log_mode":"development"}}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ImportAllData(path)
	if err == nil {
		t.Fatal("expected error for missing version")
	}
}

func TestImportAllDataRecipeWithoutNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	data := []byte(`{"version":"1.0.0","recipes":[{"code":"X","extruders":[],"lines":[]}]}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ImportAllData(path)
	if err == nil {
		t.Fatal("expected error for recipe without number")
	}
}

func TestExportAllDataCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deep", "nested", "backup.json")

	cfg := model.DefaultAppConfig()
	if err := ExportAllData(path, cfg, nil); err != nil {
		t.Fatalf("ExportAllData should create parent dirs: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("backup file was not created")
	}
}

func TestImportAllDataNilRecentExports(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")
	data := []byte(`{"version":"1.0.0","created_at":"2025-01-01T00:00:00Z","config":{"recent_exports":null}}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}
	if backup.Config.RecentExports == nil {
		t.Error("RecentExports should not be nil after import")
	}
	if backup.Config.DatabaseDriver != "sqlite" {
		t.Errorf("expected default driver to survive a partial config, got %q", backup.Config.DatabaseDriver)
	}
}
