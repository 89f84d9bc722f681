package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "Product,Extruder,Layer %\nLDPE,A,100\nHDPE,B,50\n", ','},
		{"semicolon", "Product;Extruder;Layer %\nLDPE;A;100\nHDPE;B;50,5\n", ';'},
		{"tab", "Product\tExtruder\tLayer %\nLDPE\tA\t100\nHDPE\tB\t50\n", '\t'},
		{"pipe", "Product|Extruder|Layer %\nLDPE|A|100\nHDPE|B|50\n", '|'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCSVDelimiter([]byte(tt.data)); got != tt.want {
				t.Errorf("expected %q delimiter, got %q", tt.want, got)
			}
		})
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Product", "Extruder", "Layer concentration", "Unit", "Alternative"})

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	want := ColumnMapping{Product: 0, Extruder: 1, Layer: 2, Unit: 3, Alternative: 4}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
}

func TestDetectColumns_AliasesAndOrder(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"  %  ", "UOM", "Resin", "LAYER"})

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	want := ColumnMapping{Product: 2, Extruder: 3, Layer: 0, Unit: 1, Alternative: -1}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
}

func TestDetectColumns_Positional(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"LDPE", "A", "100"})

	if isHeader {
		t.Error("expected no header")
	}
	if mapping.Product != 0 || mapping.Extruder != 1 || mapping.Layer != 2 || mapping.Unit != 3 {
		t.Errorf("unexpected positional mapping %+v", mapping)
	}
}

// ─── Row Parsing Tests ─────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	data := "Component,Extruder,Concentration,Unit,Alt\nLDPE,A,100,kg,\nHDPE,B,50%,kg,no\nMasterbatch,B,\"50,0\",,yes\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(result.Lines))
	}
	first := result.Lines[0]
	if first.Product != "LDPE" || first.Extruder != "A" || first.LayerConcentration != 100 || first.Unit != "kg" {
		t.Errorf("unexpected first line %+v", first)
	}
	if result.Lines[1].LayerConcentration != 50 {
		t.Errorf("expected 50, got %v", result.Lines[1].LayerConcentration)
	}
	if !result.Lines[2].Alternative || result.Lines[2].LayerConcentration != 50 {
		t.Errorf("expected alternative line at 50%%, got %+v", result.Lines[2])
	}
	if result.Lines[2].Row != "Line 4" {
		t.Errorf("expected row label 'Line 4', got %q", result.Lines[2].Row)
	}
}

func TestImportCSVFromReader_NoHeader(t *testing.T) {
	data := "LDPE,A,100\nHDPE,B,100\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d (errors: %v)", len(result.Lines), result.Errors)
	}
	for _, w := range result.Warnings {
		if strings.Contains(w, "header") {
			t.Errorf("unexpected header warning: %s", w)
		}
	}
}

func TestImportCSVFromReader_UnknownHeaderSkipped(t *testing.T) {
	data := "Matière,Couche,Pourcentage\nLDPE,A,100\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d (errors: %v)", len(result.Lines), result.Errors)
	}
}

func TestImportCSVFromReader_RowErrors(t *testing.T) {
	data := "Product,Extruder,Layer %\n,A,10\nLDPE,,10\nLDPE,A,abc\nHDPE,A,100\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(result.Errors), result.Errors)
	}
	if len(result.Lines) != 1 {
		t.Errorf("expected 1 valid line, got %d", len(result.Lines))
	}
	if result.OK() {
		t.Error("result with errors should not be OK")
	}
	if !strings.Contains(result.Errors[2], "Invalid layer concentration 'abc'") {
		t.Errorf("unexpected error: %s", result.Errors[2])
	}
}

func TestImportCSVFromReader_LayerValuesOutsidePercentRange(t *testing.T) {
	data := "Product,Extruder,Layer %\nLDPE,B,120\nHDPE,B,-20\nPP,B,0\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	want := []float64{120, -20, 0}
	if len(result.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(result.Lines))
	}
	for i, l := range result.Lines {
		if l.LayerConcentration != want[i] {
			t.Errorf("line %d: layer = %v, want %v", i, l.LayerConcentration, want[i])
		}
	}
}

func TestImportCSVFromReader_MissingRequiredColumns(t *testing.T) {
	data := "Product,Unit\nLDPE,kg\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "Extruder, Layer concentration") {
		t.Errorf("unexpected error: %s", result.Errors[0])
	}
}

func TestImportCSVFromReader_UnknownAlternativeFlag(t *testing.T) {
	data := "Product,Extruder,Layer %,Alternative\nLDPE,A,100,maybe\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Lines) != 1 || result.Lines[0].Alternative {
		t.Fatalf("expected one regular line, got %+v", result.Lines)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "Unknown alternative flag 'maybe'") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected alternative flag warning, got %v", result.Warnings)
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"60", 60, true},
		{"33.5", 33.5, true},
		{"33,5", 33.5, true},
		{" 40 % ", 40, true},
		{"1,000.5", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parsePercent(tt.input)
			if (err == nil) != tt.ok {
				t.Fatalf("parsePercent(%q): unexpected error state %v", tt.input, err)
			}
			if tt.ok && got != tt.want {
				t.Errorf("parsePercent(%q): expected %v, got %v", tt.input, tt.want, got)
			}
		})
	}
}

// ─── CSV File Import Tests ──────────────────────────────────

func TestImportCSV_SemicolonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipe.csv")
	content := "Product;Extruder;Layer %\nLDPE;A;100\nHDPE;B;50,5\nMasterbatch;B;49,5\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportCSV(path)

	if len(result.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d (errors: %v)", len(result.Lines), result.Errors)
	}
	if result.Lines[1].LayerConcentration != 50.5 {
		t.Errorf("expected 50.5, got %v", result.Lines[1].LayerConcentration)
	}
	hasSemicolonWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "semicolon") {
			hasSemicolonWarning = true
		}
	}
	if !hasSemicolonWarning {
		t.Error("expected warning about semicolon delimiter detection")
	}
}

func TestImportCSV_FileErrors(t *testing.T) {
	if result := ImportCSV("/nonexistent/path/file.csv"); len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}

	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if result := ImportCSV(path); len(result.Errors) == 0 || result.Errors[0] != "File is empty" {
		t.Errorf("expected empty file error, got %v", result.Errors)
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipe.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Layer concentration", "Product", "Extruder"},
		{100, "LDPE", "A"},
		{50, "HDPE", "B"},
		{50, "Masterbatch", "B"},
	})

	result := ImportFile(path)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(result.Lines))
	}
	if result.Lines[0].Product != "LDPE" || result.Lines[0].LayerConcentration != 100 {
		t.Errorf("unexpected first line %+v", result.Lines[0])
	}
	if result.Lines[2].Row != "Row 4" {
		t.Errorf("expected 'Row 4', got %q", result.Lines[2].Row)
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	if result := ImportExcel("/nonexistent/file.xlsx"); len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}
