// Package importer reads recipe component lists from CSV and Excel files.
// It supports automatic delimiter detection, flexible column mapping, and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Line is one recipe component read from a file. Product and Unit are
// names or codes resolved against the catalogue by the caller.
type Line struct {
	Product            string
	Extruder           string
	LayerConcentration float64
	Unit               string
	Alternative        bool
	// Row is the source row label ("Line 3", "Row 3") used in messages.
	Row string
}

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Lines    []Line
	Errors   []string
	Warnings []string
}

// OK reports whether the import produced lines without errors.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Lines) > 0
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Product     int
	Extruder    int
	Layer       int
	Unit        int
	Alternative int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"product":     {"product", "component", "material", "resin", "raw material", "item", "code", "name"},
	"extruder":    {"extruder", "layer", "ext", "extruder name"},
	"layer":       {"layer concentration", "concentration", "layer %", "layer_concentration", "percent", "%", "share"},
	"unit":        {"unit", "uom", "unit of measure", "units"},
	"alternative": {"alternative", "alt", "alternative line", "substitute"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or a default positional
// mapping (product, extruder, layer concentration, unit, alternative) and false.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Product: -1, Extruder: -1, Layer: -1, Unit: -1, Alternative: -1}
	slots := map[string]*int{
		"product":     &mapping.Product,
		"extruder":    &mapping.Extruder,
		"layer":       &mapping.Layer,
		"unit":        &mapping.Unit,
		"alternative": &mapping.Alternative,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if slot := slots[role]; *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Product: 0, Extruder: 1, Layer: 2, Unit: 3, Alternative: 4}, false
	}
	return mapping, true
}

// parseFlag reads the alternative column.
func parseFlag(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "x", "alt", "alternative":
		return true, true
	case "", "no", "n", "false", "0", "-":
		return false, true
	default:
		return false, false
	}
}

// parsePercent accepts "33.5", "33,5" and "33.5%".
func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow extracts a Line from a row using the given column mapping.
// Returns the line, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (Line, string, string) {
	line := Line{Row: rowLabel}

	line.Product = getCell(row, mapping.Product)
	if line.Product == "" {
		return Line{}, fmt.Sprintf("%s: Missing product", rowLabel), ""
	}
	line.Extruder = getCell(row, mapping.Extruder)
	if line.Extruder == "" {
		return Line{}, fmt.Sprintf("%s: Missing extruder for %s", rowLabel, line.Product), ""
	}

	layerStr := getCell(row, mapping.Layer)
	if layerStr == "" {
		return Line{}, fmt.Sprintf("%s: Missing layer concentration", rowLabel), ""
	}
	layer, err := parsePercent(layerStr)
	if err != nil {
		return Line{}, fmt.Sprintf("%s: Invalid layer concentration '%s'", rowLabel, layerStr), ""
	}
	line.LayerConcentration = layer
	line.Unit = getCell(row, mapping.Unit)

	var warning string
	if altStr := getCell(row, mapping.Alternative); altStr != "" {
		alt, ok := parseFlag(altStr)
		if ok {
			line.Alternative = alt
		} else {
			warning = fmt.Sprintf("%s: Unknown alternative flag '%s', treating as a regular component", rowLabel, altStr)
		}
	}

	return line, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports recipe lines from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports recipe lines from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports recipe lines from the first sheet of an Excel file.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// ImportFile picks the CSV or Excel reader from the file extension.
func ImportFile(path string) ImportResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportExcel(path)
	}
	return ImportCSV(path)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		var missing []string
		if mapping.Product == -1 {
			missing = append(missing, "Product")
		}
		if mapping.Extruder == -1 {
			missing = append(missing, "Extruder")
		}
		if mapping.Layer == -1 {
			missing = append(missing, "Layer concentration")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		// an unrecognized header still has a non-numeric third column
		if _, err := parsePercent(rows[0][2]); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		line, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		result.Lines = append(result.Lines, line)
	}

	return result
}
