package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/saviobatista/eco-flight/internal/aircraft"
	"github.com/saviobatista/eco-flight/internal/types"
)

// Fuel sheet layout
const (
	DefaultFuelSheet = "Hurtecant"

	// fuelHeaderRow is the 1-based spreadsheet row holding the column names
	fuelHeaderRow = 4

	colAircraftType  = "Aircraft Type"
	colMaxPassengers = "Maximum Number of Pax Single Class (-)"
	colFuelKgPerKm   = "Fuel Consumption (kg/km)"
)

// ParseFuelXLSX reads the fuel consumption sheet of a workbook
func ParseFuelXLSX(r io.Reader, sheet string) ([]types.FuelConsumptionRecord, error) {
	if sheet == "" {
		sheet = DefaultFuelSheet
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < fuelHeaderRow {
		return nil, fmt.Errorf("sheet %s has %d rows, header expected on row %d", sheet, len(rows), fuelHeaderRow)
	}

	return parseFuelRows(rows[fuelHeaderRow-1], rows[fuelHeaderRow:])
}

// ParseFuelCSV reads fuel consumption records from CSV with a header line
func ParseFuelCSV(r io.Reader) ([]types.FuelConsumptionRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to read CSV header: empty input")
	}

	return parseFuelRows(rows[0], rows[1:])
}

func parseFuelRows(header []string, rows [][]string) ([]types.FuelConsumptionRecord, error) {
	colIndices := make(map[string]int)
	for i, col := range header {
		colIndices[strings.TrimSpace(col)] = i
	}

	for _, col := range []string{colAircraftType, colMaxPassengers, colFuelKgPerKm} {
		if _, ok := colIndices[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	cell := func(row []string, col string) string {
		i := colIndices[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []types.FuelConsumptionRecord
	for _, row := range rows {
		name := cell(row, colAircraftType)
		if name == "" {
			continue
		}
		records = append(records, types.FuelConsumptionRecord{
			RawName:         name,
			NormalizedName:  aircraft.NormalizeName(name),
			MaxPassengers:   parsePassengers(cell(row, colMaxPassengers)),
			FuelBurnKgPerKm: parsePositive(cell(row, colFuelKgPerKm)),
		})
	}
	return records, nil
}

// parsePositive returns 0 for blank, malformed or non-positive values
func parsePositive(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return v
}

func parsePassengers(s string) int {
	return int(math.Round(parsePositive(s)))
}
