package refdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/saviobatista/eco-flight/internal/testutils"
	"github.com/saviobatista/eco-flight/internal/types"
)

func TestParseAirports(t *testing.T) {
	input := `[
		{"iata": "SFO", "name": "San Francisco", "lat": 37.6189, "lon": -122.375},
		{"iata": " jfk ", "lat": 40.6413, "lon": -73.7781},
		{"iata": "", "lat": 1, "lon": 1},
		{"iata": "BAD", "lat": 95, "lon": 0}
	]`

	airports, err := ParseAirports(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseAirports() error = %v", err)
	}
	if len(airports) != 2 {
		t.Fatalf("ParseAirports() returned %d airports, want 2", len(airports))
	}
	if airports[0].Code != "SFO" || airports[0].Name != "San Francisco" {
		t.Errorf("first airport = %+v", airports[0])
	}
	if airports[1].Code != "jfk" {
		t.Errorf("second airport code = %q, want trimmed %q", airports[1].Code, "jfk")
	}
}

func TestParseAirportsInvalid(t *testing.T) {
	if _, err := ParseAirports(strings.NewReader(`{"iata": "SFO"}`)); err == nil {
		t.Error("ParseAirports() expected error for a non-array document")
	}
}

func TestParseEmissionFactorsKeepsOrder(t *testing.T) {
	input := []byte(`{"B77": 34, "A320": 18.5, "A32": 19, "note": "skip", "B777": 35}`)

	factors, err := ParseEmissionFactors(input)
	if err != nil {
		t.Fatalf("ParseEmissionFactors() error = %v", err)
	}

	want := []types.EmissionFactor{
		{AircraftCode: "B77", FactorPerNM: 34},
		{AircraftCode: "A320", FactorPerNM: 18.5},
		{AircraftCode: "A32", FactorPerNM: 19},
		{AircraftCode: "B777", FactorPerNM: 35},
	}
	if len(factors) != len(want) {
		t.Fatalf("got %d factors, want %d: %+v", len(factors), len(want), factors)
	}
	for i := range want {
		if factors[i] != want[i] {
			t.Errorf("factors[%d] = %+v, want %+v", i, factors[i], want[i])
		}
	}
}

func TestParseEmissionFactorsRepeatedKey(t *testing.T) {
	factors, err := ParseEmissionFactors([]byte(`{"A320": 18.5, "B737": 19, "A320": 30}`))
	if err != nil {
		t.Fatalf("ParseEmissionFactors() error = %v", err)
	}

	want := []types.EmissionFactor{
		{AircraftCode: "A320", FactorPerNM: 30},
		{AircraftCode: "B737", FactorPerNM: 19},
	}
	if len(factors) != len(want) {
		t.Fatalf("got %d factors, want %d: %+v", len(factors), len(want), factors)
	}
	for i := range want {
		if factors[i] != want[i] {
			t.Errorf("factors[%d] = %+v, want %+v", i, factors[i], want[i])
		}
	}

	ds := Build(&types.ReferenceData{EmissionFactors: factors})
	if e, src, _ := ds.Factors.Lookup("A320"); e.FactorPerNM != 30 || src != types.FactorSourceExact {
		t.Errorf("Lookup(A320) = %+v (%s), want 30 exact", e, src)
	}
}

func TestParseEmissionFactorsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"A320": `},
		{"array", `[18.5, 19]`},
		{"scalar", `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEmissionFactors([]byte(tt.input)); err == nil {
				t.Error("ParseEmissionFactors() expected error")
			}
		})
	}
}

const fuelCSV = `Aircraft Type,Maximum Number of Pax Single Class (-),Fuel Consumption (kg/km)
Airbus A320,180,2.9
Boeing 777-300ER,550,"7.5"
Embraer E190,,
,100,1.0
Fokker 100,n/a,-3
`

func TestParseFuelCSV(t *testing.T) {
	records, err := ParseFuelCSV(strings.NewReader(fuelCSV))
	if err != nil {
		t.Fatalf("ParseFuelCSV() error = %v", err)
	}

	want := []types.FuelConsumptionRecord{
		{RawName: "Airbus A320", NormalizedName: "airbusa320", MaxPassengers: 180, FuelBurnKgPerKm: 2.9},
		{RawName: "Boeing 777-300ER", NormalizedName: "boeing777300er", MaxPassengers: 550, FuelBurnKgPerKm: 7.5},
		{RawName: "Embraer E190", NormalizedName: "embraere190"},
		{RawName: "Fokker 100", NormalizedName: "fokker100"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(records), len(want), records)
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("records[%d] = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestParseFuelCSVMissingColumn(t *testing.T) {
	input := "Aircraft Type,Fuel Consumption (kg/km)\nAirbus A320,2.9\n"
	_, err := ParseFuelCSV(strings.NewReader(input))
	if err == nil || !strings.Contains(err.Error(), "Maximum Number of Pax") {
		t.Errorf("ParseFuelCSV() error = %v, want missing column error", err)
	}
}

func TestParseFuelCSVEmpty(t *testing.T) {
	if _, err := ParseFuelCSV(strings.NewReader("")); err == nil {
		t.Error("ParseFuelCSV() expected error for empty input")
	}
}

func buildFuelWorkbook(t *testing.T, sheet string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("SetSheetName() error = %v", err)
	}
	rows := [][]interface{}{
		{"Fuel consumption of 50 aircraft"},
		{},
		{},
		{"Aircraft Type", "Maximum Number of Pax Single Class (-)", "Fuel Consumption (kg/km)"},
		{"Airbus A320neo", 194, 2.5},
		{"Boeing 787-9", 420, 5.4},
		{"Embraer E190"},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName() error = %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	return buf.Bytes()
}

func TestParseFuelXLSX(t *testing.T) {
	data := buildFuelWorkbook(t, DefaultFuelSheet)

	records, err := ParseFuelXLSX(strings.NewReader(string(data)), "")
	if err != nil {
		t.Fatalf("ParseFuelXLSX() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3: %+v", len(records), records)
	}
	if records[0].NormalizedName != "airbusa320neo" || records[0].MaxPassengers != 194 || records[0].FuelBurnKgPerKm != 2.5 {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[1].RawName != "Boeing 787-9" || records[1].FuelBurnKgPerKm != 5.4 {
		t.Errorf("records[1] = %+v", records[1])
	}
	if records[2].FuelBurnKgPerKm != 0 || records[2].MaxPassengers != 0 {
		t.Errorf("records[2] = %+v, want no values", records[2])
	}
}

func TestParseFuelXLSXMissingSheet(t *testing.T) {
	data := buildFuelWorkbook(t, "Other")

	if _, err := ParseFuelXLSX(strings.NewReader(string(data)), DefaultFuelSheet); err == nil {
		t.Error("ParseFuelXLSX() expected error for a missing sheet")
	}
}

func TestParseFuelXLSXNotAWorkbook(t *testing.T) {
	if _, err := ParseFuelXLSX(strings.NewReader("not a zip"), ""); err == nil {
		t.Error("ParseFuelXLSX() expected error for invalid workbook")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestFileSourceLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "airports.json", `[{"iata": "SFO", "lat": 37.6189, "lon": -122.375}]`)
	writeFile(t, dir, "aircraft_emissions.json", `{"A320": 18.5}`)
	writeFile(t, dir, "fuel.csv", fuelCSV)

	src := &FileSource{
		Dir:           dir,
		AirportsFile:  "airports.json",
		EmissionsFile: "aircraft_emissions.json",
		FuelFile:      "fuel.csv",
		Strict:        true,
	}

	data, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(data.Airports) != 1 || len(data.EmissionFactors) != 1 || len(data.FuelRecords) != 4 {
		t.Errorf("Load() = %d airports, %d factors, %d fuel records",
			len(data.Airports), len(data.EmissionFactors), len(data.FuelRecords))
	}
}

func TestFileSourceLoadXLSX(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fuel.xlsx"), buildFuelWorkbook(t, "Fuel"), 0o644); err != nil {
		t.Fatalf("failed to write workbook: %v", err)
	}

	src := &FileSource{Dir: dir, FuelFile: "fuel.xlsx", FuelSheet: "Fuel", Strict: true}
	data, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(data.FuelRecords) != 3 {
		t.Errorf("Load() fuel records = %d, want 3", len(data.FuelRecords))
	}
}

func TestFileSourceMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "aircraft_emissions.json", `{"A320": 18.5}`)

	src := &FileSource{
		Dir:           dir,
		AirportsFile:  "missing.json",
		EmissionsFile: "aircraft_emissions.json",
		FuelFile:      "fuel.ods",
	}

	t.Run("lenient", func(t *testing.T) {
		data, err := src.Load(context.Background())
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(data.Airports) != 0 || len(data.FuelRecords) != 0 {
			t.Errorf("expected empty airports and fuel datasets, got %+v", data)
		}
		if len(data.EmissionFactors) != 1 {
			t.Errorf("emission factors = %d, want 1", len(data.EmissionFactors))
		}
	})

	t.Run("strict", func(t *testing.T) {
		strict := *src
		strict.Strict = true
		if _, err := strict.Load(context.Background()); err == nil {
			t.Error("Load() expected error in strict mode")
		}
	})
}

func TestFileSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &FileSource{Dir: t.TempDir(), AirportsFile: "airports.json"}
	if _, err := src.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

type stubStore struct {
	data *types.ReferenceData
	err  error
}

func (s *stubStore) GetAirports(ctx context.Context) ([]types.Airport, error) {
	return s.data.Airports, s.err
}

func (s *stubStore) GetEmissionFactors(ctx context.Context) ([]types.EmissionFactor, error) {
	return s.data.EmissionFactors, nil
}

func (s *stubStore) GetFuelRecords(ctx context.Context) ([]types.FuelConsumptionRecord, error) {
	return s.data.FuelRecords, nil
}

func (s *stubStore) GetReferenceData(ctx context.Context) (*types.ReferenceData, error) {
	return s.data, s.err
}

func TestStoreSource(t *testing.T) {
	want := testutils.SampleReferenceData()

	data, err := (&StoreSource{Store: &stubStore{data: want}}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(data.Airports) != len(want.Airports) || len(data.FuelRecords) != len(want.FuelRecords) {
		t.Errorf("Load() = %+v", data)
	}

	storeErr := errors.New("connection refused")
	_, err = (&StoreSource{Store: &stubStore{data: want, err: storeErr}}).Load(context.Background())
	if !errors.Is(err, storeErr) {
		t.Errorf("Load() error = %v, want wrapped %v", err, storeErr)
	}
}

func TestSnapshotSource(t *testing.T) {
	want := testutils.SampleReferenceData()

	data, err := (&SnapshotSource{Store: &stubStore{data: want}}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if data != want {
		t.Error("Load() did not return the snapshot")
	}

	_, err = (&SnapshotSource{Store: &stubStore{}}).Load(context.Background())
	if !errors.Is(err, ErrSnapshotMissing) {
		t.Errorf("Load() error = %v, want ErrSnapshotMissing", err)
	}
}

func TestBuild(t *testing.T) {
	ds := Build(testutils.SampleReferenceData())

	if ds.Airports.Len() != 4 {
		t.Errorf("airports = %d, want 4", ds.Airports.Len())
	}
	if ds.Factors.Len() != 5 {
		t.Errorf("factors = %d, want 5", ds.Factors.Len())
	}
	if ds.Fuel.Len() != 6 {
		t.Errorf("fuel records = %d, want 6", ds.Fuel.Len())
	}

	m := ds.Matcher()
	if got := m.Match("A20N"); got.Fuel == nil || got.Fuel.RawName != "Airbus A320neo" {
		t.Errorf("Match(A20N) fuel = %+v, want Airbus A320neo", got.Fuel)
	}

	empty := Build(nil)
	if empty.Airports.Len() != 0 || empty.Factors.Len() != 0 || empty.Fuel.Len() != 0 {
		t.Error("Build(nil) should produce empty datasets")
	}
}
