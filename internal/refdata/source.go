package refdata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/saviobatista/eco-flight/internal/aircraft"
	"github.com/saviobatista/eco-flight/internal/airports"
	"github.com/saviobatista/eco-flight/internal/types"
	"github.com/saviobatista/eco-flight/pkg/logger"
)

var (
	// ErrUnknownSource is returned for an unsupported reference data source kind
	ErrUnknownSource = errors.New("unknown reference data source")

	// ErrSnapshotMissing is returned when the snapshot cache holds no reference data
	ErrSnapshotMissing = errors.New("reference data snapshot not found")
)

// Source loads the reference datasets
type Source interface {
	Load(ctx context.Context) (*types.ReferenceData, error)
}

// Datasets are the immutable lookup structures built from reference data
type Datasets struct {
	Airports *airports.Registry
	Factors  *aircraft.FactorTable
	Fuel     *aircraft.FuelTable
}

// Build turns reference data into lookup structures. A nil input yields empty datasets.
func Build(data *types.ReferenceData) *Datasets {
	if data == nil {
		data = &types.ReferenceData{}
	}
	return &Datasets{
		Airports: airports.New(data.Airports),
		Factors:  aircraft.NewFactorTable(data.EmissionFactors),
		Fuel:     aircraft.NewFuelTable(data.FuelRecords),
	}
}

// Matcher returns an aircraft matcher over both datasets
func (d *Datasets) Matcher() *aircraft.Matcher {
	return aircraft.NewMatcher(d.Factors, d.Fuel)
}

// FileSource reads reference data from files in a directory
type FileSource struct {
	Dir           string
	AirportsFile  string
	EmissionsFile string
	FuelFile      string
	FuelSheet     string
	// Strict makes any unreadable file fail the load instead of yielding an empty dataset
	Strict bool
	Logger *logger.Logger
}

// Load reads every configured file
func (s *FileSource) Load(ctx context.Context) (*types.ReferenceData, error) {
	log := s.Logger
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Named("refdata")

	data := &types.ReferenceData{}

	steps := []struct {
		name string
		file string
		load func(path string) error
	}{
		{"airports", s.AirportsFile, func(path string) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			data.Airports, err = ParseAirports(f)
			return err
		}},
		{"emission factors", s.EmissionsFile, func(path string) error {
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			data.EmissionFactors, err = ParseEmissionFactors(raw)
			return err
		}},
		{"fuel consumption", s.FuelFile, func(path string) error {
			var err error
			data.FuelRecords, err = loadFuelFile(path, s.FuelSheet)
			return err
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if step.file == "" {
			log.Warn("No file configured, dataset left empty", logger.String("dataset", step.name))
			continue
		}
		path := step.file
		if !filepath.IsAbs(path) && s.Dir != "" {
			path = filepath.Join(s.Dir, path)
		}
		if err := step.load(path); err != nil {
			if s.Strict {
				return nil, fmt.Errorf("failed to load %s from %s: %w", step.name, path, err)
			}
			log.Warn("Failed to load dataset, continuing with an empty one",
				logger.String("dataset", step.name),
				logger.String("path", path),
				logger.Error(err),
			)
		}
	}

	log.Info("Reference data loaded",
		logger.Int("airports", len(data.Airports)),
		logger.Int("emission_factors", len(data.EmissionFactors)),
		logger.Int("fuel_records", len(data.FuelRecords)),
	)
	return data, nil
}

func loadFuelFile(path, sheet string) ([]types.FuelConsumptionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ParseFuelXLSX(f, sheet)
	case ".csv":
		return ParseFuelCSV(f)
	default:
		return nil, fmt.Errorf("unsupported fuel table format: %s", filepath.Ext(path))
	}
}

// ReferenceStore reads reference datasets from a database
type ReferenceStore interface {
	GetAirports(ctx context.Context) ([]types.Airport, error)
	GetEmissionFactors(ctx context.Context) ([]types.EmissionFactor, error)
	GetFuelRecords(ctx context.Context) ([]types.FuelConsumptionRecord, error)
}

// StoreSource loads reference data from a ReferenceStore
type StoreSource struct {
	Store ReferenceStore
}

// Load queries all three datasets
func (s *StoreSource) Load(ctx context.Context) (*types.ReferenceData, error) {
	airportList, err := s.Store.GetAirports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load airports: %w", err)
	}
	factors, err := s.Store.GetEmissionFactors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load emission factors: %w", err)
	}
	fuel, err := s.Store.GetFuelRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fuel records: %w", err)
	}
	return &types.ReferenceData{
		Airports:        airportList,
		EmissionFactors: factors,
		FuelRecords:     fuel,
	}, nil
}

// SnapshotStore reads a reference data snapshot from a cache
type SnapshotStore interface {
	GetReferenceData(ctx context.Context) (*types.ReferenceData, error)
}

// SnapshotSource loads reference data from a SnapshotStore
type SnapshotSource struct {
	Store SnapshotStore
}

// Load fetches the snapshot
func (s *SnapshotSource) Load(ctx context.Context) (*types.ReferenceData, error) {
	data, err := s.Store.GetReferenceData(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data snapshot: %w", err)
	}
	if data == nil {
		return nil, ErrSnapshotMissing
	}
	return data, nil
}

// StaticSource serves reference data already in memory
type StaticSource struct {
	Data *types.ReferenceData
}

// Load returns the held data
func (s *StaticSource) Load(ctx context.Context) (*types.ReferenceData, error) {
	if s.Data == nil {
		return &types.ReferenceData{}, nil
	}
	return s.Data, nil
}
