// Package service wires the emissions engine to a reloadable reference data source
// and records estimation outcomes.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saviobatista/eco-flight/internal/emissions"
	"github.com/saviobatista/eco-flight/internal/refdata"
	"github.com/saviobatista/eco-flight/internal/stats"
	"github.com/saviobatista/eco-flight/internal/types"
	"github.com/saviobatista/eco-flight/pkg/logger"
)

// Health describes the loaded reference datasets
type Health struct {
	Status          string    `json:"status"`
	Airports        int       `json:"airports"`
	EmissionFactors int       `json:"emissionFactors"`
	FuelRecords     int       `json:"fuelRecords"`
	LoadedAt        time.Time `json:"loadedAt"`
}

// Recorder keeps completed searches
type Recorder interface {
	Record(resp types.SearchResponse) error
}

type snapshot struct {
	engine   *emissions.Engine
	datasets *refdata.Datasets
	loadedAt time.Time
}

// Service answers estimation queries against the current engine
type Service struct {
	source     refdata.Source
	stats      *stats.Stats
	logger     *logger.Logger
	engineOpts []emissions.Option
	recorder   Recorder

	current  atomic.Pointer[snapshot]
	reloadMu sync.Mutex
}

// New creates a service over empty datasets; call Reload to load the source
func New(source refdata.Source, st *stats.Stats, log *logger.Logger, opts ...emissions.Option) *Service {
	if st == nil {
		st = stats.New()
	}
	if log == nil {
		log = logger.NewNop()
	}
	s := &Service{
		source:     source,
		stats:      st,
		logger:     log.Named("service"),
		engineOpts: append([]emissions.Option{emissions.WithLogger(log)}, opts...),
	}
	s.install(refdata.Build(nil), time.Time{})
	return s
}

// WithRecorder sets where completed searches are kept. Call it before serving.
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

func (s *Service) install(ds *refdata.Datasets, at time.Time) {
	s.current.Store(&snapshot{
		engine:   emissions.New(ds.Airports, ds.Matcher(), s.engineOpts...),
		datasets: ds,
		loadedAt: at,
	})
}

// Reload reads the source and atomically swaps in a new engine.
// On failure the previous engine keeps serving.
func (s *Service) Reload(ctx context.Context) error {
	if s.source == nil {
		return errors.New("no reference data source configured")
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	data, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reference data: %w", err)
	}

	ds := refdata.Build(data)
	s.install(ds, time.Now())
	s.stats.RecordReload()

	s.logger.Info("Reference data installed",
		logger.Int("airports", ds.Airports.Len()),
		logger.Int("emission_factors", ds.Factors.Len()),
		logger.Int("fuel_records", ds.Fuel.Len()),
	)
	return nil
}

// Engine returns the engine currently serving
func (s *Service) Engine() *emissions.Engine {
	return s.current.Load().engine
}

// Search ranks the candidates of a route
func (s *Service) Search(ctx context.Context, req types.SearchRequest) (types.SearchResponse, error) {
	start := time.Now()
	resp, err := s.Engine().SearchRoute(ctx, req)
	if err != nil {
		s.stats.RecordFailedSearch()
		return types.SearchResponse{}, err
	}
	s.stats.RecordSearch(resp, time.Since(start))

	if s.recorder != nil {
		if err := s.recorder.Record(resp); err != nil {
			s.logger.Warn("Failed to record search", logger.String("search_id", resp.SearchID), logger.Error(err))
		}
	}
	return resp, nil
}

// Distance returns the great-circle distance between two airports
func (s *Service) Distance(origin, destination string) (float64, bool) {
	d, ok := s.Engine().ComputeRouteDistance(origin, destination)
	s.stats.RecordDistanceLookup(ok)
	return d, ok
}

// Factor resolves the emission factor of an aircraft code
func (s *Service) Factor(code string) (float64, types.FactorSource) {
	f, src := s.Engine().ResolveFactor(code)
	s.stats.RecordFactor(src)
	return f, src
}

// Detailed returns the fuel-burn based estimate of an aircraft code
func (s *Service) Detailed(code string) types.DetailedEstimate {
	est := s.Engine().EstimateDetailed(code)
	s.stats.RecordDetailed(est)
	return est
}

// Health reports the loaded dataset sizes
func (s *Service) Health() Health {
	snap := s.current.Load()
	h := Health{
		Status:          "ok",
		Airports:        snap.datasets.Airports.Len(),
		EmissionFactors: snap.datasets.Factors.Len(),
		FuelRecords:     snap.datasets.Fuel.Len(),
		LoadedAt:        snap.loadedAt,
	}
	if h.Airports == 0 || h.EmissionFactors == 0 {
		h.Status = "degraded"
	}
	return h
}

// Stats returns the outcome counters
func (s *Service) Stats() stats.Snapshot {
	return s.stats.GetStats()
}
