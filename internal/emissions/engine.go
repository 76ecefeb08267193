package emissions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/saviobatista/eco-flight/internal/aircraft"
	"github.com/saviobatista/eco-flight/internal/geo"
	"github.com/saviobatista/eco-flight/internal/types"
	"github.com/saviobatista/eco-flight/pkg/logger"
)

// DefaultWorkers bounds concurrent candidate evaluations per search
const DefaultWorkers = 8

// AirportResolver resolves airport codes to coordinates
type AirportResolver interface {
	Resolve(code string) (types.Coordinate, bool)
}

// Engine estimates flight emissions from injected, read-only reference datasets.
// It performs no I/O and is safe for concurrent use.
type Engine struct {
	airports AirportResolver
	matcher  *aircraft.Matcher
	workers  int
	logger   *logger.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithWorkers sets the number of concurrent candidate evaluations
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.Named("engine")
		}
	}
}

// New creates an engine
func New(airports AirportResolver, matcher *aircraft.Matcher, opts ...Option) *Engine {
	if matcher == nil {
		matcher = aircraft.NewMatcher(nil, nil)
	}
	e := &Engine{
		airports: airports,
		matcher:  matcher,
		workers:  DefaultWorkers,
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeRouteDistance returns the great-circle distance in NM between two airports.
// It returns (0, false) when either code is unknown.
func (e *Engine) ComputeRouteDistance(origin, destination string) (float64, bool) {
	if e.airports == nil {
		return 0, false
	}
	from, ok := e.airports.Resolve(origin)
	if !ok {
		e.logger.Debug("Unknown airport", logger.String("code", origin))
		return 0, false
	}
	to, ok := e.airports.Resolve(destination)
	if !ok {
		e.logger.Debug("Unknown airport", logger.String("code", destination))
		return 0, false
	}
	return geo.DistanceNM(from, to), true
}

// ResolveFactor returns the emission factor for an aircraft code
func (e *Engine) ResolveFactor(code string) (float64, types.FactorSource) {
	return ResolveFactor(e.matcher, code)
}

// EstimateSimple estimates route emissions for one aircraft over distanceNM.
// The distance is taken as resolved; SearchRoute flags unresolved routes itself.
func (e *Engine) EstimateSimple(code string, distanceNM float64) types.EcoMetrics {
	return e.estimateSimple(code, distanceNM, true)
}

func (e *Engine) estimateSimple(code string, distanceNM float64, resolved bool) types.EcoMetrics {
	factor, source := e.ResolveFactor(code)
	return SimpleMetrics(code, distanceNM, resolved, factor, source)
}

// EstimateDetailed estimates the fuel-burn based emissions intensity of an aircraft type
func (e *Engine) EstimateDetailed(code string) types.DetailedEstimate {
	record, ok := e.matcher.MatchFuel(code)
	if !ok {
		return DetailedFromRecord(code, nil)
	}
	return DetailedFromRecord(code, &record)
}

// RankByEmissions orders flights by ascending CO2 estimate
func (e *Engine) RankByEmissions(flights []types.RankedFlight) []types.RankedFlight {
	return RankByEmissions(flights)
}

// SearchRoute estimates every candidate of a route and ranks them. Distance is
// computed once; candidates are evaluated concurrently. It only fails when ctx
// is done.
func (e *Engine) SearchRoute(ctx context.Context, req types.SearchRequest) (types.SearchResponse, error) {
	distance, resolved := e.ComputeRouteDistance(req.Origin, req.Destination)

	results := make([]types.RankedFlight, len(req.Flights))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, flight := range req.Flights {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = types.RankedFlight{
				Flight: flight,
				Eco:    e.estimateSimple(flight.AircraftCode(), distance, resolved),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.SearchResponse{}, fmt.Errorf("failed to evaluate candidates: %w", err)
	}

	resp := types.SearchResponse{
		SearchID: uuid.NewString(),
		Route: types.Route{
			Origin:      req.Origin,
			Destination: req.Destination,
			DistanceNM:  Round(distance),
			Resolved:    resolved,
		},
		Results: RankByEmissions(results),
	}

	e.logger.Debug("Route evaluated",
		logger.String("search_id", resp.SearchID),
		logger.String("origin", req.Origin),
		logger.String("destination", req.Destination),
		logger.Bool("resolved", resolved),
		logger.Int("candidates", len(req.Flights)),
	)
	return resp, nil
}
