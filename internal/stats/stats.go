package stats

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saviobatista/eco-flight/internal/types"
	"github.com/saviobatista/eco-flight/pkg/logger"
)

// Stats tracks estimation outcomes across transports
type Stats struct {
	// Search counts
	Searches         uint64
	FailedSearches   uint64
	UnresolvedRoutes uint64
	Candidates       uint64

	// Factor resolution counts per source
	ExactFactors    uint64
	PartialFactors  uint64
	DefaultFactors  uint64
	DistanceLookups uint64

	// Detailed estimate counts
	DetailedAvailable   uint64
	DetailedUnavailable uint64

	// Reference data reloads
	Reloads uint64

	startedAt      time.Time
	lastSearchTime time.Time
	processingTime time.Duration

	mu sync.RWMutex
}

// Snapshot is a point-in-time copy of the counters
type Snapshot struct {
	Searches            uint64        `json:"searches"`
	FailedSearches      uint64        `json:"failedSearches"`
	UnresolvedRoutes    uint64        `json:"unresolvedRoutes"`
	Candidates          uint64        `json:"candidates"`
	ExactFactors        uint64        `json:"exactFactors"`
	PartialFactors      uint64        `json:"partialFactors"`
	DefaultFactors      uint64        `json:"defaultFactors"`
	DistanceLookups     uint64        `json:"distanceLookups"`
	DetailedAvailable   uint64        `json:"detailedAvailable"`
	DetailedUnavailable uint64        `json:"detailedUnavailable"`
	Reloads             uint64        `json:"reloads"`
	LastSearchTime      time.Time     `json:"lastSearchTime"`
	ProcessingTime      time.Duration `json:"processingTimeNs"`
	Uptime              time.Duration `json:"uptimeNs"`
}

// New creates a new Stats instance
func New() *Stats {
	return &Stats{startedAt: time.Now()}
}

// RecordSearch counts a completed search and the factor source of every result
func (s *Stats) RecordSearch(resp types.SearchResponse, duration time.Duration) {
	atomic.AddUint64(&s.Searches, 1)
	atomic.AddUint64(&s.Candidates, uint64(len(resp.Results)))
	if !resp.Route.Resolved {
		atomic.AddUint64(&s.UnresolvedRoutes, 1)
	}
	for _, r := range resp.Results {
		s.RecordFactor(r.Eco.FactorSource)
	}

	s.mu.Lock()
	s.lastSearchTime = time.Now()
	s.processingTime += duration
	s.mu.Unlock()
}

// RecordFailedSearch counts a search that returned an error
func (s *Stats) RecordFailedSearch() {
	atomic.AddUint64(&s.FailedSearches, 1)
}

// RecordFactor counts one factor resolution
func (s *Stats) RecordFactor(source types.FactorSource) {
	switch source {
	case types.FactorSourceExact:
		atomic.AddUint64(&s.ExactFactors, 1)
	case types.FactorSourcePartial:
		atomic.AddUint64(&s.PartialFactors, 1)
	case types.FactorSourceDefault:
		atomic.AddUint64(&s.DefaultFactors, 1)
	}
}

// RecordDistanceLookup counts a standalone distance query
func (s *Stats) RecordDistanceLookup(resolved bool) {
	atomic.AddUint64(&s.DistanceLookups, 1)
	if !resolved {
		atomic.AddUint64(&s.UnresolvedRoutes, 1)
	}
}

// RecordDetailed counts a detailed estimate by availability
func (s *Stats) RecordDetailed(est types.DetailedEstimate) {
	if est.Available {
		atomic.AddUint64(&s.DetailedAvailable, 1)
		return
	}
	atomic.AddUint64(&s.DetailedUnavailable, 1)
}

// RecordReload counts a reference data reload
func (s *Stats) RecordReload() {
	atomic.AddUint64(&s.Reloads, 1)
}

// GetStats returns a copy of the current statistics
func (s *Stats) GetStats() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Searches:            atomic.LoadUint64(&s.Searches),
		FailedSearches:      atomic.LoadUint64(&s.FailedSearches),
		UnresolvedRoutes:    atomic.LoadUint64(&s.UnresolvedRoutes),
		Candidates:          atomic.LoadUint64(&s.Candidates),
		ExactFactors:        atomic.LoadUint64(&s.ExactFactors),
		PartialFactors:      atomic.LoadUint64(&s.PartialFactors),
		DefaultFactors:      atomic.LoadUint64(&s.DefaultFactors),
		DistanceLookups:     atomic.LoadUint64(&s.DistanceLookups),
		DetailedAvailable:   atomic.LoadUint64(&s.DetailedAvailable),
		DetailedUnavailable: atomic.LoadUint64(&s.DetailedUnavailable),
		Reloads:             atomic.LoadUint64(&s.Reloads),
		LastSearchTime:      s.lastSearchTime,
		ProcessingTime:      s.processingTime,
		Uptime:              time.Since(s.startedAt),
	}
}

// String returns a string representation of the statistics
func (s *Stats) String() string {
	snap := s.GetStats()
	return fmt.Sprintf(
		"Searches: %d\n"+
			"Failed Searches: %d\n"+
			"Unresolved Routes: %d\n"+
			"Candidates: %d\n"+
			"Factors (exact/partial/default): %d/%d/%d\n"+
			"Distance Lookups: %d\n"+
			"Detailed (available/unavailable): %d/%d\n"+
			"Reloads: %d\n"+
			"Processing Time: %s\n"+
			"Uptime: %s",
		snap.Searches,
		snap.FailedSearches,
		snap.UnresolvedRoutes,
		snap.Candidates,
		snap.ExactFactors, snap.PartialFactors, snap.DefaultFactors,
		snap.DistanceLookups,
		snap.DetailedAvailable, snap.DetailedUnavailable,
		snap.Reloads,
		snap.ProcessingTime,
		snap.Uptime.Round(time.Second),
	)
}

// StartReporting logs the counters every interval until ctx is done
func (s *Stats) StartReporting(ctx context.Context, interval time.Duration, log *logger.Logger) {
	if log == nil {
		log = logger.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.report(log, "Final statistics")
			return
		case <-ticker.C:
			s.report(log, "Statistics")
		}
	}
}

func (s *Stats) report(log *logger.Logger, msg string) {
	snap := s.GetStats()
	log.Info(msg,
		logger.Any("searches", snap.Searches),
		logger.Any("failed_searches", snap.FailedSearches),
		logger.Any("unresolved_routes", snap.UnresolvedRoutes),
		logger.Any("candidates", snap.Candidates),
		logger.Any("default_factors", snap.DefaultFactors),
		logger.Any("detailed_unavailable", snap.DetailedUnavailable),
		logger.Duration("processing_time", snap.ProcessingTime),
	)
}
