package conceptspace

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsObserver receives operational metrics.
// Implement this interface to integrate with monitoring systems; see the
// promobserver package for a Prometheus implementation.
type MetricsObserver interface {
	// OnInsert is called after each insert.
	OnInsert(duration time.Duration, err error)

	// OnUpdate is called after each update.
	OnUpdate(duration time.Duration, err error)

	// OnRemove is called after each remove. dissolved counts the regions the
	// cascade removed.
	OnRemove(dissolved int, duration time.Duration, err error)

	// OnSearch is called after k-nearest ("knn") and range ("range") queries.
	OnSearch(op string, results int, duration time.Duration, err error)

	// OnRegion is called after region operations ("define", "merge", "dissolve",
	// "test", "validate").
	OnRegion(op string, duration time.Duration, err error)

	// OnTessellate is called after a diagram rebuild.
	OnTessellate(cells int, duration time.Duration, err error)

	// OnDiscover is called after Discover and Partition.
	OnDiscover(proposals int, duration time.Duration, err error)

	// OnAdapt is called after a weight adaptation step with the resulting loss.
	OnAdapt(loss float64, duration time.Duration, err error)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnInsert(time.Duration, error)              {}
func (NoopMetricsObserver) OnUpdate(time.Duration, error)              {}
func (NoopMetricsObserver) OnRemove(int, time.Duration, error)         {}
func (NoopMetricsObserver) OnSearch(string, int, time.Duration, error) {}
func (NoopMetricsObserver) OnRegion(string, time.Duration, error)      {}
func (NoopMetricsObserver) OnTessellate(int, time.Duration, error)     {}
func (NoopMetricsObserver) OnDiscover(int, time.Duration, error)       {}
func (NoopMetricsObserver) OnAdapt(float64, time.Duration, error)      {}

// BasicMetricsObserver provides simple in-memory counters.
// Useful for debugging and tests without external dependencies.
type BasicMetricsObserver struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	UpdateCount      atomic.Int64
	UpdateErrors     atomic.Int64
	RemoveCount      atomic.Int64
	RemoveErrors     atomic.Int64
	Dissolved        atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	RegionOps        atomic.Int64
	RegionErrors     atomic.Int64
	Tessellations    atomic.Int64
	Discoveries      atomic.Int64
	Adaptations      atomic.Int64
	lastLoss         atomic.Uint64
}

// OnInsert implements MetricsObserver.
func (b *BasicMetricsObserver) OnInsert(_ time.Duration, err error) {
	b.InsertCount.Add(1)
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// OnUpdate implements MetricsObserver.
func (b *BasicMetricsObserver) OnUpdate(_ time.Duration, err error) {
	b.UpdateCount.Add(1)
	if err != nil {
		b.UpdateErrors.Add(1)
	}
}

// OnRemove implements MetricsObserver.
func (b *BasicMetricsObserver) OnRemove(dissolved int, _ time.Duration, err error) {
	b.RemoveCount.Add(1)
	b.Dissolved.Add(int64(dissolved))
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

// OnSearch implements MetricsObserver.
func (b *BasicMetricsObserver) OnSearch(_ string, _ int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// OnRegion implements MetricsObserver.
func (b *BasicMetricsObserver) OnRegion(_ string, _ time.Duration, err error) {
	b.RegionOps.Add(1)
	if err != nil {
		b.RegionErrors.Add(1)
	}
}

// OnTessellate implements MetricsObserver.
func (b *BasicMetricsObserver) OnTessellate(int, time.Duration, error) { b.Tessellations.Add(1) }

// OnDiscover implements MetricsObserver.
func (b *BasicMetricsObserver) OnDiscover(int, time.Duration, error) { b.Discoveries.Add(1) }

// OnAdapt implements MetricsObserver.
func (b *BasicMetricsObserver) OnAdapt(loss float64, _ time.Duration, err error) {
	b.Adaptations.Add(1)
	if err == nil {
		b.lastLoss.Store(math.Float64bits(loss))
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsObserver) GetStats() BasicMetricsStats {
	var avg int64
	if n := b.SearchCount.Load(); n > 0 {
		avg = b.SearchTotalNanos.Load() / n
	}
	return BasicMetricsStats{
		InsertCount:    b.InsertCount.Load(),
		InsertErrors:   b.InsertErrors.Load(),
		UpdateCount:    b.UpdateCount.Load(),
		UpdateErrors:   b.UpdateErrors.Load(),
		RemoveCount:    b.RemoveCount.Load(),
		RemoveErrors:   b.RemoveErrors.Load(),
		Dissolved:      b.Dissolved.Load(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchAvgNanos: avg,
		RegionOps:      b.RegionOps.Load(),
		RegionErrors:   b.RegionErrors.Load(),
		Tessellations:  b.Tessellations.Load(),
		Discoveries:    b.Discoveries.Load(),
		Adaptations:    b.Adaptations.Load(),
		LastLoss:       math.Float64frombits(b.lastLoss.Load()),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsObserver state.
type BasicMetricsStats struct {
	InsertCount    int64
	InsertErrors   int64
	UpdateCount    int64
	UpdateErrors   int64
	RemoveCount    int64
	RemoveErrors   int64
	Dissolved      int64
	SearchCount    int64
	SearchErrors   int64
	SearchAvgNanos int64
	RegionOps      int64
	RegionErrors   int64
	Tessellations  int64
	Discoveries    int64
	Adaptations    int64
	LastLoss       float64
}
