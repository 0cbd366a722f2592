// Package promobserver exports space metrics to Prometheus.
package promobserver

import (
	"time"

	"github.com/hupe1980/conceptspace"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "conceptspace"

// Observer implements conceptspace.MetricsObserver.
type Observer struct {
	latency    *prometheus.HistogramVec
	operations *prometheus.CounterVec
	results    *prometheus.HistogramVec
	dissolved  prometheus.Counter
	cells      prometheus.Gauge
	proposals  prometheus.Gauge
	loss       prometheus.Gauge
}

var _ conceptspace.MetricsObserver = (*Observer)(nil)

// New creates an observer and registers its collectors with reg. A nil reg
// uses prometheus.DefaultRegisterer; an empty namespace uses DefaultNamespace.
func New(reg prometheus.Registerer, namespace string) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	o := &Observer{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of space operations",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"op", "status"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total space operations",
		}, []string{"op", "status"}),
		results: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned by queries",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"op"}),
		dissolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_dissolved_total",
			Help:      "Regions dissolved by removal cascades",
		}),
		cells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tessellation_cells",
			Help:      "Cells in the most recent tessellation",
		}),
		proposals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "discover_proposals",
			Help:      "Regions proposed by the most recent discovery",
		}),
		loss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "adapt_loss",
			Help:      "Squared error after the most recent weight adaptation",
		}),
	}

	for _, c := range []prometheus.Collector{o.latency, o.operations, o.results, o.dissolved, o.cells, o.proposals, o.loss} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// MustNew is like New but panics on registration errors.
func MustNew(reg prometheus.Registerer, namespace string) *Observer {
	o, err := New(reg, namespace)
	if err != nil {
		panic(err)
	}
	return o
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (o *Observer) observe(op string, d time.Duration, err error) {
	s := status(err)
	o.latency.WithLabelValues(op, s).Observe(d.Seconds())
	o.operations.WithLabelValues(op, s).Inc()
}

func (o *Observer) OnInsert(d time.Duration, err error) {
	o.observe("insert", d, err)
}

func (o *Observer) OnUpdate(d time.Duration, err error) {
	o.observe("update", d, err)
}

func (o *Observer) OnRemove(dissolved int, d time.Duration, err error) {
	o.observe("remove", d, err)
	if err == nil && dissolved > 0 {
		o.dissolved.Add(float64(dissolved))
	}
}

func (o *Observer) OnSearch(op string, results int, d time.Duration, err error) {
	o.observe(op, d, err)
	if err == nil {
		o.results.WithLabelValues(op).Observe(float64(results))
	}
}

func (o *Observer) OnRegion(op string, d time.Duration, err error) {
	o.observe("region_"+op, d, err)
}

func (o *Observer) OnTessellate(cells int, d time.Duration, err error) {
	o.observe("tessellate", d, err)
	if err == nil {
		o.cells.Set(float64(cells))
	}
}

func (o *Observer) OnDiscover(proposals int, d time.Duration, err error) {
	o.observe("discover", d, err)
	if err == nil {
		o.proposals.Set(float64(proposals))
	}
}

func (o *Observer) OnAdapt(loss float64, d time.Duration, err error) {
	o.observe("adapt", d, err)
	if err == nil {
		o.loss.Set(loss)
	}
}
