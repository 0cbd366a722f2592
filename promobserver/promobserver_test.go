package promobserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/conceptspace"
	"github.com/hupe1980/conceptspace/dimension"
	"github.com/hupe1980/conceptspace/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample returns the counter, gauge or histogram sample count of the metric
// in family name whose labels include all of labels.
func sample(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			got := map[string]string{}
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func TestObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := New(reg, "")
	require.NoError(t, err)

	o.OnInsert(time.Millisecond, nil)
	o.OnInsert(time.Millisecond, errors.New("boom"))
	o.OnRemove(2, time.Millisecond, nil)
	o.OnSearch("knn", 5, time.Millisecond, nil)
	o.OnRegion("define", time.Millisecond, nil)
	o.OnTessellate(4, time.Millisecond, nil)
	o.OnDiscover(3, time.Millisecond, nil)
	o.OnAdapt(0.25, time.Millisecond, nil)

	ops := "conceptspace_operations_total"
	assert.Equal(t, 1.0, sample(t, reg, ops, map[string]string{"op": "insert", "status": "success"}))
	assert.Equal(t, 1.0, sample(t, reg, ops, map[string]string{"op": "insert", "status": "error"}))
	assert.Equal(t, 1.0, sample(t, reg, ops, map[string]string{"op": "region_define", "status": "success"}))
	assert.Equal(t, 2.0, sample(t, reg, "conceptspace_regions_dissolved_total", nil))
	assert.Equal(t, 1.0, sample(t, reg, "conceptspace_search_results", map[string]string{"op": "knn"}))
	assert.Equal(t, 4.0, sample(t, reg, "conceptspace_tessellation_cells", nil))
	assert.Equal(t, 3.0, sample(t, reg, "conceptspace_discover_proposals", nil))
	assert.Equal(t, 0.25, sample(t, reg, "conceptspace_adapt_loss", nil))
	assert.Equal(t, 1.0, sample(t, reg, "conceptspace_operation_latency_seconds", map[string]string{"op": "remove"}))
}

func TestObserverFailuresKeepGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := MustNew(reg, "cs")

	o.OnTessellate(4, time.Millisecond, nil)
	o.OnTessellate(9, time.Millisecond, errors.New("canceled"))
	assert.Equal(t, 4.0, sample(t, reg, "cs_tessellation_cells", nil))
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "")
	require.NoError(t, err)

	_, err = New(reg, "")
	assert.Error(t, err)
	assert.Panics(t, func() { MustNew(reg, "") })
}

func TestObserverWithSpace(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := MustNew(reg, "")

	s, err := conceptspace.New([]dimension.Dimension{
		dimension.Linear("x", 0, 10),
		dimension.Linear("y", 0, 10),
	}, conceptspace.WithMetricsObserver(o))
	require.NoError(t, err)

	ctx := context.Background()
	for _, p := range []model.Point{
		model.NewPoint("a", 1, 1),
		model.NewPoint("b", 2, 2),
		model.NewPoint("c", 8, 8),
	} {
		_, err := s.Insert(ctx, p)
		require.NoError(t, err)
	}
	_, err = s.Insert(ctx, model.NewPoint("bad", 11, 1))
	require.Error(t, err)

	_, err = s.KNearest(ctx, []float64{0, 0}, 2)
	require.NoError(t, err)

	ops := "conceptspace_operations_total"
	assert.Equal(t, 3.0, sample(t, reg, ops, map[string]string{"op": "insert", "status": "success"}))
	assert.Equal(t, 1.0, sample(t, reg, ops, map[string]string{"op": "insert", "status": "error"}))
	assert.Equal(t, 1.0, sample(t, reg, ops, map[string]string{"op": "knn", "status": "success"}))
}
