package distance

import (
	"context"

	"github.com/hupe1980/conceptspace/model"
	"github.com/hupe1980/conceptspace/resource"
	"golang.org/x/sync/errgroup"
)

// BatchOptions configures Batch.
type BatchOptions struct {
	// Controller bounds the worker fan-out. Nil uses GOMAXPROCS workers.
	Controller *resource.Controller

	// ChunkSize is the number of targets per worker task (default 256).
	ChunkSize int
}

// Batch computes the distance from query to every target in parallel.
//
// The weight vector is copied before any worker starts. Cancellation is checked
// between point evaluations; on cancellation the partial result is discarded and
// ctx.Err() is returned.
func (m *Metric) Batch(ctx context.Context, query []float64, targets [][]float64, w *Weights, opts BatchOptions) ([]float64, error) {
	if err := model.CheckDimension(len(m.kinds), len(query)); err != nil {
		return nil, err
	}
	if err := m.CheckWeights(w); err != nil {
		return nil, err
	}
	for _, t := range targets {
		if err := model.CheckDimension(len(m.kinds), len(t)); err != nil {
			return nil, err
		}
	}

	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = 256
	}

	buf := int64(len(targets) * 8)
	if err := opts.Controller.AcquireMemory(ctx, buf); err != nil {
		return nil, err
	}
	defer opts.Controller.ReleaseMemory(buf)

	wv := w.Values()
	out := make([]float64, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Controller.Workers())

	for start := 0; start < len(targets); start += chunk {
		end := min(start+chunk, len(targets))

		g.Go(func() error {
			if err := opts.Controller.AcquireWorker(gctx); err != nil {
				return err
			}
			defer opts.Controller.ReleaseWorker()

			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[i] = m.unchecked(query, targets[i], wv)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// BatchSimilarity is Batch followed by the similarity transform.
func (m *Metric) BatchSimilarity(ctx context.Context, query []float64, targets [][]float64, w *Weights, opts BatchOptions) ([]float64, error) {
	out, err := m.Batch(ctx, query, targets, w, opts)
	if err != nil {
		return nil, err
	}
	for i, d := range out {
		out[i] = m.SimilarityFromDistance(d)
	}
	return out, nil
}
