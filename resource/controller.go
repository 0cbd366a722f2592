// Package resource bounds the CPU and IO budget of a space: the number of
// workers a batch computation may fan out to, the memory reserved for batch
// result buffers, and the byte rate at which snapshots are written or read.
package resource

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxWorkers is the maximum number of concurrent batch workers.
	// If 0, defaults to GOMAXPROCS.
	MaxWorkers int64 `mapstructure:"max_workers"`

	// MemoryLimitBytes caps memory reserved for batch result buffers.
	// If 0, usage is only tracked.
	MemoryLimitBytes int64 `mapstructure:"memory_limit_bytes"`

	// IOLimitBytesPerSec throttles snapshot IO. If 0, unlimited.
	IOLimitBytesPerSec int64 `mapstructure:"io_limit_bytes_per_sec"`
}

// Controller hands out worker slots, memory reservations and IO tokens.
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	workers *semaphore.Weighted

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = int64(runtime.GOMAXPROCS(0))
	}

	c := &Controller{
		cfg:     cfg,
		workers: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Workers returns the configured worker limit. Nil controllers report GOMAXPROCS.
func (c *Controller) Workers() int {
	if c == nil {
		return runtime.GOMAXPROCS(0)
	}
	return int(c.cfg.MaxWorkers)
}

// AcquireWorker blocks until a worker slot is free or ctx is canceled.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return ctx.Err()
	}
	return c.workers.Acquire(ctx, 1)
}

// TryAcquireWorker reserves a worker slot without blocking.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	return c.workers.TryAcquire(1)
}

// ReleaseWorker returns a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workers.Release(1)
}

// AcquireMemory reserves bytes, blocking while a hard limit would be exceeded.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory releases a reservation made by AcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the currently reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireIO waits until the IO limit admits n bytes. Requests larger than
// the limiter burst are split into burst-sized waits.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}

	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}

	return nil
}
