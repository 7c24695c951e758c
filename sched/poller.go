// Package sched provides a round-robin slot poller built on the hierarchical
// scan bitmap: producers mark slots active from any goroutine, a polling
// loop discovers active slots slab by slab and dispatches them to handlers.
//
// The poller is the canonical consumer of the bitmap's concurrency contract.
// All writer-side bitmap operations (Mark, Seed, the scan-and-claim step of
// Run) are serialized on one internal mutex, collapsing any number of
// producers onto the single logical writer the bitmap requires. Shutdown is
// explicit shared state: a context plus a Stop flag owned by the Poller,
// never a package-level global.
package sched

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/hibit"
	"github.com/hupe1980/hibit/mem"
)

// ErrInvalidConfig is returned by New for unusable configurations.
var ErrInvalidConfig = errors.New("sched: invalid config")

// Handler processes one active slot. Returning a non-nil error stops the
// poller and surfaces the error from Run.
type Handler func(ctx context.Context, slot uint32) error

// Options tunes a Poller. The zero value is usable.
type Options struct {
	// Logger receives lifecycle and error logs. Defaults to a noop logger.
	Logger *hibit.Logger

	// Metrics receives poll metrics. Defaults to NoopMetricsCollector.
	Metrics MetricsCollector

	// Workers is the number of concurrent handler invocations per drained
	// slab. Defaults to 1 (strict slot order within a slab).
	Workers int

	// PollInterval is how long Run sleeps after an empty scan pass before
	// polling again. Defaults to 100µs.
	PollInterval time.Duration

	// ScanRate caps scan passes per second. Zero means unlimited.
	ScanRate rate.Limit
}

// Poller owns a bitmap used as a slot-activity index and drains it in
// round-robin order.
type Poller struct {
	mu sync.Mutex // serializes all writer-side bitmap operations
	bm *hibit.Bitmap

	buf []byte // backing block; kept alive for the bitmap's lifetime

	handler      Handler
	logger       *hibit.Logger
	metrics      MetricsCollector
	workers      int
	pollInterval time.Duration
	limiter      *rate.Limiter

	stopped atomic.Bool
}

// New creates a poller over slots entries, allocating and initializing the
// backing bitmap internally.
func New(slots uint32, handler Handler, opts *Options) (*Poller, error) {
	if slots == 0 {
		return nil, fmt.Errorf("%w: slots must be > 0", ErrInvalidConfig)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: nil handler", ErrInvalidConfig)
	}
	if opts == nil {
		opts = &Options{}
	}

	buf := mem.AllocAligned(int(hibit.Footprint(slots)))
	bm, err := hibit.Init(slots, buf)
	if err != nil {
		return nil, err
	}

	p := &Poller{
		bm:           bm,
		buf:          buf,
		handler:      handler,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		workers:      opts.Workers,
		pollInterval: opts.PollInterval,
	}
	if p.logger == nil {
		p.logger = hibit.NoopLogger()
	}
	if p.metrics == nil {
		p.metrics = NoopMetricsCollector{}
	}
	if p.workers <= 0 {
		p.workers = 1
	}
	if p.pollInterval <= 0 {
		p.pollInterval = 100 * time.Microsecond
	}
	if opts.ScanRate > 0 {
		p.limiter = rate.NewLimiter(opts.ScanRate, 1)
	}

	return p, nil
}

// Slots returns the number of tracked slots.
func (p *Poller) Slots() uint32 { return p.bm.Bits() }

// Mark flags a slot as active. Safe from any goroutine.
func (p *Poller) Mark(slot uint32) {
	p.mu.Lock()
	p.bm.Set(slot)
	p.mu.Unlock()
	p.metrics.RecordMark()
}

// Seed bulk-activates every slot in rb, typically to resume a previously
// materialized working set. Safe from any goroutine.
func (p *Poller) Seed(rb *roaring.Bitmap) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bm.LoadRoaring(rb)
}

// Reader returns a read-only handle over the slot index, for probing slot
// state without touching the poller's writer lock.
func (p *Poller) Reader() hibit.Reader {
	return p.bm.Reader()
}

// Stop makes Run return after the current pass. Safe from any goroutine and
// idempotent.
func (p *Poller) Stop() {
	p.stopped.Store(true)
}

// Run polls the slot index until ctx is canceled, Stop is called, or a
// handler fails. Each pass claims one non-empty slab (clearing it under the
// writer lock) and dispatches its set bits to the handler, fanning out over
// the configured worker count.
//
// Run must not be called concurrently with itself.
func (p *Poller) Run(ctx context.Context) error {
	log := p.logger.WithBits(p.bm.Bits())
	log.Info("poller started", "workers", p.workers)

	for {
		if p.stopped.Load() {
			log.Info("poller stopped")
			return nil
		}
		if err := ctx.Err(); err != nil {
			log.Info("poller canceled")
			return err
		}
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		p.mu.Lock()
		pos, slab, ok := p.bm.Scan()
		if ok {
			// Claim the whole slab; re-marks during handling land on the
			// next pass.
			p.bm.SetSlab(pos, 0)
		}
		p.mu.Unlock()

		if !ok {
			p.metrics.RecordEmptyPoll()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.pollInterval):
			}
			continue
		}

		start := time.Now()
		count, err := p.dispatch(ctx, pos, slab)
		p.metrics.RecordDrain(count, time.Since(start), err)
		if err != nil {
			log.Error("handler failed", "error", err)
			return err
		}
	}
}

// dispatch invokes the handler for every set bit of slab, pos being the
// slab's starting position.
func (p *Poller) dispatch(ctx context.Context, pos uint32, slab uint64) (int, error) {
	count := 0

	if p.workers == 1 {
		for slab != 0 {
			slot := pos + uint32(bits.TrailingZeros64(slab))
			slab &= slab - 1
			count++
			if err := p.handler(ctx, slot); err != nil {
				return count, err
			}
		}
		return count, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for slab != 0 {
		slot := pos + uint32(bits.TrailingZeros64(slab))
		slab &= slab - 1
		count++
		g.Go(func() error {
			return p.handler(gctx, slot)
		})
	}
	return count, g.Wait()
}
