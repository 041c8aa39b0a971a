// Package seedpool is the bounded producer/consumer pipeline between the
// traversal and the tile cache: a fixed-capacity FIFO queue drained by a
// small number of SeedWorker goroutines, each retrying recoverable cache
// failures with exponential backoff before giving up and exiting on its
// own. The bounded queue is what gives the traversal backpressure — Submit
// blocks while every worker is busy and the queue is full.
package seedpool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omniscale/tileseed/internal/progress"
	"github.com/omniscale/tileseed/internal/types"
)

// Cache is the subset of the tile cache a SeedWorker needs: materializing
// every tile in a meta-tile batch.
type Cache interface {
	LoadTileCoords(metaTiles []types.MetaTile) error
}

// State is a SeedWorker's position in its lifecycle.
type State int32

const (
	Idle State = iota
	Working
	Backoff
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Working:
		return "WORKING"
	case Backoff:
		return "BACKOFF"
	case Stopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// PoolState is the Pool's own lifecycle position.
type PoolState int32

const (
	PoolRunning PoolState = iota
	PoolDraining
	PoolStopped
)

// Config configures a Pool.
type Config struct {
	Cache Cache
	// Size is the worker count; default 2.
	Size int
	// QueueCap bounds the work queue; default 16.
	QueueCap int
	// DryRun skips the cache entirely and only logs what would be seeded.
	DryRun bool
	Sink   progress.Sink

	MaxRepeat    int
	BackoffStart time.Duration
	Recoverable  Recoverable
}

type queueItem struct {
	item     types.WorkItem
	sentinel bool
}

// Pool is a SeedPool: a bounded queue plus the workers draining it.
type Pool struct {
	queue   chan queueItem
	cache   Cache
	dryRun  bool
	sink    progress.Sink
	backoff BackoffConfig

	wg           sync.WaitGroup
	workerStates []atomic.Int32
	poolState    atomic.Int32

	mu   sync.Mutex
	errs []error
}

// New spawns cfg.Size workers and returns the running pool.
func New(cfg Config) *Pool {
	size := cfg.Size
	if size <= 0 {
		size = 2
	}
	queueCap := cfg.QueueCap
	if queueCap <= 0 {
		queueCap = 16
	}
	sink := cfg.Sink
	if sink == nil {
		sink = progress.NullSink{}
	}

	p := &Pool{
		queue:        make(chan queueItem, queueCap),
		cache:        cfg.Cache,
		dryRun:       cfg.DryRun,
		sink:         sink,
		workerStates: make([]atomic.Int32, size),
		backoff: BackoffConfig{
			MaxRepeat:   cfg.MaxRepeat,
			Start:       cfg.BackoffStart,
			Recoverable: cfg.Recoverable,
		},
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.runWorker(i)
	}
	return p
}

// Submit enqueues a work item, blocking while the queue is at capacity.
func (p *Pool) Submit(wi types.WorkItem) {
	p.queue <- queueItem{item: wi}
}

// Stop enqueues one sentinel per worker and waits for every worker to exit,
// returning the terminal errors of any workers that gave up. It is safe to
// call exactly once per pool.
func (p *Pool) Stop() []error {
	p.poolState.Store(int32(PoolDraining))
	for range p.workerStates {
		p.queue <- queueItem{sentinel: true}
	}
	p.wg.Wait()
	p.poolState.Store(int32(PoolStopped))

	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.errs...)
}

// State reports the pool's own lifecycle state.
func (p *Pool) State() PoolState {
	return PoolState(p.poolState.Load())
}

// WorkerState reports worker i's state machine position, for tests and
// diagnostics.
func (p *Pool) WorkerState(i int) State {
	return State(p.workerStates[i].Load())
}

func (p *Pool) setState(i int, s State) {
	p.workerStates[i].Store(int32(s))
}

// runWorker is the SeedWorker loop: dequeue, exit on sentinel, else render
// the batch through the cache under exponential backoff.
func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	p.setState(id, Idle)

	for qi := range p.queue {
		if qi.sentinel {
			p.setState(id, Stopped)
			return
		}

		p.setState(id, Working)
		if err := p.process(id, qi.item); err != nil {
			p.mu.Lock()
			p.errs = append(p.errs, fmt.Errorf("%s: %w", qi.item.SeedID, err))
			p.mu.Unlock()
			p.sink.Printf("worker %d: %s: giving up: %v", id, qi.item.SeedID, err)
			p.setState(id, Stopped)
			return
		}
		p.setState(id, Idle)
	}
	p.setState(id, Stopped)
}

func (p *Pool) process(id int, wi types.WorkItem) error {
	if p.dryRun {
		p.sink.Printf("[%s] %s dry-run: %d meta-tiles", time.Now().Format(time.TimeOnly), wi.SeedID, len(wi.MetaTiles))
		return nil
	}

	cfg := p.backoff
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		p.setState(id, Backoff)
		p.sink.Printf("%s retry %d/%d in %s: %v", wi.SeedID, attempt, cfg.withDefaults().MaxRepeat, delay, err)
	}

	return ExpBackoff(func() error {
		return p.cache.LoadTileCoords(wi.MetaTiles)
	}, cfg)
}
