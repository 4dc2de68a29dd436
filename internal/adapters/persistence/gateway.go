// Package persistence turns in-memory store snapshots into durable
// bytes. Rapid mutation bursts are coalesced by a debounce window, and
// every actual write passes through a single-lane queue so the durable
// store never sees writes out of submission order.
package persistence

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/duelo/pkg/logger"
	"github.com/okian/duelo/pkg/metrics"
)

// Default gateway configuration constants.
const (
	defaultDebounce = 300 * time.Millisecond
	defaultQueueCap = 16
)

// State of the gateway's debounce machine.
type State int

// Gateway states. Schedule moves Idle to Pending or refreshes the
// Pending deadline; the timer firing moves Pending to Writing; the
// writer draining moves Writing back to Idle.
const (
	StateIdle State = iota
	StatePending
	StateWriting
)

// Storage is the durable byte sink behind the gateway.
type Storage interface {
	// Load returns the stored snapshot, or nil when none exists yet.
	Load(ctx context.Context) ([]byte, error)

	// Write durably replaces the stored snapshot.
	Write(ctx context.Context, data []byte) error
}

// SnapshotFunc produces the bytes to persist. It is called at write
// time, not schedule time, so the write reflects a single consistent
// point no matter how much mutation happened in between.
type SnapshotFunc func(ctx context.Context) ([]byte, error)

type job struct {
	data []byte
	done chan struct{}
}

// Gateway coalesces and serializes snapshot writes.
//
// Locking: mu guards only the timer and its generation, and nothing
// that holds it ever blocks. Enqueueing onto the bounded write lane
// happens under sendMu instead, so a saturated lane stalls the saver
// alone while State and ScheduleSave keep answering.
type Gateway struct {
	mu       sync.Mutex
	timer    *time.Timer
	timerGen uint64

	// sendMu serializes snapshot-and-enqueue, which both keeps the
	// lane in submission order and fences late enqueues against Close.
	sendMu sync.Mutex

	inFlight atomic.Int64
	closed   atomic.Bool

	debounce time.Duration
	snapshot SnapshotFunc
	storage  Storage

	jobs       chan job
	writerDone chan struct{}

	logger logger.Logger
}

// New creates a Gateway and starts its writer lane.
func New(storage Storage, snapshot SnapshotFunc, opts ...Option) *Gateway {
	g := &Gateway{
		debounce:   defaultDebounce,
		snapshot:   snapshot,
		storage:    storage,
		jobs:       make(chan job, defaultQueueCap),
		writerDone: make(chan struct{}),
		logger:     logger.Nop(),
	}

	for _, opt := range opts {
		opt(g)
	}

	go g.writer()

	return g
}

// State reports the debounce machine's current state.
func (g *Gateway) State() State {
	if g.inFlight.Load() > 0 {
		return StateWriting
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timer != nil {
		return StatePending
	}
	return StateIdle
}

// ScheduleSave requests a write after the debounce window. Calling it
// again while a write is pending refreshes the deadline rather than
// queuing a second write, so a burst of N calls yields one write after
// the burst quiesces.
func (g *Gateway) ScheduleSave() {
	if g.closed.Load() {
		return
	}
	metrics.RecordSaveScheduled()

	g.mu.Lock()
	defer g.mu.Unlock()

	// Recreate the timer rather than Reset it: a timer whose callback
	// already fired and is waiting to run would survive a Reset and
	// sneak a mid-burst write through. Bumping the generation makes
	// any such stale callback a no-op.
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timerGen++
	gen := g.timerGen
	g.timer = time.AfterFunc(g.debounce, func() { g.fire(gen) })
}

// fire runs when a debounce deadline passes. A stale generation means
// the deadline was refreshed or flushed after this timer was armed;
// the newer timer owns the write.
func (g *Gateway) fire(gen uint64) {
	g.mu.Lock()
	if gen != g.timerGen {
		g.mu.Unlock()
		return
	}
	g.timer = nil
	g.mu.Unlock()

	g.enqueue(nil)
}

// FlushNow cancels any pending debounce and writes immediately,
// waiting until this write (and everything queued before it) has hit
// durable storage. Used on shutdown.
func (g *Gateway) FlushNow(ctx context.Context) error {
	if g.closed.Load() {
		return ErrGatewayClosed
	}

	g.mu.Lock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.timerGen++
	g.mu.Unlock()

	done := make(chan struct{})
	g.enqueue(done)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue snapshots the store and hands the bytes to the writer lane.
// It never runs under mu, so a full lane blocks only the save being
// submitted, never state queries or further scheduling.
func (g *Gateway) enqueue(done chan struct{}) {
	g.sendMu.Lock()
	defer g.sendMu.Unlock()

	if g.closed.Load() {
		if done != nil {
			close(done)
		}
		return
	}

	data, err := g.snapshot(context.Background())
	if err != nil {
		g.logger.Error(context.Background(), "snapshot failed; skipping write", logger.Error(err))
		metrics.RecordSaveError()
		if done != nil {
			close(done)
		}
		return
	}
	g.inFlight.Add(1)
	g.jobs <- job{data: data, done: done}
}

// writer is the single write lane: one goroutine, strict FIFO, a new
// write waits for the prior write's completion. It never touches mu,
// so a slow or hung storage backend cannot wedge the rest of the
// gateway.
func (g *Gateway) writer() {
	defer close(g.writerDone)

	for j := range g.jobs {
		start := time.Now()
		err := g.storage.Write(context.Background(), j.data)
		metrics.RecordSaveLatency(float64(time.Since(start).Milliseconds()))

		if err != nil {
			// In-memory state stays the source of truth; the next
			// scheduled save will try again.
			metrics.RecordSaveError()
			g.logger.Error(context.Background(), "snapshot write failed", logger.Error(err), logger.Int("bytes", len(j.data)))
		} else {
			metrics.RecordSaveWrite()
			metrics.UpdateSnapshotBytes(len(j.data))
			g.logger.Debug(context.Background(), "snapshot written", logger.Int("bytes", len(j.data)))
		}

		if j.done != nil {
			close(j.done)
		}
		g.inFlight.Add(-1)
	}
}

// Close flushes outstanding state and stops the writer lane. The
// gateway is unusable afterwards.
func (g *Gateway) Close(ctx context.Context) error {
	err := g.FlushNow(ctx)

	if !g.closed.CompareAndSwap(false, true) {
		return err
	}

	g.mu.Lock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.timerGen++
	g.mu.Unlock()

	// Holding sendMu here guarantees no enqueue is mid-send when the
	// lane closes.
	g.sendMu.Lock()
	close(g.jobs)
	g.sendMu.Unlock()

	select {
	case <-g.writerDone:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}
