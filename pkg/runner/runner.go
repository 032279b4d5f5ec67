// Package runner drives ballistic runs in batches on a background goroutine.
//
// Only one run is current at a time. Starting a run supersedes the previous
// one: its context is cancelled and, because every publish is checked
// against the run's generation, a superseded run can never overwrite the
// snapshot of its successor even if it is mid-batch when replaced.
package runner

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/rs/zerolog"

	"github.com/oxygene76/ballistics-client/internal/types"
	"github.com/oxygene76/ballistics-client/pkg/astronomy/ballistic"
	"github.com/oxygene76/ballistics-client/pkg/metrics"
)

// DefaultBatchSteps is the number of integration steps between publishes.
const DefaultBatchSteps = 5000

// Options controls batching
type Options struct {
	BatchSteps int
	MaxSteps   int // 0 = until impact
}

func (o Options) batch() int {
	if o.BatchSteps <= 0 {
		return DefaultBatchSteps
	}
	return o.BatchSteps
}

// budget returns the steps allowed in the next batch after done steps.
func (o Options) budget(done int) int {
	b := o.batch()
	if o.MaxSteps > 0 && o.MaxSteps-done < b {
		b = o.MaxSteps - done
	}
	return b
}

// Runner owns the current run.
type Runner struct {
	opts Options
	log  zerolog.Logger

	mu         sync.RWMutex
	generation uint64
	cancel     context.CancelFunc
	current    *types.RunSnapshot
	changed    chan struct{} // closed and replaced on every publish
	subs       map[int]chan types.RunSnapshot
	nextSub    int

	wg sync.WaitGroup
}

// New creates a runner with no run in flight.
func New(opts Options, log zerolog.Logger) *Runner {
	return &Runner{
		opts:    opts,
		log:     log.With().Str("component", "runner").Logger(),
		changed: make(chan struct{}),
		subs:    make(map[int]chan types.RunSnapshot),
	}
}

// RunID formats the id of the run with the given generation.
func RunID(generation uint64) string {
	return fmt.Sprintf("run-%d", generation)
}

func parseRunID(id string) (uint64, bool) {
	n, err := strconv.ParseUint(strings.TrimPrefix(id, "run-"), 10, 64)
	if err != nil || !strings.HasPrefix(id, "run-") || n == 0 {
		return 0, false
	}
	return n, true
}

// Start supersedes any current run and launches cfg. The initial snapshot is
// published before Start returns.
func (r *Runner) Start(cfg ballistic.LaunchConfig) string {
	r.mu.Lock()
	r.displaceLocked("superseded", false)

	r.generation++
	gen := r.generation
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	s := ballistic.New(cfg)
	now := time.Now()
	snap := types.RunSnapshot{
		ID:         RunID(gen),
		Generation: gen,
		Status:     types.StatusRunning,
		Config:     cfg,
		Info:       ballistic.Report(s),
		StartedAt:  now,
		UpdatedAt:  now,
	}
	r.publishLocked(snap)
	r.mu.Unlock()

	metrics.RunStarted()
	r.log.Info().
		Str("run", snap.ID).
		Float64("speed", cfg.Speed).
		Float64("height", cfg.Height).
		Float64("dt", cfg.DeltaTime).
		Msg("run started")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.drive(ctx, gen, s, snap)
	}()
	return snap.ID
}

// Stop supersedes the current run without starting another. The last
// snapshot stays readable with status stopped.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.displaceLocked("stopped", true) {
		r.generation++
	}
}

// displaceLocked cancels the current run and, if it was still in flight,
// counts it under outcome. With republish the last snapshot is published
// again with status stopped.
func (r *Runner) displaceLocked(outcome string, republish bool) bool {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.current == nil || r.current.Status.Terminal() {
		return false
	}

	snap := *r.current
	if republish {
		snap.Status = types.StatusStopped
		snap.UpdatedAt = time.Now()
		r.publishLocked(snap)
	}

	metrics.RunEnded(outcome, snap.Info.Time)
	metrics.RunIdle()
	r.log.Info().Str("run", snap.ID).Int("iterations", snap.Info.Iterations).Msg("run " + outcome)
	return true
}

// Close stops the current run and waits for its goroutine to exit.
func (r *Runner) Close() {
	r.Stop()
	r.wg.Wait()
}

func (r *Runner) drive(ctx context.Context, gen uint64, s *ballistic.State, snap types.RunSnapshot) {
	wall := time.Now()
	for {
		start := time.Now()
		steps := ballistic.Advance(s, r.opts.budget(s.Iterations()))
		metrics.RecordBatch(steps, time.Since(start))

		snap.Info = ballistic.Report(s)
		snap.Samples = s.Log()
		snap.LogLen = len(snap.Samples)
		snap.UpdatedAt = time.Now()
		switch {
		case s.Impact():
			snap.Status = types.StatusImpact
		case r.opts.MaxSteps > 0 && s.Iterations() >= r.opts.MaxSteps:
			snap.Status = types.StatusStepLimit
		}

		r.log.Debug().Str("run", snap.ID).Int("steps", steps).Int("iterations", snap.Info.Iterations).
			Float64("height", snap.Info.Height).Msg("batch")

		if !r.publish(gen, snap) {
			return
		}

		if snap.Status.Terminal() {
			metrics.RunEnded(string(snap.Status), snap.Info.Time)
			metrics.RunIdle()
			r.log.Info().
				Str("run", snap.ID).
				Str("status", string(snap.Status)).
				Int("iterations", snap.Info.Iterations).
				Float64("flight_time", snap.Info.Time).
				Dur("wall", time.Since(wall)).
				Msg("run finished")
			return
		}

		runtime.Gosched()
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// publish installs snap as current if gen is still the current generation.
func (r *Runner) publish(gen uint64, snap types.RunSnapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return false
	}
	if snap.Status.Terminal() {
		r.cancel = nil
	}
	r.publishLocked(snap)
	return true
}

func (r *Runner) publishLocked(snap types.RunSnapshot) {
	r.current = &snap
	close(r.changed)
	r.changed = make(chan struct{})

	for _, ch := range r.subs {
		// Latest wins: a slow subscriber only ever misses intermediate
		// snapshots.
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Current returns the latest snapshot, if any run was ever started.
func (r *Runner) Current() (types.RunSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return types.RunSnapshot{}, false
	}
	return *r.current, true
}

// Get returns the snapshot of run id. Only the current run is kept; older
// ids report ErrRunSuperseded.
func (r *Runner) Get(id string) (types.RunSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(id)
}

func (r *Runner) lookupLocked(id string) (types.RunSnapshot, error) {
	if r.current != nil && r.current.ID == id {
		return *r.current, nil
	}
	if gen, ok := parseRunID(id); ok && r.current != nil && gen < r.current.Generation {
		return types.RunSnapshot{}, errorsmod.Wrapf(types.ErrRunSuperseded, "%s replaced by %s", id, r.current.ID)
	}
	return types.RunSnapshot{}, errorsmod.Wrapf(types.ErrRunNotFound, "%s", id)
}

// Wait blocks until run id reaches a terminal status and returns its final
// snapshot.
func (r *Runner) Wait(ctx context.Context, id string) (types.RunSnapshot, error) {
	for {
		r.mu.RLock()
		snap, err := r.lookupLocked(id)
		changed := r.changed
		r.mu.RUnlock()

		if err != nil {
			return snap, err
		}
		if snap.Status.Terminal() {
			return snap, nil
		}

		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-changed:
		}
	}
}

// Subscribe returns a channel receiving every published snapshot, latest
// first if a run exists. The channel holds at most one pending snapshot.
// Call the returned function to unsubscribe; it closes the channel.
func (r *Runner) Subscribe() (<-chan types.RunSnapshot, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan types.RunSnapshot, 1)
	if r.current != nil {
		ch <- *r.current
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs, id)
			close(ch)
		})
	}
}

// RunSync drives cfg to completion on the calling goroutine. onBatch, if not
// nil, is called after every batch; returning an error aborts the run. The
// state is returned in every case, with ctx.Err() when cancelled.
func RunSync(ctx context.Context, cfg ballistic.LaunchConfig, opts Options, onBatch func(*ballistic.State) error) (*ballistic.State, error) {
	s := ballistic.New(cfg)
	for {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		start := time.Now()
		steps := ballistic.Advance(s, opts.budget(s.Iterations()))
		metrics.RecordBatch(steps, time.Since(start))

		if onBatch != nil {
			if err := onBatch(s); err != nil {
				return s, err
			}
		}

		if s.Impact() || (opts.MaxSteps > 0 && s.Iterations() >= opts.MaxSteps) {
			return s, nil
		}
	}
}
