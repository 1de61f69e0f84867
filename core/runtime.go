package core

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pejotejo/hulk/logging"
)

// CyclePeriod is the fixed control-cycle tick, per spec.md §2: "a
// single-threaded, strictly periodic cooperative loop".
const CyclePeriod = 12 * time.Millisecond

// Runtime drives a Cycle on a fixed tick alongside its collaborator worker
// goroutines (vision poller, game-controller poller, team-message
// transport), stopping every one together on context cancellation, in the
// fan-out/fan-in shape of a synchronized group of workers.
type Runtime struct {
	log      logging.Logger
	cycle    *Cycle
	period   time.Duration
	snapshot func(context.Context) SensorSnapshot
	workers  []func(context.Context) error
}

// NewRuntime constructs a Runtime. snapshot builds one cycle's
// SensorSnapshot (component A, Sensor Intake); workers are additional
// collaborator goroutines to run for the Runtime's lifetime alongside the
// cycle ticker.
func NewRuntime(log logging.Logger, cycle *Cycle, snapshot func(context.Context) SensorSnapshot, workers ...func(context.Context) error) *Runtime {
	return &Runtime{
		log:      log.Named("runtime"),
		cycle:    cycle,
		period:   CyclePeriod,
		snapshot: snapshot,
		workers:  workers,
	}
}

// WithPeriod overrides the default cycle period, returning r for chaining.
func (r *Runtime) WithPeriod(d time.Duration) *Runtime {
	r.period = d
	return r
}

// Run starts every worker and the cycle ticker and blocks until ctx is
// canceled and every goroutine has drained, per spec.md §5 "Cancellation":
// "the core drains outputs and releases actuator control... before the
// process exits."
func (r *Runtime) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, w := range r.workers {
		w := w
		group.Go(func() error {
			return w(groupCtx)
		})
	}

	group.Go(func() error {
		return r.tick(groupCtx)
	})

	err := group.Wait()
	r.log.Infow("runtime stopped")
	return err
}

// tick runs the cooperative cycle loop until ctx is canceled, performing
// one final shutdown cycle (Unstiff dispatch) before returning, per
// spec.md §5.
func (r *Runtime) tick(ctx context.Context) error {
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.cycle.RequestShutdown()
			r.cycle.Step(r.snapshot(ctx))
			return ctx.Err()
		case <-ticker.C:
			r.cycle.Step(r.snapshot(ctx))
		}
	}
}
