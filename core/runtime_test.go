package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"github.com/pejotejo/hulk/behavior"
	"github.com/pejotejo/hulk/logging"
)

func TestRuntimeTicksCycleUntilContextCanceled(t *testing.T) {
	log := logging.NewTest()
	clk := clock.NewMock()
	cycle := New(log, testParams(), clk, Collaborators{})

	var ticks atomic.Int32
	snapshot := func(context.Context) SensorSnapshot {
		ticks.Add(1)
		return SensorSnapshot{Now: clk.Now(), Primary: behavior.PrimaryInitial}
	}

	rt := NewRuntime(log, cycle, snapshot).WithPeriod(2 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rt.Run(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, ticks.Load() > 1, test.ShouldBeTrue)
}

func TestRuntimeRunsAdditionalWorkersAlongsideTheTicker(t *testing.T) {
	log := logging.NewTest()
	clk := clock.NewMock()
	cycle := New(log, testParams(), clk, Collaborators{})

	snapshot := func(context.Context) SensorSnapshot {
		return SensorSnapshot{Now: clk.Now(), Primary: behavior.PrimaryInitial}
	}

	var workerStarted atomic.Bool
	worker := func(ctx context.Context) error {
		workerStarted.Store(true)
		<-ctx.Done()
		return ctx.Err()
	}

	rt := NewRuntime(log, cycle, snapshot, worker).WithPeriod(2 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_ = rt.Run(ctx)
	test.That(t, workerStarted.Load(), test.ShouldBeTrue)
}
