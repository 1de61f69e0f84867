// Package hardware defines the core's external collaborator contracts, per
// spec.md §6 "External interfaces" and §9 "Dynamic dispatch": each
// collaborator (vision, game-controller feed, actuator bus, team-message
// transport) is a capability record of function-valued fields rather than
// an interface hierarchy, consumed by latest-wins buffered-channel
// adapters that keep the single-threaded core from ever blocking on a
// slow producer or consumer, per spec.md §5 "External collaborators".
package hardware

import (
	"context"
	"time"

	goutils "go.viam.com/utils"

	"github.com/pejotejo/hulk/gamecontrol"
	"github.com/pejotejo/hulk/logging"
	"github.com/pejotejo/hulk/spatial"
)

// BallPercept is one vision-reported ball detection, per spec.md §6
// "Vision outputs": "detected ball percepts expressed as 2-D Gaussians in
// Ground".
type BallPercept struct {
	Mean      spatial.Point[spatial.Ground]
	Cov       [2][2]float64
	Timestamp time.Time
}

// RefereePoseKind is the vision pipeline's referee-signal classification,
// per spec.md §6 "Vision outputs".
type RefereePoseKind int

const (
	RefereePoseNone RefereePoseKind = iota
	RefereePoseReady
	RefereePoseStart
)

// VisionFrame bundles one vision cycle's outputs, per spec.md §6.
type VisionFrame struct {
	Balls           []BallPercept
	RefereePose     RefereePoseKind
	ImageTimestamp  time.Time
	HasImageMeta    bool
}

// JointCommand is one joint's actuator output, per spec.md §6 "Actuator
// bus": "(position, velocity, torque, kp, kd, weight ∈ [0,1])".
type JointCommand struct {
	Position float64
	Velocity float64
	Torque   float64
	KP, KD   float64
	Weight   float64 // blends internal-controller output with user output.
}

// JointFeedback is one joint's sensed state, per spec.md §6: "per-joint
// feedback (position, velocity, acceleration, torque)".
type JointFeedback struct {
	Position, Velocity, Acceleration, Torque float64
}

// IMUState is the body orientation/motion feedback, per spec.md §6.
type IMUState struct {
	Roll, Pitch, Yaw          float64
	AngularVelocity           [3]float64
	LinearAcceleration        [3]float64
}

// ActuatorFeedback is one cycle's readback from the actuator bus.
type ActuatorFeedback struct {
	Joints map[string]JointFeedback
	IMU    IMUState
}

// VisionReader is the capability record consumed by the core to obtain the
// latest vision frame, per spec.md §9 "Dynamic dispatch": "a capability
// record of function-valued fields consumed by the core".
type VisionReader struct {
	// Read returns the latest available frame and whether one was
	// available; it must never block.
	Read func() (VisionFrame, bool)
}

// GameControllerReader is the capability record for the referee-box feed,
// per spec.md §6 "Game-Controller feed": "missing updates are tolerated;
// the last value persists".
type GameControllerReader struct {
	Read func() (gamecontrol.GameControllerState, bool)
}

// ActuatorBus is the capability record for the joint command/feedback
// link, per spec.md §6 "Actuator bus".
type ActuatorBus struct {
	Write func(map[string]JointCommand) error
	Read  func() (ActuatorFeedback, bool)
}

// TeamMessageWriter is the capability record for the SPL wire transport,
// per spec.md §6 "Team messages": "the core neither retries nor
// acknowledges".
type TeamMessageWriter struct {
	Write func(encoded []byte) error
}

// LatestValue is a single-slot, latest-wins mailbox: non-blocking reads,
// overwriting writes, one reader and one writer, per spec.md §5 "External
// collaborators": "buffered single-value channels (latest-wins,
// non-blocking read on the core side)".
type LatestValue[T any] struct {
	ch chan T
}

// NewLatestValue constructs an empty single-slot mailbox.
func NewLatestValue[T any]() *LatestValue[T] {
	return &LatestValue[T]{ch: make(chan T, 1)}
}

// Set overwrites the mailbox's contents, dropping any unread prior value.
// This is the producer-side call, made from a worker goroutine.
func (l *LatestValue[T]) Set(v T) {
	for {
		select {
		case l.ch <- v:
			return
		default:
			select {
			case <-l.ch:
			default:
			}
		}
	}
}

// Get performs a non-blocking read, reporting whether a value was present.
// This is the core-side call; it never blocks.
func (l *LatestValue[T]) Get() (T, bool) {
	select {
	case v := <-l.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Worker spawns fn on its own goroutine via go.viam.com/utils.ManagedGo,
// matching the teacher's moveonglobe.go worker pattern, and returns a stop
// function draining it on the core's shutdown path (spec.md §5
// "Cancellation").
func Worker(ctx context.Context, log logging.Logger, name string, fn func(context.Context)) (stop func()) {
	cancelCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	goutils.ManagedGo(func() {
		fn(cancelCtx)
	}, func() {
		close(done)
	})
	return func() {
		cancel()
		<-done
		log.Infow("hardware worker stopped", "worker", name)
	}
}
