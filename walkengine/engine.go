package walkengine

import (
	"math"
	"time"

	"github.com/pejotejo/hulk/logging"
	"github.com/pejotejo/hulk/spatial"
	"github.com/pejotejo/hulk/stepplan"
	"github.com/pejotejo/hulk/walkengine/kick"
)

// Mode is the Walking Engine's leg mode, per spec.md §4.H.
type Mode int

const (
	Standing Mode = iota
	Starting
	Walking
	Kicking
	Catching
	Stopping
)

func (m Mode) String() string {
	names := [...]string{"Standing", "Starting", "Walking", "Kicking", "Catching", "Stopping"}
	if int(m) < 0 || int(m) >= len(names) {
		return "Unknown"
	}
	return names[m]
}

// FootPose is a swing or support foot target in the Walk frame: forward and
// lateral offset from the hip, and ground clearance height.
type FootPose struct {
	Forward, Left, Height float64
}

func (f FootPose) lerp(to FootPose, t float64) FootPose {
	return FootPose{
		Forward: f.Forward + t*(to.Forward-f.Forward),
		Left:    f.Left + t*(to.Left-f.Left),
		Height:  f.Height + t*(to.Height-f.Height),
	}
}

// Params configures the engine, per spec.md §4.H.
type Params struct {
	StepDuration            time.Duration
	StartWeightShiftDuration time.Duration
	KickSubStepDuration     time.Duration
	SwingApexHeight         float64

	LegStiffnessWalking  float64
	LegStiffnessStanding float64
	ArmStiffness         float64

	MaxTargetDistance float64

	Dims   Dimensions
	Ranges JointMotionRanges
}

// Command bundles one cycle's Walking Engine inputs.
type Command struct {
	PlannedStep *stepplan.Step // nil means idle (no step requested).
	Support     stepplan.SupportSide
	Kick        *kick.State

	ZMP                spatial.Point[spatial.Walk]
	SupportSoleOutline []spatial.Point[spatial.Walk]
	SwingSoleOutline   []spatial.Point[spatial.Walk]
}

// Output is the per-cycle joint command, per spec.md §6 "Actuator bus".
type Output struct {
	Left, Right             LegAngles
	LeftStiffness, RightStiffness float64
	ArmStiffness             float64
}

// Engine is the Walking Engine's mutable state.
type Engine struct {
	log    logging.Logger
	params Params

	mode         Mode
	subPhaseTime time.Duration

	support    stepplan.SupportSide
	startSwing FootPose
	endSwing   FootPose

	kickState *kick.State

	catchTarget              *FootPose
	catchDisplacement        spatial.Vector[spatial.Walk]
}

// New constructs an Engine starting in Standing.
func New(log logging.Logger, params Params) *Engine {
	return &Engine{log: log.Named("walkengine"), params: params, mode: Standing}
}

// Mode returns the engine's current leg mode.
func (e *Engine) Mode() Mode { return e.mode }

// Support returns the foot currently bearing weight, for the Step
// Planner's next-cycle support-side input.
func (e *Engine) Support() stepplan.SupportSide { return e.support }

// SwingEndTarget returns the current step's swing-foot end target, in the
// Walk frame, for building the Catching stability polygon.
func (e *Engine) SwingEndTarget() (forward, left float64) {
	return e.endSwing.Forward, e.endSwing.Left
}

func (e *Engine) setMode(m Mode) {
	if m == e.mode {
		return
	}
	e.log.Infow("walking engine mode transition", "from", e.mode.String(), "to", m.String())
	e.mode = m
	e.subPhaseTime = 0
}

func isZeroStep(s stepplan.Step) bool {
	const eps = 1e-6
	return abs(s.Forward) < eps && abs(s.Left) < eps && abs(s.Turn) < eps
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func kickMatchesSupport(k kick.State, support stepplan.SupportSide) bool {
	// The kicking foot must be the swing leg: the support side must be the
	// kicker's opposite foot, per spec.md §4.H "Walking → Kicking when kick
	// command present and support side matches kicker's opposite".
	if k.KickingSide == kick.Left {
		return support == stepplan.SupportRight
	}
	return support == stepplan.SupportLeft
}

func (e *Engine) beginStep(step stepplan.Step, support stepplan.SupportSide) {
	e.support = support
	e.startSwing = FootPose{}
	e.endSwing = FootPose{Forward: step.Forward, Left: step.Left, Height: 0}
}

// Step advances the engine by one cycle and returns the joint output, per
// spec.md §4.H.
func (e *Engine) Step(dt time.Duration, cmd Command) Output {
	e.subPhaseTime += dt

	switch e.mode {
	case Standing:
		if cmd.PlannedStep != nil && !isZeroStep(*cmd.PlannedStep) {
			e.beginStep(*cmd.PlannedStep, cmd.Support)
			e.setMode(Starting)
		}

	case Starting:
		if e.subPhaseTime >= e.params.StartWeightShiftDuration {
			e.setMode(Walking)
		}

	case Walking:
		if cmd.Kick != nil && kickMatchesSupport(*cmd.Kick, cmd.Support) {
			e.support = cmd.Support
			e.kickState = cmd.Kick
			e.setMode(Kicking)
			break
		}
		if CatchingPredicate(cmd.ZMP, cmd.SupportSoleOutline, cmd.SwingSoleOutline) {
			displaced := CatchTarget(cmd.ZMP, e.endSwing.asPoint(), cmd.SupportSoleOutline, cmd.SwingSoleOutline, e.params.MaxTargetDistance)
			newDisp := displaced.Sub(e.endSwing.asPoint())
			if e.mode != Catching || AcceptReentry(e.catchDisplacement, newDisp) {
				e.catchDisplacement = newDisp
				target := e.params.clampFootPose(FootPose{Forward: displaced.X(), Left: displaced.Y(), Height: e.endSwing.Height})
				e.catchTarget = &target
				e.setMode(Catching)
				break
			}
		}
		if e.subPhaseTime >= e.params.StepDuration {
			e.support = oppositeSide(e.support)
			if cmd.PlannedStep == nil {
				e.setMode(Stopping)
			} else {
				e.beginStep(*cmd.PlannedStep, cmd.Support)
				e.subPhaseTime = 0
			}
		}

	case Kicking:
		if e.kickState != nil {
			subStepFrac := e.subPhaseTime.Seconds() / e.params.KickSubStepDuration.Seconds()
			if subStepFrac >= 1 {
				e.kickState.Index++
				e.subPhaseTime = 0
				if e.kickState.Done() {
					e.kickState = nil
					e.setMode(Walking)
				}
			}
		} else {
			e.setMode(Walking)
		}

	case Catching:
		if e.subPhaseTime >= e.params.StepDuration {
			e.catchTarget = nil
			e.setMode(Walking)
		}

	case Stopping:
		if cmd.PlannedStep != nil && !isZeroStep(*cmd.PlannedStep) {
			e.beginStep(*cmd.PlannedStep, cmd.Support)
			e.setMode(Starting)
		} else if e.subPhaseTime >= e.params.StepDuration {
			e.setMode(Standing)
		}
	}

	return e.computeOutput()
}

func (f FootPose) asPoint() spatial.Point[spatial.Walk] {
	return spatial.NewPoint[spatial.Walk](f.Forward, f.Left)
}

// clampFootPose scales a horizontal swing target back to within the leg's
// physical reach before it hits two-link IK: ComputeLegAngles already caps
// leg length at thigh+shank (kinematics.go), but a target far beyond
// thigh+shank would otherwise be silently reshaped by that cap. Height
// passes through unclamped; only Forward/Left are scaled.
func (p Params) clampFootPose(f FootPose) FootPose {
	maxReach := p.Dims.ThighLength + p.Dims.ShankLength
	dist := math.Hypot(f.Forward, f.Left)
	if dist <= maxReach || dist == 0 {
		return f
	}
	scale := maxReach / dist
	return FootPose{Forward: f.Forward * scale, Left: f.Left * scale, Height: f.Height}
}

func oppositeSide(s stepplan.SupportSide) stepplan.SupportSide {
	switch s {
	case stepplan.SupportLeft:
		return stepplan.SupportRight
	case stepplan.SupportRight:
		return stepplan.SupportLeft
	default:
		return stepplan.SupportUnknown
	}
}

func (e *Engine) swingPhaseFraction() float64 {
	total := e.params.StepDuration.Seconds()
	if total <= 0 {
		return 1
	}
	t := e.subPhaseTime.Seconds() / total
	if t > 1 {
		t = 1
	}
	return t
}

func (e *Engine) currentSwingTarget() FootPose {
	if e.mode == Catching && e.catchTarget != nil {
		return *e.catchTarget
	}
	return e.endSwing
}

// computeOutput solves IK for both legs from the current mode's swing/
// support trajectory, overlays any active kick, clamps to anatomic ranges,
// and assigns stiffness per spec.md §4.H "Stiffness".
func (e *Engine) computeOutput() Output {
	t := e.swingPhaseFraction()
	swing := e.startSwing.lerp(e.currentSwingTarget(), t)
	// Parabolic ground clearance: peaks at mid-swing, zero at both ends.
	swing.Height = e.params.SwingApexHeight * 4 * t * (1 - t)

	support := FootPose{} // support foot stays planted at the origin of Walk.

	var swingAngles, supportAngles LegAngles
	swingAngles = ComputeLegAngles(swing.Forward, swing.Left, swing.Height, e.params.Dims)
	supportAngles = ComputeLegAngles(support.Forward, support.Left, support.Height, e.params.Dims)

	if e.mode == Kicking && e.kickState != nil {
		hipOff, ankleOff := e.kickState.Overlay(e.subPhaseTime.Seconds() / e.params.KickSubStepDuration.Seconds())
		swingAngles.HipPitch += hipOff
		swingAngles.AnklePitch += ankleOff
	}

	swingAngles = e.params.Ranges.Clamp(swingAngles)
	supportAngles = e.params.Ranges.Clamp(supportAngles)

	legStiffness := e.params.LegStiffnessStanding
	if e.mode == Walking || e.mode == Kicking || e.mode == Catching || e.mode == Starting {
		legStiffness = e.params.LegStiffnessWalking
	}

	out := Output{ArmStiffness: e.params.ArmStiffness, LeftStiffness: legStiffness, RightStiffness: legStiffness}
	if e.support == stepplan.SupportLeft {
		out.Left, out.Right = supportAngles, swingAngles
	} else {
		out.Left, out.Right = swingAngles, supportAngles
	}
	return out
}
