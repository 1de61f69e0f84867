package stepplan

import (
	"math"

	"github.com/pejotejo/hulk/logging"
	"github.com/pejotejo/hulk/spatial"
)

// SpeedMode selects which delta is applied to the base MaxStepSize, per
// spec.md §4.G "Speed modes".
type SpeedMode int

const (
	SpeedNormal SpeedMode = iota
	SpeedSlow
	SpeedFast
)

// SupportSide is the foot currently bearing weight, used to resolve the
// asymmetric turn bounds of spec.md §4.G "Turn bounds".
type SupportSide int

const (
	SupportUnknown SupportSide = iota
	SupportLeft
	SupportRight
)

// OrientationMode selects how the target orientation is derived, per
// spec.md §4.G "Orientation".
type OrientationMode int

const (
	OrientAlignWithPath OrientationMode = iota
	OrientOverride
)

// Params configures the planner, per spec.md §4.G.
type Params struct {
	MaxStepSize          MaxStepSize
	MaxStepSizeBackwards float64
	SlowDelta            MaxStepSize // added (typically negative) to MaxStepSize for SpeedSlow.
	FastDelta            MaxStepSize // added to MaxStepSize for SpeedFast.

	InsideTurnMax  float64 // tighter bound: turn away from the support foot.
	OutsideTurnMax float64 // looser bound: turn toward the support foot.

	InitialSideBonus float64
	Volume           VolumeParams

	// Leg-temperature hysteresis, per spec.md §4.G: Fast degrades to Normal
	// above LegHotEnterC and stays degraded until the leg cools below
	// LegHotExitC.
	LegHotEnterC float64
	LegHotExitC  float64
}

// Request bundles one cycle's planning inputs.
type Request struct {
	Path                []spatial.Segment
	Orientation         OrientationMode
	OverrideOrientation float64 // radians, in UpcomingSupport, used when Orientation == OrientOverride.
	Speed               SpeedMode
	Support             SupportSide
	LegTemperatureC     float64
}

// Planner holds the hysteresis and initial-side-bonus state that persists
// across cycles, per spec.md §4.G.
type Planner struct {
	log      logging.Logger
	params   Params
	lastStep Step
	legHot   bool
}

// New constructs a Planner.
func New(log logging.Logger, params Params) *Planner {
	return &Planner{log: log.Named("stepplan"), params: params}
}

// effectiveMaxStepSize resolves the speed-mode-adjusted, temperature-
// throttled walk volume bounds for this cycle. The support-side turn bound
// is applied separately, by turnBound in Plan.
func (p *Planner) effectiveMaxStepSize(req Request) MaxStepSize {
	if req.LegTemperatureC >= p.params.LegHotEnterC {
		p.legHot = true
	} else if req.LegTemperatureC <= p.params.LegHotExitC {
		p.legHot = false
	}

	speed := req.Speed
	if speed == SpeedFast && p.legHot {
		speed = SpeedNormal
	}

	base := p.params.MaxStepSize
	switch speed {
	case SpeedSlow:
		base.Forward += p.params.SlowDelta.Forward
		base.Left += p.params.SlowDelta.Left
		base.Turn += p.params.SlowDelta.Turn
	case SpeedFast:
		base.Forward += p.params.FastDelta.Forward
		base.Left += p.params.FastDelta.Left
		base.Turn += p.params.FastDelta.Turn
	}

	return base
}

// turnBound resolves the side-appropriate turn magnitude bound for a
// requested turn direction, per spec.md §4.G "Turn bounds": the inside turn
// (away from the support foot) is limited more tightly than the outside
// turn; symmetric bounds apply when the support side is unknown.
func (p *Planner) turnBound(turn float64, support SupportSide) float64 {
	if support == SupportUnknown {
		return p.params.MaxStepSize.Turn
	}
	// Convention: a positive turn rotates the swing foot toward the support
	// foot's side on SupportLeft (outside turn, looser bound); away from it
	// on SupportRight (inside turn, tighter bound). Symmetric otherwise.
	isInside := (support == SupportLeft && turn < 0) || (support == SupportRight && turn > 0)
	if isInside {
		return p.params.InsideTurnMax
	}
	return p.params.OutsideTurnMax
}

// Plan converts a walk command + path into a clamped Step, per spec.md
// §4.G.
func (p *Planner) Plan(req Request) (Step, bool) {
	target, tx, ty, ok := spatial.Truncate(req.Path, p.maxForward())
	if !ok {
		p.log.Warnw("step planner received an empty path")
		return Step{}, false
	}

	var theta float64
	switch req.Orientation {
	case OrientOverride:
		theta = req.OverrideOrientation
	default:
		theta = angleOf(tx, ty)
	}

	maxSize := p.effectiveMaxStepSize(req)

	forward := target.X()
	left := target.Y()

	if p.lastStep.isZero(1e-9) {
		left += p.params.InitialSideBonus
	}

	turnMax := p.turnBound(theta, req.Support)
	maxSize.Turn = turnMax

	if forward < 0 {
		maxSize.Forward = p.params.MaxStepSizeBackwards
	}

	clamped := ClampToWalkVolume(Step{Forward: forward, Left: left, Turn: theta}, maxSize, p.params.Volume)
	p.lastStep = clamped
	return clamped, true
}

func (p *Planner) maxForward() float64 {
	if p.params.MaxStepSize.Forward > p.params.MaxStepSizeBackwards {
		return p.params.MaxStepSize.Forward
	}
	return p.params.MaxStepSizeBackwards
}

func angleOf(x, y float64) float64 {
	if x == 0 && y == 0 {
		return 0
	}
	return math.Atan2(y, x)
}
