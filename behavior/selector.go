// Package behavior implements the Behavior Selector of spec.md §4.E: a pure
// function from WorldState + parameters to a single high-level
// MotionCommand. It is deliberately side-effect free, per spec.md §9
// ("State machines... Keep them that way").
package behavior

import (
	"time"

	"github.com/pejotejo/hulk/spatial"
)

// PrimaryState mirrors the robot's externally-driven primary state, per
// spec.md §4.E priority rule 1.
type PrimaryState int

const (
	PrimaryUnstiff PrimaryState = iota
	PrimaryPenalized
	PrimaryInitial
	PrimaryReady
	PrimarySet
	PrimaryPlaying
	PrimaryFinished
)

// GroundOrientation reports which stand-up motion, if any, is needed, per
// spec.md §4.E priority rule 3.
type GroundOrientation int

const (
	GroundNone GroundOrientation = iota
	GroundBack
	GroundFront
	GroundSitting
)

// Side is the kicking/support foot side.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

// KickVariant mirrors spec.md §3 "Kick State".
type KickVariant int

const (
	KickForward KickVariant = iota
	KickTurn
	KickSide
	KickInstantForward
)

// KickDecision is one pre-scored candidate in-walk kick, per spec.md §4.E
// "kick decisions (pre-scored ordered candidates)".
type KickDecision struct {
	Pose     spatial.Pose[spatial.UpcomingSupport]
	Side     Side
	Variant  KickVariant
	Strength float64
}

// InstantKickDecision is a fast-reaction kick variant used by
// KickingRollingBall, per spec.md §4.E priority rule 4.
type InstantKickDecision struct {
	TimeToReachFoot time.Duration
	RampDirection   float64 // sign determines kicking side.
}

// WorldState bundles every input the selector considers, per spec.md §4.E.
type WorldState struct {
	Primary           PrimaryState
	FallDetected      bool
	GroundOrientation GroundOrientation

	BallPosition *spatial.Point[spatial.Ground]
	BallVelocity *spatial.Vector[spatial.Ground]
	BallLost     bool

	InstantKick *InstantKickDecision
	KickStepDuration time.Duration

	KickDecisions []KickDecision

	Path []spatial.Segment

	RemoteControl *RemoteControlInput
}

// RemoteControlInput is the joystick-like override of spec.md §4.E priority
// rule 6.
type RemoteControlInput struct {
	ForwardVelocity float64
	LeftVelocity    float64
	TurnVelocity    float64
}

// Band is a closed interval [Min, Max]; Contains uses closed containment
// intentionally per spec.md §9's Open Question ("closed interval
// containment on x, y, and turn independently; this is intentional and
// must be preserved").
type Band struct {
	Min, Max float64
}

// Contains reports whether v lies in [b.Min, b.Max].
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Params configures the selector's thresholds, per spec.md §4.E and the
// canonical KickingRollingBall rule set fixed in §9's Open Questions.
type Params struct {
	ReachedX, ReachedY, ReachedTurn Band

	KickStartThreshold time.Duration
}

// CommandKind is the tag of the MotionCommand sum type emitted by Select.
type CommandKind int

const (
	CommandUnstiff CommandKind = iota
	CommandPenalized
	CommandInitial
	CommandFallProtection
	CommandStandUpBack
	CommandStandUpFront
	CommandStandUpSitting
	CommandStand
	CommandWalk
	CommandInWalkKick
	CommandWalkWithVelocity
)

// MotionCommand is the Behavior Selector's single output per cycle, per
// spec.md §2 component E.
type MotionCommand struct {
	Kind CommandKind

	Path []spatial.Segment

	Kick *KickDecision

	Velocity RemoteControlInput

	// SearchHead is true when KickingRollingBall has lost the ball and
	// should sweep the head left/right searching, per the canonical rule
	// set fixed in spec.md §9.
	SearchHead bool
}

// Select implements the priority list of spec.md §4.E. First match wins.
func Select(w WorldState, p Params) MotionCommand {
	// 1. Unstiff / Penalized / Initial follow from PrimaryState.
	switch w.Primary {
	case PrimaryUnstiff:
		return MotionCommand{Kind: CommandUnstiff}
	case PrimaryPenalized:
		return MotionCommand{Kind: CommandPenalized}
	case PrimaryInitial:
		return MotionCommand{Kind: CommandInitial}
	}

	// 2. FallProtection when fall detector signals.
	if w.FallDetected {
		return MotionCommand{Kind: CommandFallProtection}
	}

	// 3. StandUp{Back,Front,Sitting} when on ground.
	switch w.GroundOrientation {
	case GroundBack:
		return MotionCommand{Kind: CommandStandUpBack}
	case GroundFront:
		return MotionCommand{Kind: CommandStandUpFront}
	case GroundSitting:
		return MotionCommand{Kind: CommandStandUpSitting}
	}

	// 4. KickingRollingBall: fire an InstantForward kick when the predicted
	// time-to-reach-foot, less the kick step duration, is within the
	// configured start threshold; otherwise stand and search, per the
	// canonical rule set fixed in spec.md §9.
	if w.InstantKick != nil {
		margin := w.InstantKick.TimeToReachFoot - w.KickStepDuration
		if margin < p.KickStartThreshold {
			side := SideRight
			if w.InstantKick.RampDirection < 0 {
				side = SideLeft
			}
			return MotionCommand{
				Kind: CommandInWalkKick,
				Kick: &KickDecision{Side: side, Variant: KickInstantForward, Strength: 1},
			}
		}
		return MotionCommand{Kind: CommandStand, SearchHead: w.BallLost}
	}

	// 5. General play: a pre-scored kick decision whose pose is within the
	// reached bands in the UpcomingSupport frame fires immediately; else
	// walk the planned path.
	for i := range w.KickDecisions {
		kd := w.KickDecisions[i]
		if p.ReachedX.Contains(kd.Pose.X) && p.ReachedY.Contains(kd.Pose.Y) && p.ReachedTurn.Contains(kd.Pose.Theta) {
			return MotionCommand{Kind: CommandInWalkKick, Kick: &kd}
		}
	}

	if len(w.Path) > 0 {
		return MotionCommand{Kind: CommandWalk, Path: w.Path}
	}

	// 6. RemoteControl override takes priority over the idle Stand fallback
	// once every autonomous kick/walk opportunity above has passed, matching
	// the teacher's pattern of an explicit manual-override escape hatch
	// placed last so a stale joystick input never preempts a live kick.
	if w.RemoteControl != nil {
		return MotionCommand{Kind: CommandWalkWithVelocity, Velocity: *w.RemoteControl}
	}

	return MotionCommand{Kind: CommandStand}
}
