// Package gamecontrol implements the Game-State Filter of spec.md §4.D: a
// referee/whistle/penalty-aware state machine reconciling an external
// game-controller feed with local whistle detection and ball observations.
package gamecontrol

import "time"

// StateKind is the tag of TrackerState's sum type, per spec.md §3
// ("Game-State Filter State").
type StateKind int

const (
	Initial StateKind = iota
	Ready
	Set
	WhistleInSet
	Playing
	WhistleInPlaying
	TentativeFinished
	Finished
	Standby
)

func (k StateKind) String() string {
	switch k {
	case Initial:
		return "Initial"
	case Ready:
		return "Ready"
	case Set:
		return "Set"
	case WhistleInSet:
		return "WhistleInSet"
	case Playing:
		return "Playing"
	case WhistleInPlaying:
		return "WhistleInPlaying"
	case TentativeFinished:
		return "TentativeFinished"
	case Finished:
		return "Finished"
	case Standby:
		return "Standby"
	default:
		return "Unknown"
	}
}

// TrackerState is the per-team (own or opponent) filtered game state.
// WhistleInSet, WhistleInPlaying and TentativeFinished carry the timestamp
// at which they were entered (spec.md's "(tStamp)" variants); Since is the
// zero time for every other Kind.
type TrackerState struct {
	Kind  StateKind
	Since time.Time
}

// Phase is the external game-controller phase, per spec.md §4.D "Inputs".
type Phase int

const (
	PhaseInitial Phase = iota
	PhaseReady
	PhaseSet
	PhasePlaying
	PhaseFinished
	PhaseStandby
)

// SubState is the external game-controller sub-state used for
// kicking-team inference, per spec.md §4.D "Kicking-team inference".
type SubState int

const (
	SubStateNone SubState = iota
	SubStateCornerKick
	SubStatePenaltyKick
	SubStateGoalKick
	SubStatePushingFreeKick
	SubStateKickIn
)

// Team identifies own vs. opponent.
type Team int

const (
	TeamOwn Team = iota
	TeamOpponent
)

// Penalty records a single penalty event for kicking-team inference's
// "most recently penalized" rule and for the FilteredGameControllerState's
// new-penalties-this-cycle reporting.
type Penalty struct {
	Team Team
	At   time.Time
}

// GameControllerState is the external referee-box snapshot, per spec.md §6
// ("Game-Controller feed"). Missing updates are tolerated by the caller
// simply not calling Filter.Step with a new value; the last Filter.Step's
// inputs persist until replaced.
type GameControllerState struct {
	Phase             Phase
	SubState          SubState
	KickingTeam       *Team
	RemainingHalfTime time.Duration
	RemainingMessages int
	PenaltyShootout   bool
	Penalties         []Penalty
}

// BallObservation is the optional ball position used by the ball-half
// kicking-team heuristic and the false-whistle suppression rule.
type BallObservation struct {
	FieldX, FieldY float64
}

// Params configures the filter's timing and geometry, per spec.md §4.D.
type Params struct {
	PlayingMessageDelay        time.Duration
	ControllerDelay            time.Duration
	ReadyMessageDelay          time.Duration
	TentativeFinishDuration    time.Duration
	DurationToKeepNewPenalties time.Duration

	FieldLength           float64
	GoalAcceptanceDistX   float64
	GoalAcceptanceDistY   float64
}

// ballFarFromGoal reports whether ball is outside the goal-acceptance box
// around either goal line, per spec.md §8 scenario 2.
func ballFarFromGoal(ball *BallObservation, p Params) bool {
	if ball == nil {
		return true
	}
	halfLength := p.FieldLength / 2
	nearPositiveGoal := (halfLength-ball.FieldX) <= p.GoalAcceptanceDistX && absF(ball.FieldY) <= p.GoalAcceptanceDistY
	nearNegativeGoal := (ball.FieldX+halfLength) <= p.GoalAcceptanceDistX && absF(ball.FieldY) <= p.GoalAcceptanceDistY
	return !nearPositiveGoal && !nearNegativeGoal
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
