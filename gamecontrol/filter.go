package gamecontrol

import (
	"time"

	"github.com/pejotejo/hulk/logging"
)

// next is the deterministic transition function described in spec.md
// §4.D "Algorithm". It is kept as a pure function of (state, inputs), per
// spec.md §9 ("State machines... Keep them that way; do not embed them in
// object-oriented class hierarchies").
func next(
	current TrackerState,
	gcPhase Phase,
	whistle bool,
	now time.Time,
	cfg Params,
	ballFarFromGoal bool,
	proceedFromStandby bool,
	motionInSetRecvd bool,
) TrackerState {
	switch current.Kind {
	case Initial:
		if gcPhase == PhaseReady {
			return TrackerState{Kind: Ready}
		}
		if gcPhase == PhaseStandby {
			return TrackerState{Kind: Standby}
		}
		return current

	case Ready:
		switch gcPhase {
		case PhaseSet:
			return TrackerState{Kind: Set}
		case PhasePlaying:
			return TrackerState{Kind: Playing}
		default:
			return current
		}

	case Set:
		if whistle {
			return TrackerState{Kind: WhistleInSet, Since: now}
		}
		if gcPhase == PhasePlaying {
			return TrackerState{Kind: Playing}
		}
		return current

	case WhistleInSet:
		if motionInSetRecvd {
			return TrackerState{Kind: Set}
		}
		if now.Sub(current.Since) >= cfg.PlayingMessageDelay+cfg.ControllerDelay {
			return TrackerState{Kind: Playing}
		}
		if gcPhase == PhasePlaying {
			return TrackerState{Kind: Playing}
		}
		return current

	case Playing:
		if whistle && !ballFarFromGoal {
			return TrackerState{Kind: WhistleInPlaying, Since: now}
		}
		if gcPhase == PhaseFinished {
			return TrackerState{Kind: TentativeFinished, Since: now}
		}
		return current

	case WhistleInPlaying:
		if gcPhase == PhaseFinished {
			return TrackerState{Kind: TentativeFinished, Since: now}
		}
		if now.Sub(current.Since) >= cfg.ReadyMessageDelay+cfg.ControllerDelay {
			return TrackerState{Kind: Playing}
		}
		return current

	case TentativeFinished:
		if gcPhase != PhaseFinished {
			// Tolerates a referee-box misclick: retracted Finished reverts to Playing.
			return TrackerState{Kind: Playing}
		}
		if now.Sub(current.Since) >= cfg.TentativeFinishDuration {
			return TrackerState{Kind: Finished}
		}
		return current

	case Finished:
		if gcPhase == PhaseReady {
			return TrackerState{Kind: Ready}
		}
		return current

	case Standby:
		if gcPhase != PhaseStandby {
			// The referee box moved on without ever raising the
			// proceed-to-ready flag; mirror its phase directly.
			return fromPhase(gcPhase)
		}
		if proceedFromStandby {
			return TrackerState{Kind: Ready}
		}
		return current

	default:
		return current
	}
}

// fromPhase maps a game-controller phase directly onto the corresponding
// tracker StateKind, for the Standby state's fallback exit when the
// referee box moves straight to another phase without a proceed-to-ready
// signal.
func fromPhase(p Phase) TrackerState {
	switch p {
	case PhaseInitial:
		return TrackerState{Kind: Initial}
	case PhaseReady:
		return TrackerState{Kind: Ready}
	case PhaseSet:
		return TrackerState{Kind: Set}
	case PhasePlaying:
		return TrackerState{Kind: Playing}
	case PhaseFinished:
		return TrackerState{Kind: Finished}
	default:
		return TrackerState{Kind: Standby}
	}
}

// Inputs bundles the per-cycle inputs to Filter.Step, per spec.md §4.D
// "Inputs".
type Inputs struct {
	GC                    GameControllerState
	Whistle               bool
	Now                   time.Time
	PlayerBall            *BallObservation
	RefereeKickingTeam    *Team // visual-referee free-kick-kicking-team hint, for KickIn attribution.
	ProceedFromStandby    bool
	MotionInSetPenaltyRcv bool
}

// FilteredGameControllerState is the Filter's per-cycle output snapshot,
// per spec.md §4.D "Outputs".
type FilteredGameControllerState struct {
	Own, Opponent     TrackerState
	KickingTeam       Team
	RemainingHalfTime time.Duration
	Phase             Phase
	SubState          SubState
	Penalties         []Penalty
	RemainingMessages int
	NewPenalties      map[Team][]Penalty
}

// Filter tracks own and opponent game states independently, per spec.md §3
// ("Two independent instances track own and opponent views").
type Filter struct {
	log logging.Logger
	cfg Params

	own, opponent TrackerState

	lastGC             GameControllerState
	lastBall           *BallObservation
	lastOwnPenalty     time.Time
	lastOpponentPenalty time.Time
	whistleInSetBallRef *BallObservation

	seenPenalties map[penaltyKey]struct{}
}

type penaltyKey struct {
	team Team
	at   time.Time
}

// New constructs a Filter with both trackers in Initial.
func New(log logging.Logger, cfg Params) *Filter {
	return &Filter{
		log:           log.Named("gamecontrol"),
		cfg:           cfg,
		own:           TrackerState{Kind: Initial},
		opponent:      TrackerState{Kind: Initial},
		seenPenalties: map[penaltyKey]struct{}{},
	}
}

// Step advances both trackers by one cycle and returns the filtered
// snapshot. now is neither clamped nor asserted to be monotonic: the timed
// states compare now.Sub(Since) against their delays, so a now earlier than
// a state's Since only postpones that state's timeout and never panics.
func (f *Filter) Step(in Inputs) FilteredGameControllerState {
	now := in.Now

	ballFar := ballFarFromGoal(in.PlayerBall, f.cfg)

	prevOwn, prevOpponent := f.own, f.opponent

	f.own = next(f.own, in.GC.Phase, in.Whistle, now, f.cfg, ballFar, in.ProceedFromStandby, in.MotionInSetPenaltyRcv)
	f.opponent = next(f.opponent, in.GC.Phase, in.Whistle, now, f.cfg, ballFar, in.ProceedFromStandby, in.MotionInSetPenaltyRcv)

	if prevOwn.Kind != f.own.Kind {
		f.log.Infow("own filtered game state transition", "from", prevOwn.Kind.String(), "to", f.own.Kind.String())
	}
	if prevOpponent.Kind != f.opponent.Kind {
		f.log.Infow("opponent filtered game state transition", "from", prevOpponent.Kind.String(), "to", f.opponent.Kind.String())
	}

	if f.own.Kind == WhistleInSet && prevOwn.Kind != WhistleInSet {
		f.whistleInSetBallRef = in.PlayerBall
	}

	newPenalties := map[Team][]Penalty{}
	for _, p := range in.GC.Penalties {
		key := penaltyKey{team: p.Team, at: p.At}
		if _, seen := f.seenPenalties[key]; seen {
			continue
		}
		f.seenPenalties[key] = struct{}{}
		newPenalties[p.Team] = append(newPenalties[p.Team], p)
		if p.Team == TeamOwn {
			f.lastOwnPenalty = p.At
		} else {
			f.lastOpponentPenalty = p.At
		}
	}

	f.lastGC = in.GC
	if in.PlayerBall != nil {
		f.lastBall = in.PlayerBall
	}

	kickingTeam := f.inferKickingTeam(in)

	return FilteredGameControllerState{
		Own:               f.own,
		Opponent:          f.opponent,
		KickingTeam:       kickingTeam,
		RemainingHalfTime: in.GC.RemainingHalfTime,
		Phase:             displayPhase(in.GC),
		SubState:          in.GC.SubState,
		Penalties:         in.GC.Penalties,
		RemainingMessages: in.GC.RemainingMessages,
		NewPenalties:      newPenalties,
	}
}

// displayPhase implements spec.md §4.D "Penalty-shoot phase overrides
// Finished display as Set": the underlying FSM still reaches Finished, but
// a penalty-shootout GC phase is displayed as Set.
func displayPhase(gc GameControllerState) Phase {
	if gc.PenaltyShootout && gc.Phase == PhaseFinished {
		return PhaseSet
	}
	return gc.Phase
}

// inferKickingTeam implements spec.md §4.D "Kicking-team inference".
func (f *Filter) inferKickingTeam(in Inputs) Team {
	ball := in.PlayerBall
	ballOnOwnHalf := ball != nil && ball.FieldX < 0

	switch in.GC.SubState {
	case SubStateCornerKick, SubStatePenaltyKick:
		// Awarded to the team on the opposite half of the ball.
		if ballOnOwnHalf {
			return TeamOpponent
		}
		return TeamOwn
	case SubStateGoalKick:
		// Awarded to the team on the same half as the ball.
		if ballOnOwnHalf {
			return TeamOwn
		}
		return TeamOpponent
	case SubStatePushingFreeKick:
		// Awarded to the team *other* than whoever was most recently
		// penalized, within DurationToKeepNewPenalties.
		ownRecentlyPenalized := !f.lastOwnPenalty.IsZero() && in.Now.Sub(f.lastOwnPenalty) <= f.cfg.DurationToKeepNewPenalties
		opponentRecentlyPenalized := !f.lastOpponentPenalty.IsZero() && in.Now.Sub(f.lastOpponentPenalty) <= f.cfg.DurationToKeepNewPenalties
		switch {
		case ownRecentlyPenalized && !opponentRecentlyPenalized:
			return TeamOpponent
		case opponentRecentlyPenalized && !ownRecentlyPenalized:
			return TeamOwn
		default:
			if f.lastOwnPenalty.After(f.lastOpponentPenalty) {
				return TeamOpponent
			}
			return TeamOwn
		}
	case SubStateKickIn:
		if in.RefereeKickingTeam != nil {
			return *in.RefereeKickingTeam
		}
		if ballOnOwnHalf {
			return TeamOwn
		}
		return TeamOpponent
	default:
		// Plain Playing without sub-state and with a whistle: attribute by
		// ball half.
		if ballOnOwnHalf {
			return TeamOwn
		}
		return TeamOpponent
	}
}
