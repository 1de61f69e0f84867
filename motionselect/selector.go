// Package motionselect implements the Motion Selector of spec.md §4.F: a
// dispatching state machine over MotionType that guarantees every
// cross-motion transition passes through Dispatching unless explicitly
// fast-pathed, per invariant I2.
package motionselect

import "github.com/pejotejo/hulk/logging"

// MotionType enumerates every motion primitive, per spec.md §3 "Motion
// Model".
type MotionType int

const (
	Animation MotionType = iota
	AnimationStiff
	ArmsUpSquat
	ArmsUpStand
	Dispatching
	FallProtection
	Initial
	JumpLeft
	JumpRight
	CenterJump
	Penalized
	SitDown
	Stand
	StandUpBack
	StandUpFront
	StandUpSitting
	Unstiff
	Walk
	WideStance
	KeeperJumpLeft
	KeeperJumpRight
)

func (m MotionType) String() string {
	names := [...]string{
		"Animation", "AnimationStiff", "ArmsUpSquat", "ArmsUpStand", "Dispatching",
		"FallProtection", "Initial", "JumpLeft", "JumpRight", "CenterJump", "Penalized",
		"SitDown", "Stand", "StandUpBack", "StandUpFront", "StandUpSitting", "Unstiff",
		"Walk", "WideStance", "KeeperJumpLeft", "KeeperJumpRight",
	}
	if int(m) < 0 || int(m) >= len(names) {
		return "Unknown"
	}
	return names[m]
}

// MotionSafeExits is the per-cycle scratch table described in spec.md §3
// ("A MotionSafeExits mapping from MotionType→bool tells the selector when
// a motion has reached a safe boundary to leave") and §5 ("Motion-safe-exits
// is a per-cycle scratch table owned by the motion selector and read by
// motion primitives"). Motion primitives populate their own entry each
// cycle; the selector reads only the entry for the currently active motion.
type MotionSafeExits map[MotionType]bool

func isStandUp(m MotionType) bool {
	return m == StandUpBack || m == StandUpFront || m == StandUpSitting
}

func isStableMotion(m MotionType) bool {
	return m == Stand || m == Walk || m == Initial || m == Penalized
}

// isFastPath reports whether (from, to) is one of the documented
// fast-path pairs of spec.md §4.F that bypass Dispatching.
func isFastPath(from, to MotionType) bool {
	pairs := [][2]MotionType{
		{Walk, WideStance}, {WideStance, Walk},
		{Walk, KeeperJumpLeft}, {KeeperJumpLeft, Walk},
		{Walk, KeeperJumpRight}, {KeeperJumpRight, Walk},
	}
	for _, p := range pairs {
		if p[0] == from && p[1] == to {
			return true
		}
	}
	return false
}

// Request bundles the Selector.Step inputs, per spec.md §4.F
// "parameterized by: the motion commanded by the behavior, whether the
// current motion reports safe to exit, and ground-contact".
type Request struct {
	Desired       MotionType
	SafeExits     MotionSafeExits
	GroundContact bool
	Airborne      bool
}

func (r Request) safeToExit(m MotionType) bool {
	return r.SafeExits[m]
}

// Selector is the Motion Selector's mutable state: the currently active
// motion and the stand-up counter of spec.md §4.F.
type Selector struct {
	log           logging.Logger
	current       MotionType
	standUpCount  int
}

// New constructs a Selector starting in Initial.
func New(log logging.Logger) *Selector {
	return &Selector{log: log.Named("motionselect"), current: Initial}
}

// Current returns the currently active motion.
func (s *Selector) Current() MotionType { return s.current }

// StandUpCount returns the number of stand-up entries since the last
// stable motion.
func (s *Selector) StandUpCount() int { return s.standUpCount }

func (s *Selector) setCurrent(m MotionType) {
	if m == s.current {
		return
	}
	s.log.Infow("motion transition", "from", s.current.String(), "to", m.String())
	s.current = m
	if isStandUp(m) {
		s.standUpCount++
	} else if isStableMotion(m) {
		s.standUpCount = 0
	}
}

// Step advances the selector by one cycle and returns the active motion,
// per spec.md §4.F "Key rules".
func (s *Selector) Step(req Request) MotionType {
	current := s.current

	// FallProtection overrides anything except a stand-up in progress,
	// which must run to completion, per spec.md §4.F.
	if req.Desired == FallProtection && !isStandUp(current) {
		s.setCurrent(FallProtection)
		return s.current
	}

	// Unstiff: immediate with no ground-contact; otherwise through SitDown
	// first, per spec.md §4.F.
	if req.Desired == Unstiff {
		if !req.GroundContact {
			s.setCurrent(Unstiff)
			return s.current
		}
		if current != SitDown {
			s.setCurrent(SitDown)
			return s.current
		}
		if req.safeToExit(SitDown) {
			s.setCurrent(Unstiff)
		}
		return s.current
	}

	// ArmsUpStand remains active while airborne, per spec.md §4.F.
	if current == ArmsUpStand && req.Airborne {
		return s.current
	}

	if current == req.Desired {
		// WideStance and KeeperJump are allowed to self-loop on a repeated
		// trigger while safe-to-exit, per spec.md §4.F; this is a no-op
		// since the current motion already matches.
		return s.current
	}

	if isFastPath(current, req.Desired) {
		s.setCurrent(req.Desired)
		return s.current
	}

	if current == Dispatching {
		if req.safeToExit(Dispatching) {
			s.setCurrent(req.Desired)
		}
		return s.current
	}

	// Generic cross-motion transition: release into Dispatching only once
	// the current motion reports safe-to-exit, per invariant I2.
	if req.safeToExit(current) {
		s.setCurrent(Dispatching)
	}
	return s.current
}
