// Package core implements the Cycle orchestrator of spec.md §2 and §5: a
// single-threaded, strictly periodic cooperative loop wiring components
// A-I in dependency order, reading wall-clock once per cycle and
// publishing outputs atomically at cycle end. No error escapes a cycle,
// per spec.md §7; per-component failures degrade to safe defaults.
package core

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"github.com/pejotejo/hulk/ballfilter"
	"github.com/pejotejo/hulk/behavior"
	"github.com/pejotejo/hulk/gamecontrol"
	"github.com/pejotejo/hulk/hardware"
	"github.com/pejotejo/hulk/logging"
	"github.com/pejotejo/hulk/motionselect"
	"github.com/pejotejo/hulk/spatial"
	"github.com/pejotejo/hulk/stepplan"
	"github.com/pejotejo/hulk/teammsg"
	"github.com/pejotejo/hulk/walkengine"
	"github.com/pejotejo/hulk/walkengine/kick"
)

// SensorSnapshot bundles one cycle's Sensor Intake (component A), per
// spec.md §2: "Time-stamp a cycle; snapshot IMU, joint positions, joint
// temperatures, whistle flag."
type SensorSnapshot struct {
	Now time.Time

	IMU             hardware.IMUState
	LegTemperatureC float64

	WhistleDetected bool
	GroundContact   bool
	Airborne        bool
	FallDetected    bool

	GroundOrientation behavior.GroundOrientation
	Primary           behavior.PrimaryState

	RemoteControl         *behavior.RemoteControlInput
	Path                  []spatial.Segment
	ProceedFromStandby    bool
	MotionInSetPenaltyRcv bool
	RefereeKickingTeam    *gamecontrol.Team
}

// Cycle is the mutable state of the single cooperative control loop, per
// spec.md §2.
type Cycle struct {
	log   logging.Logger
	clock clock.Clock

	playerNumber     int
	soleHalfLength   float64
	soleHalfWidth    float64
	zmpGain          float64
	kickStepDuration time.Duration

	lastCycleStart time.Time
	lastGCState    gamecontrol.GameControllerState

	odometryIncrement func() spatial.Transform[spatial.Ground, spatial.Ground]
	groundToField     func() spatial.Transform[spatial.Ground, spatial.Field]

	ballFilter     *ballfilter.Filter
	gcFilter       *gamecontrol.Filter
	behaviorParams behavior.Params
	motionSelector *motionselect.Selector
	stepPlanner    *stepplan.Planner
	walkEngine     *walkengine.Engine

	processNoise  *mat.Dense
	measurementCov *mat.Dense

	vision      hardware.VisionReader
	gcReader    hardware.GameControllerReader
	actuatorBus hardware.ActuatorBus
	teamOutbox  *teammsg.Outbox

	shutdownRequested atomic.Bool
}

// Collaborators bundles the external-collaborator capability records a
// Cycle reads from and writes to, per spec.md §6.
type Collaborators struct {
	Vision      hardware.VisionReader
	GCReader    hardware.GameControllerReader
	ActuatorBus hardware.ActuatorBus
	TeamOutbox  *teammsg.Outbox

	// OdometryIncrement returns the incremental rigid transform from the
	// last cycle's Ground frame to the current one (component B).
	OdometryIncrement func() spatial.Transform[spatial.Ground, spatial.Ground]

	// GroundToField resolves the current Ground frame's pose in Field,
	// needed for game-state goal-distance checks and outbound team
	// messages. Self-localization is not otherwise specified by spec.md;
	// this keeps it an external collaborator like vision and the
	// game-controller feed.
	GroundToField func() spatial.Transform[spatial.Ground, spatial.Field]
}

func diag4x4(d [4]float64) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		d[0], 0, 0, 0,
		0, d[1], 0, 0,
		0, 0, d[2], 0,
		0, 0, 0, d[3],
	})
}

func diag2x2(d [2]float64) *mat.Dense {
	return mat.NewDense(2, 2, []float64{d[0], 0, 0, d[1]})
}

// New constructs a Cycle wired to its collaborators, starting every
// component from its zero/Initial state.
func New(log logging.Logger, params Params, clk clock.Clock, collab Collaborators) *Cycle {
	log = log.Named("core")
	return &Cycle{
		log:              log,
		clock:            clk,
		playerNumber:     params.PlayerNumber,
		soleHalfLength:   params.SoleHalfLength,
		soleHalfWidth:    params.SoleHalfWidth,
		zmpGain:          params.ZMPGain,
		kickStepDuration: params.WalkEngine.StepDuration,

		odometryIncrement: collab.OdometryIncrement,
		groundToField:     collab.GroundToField,

		ballFilter:     ballfilter.New(log, params.BallFilter),
		gcFilter:       gamecontrol.New(log, params.GameControl),
		behaviorParams: params.Behavior,
		motionSelector: motionselect.New(log),
		stepPlanner:    stepplan.New(log, params.StepPlan),
		walkEngine:     walkengine.New(log, params.WalkEngine),

		processNoise:   diag4x4(params.BallProcessNoiseDiag),
		measurementCov: diag2x2(params.BallMeasurementVarianceDiag),

		vision:      collab.Vision,
		gcReader:    collab.GCReader,
		actuatorBus: collab.ActuatorBus,
		teamOutbox:  collab.TeamOutbox,
	}
}

// Now returns the injected clock's current time, for the Sensor Intake
// collaborator to stamp a SensorSnapshot with the single wall-clock read
// of spec.md §5: "Wall-clock time is read once per cycle... re-reads are
// forbidden."
func (c *Cycle) Now() time.Time {
	return c.clock.Now()
}

// RequestShutdown arms the process-level shutdown token checked at the
// next cycle boundary, per spec.md §5 "Cancellation": the core drains
// outputs and releases actuator control by dispatching Unstiff through
// the motion selector.
func (c *Cycle) RequestShutdown() {
	c.shutdownRequested.Store(true)
}

func motionKindFor(kind behavior.CommandKind) motionselect.MotionType {
	switch kind {
	case behavior.CommandUnstiff:
		return motionselect.Unstiff
	case behavior.CommandPenalized:
		return motionselect.Penalized
	case behavior.CommandInitial:
		return motionselect.Initial
	case behavior.CommandFallProtection:
		return motionselect.FallProtection
	case behavior.CommandStandUpBack:
		return motionselect.StandUpBack
	case behavior.CommandStandUpFront:
		return motionselect.StandUpFront
	case behavior.CommandStandUpSitting:
		return motionselect.StandUpSitting
	case behavior.CommandStand:
		return motionselect.Stand
	case behavior.CommandWalk, behavior.CommandInWalkKick, behavior.CommandWalkWithVelocity:
		return motionselect.Walk
	default:
		return motionselect.Stand
	}
}

// computeSafeExits builds the per-cycle MotionSafeExits scratch table of
// spec.md §3/§5. Detailed sub-phase timers for most motion primitives are
// out of scope here (only the Walking Engine's leg mode machine is
// modeled in depth per spec.md §4.H); static/instantaneous motions report
// safe-to-exit immediately, Walk reports safe only outside a mid-step
// transient (Starting/Kicking/Catching), and Dispatching is always safe
// so that it behaves as the documented transitional interlude.
func (c *Cycle) computeSafeExits() motionselect.MotionSafeExits {
	exits := motionselect.MotionSafeExits{
		motionselect.Dispatching: true,
		motionselect.Unstiff:     true,
		motionselect.Penalized:   true,
		motionselect.Initial:     true,
		motionselect.Stand:       true,
		motionselect.SitDown:     c.walkEngine.Mode() == walkengine.Standing,
	}
	switch c.walkEngine.Mode() {
	case walkengine.Starting, walkengine.Kicking, walkengine.Catching:
		exits[motionselect.Walk] = false
	default:
		exits[motionselect.Walk] = true
	}
	return exits
}

func (c *Cycle) soleOutlines() (support, swing []spatial.Point[spatial.Walk]) {
	rect := func(cx, cy float64) []spatial.Point[spatial.Walk] {
		return []spatial.Point[spatial.Walk]{
			spatial.NewPoint[spatial.Walk](cx-c.soleHalfLength, cy-c.soleHalfWidth),
			spatial.NewPoint[spatial.Walk](cx+c.soleHalfLength, cy-c.soleHalfWidth),
			spatial.NewPoint[spatial.Walk](cx+c.soleHalfLength, cy+c.soleHalfWidth),
			spatial.NewPoint[spatial.Walk](cx-c.soleHalfLength, cy+c.soleHalfWidth),
		}
	}
	swingForward, swingLeft := c.walkEngine.SwingEndTarget()
	return rect(0, 0), rect(swingForward, swingLeft)
}

func (c *Cycle) zmpEstimate(imu hardware.IMUState) spatial.Point[spatial.Walk] {
	return spatial.NewPoint[spatial.Walk](imu.Pitch*c.zmpGain, imu.Roll*c.zmpGain)
}

// instantKickEstimate derives the KickingRollingBall predictor's
// time_to_reach_foot (behavior.Select's single-term margin against
// KickStartThreshold) from the selected ball hypothesis: the foot stands
// at the Ground origin,
// so time-to-reach is distance over closing speed, and the ball's lateral
// offset fixes the ramp direction (and so the kicking side). The upstream
// system this predictor was distilled from computes time_to_reach_foot in a
// separate subsystem outside the retrieved sources (see DESIGN.md); this is
// a from-scratch estimate grounded only in the Ball Hypothesis Filter's own
// output, not a port of that subsystem.
func instantKickEstimate(pos spatial.Point[spatial.Ground], vel spatial.Vector[spatial.Ground]) *behavior.InstantKickDecision {
	distance := pos.Distance(spatial.NewPoint[spatial.Ground](0, 0))
	if distance < 1e-6 {
		return nil
	}
	closingSpeed := -(pos.X()*vel.X() + pos.Y()*vel.Y()) / distance
	if closingSpeed <= 1e-3 {
		return nil
	}
	return &behavior.InstantKickDecision{
		TimeToReachFoot: time.Duration(distance / closingSpeed * float64(time.Second)),
		RampDirection:   pos.Y(),
	}
}

func kickVariantFor(v behavior.KickVariant) kick.Variant {
	switch v {
	case behavior.KickForward:
		return kick.Forward
	case behavior.KickTurn:
		return kick.Turn
	case behavior.KickSide:
		return kick.Side
	default:
		return kick.InstantForward
	}
}

func kickSideFor(s behavior.Side) kick.Side {
	if s == behavior.SideRight {
		return kick.Right
	}
	return kick.Left
}

// Step advances every component by one cycle and dispatches outputs.
// Step never returns an error: per-component failures are isolated,
// logged, and degrade to a safe default, matching spec.md §7's
// "propagation policy... the cycle loop itself is infallible".
func (c *Cycle) Step(snap SensorSnapshot) {
	now := snap.Now
	if c.lastCycleStart.IsZero() {
		c.lastCycleStart = now
	}
	dt := now.Sub(c.lastCycleStart)
	if dt < 0 {
		c.log.Warnw("negative cycle delta clamped to zero", "dt", dt)
		dt = 0
	}
	c.lastCycleStart = now

	var diag error

	// B. Odometry Integrator.
	increment := spatial.Identity[spatial.Ground, spatial.Ground]()
	if c.odometryIncrement != nil {
		increment = c.odometryIncrement()
	}
	groundToField := spatial.Identity[spatial.Ground, spatial.Field]()
	if c.groundToField != nil {
		groundToField = c.groundToField()
	}

	// C. Ball Hypothesis Filter.
	c.ballFilter.Predict(dt, increment, c.processNoise)
	if c.vision.Read != nil {
		if frame, ok := c.vision.Read(); ok {
			for _, b := range frame.Balls {
				cov := c.measurementCov
				if b.Cov != ([2][2]float64{}) {
					cov = mat.NewDense(2, 2, []float64{b.Cov[0][0], b.Cov[0][1], b.Cov[1][0], b.Cov[1][1]})
				}
				c.ballFilter.Update(b.Timestamp, b.Mean, cov)
			}
		}
	}
	c.ballFilter.MergeCandidates()
	c.ballFilter.Prune(dt, now)
	ballPoint, ballVel, _, ballOK := c.ballFilter.Selected()

	// D. Game-State Filter.
	if c.gcReader.Read != nil {
		if gc, ok := c.gcReader.Read(); ok {
			c.lastGCState = gc
		}
	}
	var playerBall *gamecontrol.BallObservation
	if ballOK {
		fieldBall := groundToField.Apply(ballPoint)
		playerBall = &gamecontrol.BallObservation{FieldX: fieldBall.X(), FieldY: fieldBall.Y()}
	}
	filteredGC := c.gcFilter.Step(gamecontrol.Inputs{
		GC:                    c.lastGCState,
		Whistle:               snap.WhistleDetected,
		Now:                   now,
		PlayerBall:            playerBall,
		RefereeKickingTeam:    snap.RefereeKickingTeam,
		ProceedFromStandby:    snap.ProceedFromStandby,
		MotionInSetPenaltyRcv: snap.MotionInSetPenaltyRcv,
	})

	// E. Behavior Selector.
	var ballPosPtr *spatial.Point[spatial.Ground]
	var ballVelPtr *spatial.Vector[spatial.Ground]
	var instantKick *behavior.InstantKickDecision
	if ballOK {
		ballPosPtr, ballVelPtr = &ballPoint, &ballVel
		if snap.Primary == behavior.PrimaryPlaying {
			instantKick = instantKickEstimate(ballPoint, ballVel)
		}
	}
	world := behavior.WorldState{
		Primary:           snap.Primary,
		FallDetected:      snap.FallDetected,
		GroundOrientation: snap.GroundOrientation,
		BallPosition:      ballPosPtr,
		BallVelocity:      ballVelPtr,
		BallLost:          !ballOK,
		InstantKick:       instantKick,
		KickStepDuration:  c.kickStepDuration,
		Path:              snap.Path,
		RemoteControl:     snap.RemoteControl,
	}
	cmd := behavior.Select(world, c.behaviorParams)
	if c.shutdownRequested.Load() {
		cmd = behavior.MotionCommand{Kind: behavior.CommandUnstiff}
	}

	// F. Motion Selector.
	desired := motionKindFor(cmd.Kind)
	active := c.motionSelector.Step(motionselect.Request{
		Desired:       desired,
		SafeExits:     c.computeSafeExits(),
		GroundContact: snap.GroundContact,
		Airborne:      snap.Airborne,
	})

	// G. Step Planner.
	var plannedStep *stepplan.Step
	if active == motionselect.Walk && len(cmd.Path) > 0 {
		step, ok := c.stepPlanner.Plan(stepplan.Request{
			Path:            cmd.Path,
			Support:         c.walkEngine.Support(),
			LegTemperatureC: snap.LegTemperatureC,
		})
		if ok {
			plannedStep = &step
		} else {
			diag = multierr.Append(diag, errors.New("step planner degraded to zero step: empty path"))
		}
	}

	// H. Walking Engine.
	var kickState *kick.State
	if cmd.Kind == behavior.CommandInWalkKick && cmd.Kick != nil {
		kickState = &kick.State{
			Variant:     kickVariantFor(cmd.Kick.Variant),
			KickingSide: kickSideFor(cmd.Kick.Side),
			Strength:    cmd.Kick.Strength,
		}
	}
	supportSole, swingSole := c.soleOutlines()
	walkOut := c.walkEngine.Step(dt, walkengine.Command{
		PlannedStep:        plannedStep,
		Support:            c.walkEngine.Support(),
		Kick:               kickState,
		ZMP:                c.zmpEstimate(snap.IMU),
		SupportSoleOutline: supportSole,
		SwingSoleOutline:   swingSole,
	})

	// I. Output Composer.
	if c.actuatorBus.Write != nil {
		if err := c.actuatorBus.Write(composeJointCommands(walkOut)); err != nil {
			diag = multierr.Append(diag, err)
		}
	}
	if c.teamOutbox != nil {
		msg := teammsg.HulkMessage{
			PlayerNumber:          c.playerNumber,
			PoseOnField:           groundToField.ApplyPose(spatial.NewPose[spatial.Ground](0, 0, 0)),
			RefereeSignalDetected: snap.WhistleDetected,
		}
		if ballOK {
			fieldBall := groundToField.Apply(ballPoint)
			msg.BallPositionOnField = &fieldBall
		}
		if err := c.teamOutbox.Send(msg); err != nil {
			diag = multierr.Append(diag, err)
		}
	}

	if diag != nil {
		c.log.Warnw("cycle diagnostics", "errors", diag, "own_state", filteredGC.Own.Kind.String(), "motion", active.String())
	}
}

func legJoints(a walkengine.LegAngles) map[string]float64 {
	return map[string]float64{
		"hip_yaw_pitch": a.HipYawPitch,
		"hip_roll":      a.HipRoll,
		"hip_pitch":     a.HipPitch,
		"knee_pitch":    a.KneePitch,
		"ankle_pitch":   a.AnklePitch,
		"ankle_roll":    a.AnkleRoll,
	}
}

func composeJointCommands(out walkengine.Output) map[string]hardware.JointCommand {
	cmds := map[string]hardware.JointCommand{}
	for joint, pos := range legJoints(out.Left) {
		cmds["left_"+joint] = hardware.JointCommand{Position: pos, KP: out.LeftStiffness, Weight: 1}
	}
	for joint, pos := range legJoints(out.Right) {
		cmds["right_"+joint] = hardware.JointCommand{Position: pos, KP: out.RightStiffness, Weight: 1}
	}
	return cmds
}

