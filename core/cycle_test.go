package core

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"github.com/pejotejo/hulk/ballfilter"
	"github.com/pejotejo/hulk/behavior"
	"github.com/pejotejo/hulk/gamecontrol"
	"github.com/pejotejo/hulk/hardware"
	"github.com/pejotejo/hulk/logging"
	"github.com/pejotejo/hulk/spatial"
	"github.com/pejotejo/hulk/stepplan"
	"github.com/pejotejo/hulk/teammsg"
	"github.com/pejotejo/hulk/walkengine"
)

func testParams() Params {
	return Params{
		PlayerNumber: 4,
		BallFilter: ballfilter.Params{
			VelocityDecay:     0.95,
			ValidityBonus:     0.3,
			ValidityDecay:     0.2,
			MinValidity:       0.05,
			HypothesisTimeout: 2 * time.Second,
			FusionRadius:      0.3,
			SeedVelocityVar:   4.0,
			SeedValidity:      0.4,
		},
		GameControl: gamecontrol.Params{
			PlayingMessageDelay:        2 * time.Second,
			ControllerDelay:            500 * time.Millisecond,
			ReadyMessageDelay:          2 * time.Second,
			TentativeFinishDuration:    10 * time.Second,
			DurationToKeepNewPenalties: 15 * time.Second,
			FieldLength:                9,
			GoalAcceptanceDistX:        0.2,
			GoalAcceptanceDistY:        0.5,
		},
		Behavior: behavior.Params{
			ReachedX:           behavior.Band{Min: -0.05, Max: 0.05},
			ReachedY:           behavior.Band{Min: -0.05, Max: 0.05},
			ReachedTurn:        behavior.Band{Min: -0.1, Max: 0.1},
			KickStartThreshold: time.Second,
		},
		StepPlan: stepplan.Params{
			MaxStepSize:          stepplan.MaxStepSize{Forward: 0.08, Left: 0.04, Turn: 0.5},
			MaxStepSizeBackwards: 0.04,
			SlowDelta:            stepplan.MaxStepSize{Forward: -0.03, Left: -0.01, Turn: -0.1},
			FastDelta:            stepplan.MaxStepSize{Forward: 0.02, Left: 0.01, Turn: 0.1},
			InsideTurnMax:        0.3,
			OutsideTurnMax:       0.6,
			InitialSideBonus:     0.01,
			Volume:               stepplan.VolumeParams{TranslationExponent: 2, RotationExponent: 2},
			LegHotEnterC:         70,
			LegHotExitC:          60,
		},
		WalkEngine: walkengine.Params{
			StepDuration:             250 * time.Millisecond,
			StartWeightShiftDuration: 200 * time.Millisecond,
			KickSubStepDuration:      100 * time.Millisecond,
			SwingApexHeight:          0.02,
			LegStiffnessWalking:      0.8,
			LegStiffnessStanding:     0.6,
			ArmStiffness:             0.4,
			MaxTargetDistance:        0.1,
			Dims:                     walkengine.Dimensions{ThighLength: 0.1, ShankLength: 0.1, HipHeight: 0.2},
			Ranges: walkengine.JointMotionRanges{
				HipYawPitch: walkengine.Range{Min: -1, Max: 1},
				HipRoll:     walkengine.Range{Min: -1, Max: 1},
				HipPitch:    walkengine.Range{Min: -2, Max: 2},
				KneePitch:   walkengine.Range{Min: 0, Max: 2.5},
				AnklePitch:  walkengine.Range{Min: -1.5, Max: 1},
				AnkleRoll:   walkengine.Range{Min: -1, Max: 1},
			},
		},
		BallProcessNoiseDiag:        [4]float64{0.01, 0.01, 0.1, 0.1},
		BallMeasurementVarianceDiag: [2]float64{0.02, 0.02},
		SoleHalfLength:              0.05,
		SoleHalfWidth:               0.03,
		ZMPGain:                     0.1,
	}
}

func TestStepWithNoCollaboratorsDoesNotPanic(t *testing.T) {
	log := logging.NewTest()
	clk := clock.NewMock()
	c := New(log, testParams(), clk, Collaborators{})

	test.That(t, func() { c.Step(SensorSnapshot{Now: clk.Now(), Primary: behavior.PrimaryInitial}) }, test.ShouldNotPanic)
}

func TestStepDispatchesActuatorCommandsWhenWired(t *testing.T) {
	log := logging.NewTest()
	clk := clock.NewMock()

	var lastCmds map[string]hardware.JointCommand
	collab := Collaborators{
		ActuatorBus: hardware.ActuatorBus{
			Write: func(cmds map[string]hardware.JointCommand) error {
				lastCmds = cmds
				return nil
			},
		},
	}
	c := New(log, testParams(), clk, collab)

	c.Step(SensorSnapshot{Now: clk.Now(), Primary: behavior.PrimaryInitial})
	clk.Add(10 * time.Millisecond)
	c.Step(SensorSnapshot{Now: clk.Now(), Primary: behavior.PrimaryInitial})

	test.That(t, lastCmds, test.ShouldNotBeNil)
	for _, joint := range []string{"hip_yaw_pitch", "hip_roll", "hip_pitch", "knee_pitch", "ankle_pitch", "ankle_roll"} {
		_, ok := lastCmds["left_"+joint]
		test.That(t, ok, test.ShouldBeTrue)
		_, ok = lastCmds["right_"+joint]
		test.That(t, ok, test.ShouldBeTrue)
	}
}

func TestStepSendsTeamMessageWhenOutboxWired(t *testing.T) {
	log := logging.NewTest()
	clk := clock.NewMock()

	var sent teammsg.HulkMessage
	sends := 0
	outbox := teammsg.NewOutbox(func(m teammsg.HulkMessage) error {
		sent = m
		sends++
		return nil
	})

	c := New(log, testParams(), clk, Collaborators{TeamOutbox: outbox})
	c.Step(SensorSnapshot{Now: clk.Now(), Primary: behavior.PrimaryInitial})

	test.That(t, sends, test.ShouldEqual, 1)
	test.That(t, sent.PlayerNumber, test.ShouldEqual, 4)
}

func TestStepToleratesMissingVisionAndGameControllerReads(t *testing.T) {
	log := logging.NewTest()
	clk := clock.NewMock()

	collab := Collaborators{
		Vision:   hardware.VisionReader{Read: func() (hardware.VisionFrame, bool) { return hardware.VisionFrame{}, false }},
		GCReader: hardware.GameControllerReader{Read: func() (gamecontrol.GameControllerState, bool) { return gamecontrol.GameControllerState{}, false }},
	}
	c := New(log, testParams(), clk, collab)

	test.That(t, func() { c.Step(SensorSnapshot{Now: clk.Now(), Primary: behavior.PrimaryPlaying}) }, test.ShouldNotPanic)
}

func TestRequestShutdownStillCompletesCycleWithoutPanic(t *testing.T) {
	log := logging.NewTest()
	clk := clock.NewMock()
	c := New(log, testParams(), clk, Collaborators{})
	c.RequestShutdown()

	test.That(t, func() { c.Step(SensorSnapshot{Now: clk.Now(), Primary: behavior.PrimaryPlaying}) }, test.ShouldNotPanic)
}

func TestInstantKickEstimateComputesTimeToReachFootWhenBallApproaches(t *testing.T) {
	pos := spatial.NewPoint[spatial.Ground](2, -1)
	vel := spatial.NewVector[spatial.Ground](-1, 0.5) // closing speed along -pos direction.

	got := instantKickEstimate(pos, vel)
	test.That(t, got, test.ShouldNotBeNil)
	test.That(t, got.RampDirection, test.ShouldEqual, -1.0)

	distance := pos.Distance(spatial.NewPoint[spatial.Ground](0, 0))
	closingSpeed := -(pos.X()*vel.X() + pos.Y()*vel.Y()) / distance
	wantSeconds := distance / closingSpeed
	test.That(t, got.TimeToReachFoot.Seconds(), test.ShouldAlmostEqual, wantSeconds, 1e-9)
}

func TestInstantKickEstimateReturnsNilWhenBallRecedes(t *testing.T) {
	pos := spatial.NewPoint[spatial.Ground](2, 0)
	vel := spatial.NewVector[spatial.Ground](1, 0) // moving away from the origin.

	test.That(t, instantKickEstimate(pos, vel), test.ShouldBeNil)
}

func TestNowReturnsInjectedClockTime(t *testing.T) {
	log := logging.NewTest()
	clk := clock.NewMock()
	c := New(log, testParams(), clk, Collaborators{})

	start := clk.Now()
	test.That(t, c.Now(), test.ShouldEqual, start)
	clk.Add(time.Second)
	test.That(t, c.Now(), test.ShouldEqual, start.Add(time.Second))
}
