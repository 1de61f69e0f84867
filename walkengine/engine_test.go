package walkengine

import (
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/pejotejo/hulk/logging"
	"github.com/pejotejo/hulk/spatial"
	"github.com/pejotejo/hulk/stepplan"
	"github.com/pejotejo/hulk/walkengine/kick"
)

func testParams() Params {
	wide := Range{Min: -2, Max: 2}
	return Params{
		StepDuration:             300 * time.Millisecond,
		StartWeightShiftDuration: 100 * time.Millisecond,
		KickSubStepDuration:      150 * time.Millisecond,
		SwingApexHeight:          0.02,
		LegStiffnessWalking:      0.9,
		LegStiffnessStanding:     0.6,
		ArmStiffness:             0.5,
		MaxTargetDistance:        0.05,
		Dims:                     Dimensions{ThighLength: 0.1, ShankLength: 0.1, HipHeight: 0.18},
		Ranges: JointMotionRanges{
			HipYawPitch: wide, HipRoll: wide, HipPitch: wide, KneePitch: wide, AnklePitch: wide, AnkleRoll: wide,
		},
	}
}

func square(half float64) []spatial.Point[spatial.Walk] {
	return []spatial.Point[spatial.Walk]{
		spatial.NewPoint[spatial.Walk](-half, -half),
		spatial.NewPoint[spatial.Walk](half, -half),
		spatial.NewPoint[spatial.Walk](half, half),
		spatial.NewPoint[spatial.Walk](-half, half),
	}
}

func TestStandingRemainsStandingWithoutStep(t *testing.T) {
	e := New(logging.NewTest(), testParams())
	out := e.Step(12*time.Millisecond, Command{Support: stepplan.SupportLeft, SupportSoleOutline: square(0.05), SwingSoleOutline: square(0.05)})
	test.That(t, e.Mode(), test.ShouldEqual, Standing)
	test.That(t, out.LeftStiffness, test.ShouldEqual, testParams().LegStiffnessStanding)
}

func TestStartingThenWalkingProgression(t *testing.T) {
	e := New(logging.NewTest(), testParams())
	step := stepplan.Step{Forward: 0.05, Left: 0, Turn: 0}
	cmd := Command{PlannedStep: &step, Support: stepplan.SupportLeft, SupportSoleOutline: square(0.05), SwingSoleOutline: square(0.05)}

	e.Step(12*time.Millisecond, cmd)
	test.That(t, e.Mode(), test.ShouldEqual, Starting)

	for i := 0; i < 20; i++ {
		e.Step(12*time.Millisecond, cmd)
	}
	test.That(t, e.Mode(), test.ShouldEqual, Walking)
}

func TestWalkingReturnsToStoppingThenStandingWhenIdle(t *testing.T) {
	e := New(logging.NewTest(), testParams())
	step := stepplan.Step{Forward: 0.05, Left: 0, Turn: 0}
	walkCmd := Command{PlannedStep: &step, Support: stepplan.SupportLeft, SupportSoleOutline: square(0.05), SwingSoleOutline: square(0.05)}

	for i := 0; i < 10; i++ {
		e.Step(12*time.Millisecond, walkCmd)
	}
	test.That(t, e.Mode(), test.ShouldEqual, Walking)

	idleCmd := Command{Support: e.support, SupportSoleOutline: square(0.05), SwingSoleOutline: square(0.05)}
	// 25 cycles of 12ms finish the current 300ms step, then Stopping lasts
	// another 300ms (25 cycles) before Standing.
	for i := 0; i < 60; i++ {
		e.Step(12*time.Millisecond, idleCmd)
		if e.Mode() == Standing {
			break
		}
	}
	test.That(t, e.Mode(), test.ShouldEqual, Standing)
}

func TestKickingAdvancesThroughSequenceAndReturnsToWalking(t *testing.T) {
	e := New(logging.NewTest(), testParams())
	e.mode = Walking
	e.support = stepplan.SupportRight

	k := &kick.State{Variant: kick.Forward, KickingSide: kick.Left, Strength: 1}
	cmd := Command{Kick: k, Support: stepplan.SupportRight, SupportSoleOutline: square(0.05), SwingSoleOutline: square(0.05)}

	e.Step(12*time.Millisecond, cmd)
	test.That(t, e.Mode(), test.ShouldEqual, Kicking)

	for i := 0; i < 60; i++ {
		e.Step(12*time.Millisecond, Command{Support: e.support, SupportSoleOutline: square(0.05), SwingSoleOutline: square(0.05)})
		if e.Mode() == Walking {
			break
		}
	}
	test.That(t, e.Mode(), test.ShouldEqual, Walking)
}

func TestCatchingEntersWhenZmpEscapesPolygon(t *testing.T) {
	e := New(logging.NewTest(), testParams())
	e.mode = Walking
	e.support = stepplan.SupportLeft

	farZMP := spatial.NewPoint[spatial.Walk](5, 5)
	cmd := Command{
		Support:            stepplan.SupportLeft,
		ZMP:                farZMP,
		SupportSoleOutline: square(0.05),
		SwingSoleOutline:   square(0.05),
	}

	e.Step(12*time.Millisecond, cmd)
	test.That(t, e.Mode(), test.ShouldEqual, Catching)
}

func TestClampFootPosePassesThroughTargetsWithinReach(t *testing.T) {
	p := testParams()
	f := FootPose{Forward: 0.1, Left: 0.05, Height: 0.02}
	test.That(t, p.clampFootPose(f), test.ShouldResemble, f)
}

func TestClampFootPoseScalesTargetsBeyondLegReach(t *testing.T) {
	p := testParams() // maxReach = ThighLength + ShankLength = 0.2.
	got := p.clampFootPose(FootPose{Forward: 0.4, Left: 0, Height: 0.03})
	test.That(t, got.Forward, test.ShouldAlmostEqual, 0.2)
	test.That(t, got.Left, test.ShouldAlmostEqual, 0)
	test.That(t, got.Height, test.ShouldAlmostEqual, 0.03)
}

func TestModeStringFirstLastAndUnknown(t *testing.T) {
	test.That(t, Standing.String(), test.ShouldEqual, "Standing")
	test.That(t, Stopping.String(), test.ShouldEqual, "Stopping")
	test.That(t, Mode(99).String(), test.ShouldEqual, "Unknown")
}
