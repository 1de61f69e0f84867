package core

import (
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/pejotejo/hulk/config"
)

func buildTestTree() *config.Tree {
	tr := config.NewTree(config.Identity{BodyID: "body-1", HeadID: "head-1"}, nil)

	tr.Set("core.player_number", 7)
	tr.Set("core.sole_half_length", 0.05)
	tr.Set("core.sole_half_width", 0.03)
	tr.Set("core.zmp_gain", 0.1)

	tr.Set("ball_filter", map[string]interface{}{
		"VelocityDecay":     0.95,
		"ValidityBonus":     0.3,
		"ValidityDecay":     0.2,
		"MinValidity":       0.05,
		"HypothesisTimeout": int64(2 * time.Second),
		"FusionRadius":      0.3,
		"SeedVelocityVar":   4.0,
		"SeedValidity":      0.4,
	})
	tr.Set("ball_filter.process_noise_diag", []interface{}{0.01, 0.01, 0.1, 0.1})
	tr.Set("ball_filter.measurement_variance_diag", []interface{}{0.02, 0.02})

	tr.Set("game_control", map[string]interface{}{
		"PlayingMessageDelay":        int64(2 * time.Second),
		"ControllerDelay":            int64(500 * time.Millisecond),
		"ReadyMessageDelay":          int64(2 * time.Second),
		"TentativeFinishDuration":    int64(10 * time.Second),
		"DurationToKeepNewPenalties": int64(15 * time.Second),
		"FieldLength":                9.0,
		"GoalAcceptanceDistX":        0.2,
		"GoalAcceptanceDistY":        0.5,
	})

	tr.Set("behavior", map[string]interface{}{
		"ReachedX":           map[string]interface{}{"Min": -0.05, "Max": 0.05},
		"ReachedY":           map[string]interface{}{"Min": -0.05, "Max": 0.05},
		"ReachedTurn":        map[string]interface{}{"Min": -0.1, "Max": 0.1},
		"KickStartThreshold": int64(time.Second),
	})

	tr.Set("step_plan", map[string]interface{}{
		"MaxStepSize":          map[string]interface{}{"Forward": 0.08, "Left": 0.04, "Turn": 0.5},
		"MaxStepSizeBackwards": 0.04,
		"SlowDelta":            map[string]interface{}{"Forward": -0.03, "Left": -0.01, "Turn": -0.1},
		"FastDelta":            map[string]interface{}{"Forward": 0.02, "Left": 0.01, "Turn": 0.1},
		"InsideTurnMax":        0.3,
		"OutsideTurnMax":       0.6,
		"InitialSideBonus":     0.01,
		"Volume":               map[string]interface{}{"TranslationExponent": 2.0, "RotationExponent": 2.0},
		"LegHotEnterC":         70.0,
		"LegHotExitC":          60.0,
	})

	tr.Set("walk_engine", map[string]interface{}{
		"StepDuration":             int64(250 * time.Millisecond),
		"StartWeightShiftDuration": int64(200 * time.Millisecond),
		"KickSubStepDuration":      int64(100 * time.Millisecond),
		"SwingApexHeight":          0.02,
		"LegStiffnessWalking":      0.8,
		"LegStiffnessStanding":     0.6,
		"ArmStiffness":             0.4,
		"MaxTargetDistance":        0.1,
		"Dims": map[string]interface{}{
			"ThighLength": 0.1, "ShankLength": 0.1, "HipHeight": 0.2,
		},
		"Ranges": map[string]interface{}{
			"HipYawPitch": map[string]interface{}{"Min": -1.0, "Max": 1.0},
			"HipRoll":     map[string]interface{}{"Min": -1.0, "Max": 1.0},
			"HipPitch":    map[string]interface{}{"Min": -2.0, "Max": 2.0},
			"KneePitch":   map[string]interface{}{"Min": 0.0, "Max": 2.5},
			"AnklePitch":  map[string]interface{}{"Min": -1.5, "Max": 1.0},
			"AnkleRoll":   map[string]interface{}{"Min": -1.0, "Max": 1.0},
		},
	})

	return tr
}

func TestLoadParamsDecodesEveryComponent(t *testing.T) {
	p, err := LoadParams(buildTestTree())
	test.That(t, err, test.ShouldBeNil)

	test.That(t, p.PlayerNumber, test.ShouldEqual, 7)
	test.That(t, p.SoleHalfLength, test.ShouldEqual, 0.05)
	test.That(t, p.ZMPGain, test.ShouldEqual, 0.1)

	test.That(t, p.BallFilter.VelocityDecay, test.ShouldEqual, 0.95)
	test.That(t, p.BallFilter.HypothesisTimeout, test.ShouldEqual, 2*time.Second)
	test.That(t, p.BallProcessNoiseDiag, test.ShouldResemble, [4]float64{0.01, 0.01, 0.1, 0.1})
	test.That(t, p.BallMeasurementVarianceDiag, test.ShouldResemble, [2]float64{0.02, 0.02})

	test.That(t, p.GameControl.FieldLength, test.ShouldEqual, 9.0)
	test.That(t, p.Behavior.ReachedX.Min, test.ShouldEqual, -0.05)
	test.That(t, p.StepPlan.MaxStepSize.Forward, test.ShouldEqual, 0.08)
	test.That(t, p.WalkEngine.Dims.HipHeight, test.ShouldEqual, 0.2)
	test.That(t, p.WalkEngine.Ranges.KneePitch.Max, test.ShouldEqual, 2.5)
}

func TestLoadParamsReturnsErrorWhenPathMissing(t *testing.T) {
	tr := config.NewTree(config.Identity{}, nil)
	_, err := LoadParams(tr)
	test.That(t, err, test.ShouldNotBeNil)
}
