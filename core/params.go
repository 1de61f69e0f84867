package core

import (
	"github.com/pejotejo/hulk/ballfilter"
	"github.com/pejotejo/hulk/behavior"
	"github.com/pejotejo/hulk/config"
	"github.com/pejotejo/hulk/gamecontrol"
	"github.com/pejotejo/hulk/stepplan"
	"github.com/pejotejo/hulk/walkengine"
)

// Params bundles every component's configuration, decoded from the
// path-addressable parameter tree of spec.md §6 "Persisted state".
// Decoding happens once at startup; a decode failure is a configuration
// error, fatal at startup only, per spec.md §7.
type Params struct {
	PlayerNumber int

	BallFilter  ballfilter.Params
	GameControl gamecontrol.Params
	Behavior    behavior.Params
	StepPlan    stepplan.Params
	WalkEngine  walkengine.Params

	// BallProcessNoiseDiag is the diagonal of the 4x4 process-noise matrix
	// added in ballfilter.Predict each cycle.
	BallProcessNoiseDiag [4]float64

	// BallMeasurementVarianceDiag is the diagonal of the 2x2 measurement
	// covariance used when no per-detection covariance is supplied.
	BallMeasurementVarianceDiag [2]float64

	// SoleHalfLength/SoleHalfWidth describe the foot-sole outline rectangle
	// used to build the Catching stability polygon.
	SoleHalfLength float64
	SoleHalfWidth  float64

	// ZMPGain converts IMU lean angle (radians) into an estimated ZMP
	// displacement (meters) in the Walk frame; a coarse approximation since
	// a true ZMP estimator is an external collaborator out of scope here.
	ZMPGain float64
}

// LoadParams decodes every component's parameters from tree, per spec.md
// §6. Each sub-path decode failure is a configuration error and is
// returned to the caller for fatal-at-startup handling, per spec.md §7.
func LoadParams(tree *config.Tree) (Params, error) {
	var p Params

	if err := tree.Decode("core.player_number", &p.PlayerNumber); err != nil {
		return p, err
	}
	if err := tree.Decode("ball_filter", &p.BallFilter); err != nil {
		return p, err
	}
	if err := tree.Decode("game_control", &p.GameControl); err != nil {
		return p, err
	}
	if err := tree.Decode("behavior", &p.Behavior); err != nil {
		return p, err
	}
	if err := tree.Decode("step_plan", &p.StepPlan); err != nil {
		return p, err
	}
	if err := tree.Decode("walk_engine", &p.WalkEngine); err != nil {
		return p, err
	}
	if err := tree.Decode("ball_filter.process_noise_diag", &p.BallProcessNoiseDiag); err != nil {
		return p, err
	}
	if err := tree.Decode("ball_filter.measurement_variance_diag", &p.BallMeasurementVarianceDiag); err != nil {
		return p, err
	}
	if err := tree.Decode("core.sole_half_length", &p.SoleHalfLength); err != nil {
		return p, err
	}
	if err := tree.Decode("core.sole_half_width", &p.SoleHalfWidth); err != nil {
		return p, err
	}
	if err := tree.Decode("core.zmp_gain", &p.ZMPGain); err != nil {
		return p, err
	}

	return p, nil
}
