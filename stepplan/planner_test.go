package stepplan

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/pejotejo/hulk/logging"
	"github.com/pejotejo/hulk/spatial"
)

// Scenario 4 from spec.md §8: walk-volume clamp preserves orientation.
func TestClampPreservesOrientation(t *testing.T) {
	req := Step{Forward: 1.0, Left: 0.0, Turn: 0.4}
	max := MaxStepSize{Forward: 0.08, Left: 0.04, Turn: 0.5}
	vp := VolumeParams{TranslationExponent: 2, RotationExponent: 2}

	out := ClampToWalkVolume(req, max, vp)
	test.That(t, out.Forward, test.ShouldBeGreaterThan, 0)
	test.That(t, out.Left, test.ShouldEqual, 0)
	test.That(t, out.Turn, test.ShouldEqual, 0.4)

	vol := Volume(out.Forward/max.Forward, out.Left/max.Left, out.Turn/max.Turn, vp)
	test.That(t, vol, test.ShouldBeLessThanOrEqualTo, 1+1e-6)
}

// Invariant I3: clamp output always satisfies Volume(output) <= 1 + eps.
func TestClampInvariantAcrossRequests(t *testing.T) {
	max := MaxStepSize{Forward: 0.08, Left: 0.04, Turn: 0.5}
	vp := VolumeParams{TranslationExponent: 2, RotationExponent: 2}
	requests := []Step{
		{Forward: 0.2, Left: 0.2, Turn: 0.1},
		{Forward: -0.3, Left: 0.01, Turn: 0.6},
		{Forward: 0.01, Left: 0.2, Turn: 0.01},
		{Forward: 0, Left: 0, Turn: 0},
	}
	for _, req := range requests {
		out := ClampToWalkVolume(req, max, vp)
		vol := Volume(out.Forward/max.Forward, out.Left/max.Left, out.Turn/max.Turn, vp)
		test.That(t, vol, test.ShouldBeLessThanOrEqualTo, 1+1e-6)
	}
}

func testParams() Params {
	return Params{
		MaxStepSize:          MaxStepSize{Forward: 0.08, Left: 0.04, Turn: 0.5},
		MaxStepSizeBackwards: 0.04,
		SlowDelta:            MaxStepSize{Forward: -0.03, Left: -0.01, Turn: -0.1},
		FastDelta:            MaxStepSize{Forward: 0.02, Left: 0.01, Turn: 0.1},
		InsideTurnMax:        0.3,
		OutsideTurnMax:       0.5,
		InitialSideBonus:     0.01,
		Volume:               VolumeParams{TranslationExponent: 2, RotationExponent: 2},
		LegHotEnterC:         75,
		LegHotExitC:          70,
	}
}

func TestPlanTruncatesPathAndClamps(t *testing.T) {
	log := logging.NewTest()
	p := New(log, testParams())

	path := []spatial.Segment{
		{Start: spatial.NewPoint[spatial.Ground](0, 0), End: spatial.NewPoint[spatial.Ground](1, 0)},
	}
	step, ok := p.Plan(Request{Path: path, Support: SupportUnknown})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, step.Forward, test.ShouldBeGreaterThan, 0)
	test.That(t, step.Forward, test.ShouldBeLessThanOrEqualTo, testParams().MaxStepSize.Forward+1e-9)
}

func TestPlanEmptyPathFails(t *testing.T) {
	log := logging.NewTest()
	p := New(log, testParams())
	_, ok := p.Plan(Request{Path: nil})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestFastDegradesToNormalWhenLegHot(t *testing.T) {
	log := logging.NewTest()
	p := New(log, testParams())
	path := []spatial.Segment{
		{Start: spatial.NewPoint[spatial.Ground](0, 0), End: spatial.NewPoint[spatial.Ground](0.01, 0)},
	}

	_, _ = p.Plan(Request{Path: path, Speed: SpeedFast, LegTemperatureC: 76})
	test.That(t, p.legHot, test.ShouldBeTrue)

	eff := p.effectiveMaxStepSize(Request{Speed: SpeedFast, LegTemperatureC: 76})
	normal := testParams().MaxStepSize
	test.That(t, math.Abs(eff.Forward-normal.Forward) < 1e-9, test.ShouldBeTrue)
}
