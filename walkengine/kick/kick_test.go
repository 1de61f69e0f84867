package kick

import (
	"testing"

	"go.viam.com/test"
)

func TestDoneAfterSubStepCount(t *testing.T) {
	s := State{Variant: InstantForward, Index: 0}
	test.That(t, s.Done(), test.ShouldBeFalse)
	s.Index = SubStepCount(InstantForward)
	test.That(t, s.Done(), test.ShouldBeTrue)
}

func TestOverlayScalesByStrength(t *testing.T) {
	full := State{Variant: Forward, Index: 0, Strength: 1}
	half := State{Variant: Forward, Index: 0, Strength: 0.5}

	hipFull, _ := full.Overlay(1)
	hipHalf, _ := half.Overlay(1)
	test.That(t, hipHalf, test.ShouldEqual, hipFull/2)
}

func TestOverlayClampsTimeFraction(t *testing.T) {
	s := State{Variant: Forward, Index: 0, Strength: 1}
	atStart, _ := s.Overlay(-1)
	atZero, _ := s.Overlay(0)
	test.That(t, atStart, test.ShouldEqual, atZero)
}

func TestOverlayOutOfRangeIndexReturnsZero(t *testing.T) {
	s := State{Variant: Forward, Index: 99, Strength: 1}
	hip, ankle := s.Overlay(0.5)
	test.That(t, hip, test.ShouldEqual, 0)
	test.That(t, ankle, test.ShouldEqual, 0)
}
