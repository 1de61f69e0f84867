package motionselect

import (
	"testing"

	"go.viam.com/test"

	"github.com/pejotejo/hulk/logging"
)

// Scenario 5 from spec.md §8: Last motion Stand, requested SitDown,
// safe-to-exit true, ground-contact true.
func TestDispatchingGatesStandToSitDown(t *testing.T) {
	log := logging.NewTest()
	s := New(log)
	s.current = Stand

	next := s.Step(Request{
		Desired:       SitDown,
		SafeExits:     MotionSafeExits{Stand: true},
		GroundContact: true,
	})
	test.That(t, next, test.ShouldEqual, Dispatching)

	next = s.Step(Request{
		Desired:       SitDown,
		SafeExits:     MotionSafeExits{Dispatching: true},
		GroundContact: true,
	})
	test.That(t, next, test.ShouldEqual, SitDown)
}

func TestFallProtectionDoesNotPreemptStandUp(t *testing.T) {
	log := logging.NewTest()
	s := New(log)
	s.current = StandUpFront

	next := s.Step(Request{Desired: FallProtection})
	test.That(t, next, test.ShouldEqual, StandUpFront)
}

func TestFallProtectionPreemptsWalk(t *testing.T) {
	log := logging.NewTest()
	s := New(log)
	s.current = Walk

	next := s.Step(Request{Desired: FallProtection})
	test.That(t, next, test.ShouldEqual, FallProtection)
}

func TestWalkWideStanceFastPath(t *testing.T) {
	log := logging.NewTest()
	s := New(log)
	s.current = Walk

	next := s.Step(Request{Desired: WideStance, SafeExits: MotionSafeExits{Walk: true}})
	test.That(t, next, test.ShouldEqual, WideStance)
}

func TestUnstiffGoesThroughSitDownWithGroundContact(t *testing.T) {
	log := logging.NewTest()
	s := New(log)
	s.current = Stand

	next := s.Step(Request{Desired: Unstiff, GroundContact: true})
	test.That(t, next, test.ShouldEqual, SitDown)

	next = s.Step(Request{Desired: Unstiff, GroundContact: true, SafeExits: MotionSafeExits{SitDown: true}})
	test.That(t, next, test.ShouldEqual, Unstiff)
}

func TestUnstiffImmediateWithoutGroundContact(t *testing.T) {
	log := logging.NewTest()
	s := New(log)
	s.current = Walk

	next := s.Step(Request{Desired: Unstiff, GroundContact: false})
	test.That(t, next, test.ShouldEqual, Unstiff)
}

func TestStandUpCountResetsOnStableMotion(t *testing.T) {
	log := logging.NewTest()
	s := New(log)
	s.current = StandUpFront
	s.standUpCount = 3

	s.setCurrent(Stand)
	test.That(t, s.StandUpCount(), test.ShouldEqual, 0)
}
