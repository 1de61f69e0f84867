package hardware

import (
	"testing"

	"go.viam.com/test"
)

func TestLatestValueOverwritesUnreadEntry(t *testing.T) {
	lv := NewLatestValue[int]()
	lv.Set(1)
	lv.Set(2)

	v, ok := lv.Get()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 2)
}

func TestLatestValueGetWithoutSetReportsFalse(t *testing.T) {
	lv := NewLatestValue[int]()
	_, ok := lv.Get()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestLatestValueReadDrainsOnce(t *testing.T) {
	lv := NewLatestValue[string]()
	lv.Set("hello")

	first, ok := lv.Get()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, first, test.ShouldEqual, "hello")

	_, ok = lv.Get()
	test.That(t, ok, test.ShouldBeFalse)
}
