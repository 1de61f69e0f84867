// Package walkengine implements the Walking Engine of spec.md §4.H: a leg
// mode machine (Standing, Starting, Walking, Kicking, Catching, Stopping)
// that advances sub-phase time by the last cycle duration and computes
// per-joint positions plus stiffness.
package walkengine

import "math"

// LegAngles is the per-joint output of inverse kinematics for one leg, per
// spec.md §6 "Actuator bus".
type LegAngles struct {
	HipYawPitch float64
	HipRoll     float64
	HipPitch    float64
	KneePitch   float64
	AnklePitch  float64
	AnkleRoll   float64
}

// Range is a closed joint-angle range, used by the anatomic clamp of
// spec.md §4.H "Anatomic clamping".
type Range struct {
	Min, Max float64
}

// Clamp restricts v into [r.Min, r.Max].
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// JointMotionRanges bounds every joint of one leg, per spec.md §4.H and §7
// ("inverse-kinematics out of range: ... walking engine clamps to joint
// limits").
type JointMotionRanges struct {
	HipYawPitch Range
	HipRoll     Range
	HipPitch    Range
	KneePitch   Range
	AnklePitch  Range
	AnkleRoll   Range
}

// Clamp restricts every field of a to the configured ranges.
func (r JointMotionRanges) Clamp(a LegAngles) LegAngles {
	return LegAngles{
		HipYawPitch: r.HipYawPitch.Clamp(a.HipYawPitch),
		HipRoll:     r.HipRoll.Clamp(a.HipRoll),
		HipPitch:    r.HipPitch.Clamp(a.HipPitch),
		KneePitch:   r.KneePitch.Clamp(a.KneePitch),
		AnklePitch:  r.AnklePitch.Clamp(a.AnklePitch),
		AnkleRoll:   r.AnkleRoll.Clamp(a.AnkleRoll),
	}
}

// Dimensions is the leg's link-length model for the 2-link sagittal-plane
// IK solver used by ComputeLegAngles.
type Dimensions struct {
	ThighLength float64
	ShankLength float64
	HipHeight   float64 // vertical distance from hip to ground when standing upright.
}

// ComputeLegAngles solves inverse kinematics for a foot target expressed
// relative to the hip, in the Walk frame: forward and left offsets, and
// height (ground clearance, positive = foot lifted off the ground). The
// sagittal plane (forward/height) is solved exactly with the standard
// 2-link law-of-cosines construction; the lateral offset is split evenly
// between hip roll and ankle roll so the foot sole stays parallel to the
// ground.
func ComputeLegAngles(forward, left, height float64, dims Dimensions) LegAngles {
	groundDrop := dims.HipHeight - height
	legLen := math.Hypot(forward, groundDrop)
	maxLen := dims.ThighLength + dims.ShankLength
	if legLen > maxLen {
		legLen = maxLen
	}
	if legLen < math.Abs(dims.ThighLength-dims.ShankLength) {
		legLen = math.Abs(dims.ThighLength-dims.ShankLength) + 1e-6
	}

	cosKnee := (dims.ThighLength*dims.ThighLength + dims.ShankLength*dims.ShankLength - legLen*legLen) /
		(2 * dims.ThighLength * dims.ShankLength)
	cosKnee = clampUnit(cosKnee)
	kneeInterior := math.Acos(cosKnee)
	kneePitch := math.Pi - kneeInterior

	// Angle from the hip-to-foot line to the thigh.
	cosHipOffset := (dims.ThighLength*dims.ThighLength + legLen*legLen - dims.ShankLength*dims.ShankLength) /
		(2 * dims.ThighLength * legLen)
	cosHipOffset = clampUnit(cosHipOffset)
	hipOffset := math.Acos(cosHipOffset)

	hipToFootAngle := math.Atan2(forward, groundDrop)
	hipPitch := hipToFootAngle + hipOffset
	// The ankle completes the sagittal triangle so the sole stays level.
	anklePitch := kneePitch - hipPitch

	lateralAngle := math.Atan2(left, groundDrop)
	hipRoll := lateralAngle / 2
	ankleRoll := lateralAngle / 2

	return LegAngles{
		HipYawPitch: 0,
		HipRoll:     hipRoll,
		HipPitch:    -hipPitch,
		KneePitch:   kneePitch,
		AnklePitch:  -anklePitch,
		AnkleRoll:   -ankleRoll,
	}
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
