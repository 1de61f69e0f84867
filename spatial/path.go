package spatial

import "math"

// Segment is one piece of a planned walk path, expressed in the Ground
// frame: either a straight line between two points, or a circular arc. Step
// Planner path truncation (spec.md §4.G) walks a sequence of Segments and
// stops once it has consumed max_step_size.forward of arclength.
type Segment struct {
	Start, End Point[Ground]
	// Radius is zero for a straight line; non-zero (signed, positive =
	// counter-clockwise) for an arc from Start to End.
	Radius float64
}

// Length returns the segment's arclength.
func (s Segment) Length() float64 {
	if s.Radius == 0 {
		return s.Start.Distance(s.End)
	}
	chord := s.Start.Distance(s.End)
	r := math.Abs(s.Radius)
	// chord = 2r sin(theta/2) => theta = 2 asin(chord/2r), clamped for
	// numerical safety when chord slightly exceeds 2r due to float error.
	ratio := chord / (2 * r)
	if ratio > 1 {
		ratio = 1
	}
	theta := 2 * math.Asin(ratio)
	return r * theta
}

// Tangent returns the unit tangent direction at the segment's start point,
// in the direction of travel.
func (s Segment) Tangent() (dx, dy float64) {
	if s.Radius == 0 {
		v := s.End.Sub(s.Start)
		n := v.Norm()
		if n == 0 {
			return 1, 0
		}
		return v.X() / n, v.Y() / n
	}
	// For an arc, the tangent is perpendicular to the radius vector from the
	// arc center to Start, rotated by the sign of curvature. Equivalently, it
	// is the chord direction turned by half the subtended angle, clockwise
	// for a counter-clockwise arc and counter-clockwise for a clockwise one.
	v := s.End.Sub(s.Start)
	n := v.Norm()
	if n == 0 {
		return 1, 0
	}
	ratio := n / (2 * math.Abs(s.Radius))
	if ratio > 1 {
		ratio = 1
	}
	half := math.Asin(ratio)
	if s.Radius > 0 {
		half = -half
	}
	cx, cy := v.X()/n, v.Y()/n
	c, sn := math.Cos(half), math.Sin(half)
	return c*cx - sn*cy, sn*cx + c*cy
}

// Truncate walks path (in order) and returns the point reached after
// traveling at most maxForward arclength, plus the start tangent of the
// segment that point lies on. When the whole path is shorter than
// maxForward, the returned point is the path's final endpoint. Truncate
// fails (ok=false) only when path is empty, per spec.md §4.G "failure when
// the path is empty".
func Truncate(path []Segment, maxForward float64) (target Point[Ground], tangentX, tangentY float64, ok bool) {
	if len(path) == 0 {
		return Point[Ground]{}, 0, 0, false
	}
	remaining := maxForward
	for _, seg := range path {
		segLen := seg.Length()
		if segLen <= remaining {
			remaining -= segLen
			target = seg.End
			tangentX, tangentY = seg.Tangent()
			continue
		}
		// Target lies within this segment; for straight lines, interpolate
		// linearly. Arcs are approximated by their chord fraction, which is
		// exact in the zero-curvature limit and a safe conservative estimate
		// otherwise (true arc interpolation is a vision/spline concern out of
		// this core's scope).
		frac := 0.0
		if segLen > 0 {
			frac = remaining / segLen
		}
		dx := seg.End.Sub(seg.Start)
		target = seg.Start.Add(dx.Scale(frac))
		tangentX, tangentY = seg.Tangent()
		return target, tangentX, tangentY, true
	}
	return target, tangentX, tangentY, true
}
