package spatial

import "math"

// Transform is a 2-D rigid motion (rotation + translation) from frame From
// to frame To. Multiplication is only defined between matching
// source/destination frames: composing a Transform[A,B] with a
// Transform[B,C] yields a Transform[A,C], and the Go type system rejects
// any other composition at compile time.
type Transform[From, To Frame] struct {
	dx, dy float64
	cos    float64
	sin    float64
}

// Identity returns the identity transform.
func Identity[From, To Frame]() Transform[From, To] {
	return Transform[From, To]{cos: 1, sin: 0}
}

// NewTransform builds a rigid transform from a translation (dx, dy) and a
// rotation angle theta (radians), applied rotation-then-translation.
func NewTransform[From, To Frame](dx, dy, theta float64) Transform[From, To] {
	return Transform[From, To]{dx: dx, dy: dy, cos: math.Cos(theta), sin: math.Sin(theta)}
}

// Angle returns the transform's rotation angle in radians.
func (t Transform[From, To]) Angle() float64 {
	return math.Atan2(t.sin, t.cos)
}

// Translation returns the transform's translation component.
func (t Transform[From, To]) Translation() (dx, dy float64) {
	return t.dx, t.dy
}

// Apply maps a Point in From into To: rotate then translate.
func (t Transform[From, To]) Apply(p Point[From]) Point[To] {
	x, y := p.X(), p.Y()
	return NewPoint[To](t.cos*x-t.sin*y+t.dx, t.sin*x+t.cos*y+t.dy)
}

// ApplyVector maps a Vector (a displacement, not a position) in From into
// To: rotation only, no translation. This is how ball-filter velocities are
// carried across an odometry step (spec.md §4.C "Prediction").
func (t Transform[From, To]) ApplyVector(v Vector[From]) Vector[To] {
	x, y := v.X(), v.Y()
	return NewVector[To](t.cos*x-t.sin*y, t.sin*x+t.cos*y)
}

// ApplyPose maps a Pose in From into To, composing headings.
func (t Transform[From, To]) ApplyPose(p Pose[From]) Pose[To] {
	pt := t.Apply(p.PointOf())
	return NewPose[To](pt.X(), pt.Y(), p.Theta+t.Angle())
}

// Inverse returns the inverse transform, To -> From.
func (t Transform[From, To]) Inverse() Transform[To, From] {
	// Inverse rotation is the transpose (cos, -sin), inverse translation is
	// -R^T * d.
	ix := -(t.cos*t.dx + t.sin*t.dy)
	iy := -(-t.sin*t.dx + t.cos*t.dy)
	return Transform[To, From]{dx: ix, dy: iy, cos: t.cos, sin: -t.sin}
}

// Then composes t (From->To) with u (To->Via), yielding From->Via. This is
// the associative composition exercised by invariant I5: integrating
// per-cycle odometry increments over N cycles must equal integrating in one
// shot, to numerical precision.
func Then[From, To, Via Frame](t Transform[From, To], u Transform[To, Via]) Transform[From, Via] {
	// Compose rotation.
	cos := t.cos*u.cos - t.sin*u.sin
	sin := t.sin*u.cos + t.cos*u.sin
	// Translate t's translation through u, then add u's translation.
	dx := u.cos*t.dx-u.sin*t.dy + u.dx
	dy := u.sin*t.dx+u.cos*t.dy + u.dy
	return Transform[From, Via]{dx: dx, dy: dy, cos: cos, sin: sin}
}

// Rotation2x2 returns the transform's rotation as a row-major 2x2 matrix,
// used by ballfilter to build the 4x4 block-diagonal rotation applied to a
// (position, velocity) Gaussian mean per spec.md §4.C.
func (t Transform[From, To]) Rotation2x2() [4]float64 {
	return [4]float64{t.cos, -t.sin, t.sin, t.cos}
}
