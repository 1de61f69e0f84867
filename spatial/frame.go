// Package spatial implements the frame-typed geometry primitives described
// in spec.md §3 ("Frames") and §9 ("Frame typing"): points, vectors, poses
// and rigid transforms tagged with a phantom frame type parameter so that
// the Go compiler rejects arithmetic between mismatched frames at build
// time, the way the teacher's referenceframe package uses named Frame
// objects to keep a PoseInFrame from being silently misused across frames.
package spatial

import "github.com/golang/geo/r2"

// Frame is the marker interface satisfied by every phantom frame tag.
// Frame tags carry no data; they exist only to parameterize Point, Pose and
// Transform so that mismatched-frame arithmetic fails to compile.
type Frame interface {
	frameName() string
}

// Concrete frame tags, per spec.md §3.
type (
	// Robot is the torso-fixed frame.
	Robot struct{}
	// Ground is the floor-parallel frame under the robot; resets with odometry.
	Ground struct{}
	// Field is the world frame.
	Field struct{}
	// Camera is the camera-fixed frame.
	Camera struct{}
	// Pixel is the 2-D image-plane frame.
	Pixel struct{}
	// Head is the head-fixed frame.
	Head struct{}
	// Walk is the support-foot-fixed frame used by the walking engine.
	Walk struct{}
	// UpcomingSupport is the frame of the foot predicted to bear weight at
	// the next step boundary.
	UpcomingSupport struct{}
)

func (Robot) frameName() string          { return "Robot" }
func (Ground) frameName() string         { return "Ground" }
func (Field) frameName() string          { return "Field" }
func (Camera) frameName() string         { return "Camera" }
func (Pixel) frameName() string          { return "Pixel" }
func (Head) frameName() string           { return "Head" }
func (Walk) frameName() string           { return "Walk" }
func (UpcomingSupport) frameName() string { return "UpcomingSupport" }

// Point is a 2-D point tagged with the frame it is expressed in. Point
// arithmetic only combines same-frame values, and Transform[F, G] is the
// typed way to move a Point[F] into a Point[G]; NewPoint still builds a
// Point in any frame from raw coordinates.
type Point[F Frame] struct {
	v r2.Point
}

// NewPoint constructs a Point in frame F from raw coordinates.
func NewPoint[F Frame](x, y float64) Point[F] {
	return Point[F]{v: r2.Point{X: x, Y: y}}
}

// X returns the point's first coordinate.
func (p Point[F]) X() float64 { return p.v.X }

// Y returns the point's second coordinate.
func (p Point[F]) Y() float64 { return p.v.Y }

// Vector returns the underlying untagged r2.Point.
func (p Point[F]) Vector() r2.Point { return p.v }

// Add returns p translated by v, remaining in frame F.
func (p Point[F]) Add(v Vector[F]) Point[F] {
	return Point[F]{v: p.v.Add(v.v)}
}

// Sub returns the displacement from q to p, as a Vector in frame F.
func (p Point[F]) Sub(q Point[F]) Vector[F] {
	return Vector[F]{v: p.v.Sub(q.v)}
}

// Distance returns the Euclidean distance between two same-frame points.
func (p Point[F]) Distance(q Point[F]) float64 {
	return p.v.Sub(q.v).Norm()
}

// Vector is a 2-D displacement (no translation component under a
// Transform's rotation-only ApplyVector) tagged with its frame.
type Vector[F Frame] struct {
	v r2.Point
}

// NewVector constructs a Vector in frame F from raw components.
func NewVector[F Frame](x, y float64) Vector[F] {
	return Vector[F]{v: r2.Point{X: x, Y: y}}
}

// X returns the vector's first component.
func (v Vector[F]) X() float64 { return v.v.X }

// Y returns the vector's second component.
func (v Vector[F]) Y() float64 { return v.v.Y }

// Scale returns v scaled by s.
func (v Vector[F]) Scale(s float64) Vector[F] {
	return Vector[F]{v: r2.Point{X: v.v.X * s, Y: v.v.Y * s}}
}

// Add returns the sum of two same-frame vectors.
func (v Vector[F]) Add(o Vector[F]) Vector[F] {
	return Vector[F]{v: v.v.Add(o.v)}
}

// Norm returns the Euclidean length of v.
func (v Vector[F]) Norm() float64 {
	return v.v.Norm()
}

// Pose is a 2-D rigid pose (position + heading) tagged with its frame.
type Pose[F Frame] struct {
	X, Y  float64
	Theta float64
}

// NewPose constructs a Pose in frame F.
func NewPose[F Frame](x, y, theta float64) Pose[F] {
	return Pose[F]{X: x, Y: y, Theta: theta}
}

// PointOf returns the Pose's position as a frame-tagged Point.
func (p Pose[F]) PointOf() Point[F] {
	return Point[F]{v: r2.Point{X: p.X, Y: p.Y}}
}
