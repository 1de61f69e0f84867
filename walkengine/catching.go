package walkengine

import (
	"math"

	"github.com/pejotejo/hulk/spatial"
)

// Polygon is a convex outline in the Walk frame, per spec.md §4.H
// "Catching": "the convex hull formed by the support-sole outline and the
// swing-sole outline at step end".
type Polygon []spatial.Point[spatial.Walk]

// ConvexHull computes the convex hull of a point set via the monotone
// chain algorithm.
func ConvexHull(points []spatial.Point[spatial.Walk]) Polygon {
	if len(points) < 3 {
		return Polygon(points)
	}
	pts := make([]spatial.Point[spatial.Walk], len(points))
	copy(pts, points)
	sortPoints(pts)

	cross := func(o, a, b spatial.Point[spatial.Walk]) float64 {
		return (a.X()-o.X())*(b.Y()-o.Y()) - (a.Y()-o.Y())*(b.X()-o.X())
	}

	var lower, upper []spatial.Point[spatial.Walk]
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

func sortPoints(pts []spatial.Point[spatial.Walk]) {
	// Simple insertion sort by (x, then y); point sets here are small
	// (a handful of sole-outline vertices), so O(n^2) is not a concern.
	for i := 1; i < len(pts); i++ {
		for j := i; j > 0 && less(pts[j], pts[j-1]); j-- {
			pts[j], pts[j-1] = pts[j-1], pts[j]
		}
	}
}

func less(a, b spatial.Point[spatial.Walk]) bool {
	if a.X() != b.X() {
		return a.X() < b.X()
	}
	return a.Y() < b.Y()
}

// Contains reports whether p lies inside (or on the boundary of) the
// convex polygon, via a standard ray-cast test.
func (poly Polygon) Contains(p spatial.Point[spatial.Walk]) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	if p.Distance(poly.NearestPoint(p)) <= 1e-12 {
		return true
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := poly[i].X(), poly[i].Y()
		xj, yj := poly[j].X(), poly[j].Y()
		if (yi > p.Y()) != (yj > p.Y()) {
			xCross := xi + (p.Y()-yi)/(yj-yi)*(xj-xi)
			if p.X() < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// NearestPoint returns the closest point on poly's boundary to p.
func (poly Polygon) NearestPoint(p spatial.Point[spatial.Walk]) spatial.Point[spatial.Walk] {
	n := len(poly)
	if n == 0 {
		return p
	}
	best := poly[0]
	bestDist := math.Inf(1)
	for i := 0; i < n; i++ {
		a := poly[i]
		b := poly[(i+1)%n]
		cand := closestOnSegment(p, a, b)
		d := cand.Distance(p)
		if d < bestDist {
			bestDist = d
			best = cand
		}
	}
	return best
}

func closestOnSegment(p, a, b spatial.Point[spatial.Walk]) spatial.Point[spatial.Walk] {
	ab := b.Sub(a)
	abLen2 := ab.X()*ab.X() + ab.Y()*ab.Y()
	if abLen2 == 0 {
		return a
	}
	ap := p.Sub(a)
	t := (ap.X()*ab.X() + ap.Y()*ab.Y()) / abLen2
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return a.Add(ab.Scale(t))
}

// CatchingPredicate reports whether the zero-moment point escapes the
// convex hull of the support-sole outline and the swing-sole outline at
// step end, per spec.md §4.H "Catching".
func CatchingPredicate(zmp spatial.Point[spatial.Walk], supportSole, swingSoleAtStepEnd []spatial.Point[spatial.Walk]) bool {
	all := append(append([]spatial.Point[spatial.Walk]{}, supportSole...), swingSoleAtStepEnd...)
	hull := ConvexHull(all)
	return !hull.Contains(zmp)
}

// CatchTarget computes the displaced swing-foot target for Catching mode:
// the target is pushed along the ZMP's escape direction from the stability
// polygon, proportional to how far it escaped, clamped to maxTargetDistance.
func CatchTarget(zmp spatial.Point[spatial.Walk], currentTarget spatial.Point[spatial.Walk], supportSole, swingSoleAtStepEnd []spatial.Point[spatial.Walk], maxTargetDistance float64) spatial.Point[spatial.Walk] {
	all := append(append([]spatial.Point[spatial.Walk]{}, supportSole...), swingSoleAtStepEnd...)
	hull := ConvexHull(all)
	nearest := hull.NearestPoint(zmp)
	offset := zmp.Sub(nearest)
	if offset.Norm() > maxTargetDistance {
		offset = offset.Scale(maxTargetDistance / offset.Norm())
	}
	return currentTarget.Add(offset)
}

// AcceptReentry implements spec.md §4.H "When already in Catching,
// re-entry is only accepted if the new target has a larger swing
// displacement than the current one".
func AcceptReentry(currentDisplacement, newDisplacement spatial.Vector[spatial.Walk]) bool {
	return newDisplacement.Norm() > currentDisplacement.Norm()
}
