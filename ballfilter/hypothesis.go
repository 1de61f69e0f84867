// Package ballfilter implements the Kalman-filtered ball hypothesis tracker
// described in spec.md §4.C: predict-and-update a mixture of Gaussian
// hypotheses over ball position+velocity, aging, merging and pruning them,
// and exposing the single best-validity hypothesis per cycle.
//
// Linear algebra is grounded on gonum/mat, present in the teacher's
// (go.viam.com/rdk) dependency graph.
package ballfilter

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/pejotejo/hulk/spatial"
)

// Mode is the tagged variant of a Hypothesis' internal state. Only Moving
// exists today; the type is designed so a future Resting variant (a 2-D
// position-only state) is a non-breaking addition, per spec.md §9 ("Sum
// types in hypotheses").
type Mode int

const (
	// ModeMoving is the only variant implemented today: a 4-D Gaussian over
	// (position.x, position.y, velocity.x, velocity.y).
	ModeMoving Mode = iota
)

// Hypothesis is one tracked ball estimate, per spec.md §3 ("Ball
// Hypothesis"). Covariance is positive semi-definite throughout all
// operations (invariant I1); validity is monotone non-decreasing on update
// and monotone non-increasing between updates.
type Hypothesis struct {
	ID   uuid.UUID
	Mode Mode

	// Mean is [pos.x, pos.y, vel.x, vel.y] for ModeMoving.
	Mean *mat.VecDense
	// Cov is the 4x4 covariance of Mean.
	Cov *mat.Dense

	LastSeen time.Time
	Validity float64
}

// newHypothesis seeds a hypothesis from a 2-D detection with zero velocity,
// per spec.md §3 lifecycle rule 1.
func newHypothesis(at time.Time, pos spatial.Point[spatial.Ground], posCov *mat.Dense, velocityVariance float64, validity float64) *Hypothesis {
	mean := mat.NewVecDense(4, []float64{pos.X(), pos.Y(), 0, 0})
	cov := mat.NewDense(4, 4, nil)
	cov.Set(0, 0, posCov.At(0, 0))
	cov.Set(0, 1, posCov.At(0, 1))
	cov.Set(1, 0, posCov.At(1, 0))
	cov.Set(1, 1, posCov.At(1, 1))
	cov.Set(2, 2, velocityVariance)
	cov.Set(3, 3, velocityVariance)
	return &Hypothesis{
		ID:       uuid.New(),
		Mode:     ModeMoving,
		Mean:     mean,
		Cov:      cov,
		LastSeen: at,
		Validity: validity,
	}
}

// Position returns the hypothesis' point, velocity and last-seen timestamp.
func (h *Hypothesis) Position() (point spatial.Point[spatial.Ground], velocity spatial.Vector[spatial.Ground], lastSeen time.Time) {
	point = spatial.NewPoint[spatial.Ground](h.Mean.AtVec(0), h.Mean.AtVec(1))
	velocity = spatial.NewVector[spatial.Ground](h.Mean.AtVec(2), h.Mean.AtVec(3))
	lastSeen = h.LastSeen
	return
}

// isPSD reports whether Cov is positive semi-definite to within a small
// numerical tolerance, by attempting a Cholesky factorization of Cov plus a
// tiny diagonal jitter.
func isPSD(cov *mat.Dense) bool {
	const jitter = 1e-9
	sym := mat.NewSymDense(4, nil)
	for i := 0; i < 4; i++ {
		for j := i; j < 4; j++ {
			v := (cov.At(i, j) + cov.At(j, i)) / 2
			if i == j {
				v += jitter
			}
			sym.SetSym(i, j, v)
		}
	}
	var chol mat.Cholesky
	return chol.Factorize(sym)
}
