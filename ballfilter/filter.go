package ballfilter

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/pejotejo/hulk/logging"
	"github.com/pejotejo/hulk/spatial"
)

// chiSquare2_99 is the 0.99 quantile of a chi-squared distribution with 2
// degrees of freedom, used as the gating threshold in spec.md §4.C. For df=2
// the CDF is closed-form, F(x) = 1 - exp(-x/2), so the quantile is
// -2*ln(1-p).
var chiSquare2_99 = -2 * math.Log(1-0.99)

// Params configures the filter, per spec.md §4.C and the Open Question in
// §9 ("Validity decay is not explicitly enumerated with a coefficient...
// reimplementers should expose it as a configurable scalar").
type Params struct {
	VelocityDecay      float64 // per-cycle multiplicative decay applied to velocity in Predict.
	ValidityBonus      float64 // added to validity on a gated Update.
	ValidityDecay      float64 // per-second multiplicative decay rate applied in Prune.
	MinValidity        float64 // hypotheses below this validity are pruned.
	HypothesisTimeout  time.Duration
	FusionRadius       float64 // meters; merge candidates within this distance.
	SeedVelocityVar    float64 // velocity variance seeded for a brand-new hypothesis.
	SeedValidity       float64 // validity assigned to a brand-new hypothesis.
}

// Filter holds a mixture of ball hypotheses, per spec.md §4.C. The selected
// best one is not stored; Selected picks it on each call.
type Filter struct {
	log    logging.Logger
	params Params
	hyps   []*Hypothesis
}

// New constructs an empty Filter.
func New(log logging.Logger, params Params) *Filter {
	return &Filter{log: log.Named("ballfilter"), params: params}
}

// Hypotheses returns the live hypotheses, for diagnostics/telemetry only.
func (f *Filter) Hypotheses() []*Hypothesis {
	return f.hyps
}

// Predict advances every live hypothesis by dt under a constant-velocity +
// velocity-decay model, adds process noise, then applies the odometry
// transform into the current Ground frame. Predict never fails, per its
// public contract.
func (f *Filter) Predict(dt time.Duration, odometry spatial.Transform[spatial.Ground, spatial.Ground], processNoise *mat.Dense) {
	dtSec := dt.Seconds()
	if dtSec < 0 {
		dtSec = 0 // clamp per spec.md §7 transient sensor fault policy.
	}
	decay := f.params.VelocityDecay
	rot := odometry.Rotation2x2()

	for _, h := range f.hyps {
		// State transition: pos += vel*dt, vel *= decay.
		px := h.Mean.AtVec(0) + h.Mean.AtVec(2)*dtSec
		py := h.Mean.AtVec(1) + h.Mean.AtVec(3)*dtSec
		vx := h.Mean.AtVec(2) * decay
		vy := h.Mean.AtVec(3) * decay

		F := mat.NewDense(4, 4, []float64{
			1, 0, dtSec, 0,
			0, 1, 0, dtSec,
			0, 0, decay, 0,
			0, 0, 0, decay,
		})
		var FP, FPFt mat.Dense
		FP.Mul(F, h.Cov)
		FPFt.Mul(&FP, F.T())
		FPFt.Add(&FPFt, processNoise)

		// Apply odometry: position (rotate + translate), velocity (rotate only).
		moved := odometry.Apply(spatial.NewPoint[spatial.Ground](px, py))
		movedVel := odometry.ApplyVector(spatial.NewVector[spatial.Ground](vx, vy))

		h.Mean = mat.NewVecDense(4, []float64{moved.X(), moved.Y(), movedVel.X(), movedVel.Y()})

		R := mat.NewDense(4, 4, []float64{
			rot[0], rot[1], 0, 0,
			rot[2], rot[3], 0, 0,
			0, 0, rot[0], rot[1],
			0, 0, rot[2], rot[3],
		})
		var RP, RPRt mat.Dense
		RP.Mul(R, &FPFt)
		RPRt.Mul(&RP, R.T())
		h.Cov = mat.DenseCopyOf(&RPRt)

		if !isPSD(h.Cov) {
			f.log.Warnw("ball hypothesis covariance went non-PSD during predict; reseeding", "id", h.ID)
			f.reseed(h)
		}
	}
}

// reseed resets a hypothesis' covariance to a conservative diagonal seeded
// from its current mean, per spec.md §4.C "Failure semantics".
func (f *Filter) reseed(h *Hypothesis) {
	cov := mat.NewDense(4, 4, nil)
	cov.Set(0, 0, 0.05)
	cov.Set(1, 1, 0.05)
	cov.Set(2, 2, f.params.SeedVelocityVar)
	cov.Set(3, 3, f.params.SeedVelocityVar)
	h.Cov = cov
}

// Update folds a detection into the best-gated hypothesis; when no
// hypothesis gates, a new one is spawned per spec.md §4.C.
func (f *Filter) Update(detectionTime time.Time, measurement spatial.Point[spatial.Ground], measurementCov *mat.Dense) {
	z := mat.NewVecDense(2, []float64{measurement.X(), measurement.Y()})

	var best *Hypothesis
	bestDist := math.Inf(1)

	for _, h := range f.hyps {
		d2, ok := mahalanobis2(h, z, measurementCov)
		if !ok {
			continue
		}
		if d2 <= chiSquare2_99 && d2 < bestDist {
			best = h
			bestDist = d2
		}
	}

	if best == nil {
		best = newHypothesis(detectionTime, measurement, measurementCov, f.params.SeedVelocityVar, f.params.SeedValidity)
		f.hyps = append(f.hyps, best)
		f.log.Infow("spawned new ball hypothesis", "id", best.ID)
		return
	}

	kalmanUpdatePosition(best, z, measurementCov)
	best.Validity += f.params.ValidityBonus
	best.LastSeen = detectionTime
}

// mahalanobis2 computes y^T S^-1 y for the 2-D position measurement against
// hypothesis h, returning ok=false if S is singular.
func mahalanobis2(h *Hypothesis, z *mat.VecDense, R *mat.Dense) (float64, bool) {
	// H = [I2 0]; innovation y = z - H x.
	hx := mat.NewVecDense(2, []float64{h.Mean.AtVec(0), h.Mean.AtVec(1)})
	var y mat.VecDense
	y.SubVec(z, hx)

	P2 := mat.NewDense(2, 2, []float64{h.Cov.At(0, 0), h.Cov.At(0, 1), h.Cov.At(1, 0), h.Cov.At(1, 1)})
	var S mat.Dense
	S.Add(P2, R)

	var Sinv mat.Dense
	if err := Sinv.Inverse(&S); err != nil {
		return 0, false
	}
	var Sy mat.VecDense
	Sy.MulVec(&Sinv, &y)
	d2 := mat.Dot(&y, &Sy)
	return d2, true
}

// kalmanUpdatePosition applies the standard Kalman update to h given a 2-D
// position measurement z with covariance R, H = [I2 0].
func kalmanUpdatePosition(h *Hypothesis, z *mat.VecDense, R *mat.Dense) {
	hx := mat.NewVecDense(2, []float64{h.Mean.AtVec(0), h.Mean.AtVec(1)})
	var y mat.VecDense
	y.SubVec(z, hx)

	// P H^T is the first two columns of P (4x2).
	PHt := mat.NewDense(4, 2, nil)
	for r := 0; r < 4; r++ {
		PHt.Set(r, 0, h.Cov.At(r, 0))
		PHt.Set(r, 1, h.Cov.At(r, 1))
	}
	P2 := mat.NewDense(2, 2, []float64{h.Cov.At(0, 0), h.Cov.At(0, 1), h.Cov.At(1, 0), h.Cov.At(1, 1)})
	var S mat.Dense
	S.Add(P2, R)
	var Sinv mat.Dense
	if err := Sinv.Inverse(&S); err != nil {
		return // leave hypothesis unmodified; numerical degeneracy, no panic.
	}

	var K mat.Dense
	K.Mul(PHt, &Sinv) // 4x2

	var Ky mat.VecDense
	Ky.MulVec(&K, &y)
	var newMean mat.VecDense
	newMean.AddVec(h.Mean, &Ky)
	h.Mean = &newMean

	// P = (I - K H) P; K H has nonzero columns 0,1 only, equal to K's columns.
	KH := mat.NewDense(4, 4, nil)
	for r := 0; r < 4; r++ {
		KH.Set(r, 0, K.At(r, 0))
		KH.Set(r, 1, K.At(r, 1))
	}
	I := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		I.Set(i, i, 1)
	}
	var IKH mat.Dense
	IKH.Sub(I, KH)
	var newCov mat.Dense
	newCov.Mul(&IKH, h.Cov)
	h.Cov = mat.DenseCopyOf(&newCov)
}

// Merge Kalman-fuses other into h (self), treating other's mean/cov as a
// full-state (H=I4) measurement, per spec.md §4.C "Merging". self.Validity
// becomes max(self, other).
func (f *Filter) Merge(h, other *Hypothesis) {
	var y mat.VecDense
	y.SubVec(other.Mean, h.Mean)

	var S mat.Dense
	S.Add(h.Cov, other.Cov)
	var Sinv mat.Dense
	if err := Sinv.Inverse(&S); err != nil {
		return
	}
	var K mat.Dense
	K.Mul(h.Cov, &Sinv)

	var Ky mat.VecDense
	Ky.MulVec(&K, &y)
	var newMean mat.VecDense
	newMean.AddVec(h.Mean, &Ky)
	h.Mean = &newMean

	I := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		I.Set(i, i, 1)
	}
	var IK mat.Dense
	IK.Sub(I, &K)
	var newCov mat.Dense
	newCov.Mul(&IK, h.Cov)
	h.Cov = mat.DenseCopyOf(&newCov)

	if other.Validity > h.Validity {
		h.Validity = other.Validity
	}
}

// MergeCandidates scans all live hypotheses and merges pairs whose position
// means lie within FusionRadius, per spec.md §4.C "Merging". Merged-away
// hypotheses are removed from the filter.
func (f *Filter) MergeCandidates() {
	for i := 0; i < len(f.hyps); i++ {
		for j := i + 1; j < len(f.hyps); j++ {
			a, b := f.hyps[i], f.hyps[j]
			pa, _, _ := a.Position()
			pb, _, _ := b.Position()
			if pa.Distance(pb) <= f.params.FusionRadius {
				f.Merge(a, b)
				f.hyps = append(f.hyps[:j], f.hyps[j+1:]...)
				j--
			}
		}
	}
}

// Prune decays validity by (1 - decay*dt) and drops hypotheses below
// MinValidity or whose LastSeen predates HypothesisTimeout, per spec.md
// §4.C "Pruning".
func (f *Filter) Prune(dt time.Duration, now time.Time) {
	dtSec := dt.Seconds()
	if dtSec < 0 {
		dtSec = 0
	}
	decayFactor := 1 - f.params.ValidityDecay*dtSec
	if decayFactor < 0 {
		decayFactor = 0
	}

	kept := f.hyps[:0]
	for _, h := range f.hyps {
		h.Validity *= decayFactor
		if h.Validity < 0 {
			h.Validity = 0
		}
		if h.Validity < f.params.MinValidity {
			f.log.Infow("pruned ball hypothesis: validity below threshold", "id", h.ID)
			continue
		}
		if now.Sub(h.LastSeen) > f.params.HypothesisTimeout {
			f.log.Infow("pruned ball hypothesis: stale", "id", h.ID)
			continue
		}
		kept = append(kept, h)
	}
	f.hyps = kept
}

// Selected returns the highest-validity hypothesis' position, velocity and
// last-seen time. ok is false if no hypotheses are live. At most one
// hypothesis is designated selected per cycle, per spec.md §3 invariants.
func (f *Filter) Selected() (point spatial.Point[spatial.Ground], velocity spatial.Vector[spatial.Ground], lastSeen time.Time, ok bool) {
	var best *Hypothesis
	for _, h := range f.hyps {
		if best == nil || h.Validity > best.Validity {
			best = h
		}
	}
	if best == nil {
		return point, velocity, lastSeen, false
	}
	point, velocity, lastSeen = best.Position()
	return point, velocity, lastSeen, true
}
