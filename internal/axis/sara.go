// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package axis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/relabs-tech/mocap_calibration/internal/calib"
	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// DefaultSARAMinSamples is the minimum time-aligned pair count for a SARA
// estimate when the caller does not override it.
const DefaultSARAMinSamples = 20

// SARAAccumulator folds time-aligned parent/child orientation pairs into the
// 3x3 sum of relative-rotation matrices, O(1) per sample. It is the only
// estimator state that crosses capture-tick boundaries; Compute never mutates
// it, so live feedback can snapshot mid-capture.
//
// Not safe for concurrent use; the owning session drives it from its tick.
type SARAAccumulator struct {
	m          [3][3]float64 // M = Σ R(parentᵢ⁻¹·childᵢ)
	n          int
	minSamples int
}

// NewSARAAccumulator returns an empty accumulator. minSamples <= 0 selects
// DefaultSARAMinSamples.
func NewSARAAccumulator(minSamples int) *SARAAccumulator {
	if minSamples <= 0 {
		minSamples = DefaultSARAMinSamples
	}
	return &SARAAccumulator{minSamples: minSamples}
}

// Add folds one time-aligned orientation pair into the accumulator.
func (a *SARAAccumulator) Add(parent, child quat.Quat) {
	r := quat.Mul(quat.Inv(parent), child)
	rm := quat.ToRotationMatrix(r)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			a.m[i][j] += rm[i][j]
		}
	}
	a.n++
}

// Len returns the number of accumulated pairs.
func (a *SARAAccumulator) Len() int { return a.n }

// Reset discards all accumulated pairs.
func (a *SARAAccumulator) Reset() {
	a.m = [3][3]float64{}
	a.n = 0
}

// Compute estimates the hinge axis from the accumulated pairs without
// mutating the accumulator.
//
// For a true single-axis hinge there is a fixed axis in each sensor frame
// whose world images coincide at every instant; that axis is the dominant
// right singular vector of M, i.e. the dominant eigenvector of MᵀM.
// Confidence is σmax/N rather than σmax²/trace: the identity part of every
// relative rotation feeds all three singular values, and the trace
// normalization would cap a perfect hinge near 0.47.
func (a *SARAAccumulator) Compute() (*HingePair, error) {
	if a.n < a.minSamples {
		return nil, fmt.Errorf("%w: %d of %d sample pairs", calib.ErrInsufficientData, a.n, a.minSamples)
	}

	mtm := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += a.m[k][i] * a.m[k][j]
			}
			mtm.SetSym(i, j, s)
		}
	}

	if trace(mtm) < 1e-9 {
		return nil, fmt.Errorf("%w: accumulated rotation matrix is singular", calib.ErrDegenerateGeometry)
	}

	vChild, lambda := dominantEigen(mtm)
	if lambda < 0 {
		lambda = 0
	}
	conf := math.Sqrt(lambda) / float64(a.n)

	// Parent-frame axis: image of the child axis under M, renormalized.
	p := quat.Vec3{
		X: a.m[0][0]*vChild.X + a.m[0][1]*vChild.Y + a.m[0][2]*vChild.Z,
		Y: a.m[1][0]*vChild.X + a.m[1][1]*vChild.Y + a.m[1][2]*vChild.Z,
		Z: a.m[2][0]*vChild.X + a.m[2][1]*vChild.Y + a.m[2][2]*vChild.Z,
	}
	vParent, n := p.Normalize()
	if n < 1e-9 {
		return nil, fmt.Errorf("%w: parent-frame axis vanished", calib.ErrDegenerateGeometry)
	}

	return &HingePair{
		Child:   newAmbiguous(vChild, conf, a.n),
		Parent:  newAmbiguous(vParent, conf, a.n),
		Samples: a.n,
	}, nil
}

// EstimateSARA runs the symmetric-axis estimator over complete, time-aligned
// parent/child orientation buffers. It is the batch counterpart of
// SARAAccumulator and agrees with it exactly for identical ordered input.
func EstimateSARA(parent, child []quat.Quat, minSamples int) (*HingePair, error) {
	if len(parent) != len(child) {
		return nil, fmt.Errorf("%w: misaligned streams (%d parent, %d child)",
			calib.ErrInsufficientData, len(parent), len(child))
	}
	acc := NewSARAAccumulator(minSamples)
	for i := range parent {
		acc.Add(parent[i], child[i])
	}
	return acc.Compute()
}
