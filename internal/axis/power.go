// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package axis

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// powerIterSteps is fixed: 20 steps converge well past float64 tolerance for
// the well-separated spectra this module produces, and a fixed count keeps the
// estimators deterministic.
const powerIterSteps = 20

// dominantEigen finds the dominant eigenvector and eigenvalue of a symmetric
// positive semi-definite 3x3 matrix by power iteration seeded at (1,1,1)/√3.
func dominantEigen(m *mat.SymDense) (quat.Vec3, float64) {
	v := mat.NewVecDense(3, []float64{1, 1, 1})
	v.ScaleVec(1/math.Sqrt(3), v)

	tmp := mat.NewVecDense(3, nil)
	for i := 0; i < powerIterSteps; i++ {
		tmp.MulVec(m, v)
		n := mat.Norm(tmp, 2)
		if n < 1e-12 {
			// Zero matrix; keep the seed so callers see a unit vector with a
			// zero eigenvalue.
			break
		}
		v.ScaleVec(1/n, tmp)
	}

	tmp.MulVec(m, v)
	lambda := mat.Dot(v, tmp) // Rayleigh quotient; v is unit

	return quat.Vec3{X: v.AtVec(0), Y: v.AtVec(1), Z: v.AtVec(2)}, lambda
}

// trace returns the trace of a 3x3 symmetric matrix.
func trace(m *mat.SymDense) float64 {
	return m.At(0, 0) + m.At(1, 1) + m.At(2, 2)
}
