// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package axis

import (
	"gonum.org/v1/gonum/mat"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

const (
	// pcaMinInput is the minimum raw sample count before the estimator even
	// tries; pcaMinGated is the minimum surviving the magnitude gate.
	pcaMinInput = 10
	pcaMinGated = 5

	// pcaRateGate discards samples below 0.1 rad/s: near-still readings are
	// dominated by sensor noise and bias, not by the functional motion whose
	// direction we want.
	pcaRateGate = 0.1
)

// EstimatePCA extracts the dominant rotation axis from an angular-velocity
// sequence (rad/s, sensor frame) via the dominant eigenvector of the centered
// sample covariance. With smooth set, the fixed Gaussian low-pass is applied
// first.
//
// Confidence is the dominant eigenvalue's share of the covariance trace,
// clamped to [0,1]; it answers "how single-axis was this motion", not "how
// good is the sensor". Too little usable input yields a zero-confidence
// estimate rather than an error.
func EstimatePCA(gyro []quat.Vec3, smooth bool) Ambiguous {
	if len(gyro) < pcaMinInput {
		return Ambiguous{Samples: len(gyro)}
	}

	samples := gyro
	if smooth {
		samples = smoothGaussian(gyro)
	}

	gated := make([]quat.Vec3, 0, len(samples))
	for _, s := range samples {
		if s.Norm() >= pcaRateGate {
			gated = append(gated, s)
		}
	}
	if len(gated) < pcaMinGated {
		return Ambiguous{Samples: len(gated)}
	}

	var mean quat.Vec3
	for _, s := range gated {
		mean = mean.Add(s)
	}
	mean = mean.Scale(1 / float64(len(gated)))

	cov := mat.NewSymDense(3, nil)
	for _, s := range gated {
		d := s.Sub(mean)
		c := [3]float64{d.X, d.Y, d.Z}
		for i := 0; i < 3; i++ {
			for j := i; j < 3; j++ {
				cov.SetSym(i, j, cov.At(i, j)+c[i]*c[j])
			}
		}
	}
	cov.ScaleSym(1/float64(len(gated)), cov)

	tr := trace(cov)
	if tr < 1e-12 {
		return Ambiguous{Samples: len(gated)}
	}

	v, lambda := dominantEigen(cov)
	return newAmbiguous(v, lambda/tr, len(gated))
}
