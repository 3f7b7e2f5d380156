// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package axis

import (
	"math"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// The smoothing kernel is a fixed contract, not a tunable: a Gaussian low-pass
// with ~8 Hz cutoff at the 50 Hz nominal sample rate. That sits above the 1-3
// Hz functional-motion band, so genuine motion peaks survive while
// soft-tissue wobble is attenuated. Gaussian -3 dB cutoff fc ≈ 0.1325/σt gives
// σ ≈ 0.83 samples at 50 Hz.
const (
	gaussSigma  = 0.83
	gaussRadius = 3
)

var gaussKernel = buildGaussKernel()

func buildGaussKernel() [2*gaussRadius + 1]float64 {
	var k [2*gaussRadius + 1]float64
	sum := 0.0
	for i := -gaussRadius; i <= gaussRadius; i++ {
		w := math.Exp(-float64(i*i) / (2 * gaussSigma * gaussSigma))
		k[i+gaussRadius] = w
		sum += w
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// smoothGaussian returns a low-passed copy of samples. Edges clamp to the
// nearest valid sample so the output length matches the input.
func smoothGaussian(samples []quat.Vec3) []quat.Vec3 {
	if len(samples) == 0 {
		return nil
	}
	out := make([]quat.Vec3, len(samples))
	for i := range samples {
		var acc quat.Vec3
		for j := -gaussRadius; j <= gaussRadius; j++ {
			idx := i + j
			if idx < 0 {
				idx = 0
			} else if idx >= len(samples) {
				idx = len(samples) - 1
			}
			acc = acc.Add(samples[idx].Scale(gaussKernel[j+gaussRadius]))
		}
		out[i] = acc
	}
	return out
}
