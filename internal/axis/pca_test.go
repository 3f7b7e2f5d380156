// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package axis

import (
	"math"
	"testing"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// hingeGyro generates a sinusoidal single-axis angular velocity sweep at
// 50 Hz with peak rate peakRad (rad/s).
func hingeGyro(axis quat.Vec3, n int, peakRad float64) []quat.Vec3 {
	u, _ := axis.Normalize()
	out := make([]quat.Vec3, n)
	for i := range out {
		rate := peakRad * math.Sin(2*math.Pi*0.5*float64(i)/50)
		out[i] = u.Scale(rate)
	}
	return out
}

func lineErrDeg(got, want quat.Vec3) float64 {
	a := got.AngleTo(want)
	if b := got.AngleTo(want.Scale(-1)); b < a {
		a = b
	}
	return a * 180 / math.Pi
}

func TestEstimatePCACleanHinge(t *testing.T) {
	axis := quat.Vec3{X: 0.2, Y: 0.9, Z: -0.1}
	est := EstimatePCA(hingeGyro(axis, 200, 3.0), false)

	if est.Confidence < 0.95 {
		t.Errorf("Confidence = %v, want > 0.95 for single-axis motion", est.Confidence)
	}
	if err := lineErrDeg(est.Line(), axis); err > 1 {
		t.Errorf("axis off by %.2f°, want < 1°", err)
	}
	if n := est.Line().Norm(); math.Abs(n-1) > 1e-9 {
		t.Errorf("Line() norm = %v, want 1", n)
	}
}

func TestEstimatePCANoisyHinge(t *testing.T) {
	axis := quat.Vec3{Y: 1}
	gyro := hingeGyro(axis, 300, 3.0)
	// Deterministic off-axis wobble well below the functional signal.
	for i := range gyro {
		gyro[i] = gyro[i].Add(quat.Vec3{
			X: 0.3 * math.Sin(17.3*float64(i)),
			Z: 0.3 * math.Cos(11.9*float64(i)),
		})
	}
	est := EstimatePCA(gyro, true)

	if est.Confidence < 0.7 {
		t.Errorf("Confidence = %v, want > 0.7", est.Confidence)
	}
	if err := lineErrDeg(est.Line(), axis); err > 5 {
		t.Errorf("axis off by %.2f°, want < 5°", err)
	}
}

func TestEstimatePCAInsufficientInput(t *testing.T) {
	est := EstimatePCA(hingeGyro(quat.Vec3{Y: 1}, 5, 3.0), false)
	if est.Confidence != 0 {
		t.Errorf("Confidence = %v for 5 samples, want 0", est.Confidence)
	}
}

func TestEstimatePCAAllBelowRateGate(t *testing.T) {
	// Plenty of samples, all slower than the 0.1 rad/s gate.
	est := EstimatePCA(hingeGyro(quat.Vec3{Y: 1}, 100, 0.05), false)
	if est.Confidence != 0 {
		t.Errorf("Confidence = %v for sub-gate motion, want 0", est.Confidence)
	}
}

func TestSmoothGaussianReducesJitter(t *testing.T) {
	n := 200
	raw := make([]quat.Vec3, n)
	for i := range raw {
		// Slow signal plus fast alternating jitter.
		raw[i] = quat.Vec3{X: math.Sin(2*math.Pi*float64(i)/100) + 0.5*math.Pow(-1, float64(i))}
	}
	sm := smoothGaussian(raw)
	if len(sm) != n {
		t.Fatalf("smoothed length = %d, want %d", len(sm), n)
	}

	jitter := func(s []quat.Vec3) float64 {
		sum := 0.0
		for i := 1; i < len(s); i++ {
			d := s[i].Sub(s[i-1]).Norm()
			sum += d * d
		}
		return sum
	}
	if jr, js := jitter(raw), jitter(sm); js > jr/4 {
		t.Errorf("smoothing left jitter %v of %v, want < 1/4", js, jr)
	}
}

func TestResolveCommitsSign(t *testing.T) {
	est := EstimatePCA(hingeGyro(quat.Vec3{Y: 1}, 200, 3.0), false)

	pos := est.Resolve(quat.Vec3{Y: 1})
	neg := est.Resolve(quat.Vec3{Y: -1})
	if pos.Vec.Y <= 0 {
		t.Errorf("Resolve(+Y).Vec = %+v, want positive Y", pos.Vec)
	}
	if neg.Vec.Y >= 0 {
		t.Errorf("Resolve(-Y).Vec = %+v, want negative Y", neg.Vec)
	}
	if pos.Confidence != est.Confidence {
		t.Errorf("Resolve changed confidence: %v != %v", pos.Confidence, est.Confidence)
	}
}
