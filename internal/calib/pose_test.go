// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package calib

import (
	"math"
	"testing"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

func TestSinglePoseOffsetRoundTrip(t *testing.T) {
	sensor := quat.FromAxisAngle(quat.Vec3{X: 0.4, Y: 1, Z: -0.2}, 0.9)
	target := quat.FromAxisAngle(quat.Vec3{Z: 1}, 0.3)

	offset := SinglePoseOffset(sensor, target)

	// At the capture pose the corrected orientation is exactly the target.
	if ang := quat.AngleBetween(ApplyOffset(sensor, offset), target); ang > 1e-9 {
		t.Errorf("corrected capture pose off by %v rad", ang)
	}

	// A later sensor rotation carries through: sensor·d corrects to target·d'
	// with the same relative motion magnitude.
	d := quat.FromAxisAngle(quat.Vec3{Y: 1}, 0.5)
	moved := quat.Mul(sensor, d)
	got := ApplyOffset(moved, offset)
	if ang := quat.AngleBetween(target, got); math.Abs(ang-0.5) > 1e-9 {
		t.Errorf("relative motion after offset = %v rad, want 0.5", ang)
	}
}

func TestDualPoseOffsetCorrectsHeading(t *testing.T) {
	// The subject stands in the tilt pose with a mounting error; between the
	// tilt capture and the second pose the fusion heading drifts. The
	// composed offset must correct both layers: applying it in the heading
	// pose lands on the heading target.
	mountErr := quat.FromAxisAngle(quat.Vec3{X: 1}, 0.2)
	drift := quat.FromAxisAngle(quat.Vec3{Z: 1}, 0.6)

	tiltTarget := quat.Identity()
	tiltSensor := quat.Mul(tiltTarget, mountErr)

	headingTarget := quat.FromAxisAngle(quat.Vec3{Z: 1}, math.Pi/2)
	headingSensor := quat.Mul(drift, quat.Mul(headingTarget, mountErr))

	offset := DualPoseOffset(tiltSensor, tiltTarget, headingSensor, headingTarget)

	got := ApplyOffset(headingSensor, offset)
	if ang := quat.AngleBetween(got, headingTarget) * 180 / math.Pi; ang > 0.1 {
		t.Errorf("heading pose corrected to %v° from target, want < 0.1°", ang)
	}
}

func TestHeadingOffsetPureYaw(t *testing.T) {
	observed := quat.FromAxisAngle(quat.Vec3{Z: 1}, 0.4)
	target := quat.FromAxisAngle(quat.Vec3{Z: 1}, 1.1)
	h := HeadingOffset(observed, target)
	if yaw := quat.Yaw(h); math.Abs(yaw-0.7) > 1e-9 {
		t.Errorf("heading yaw = %v, want 0.7", yaw)
	}
}

func TestHeadingOffsetVerticalForwardFallsBack(t *testing.T) {
	// Forward pitched almost straight down: the horizontal projection is
	// unusable and the default forward substitutes, yielding zero yaw against
	// an identity target.
	observed := quat.FromAxisAngle(quat.Vec3{Y: 1}, math.Pi/2*0.99)
	h := HeadingOffset(observed, quat.Identity())
	if yaw := math.Abs(quat.Yaw(h)); yaw > 1e-9 {
		t.Errorf("yaw = %v for near-vertical forward, want 0", yaw)
	}
}

func TestQualityFromErrorBands(t *testing.T) {
	cases := []struct {
		errDeg float64
		want   int
	}{
		{0, 100},
		{2, 95},
		{3.5, 88},
		{5, 80},
		{10, 50},
		{15, 25},
		{20, 0},
		{45, 0},
	}
	for _, c := range cases {
		if got := QualityFromError(c.errDeg); got != c.want {
			t.Errorf("QualityFromError(%v) = %d, want %d", c.errDeg, got, c.want)
		}
	}
}

func TestQualityWarnings(t *testing.T) {
	if w := QualityWarnings(5); len(w) != 0 {
		t.Errorf("warnings at 5° = %v, want none", w)
	}
	if w := QualityWarnings(12); len(w) != 1 {
		t.Errorf("warnings at 12° = %v, want 1", w)
	}
	if w := QualityWarnings(25); len(w) != 2 {
		t.Errorf("warnings at 25° = %v, want 2", w)
	}
}
