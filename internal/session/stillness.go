// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package session

import (
	"math"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// stillnessDetector watches a fixed rolling window of gyro-magnitude samples
// and accepts on low standard deviation. Deliberately not on absolute
// magnitude: an uncalibrated gyro with a stale bias reads a constant nonzero
// rate while perfectly still, and a magnitude gate would block detection
// indefinitely. Once a bias estimate is locked in, magnitudes are computed
// bias-corrected.
type stillnessDetector struct {
	size   int
	stdMax float64

	vecs   []quat.Vec3
	mags   []float64
	head   int
	filled bool

	bias    quat.Vec3
	useBias bool
}

func newStillnessDetector(windowSize int, stdMax float64) *stillnessDetector {
	return &stillnessDetector{
		size:   windowSize,
		stdMax: stdMax,
		vecs:   make([]quat.Vec3, windowSize),
		mags:   make([]float64, windowSize),
	}
}

func (d *stillnessDetector) push(g quat.Vec3) {
	m := g
	if d.useBias {
		m = g.Sub(d.bias)
	}
	d.vecs[d.head] = g
	d.mags[d.head] = m.Norm()
	d.head++
	if d.head == d.size {
		d.head = 0
		d.filled = true
	}
}

// still reports whether the window is full and its magnitude std deviation is
// under the threshold.
func (d *stillnessDetector) still() bool {
	if !d.filled {
		return false
	}
	mean := 0.0
	for _, m := range d.mags {
		mean += m
	}
	mean /= float64(d.size)
	v := 0.0
	for _, m := range d.mags {
		dm := m - mean
		v += dm * dm
	}
	return math.Sqrt(v/float64(d.size)) < d.stdMax
}

// windowMean returns the mean raw gyro vector over the window; meaningful as
// a bias estimate only while still.
func (d *stillnessDetector) windowMean() quat.Vec3 {
	var sum quat.Vec3
	for _, v := range d.vecs {
		sum = sum.Add(v)
	}
	return sum.Scale(1 / float64(d.size))
}

// lockBias freezes a bias estimate; subsequent magnitudes are bias-corrected.
func (d *stillnessDetector) lockBias(b quat.Vec3) {
	d.bias = b
	d.useBias = true
}

func (d *stillnessDetector) reset() {
	d.head = 0
	d.filled = false
}

// StationaryCheck is the coarse ZUPT predicate shared with the gait
// refinement: a segment counts as stationary when gyro magnitude and the
// deviation of accel magnitude from 1 g are both under their bounds. The
// node firmware applies the same dual-threshold test.
func StationaryCheck(gyroMag, accelDiff, gyroMax, accelDiffMax float64) bool {
	return gyroMag < gyroMax && accelDiff < accelDiffMax
}
