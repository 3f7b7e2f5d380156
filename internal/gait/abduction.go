// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package gait refines calibration from steady-state walking, without a
// dedicated pose: swing-phase abduction zeroing, foot-flat heading resets,
// and anthropometric segment scaling.
package gait

import (
	"fmt"

	"github.com/relabs-tech/mocap_calibration/internal/calib"
)

// SwingSample is one frame of joint angles plus the distal segment's gyro
// magnitude, as produced by the kinematics solver during walking.
type SwingSample struct {
	AbductionDeg float64
	FlexionDeg   float64
	GyroMag      float64 // rad/s, distal segment
}

// AbductionConfig gates which frames count as swing phase. During swing the
// distal segment rotates fast and the joint is flexed; stance and standing
// frames carry residual mounting error instead of signal.
type AbductionConfig struct {
	MinGyroMag    float64 // default 1.5 rad/s
	MinFlexionDeg float64 // default 20°
	MinSamples    int     // default 30 gated frames
}

func (c *AbductionConfig) applyDefaults() {
	if c.MinGyroMag == 0 {
		c.MinGyroMag = 1.5
	}
	if c.MinFlexionDeg == 0 {
		c.MinFlexionDeg = 20
	}
	if c.MinSamples == 0 {
		c.MinSamples = 30
	}
}

// ComputeAbductionCorrection is the batch variant: it collects abduction
// angles over the gated swing frames and returns the correction that zeroes
// their mean (minus the mean). Too few gated frames is an insufficient-data
// error, retryable with more walking.
func ComputeAbductionCorrection(samples []SwingSample, cfg AbductionConfig) (float64, error) {
	cfg.applyDefaults()
	sum, n := 0.0, 0
	for _, s := range samples {
		if s.GyroMag >= cfg.MinGyroMag && s.FlexionDeg >= cfg.MinFlexionDeg {
			sum += s.AbductionDeg
			n++
		}
	}
	if n < cfg.MinSamples {
		return 0, fmt.Errorf("%w: %d swing frames gated, need %d", calib.ErrInsufficientData, n, cfg.MinSamples)
	}
	return -sum / float64(n), nil
}

// AbductionZeroer is the incrementally updating sliding-window variant for
// continuous refinement during capture. Window length 200 frames (~4 s of
// swing at 50 Hz).
type AbductionZeroer struct {
	cfg    AbductionConfig
	ring   []float64
	head   int
	count  int
	sum    float64
	window int
}

// NewAbductionZeroer returns a sliding-window zeroer; window <= 0 selects
// the 200-frame default.
func NewAbductionZeroer(cfg AbductionConfig, window int) *AbductionZeroer {
	cfg.applyDefaults()
	if window <= 0 {
		window = 200
	}
	return &AbductionZeroer{
		cfg:    cfg,
		ring:   make([]float64, window),
		window: window,
	}
}

// Observe feeds one frame; frames outside the swing gate are ignored.
func (z *AbductionZeroer) Observe(s SwingSample) {
	if s.GyroMag < z.cfg.MinGyroMag || s.FlexionDeg < z.cfg.MinFlexionDeg {
		return
	}
	if z.count == z.window {
		z.sum -= z.ring[z.head]
	} else {
		z.count++
	}
	z.ring[z.head] = s.AbductionDeg
	z.sum += s.AbductionDeg
	z.head++
	if z.head == z.window {
		z.head = 0
	}
}

// Correction returns the current correction (minus the windowed mean) and
// whether enough gated frames have been observed to trust it.
func (z *AbductionZeroer) Correction() (float64, bool) {
	if z.count < z.cfg.MinSamples {
		return 0, false
	}
	return -z.sum / float64(z.count), true
}

// Reset discards the window.
func (z *AbductionZeroer) Reset() {
	z.head, z.count, z.sum = 0, 0, 0
}
