// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package stream

import (
	"math"
	"time"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// mockHingeSource generates a synthetic single-axis hinge session: a still
// lead-in, a flexion/extension sweep, and a still tail. Useful for exercising
// the capture pipeline without hardware.
type mockHingeSource struct {
	axis    quat.Vec3 // hinge axis in the child frame
	rateHz  float64
	i       int
	start   time.Time
	stillN  int // frames of stillness before and after
	sweepN  int // frames of functional motion
	sweepHz float64
	ampRad  float64
}

// NewMockHingeSource builds a deterministic hinge motion source sweeping
// ±amplitude radians about axis at sweepHz, sampled at rateHz.
func NewMockHingeSource(axis quat.Vec3, rateHz, sweepHz, amplitudeRad float64, stillSec, sweepSec float64) Source {
	u, _ := axis.Normalize()
	return &mockHingeSource{
		axis:    u,
		rateHz:  rateHz,
		start:   time.Now(),
		stillN:  int(stillSec * rateHz),
		sweepN:  int(sweepSec * rateHz),
		sweepHz: sweepHz,
		ampRad:  amplitudeRad,
	}
}

func (m *mockHingeSource) Next() (Frame, error) {
	dt := 1 / m.rateHz
	t := float64(m.i) * dt

	var angle, rate float64
	if m.i >= m.stillN && m.i < m.stillN+m.sweepN {
		ts := t - float64(m.stillN)*dt
		w := 2 * math.Pi * m.sweepHz
		angle = m.ampRad * math.Sin(w*ts)
		rate = m.ampRad * w * math.Cos(w*ts)
	}

	childQ := quat.FromAxisAngle(m.axis, angle)
	f := Frame{
		Time:    m.start.Add(time.Duration(t * float64(time.Second))),
		ParentQ: quat.Identity(),
		ChildQ:  childQ,
		Gyro:    m.axis.Scale(rate),
		// Specific force: the reaction to gravity, pointing up at rest,
		// seen through the rotated child sensor.
		Accel: quat.Rotate(quat.Inv(childQ), quat.Vec3{Z: 9.81}),
	}
	m.i++
	return f, nil
}
