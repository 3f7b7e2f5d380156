// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package stream defines the per-sample frames the calibration engine
// consumes from the fusion filter, and the sources that deliver them: a
// serial-tethered node, a JSONL replay file, and a synthetic mock.
package stream

import (
	"time"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// Frame is one time-aligned sample for a joint under calibration: the
// parent and child segment orientations from the fusion filter plus the
// child sensor's inertial readings.
type Frame struct {
	Time time.Time `json:"t"`

	ParentQ quat.Quat `json:"parent_q"`
	ChildQ  quat.Quat `json:"child_q"`

	Gyro  quat.Vec3 `json:"gyro"`  // rad/s, child sensor frame
	Accel quat.Vec3 `json:"accel"` // m/s², child sensor frame

	// Grounded is the external contact detector's verdict for the foot this
	// frame belongs to; meaningful only for foot segments.
	Grounded bool `json:"grounded,omitempty"`
}

// Source is anything that can deliver frames over time: serial node, replay
// file, mock generator, or the websocket ingest in internal/app.
type Source interface {
	Next() (Frame, error)
}
