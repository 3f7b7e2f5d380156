// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package session

import (
	"errors"
	"time"

	"github.com/relabs-tech/mocap_calibration/internal/calib"
	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// StepStatus records the outcome of one functional step.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepTimedOut  StepStatus = "timed_out"
	StepSkipped   StepStatus = "skipped"
	StepFailed    StepStatus = "failed"
)

// StepReport is the per-step slice of the session report.
type StepReport struct {
	ID          string     `json:"id"`
	Status      StepStatus `json:"status"`
	DurationSec float64    `json:"duration_sec"`
	Samples     int        `json:"samples"`
	Notes       []string   `json:"notes,omitempty"`
}

// Report is the structured session summary persisted alongside the offsets
// and published for telemetry.
type Report struct {
	SchemaVersion int       `json:"schema_version"`
	SessionID     string    `json:"session_id"`
	JointID       string    `json:"joint_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`

	Steps    []StepReport `json:"steps"`
	GyroBias quat.Vec3    `json:"gyro_bias"` // detected at first stillness, rad/s

	Method     calib.Method `json:"method,omitempty"`
	Confidence float64      `json:"confidence"`
	Quality    int          `json:"quality"`
	Trust      calib.Trust  `json:"trust"`
	Warnings   []string     `json:"warnings,omitempty"`
	TimedOut   bool         `json:"timed_out,omitempty"`

	// Guidance is the human-readable retry hint for failed or degraded runs.
	Guidance string `json:"guidance,omitempty"`
}

// RetryGuidance maps a calibration failure to a concrete instruction for the
// operator. Unknown errors get a generic retry hint.
func RetryGuidance(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, calib.ErrInsufficientData):
		return "Not enough usable motion was captured. Repeat the movement with larger, slower sweeps through the joint's full range."
	case errors.Is(err, calib.ErrLowConfidence):
		return "The motion was not clearly single-axis. Repeat the movement keeping the joint bending in one plane, without twisting."
	case errors.Is(err, calib.ErrDegenerateGeometry):
		return "The sensor orientation at rest was ambiguous. Re-seat the sensor, stand still in the reference pose, and retry."
	case errors.Is(err, calib.ErrTimeout):
		return "The step timed out. Make sure the subject starts moving promptly after the prompt, then holds still to finish."
	case errors.Is(err, calib.ErrVerificationMismatch):
		return "The verification check deviated from the reference pose. Hold the bind pose steadily when prompted and retry."
	default:
		return "Calibration failed. Check sensor placement and repeat the procedure."
	}
}
