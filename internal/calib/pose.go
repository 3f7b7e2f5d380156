// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package calib

import (
	"math"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// SinglePoseOffset computes the sensor→bone offset from one captured pose:
// offset = sensorAtCapture⁻¹ · target. At runtime the calibrated bone
// orientation is recovered with ApplyOffset.
func SinglePoseOffset(sensorAtCapture, target quat.Quat) quat.Quat {
	return quat.Normalize(quat.Mul(quat.Inv(sensorAtCapture), target))
}

// ApplyOffset maps a live sensor reading through a previously computed
// offset: bone = sensorNow · offset.
func ApplyOffset(sensorNow, offset quat.Quat) quat.Quat {
	return quat.Normalize(quat.Mul(sensorNow, offset))
}

// DualPoseOffset composes a tilt offset captured in a static reference pose
// (typically T-pose) with a heading correction measured after the subject has
// walked into a second, known-forward pose.
//
// The heading correction is the yaw between the horizontally projected
// forward vectors of the second pose and its target. A near-vertical forward
// projection (subject looking straight up or down the world axis) substitutes
// the default world forward instead of producing a garbage heading.
func DualPoseOffset(tiltSensor, tiltTarget, headingSensor, headingTarget quat.Quat) quat.Quat {
	tilt := SinglePoseOffset(tiltSensor, tiltTarget)

	observed := horizontalForward(quat.Mul(headingSensor, tilt))
	wanted := horizontalForward(headingTarget)

	yaw := math.Atan2(wanted.Y, wanted.X) - math.Atan2(observed.Y, observed.X)
	heading := quat.FromAxisAngle(quat.WorldUp, yaw)

	// Heading is a world-frame pre-rotation conjugated into the sensor frame
	// so the result stays a single post-multiplied offset:
	// sensor · offset = heading · sensor · tilt at the capture pose. The
	// per-layer offsets remain available via SinglePoseOffset and
	// HeadingOffset; composition here is explicit, never a silent merge.
	return quat.Normalize(quat.Mul(quat.Inv(headingSensor), quat.Mul(heading, quat.Mul(headingSensor, tilt))))
}

// HeadingOffset returns only the yaw-correction layer between an observed and
// a target pose, as a world-frame rotation about up.
func HeadingOffset(observed, target quat.Quat) quat.Quat {
	o := horizontalForward(observed)
	w := horizontalForward(target)
	yaw := math.Atan2(w.Y, w.X) - math.Atan2(o.Y, o.X)
	return quat.FromAxisAngle(quat.WorldUp, yaw)
}

// horizontalForwardMin is the minimum horizontal magnitude of a rotated
// forward vector before the default forward is substituted.
const horizontalForwardMin = 0.14 // ≈ sin(8°) from vertical

func horizontalForward(q quat.Quat) quat.Vec3 {
	f := quat.Rotate(q, quat.WorldForward)
	f.Z = 0
	u, n := f.Normalize()
	if n < horizontalForwardMin {
		return quat.WorldForward
	}
	return u
}

// QualityFromError maps an angular error in degrees onto the 0-100 quality
// scale, piecewise-linear over the bands the rest of the system keys on.
func QualityFromError(errDeg float64) int {
	var q float64
	switch {
	case errDeg <= 2:
		q = 100 - 2.5*errDeg // 100 → 95
	case errDeg <= 5:
		q = 95 - 5*(errDeg-2) // 95 → 80
	case errDeg <= 10:
		q = 80 - 6*(errDeg-5) // 80 → 50
	case errDeg <= 20:
		q = 50 - 5*(errDeg-10) // 50 → 0
	default:
		q = 0
	}
	return int(math.Round(q))
}

// QualityWarnings returns the user-facing warnings for an angular error, in
// escalation order.
func QualityWarnings(errDeg float64) []string {
	var w []string
	if errDeg > 10 {
		w = append(w, "pose error above 10 degrees, consider re-calibrating")
	}
	if errDeg > 20 {
		w = append(w, "pose error above 20 degrees, calibration unusable")
	}
	return w
}
