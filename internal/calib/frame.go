// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package calib holds the pose/axis composition math of the calibration
// engine: the Gram-Schmidt frame composer, single- and dual-pose offset
// computation, quality scoring, and the serialized offset types consumed by
// the kinematics solver.
package calib

import (
	"fmt"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// nearParallelDot is the |dot| threshold above which a reference vector is
// considered parallel to the primary axis and replaced by a fallback, to keep
// the cross products well-conditioned.
const nearParallelDot = 0.99

// AlignFrames returns the rotation mapping the sensor frame onto the bone
// frame, built from a primary axis plus a reference direction observed in the
// sensor frame and their anatomical targets in the bone frame.
//
// Each frame gets an orthonormal basis by Gram-Schmidt: the primary axis,
// the reference orthogonalized against it, and their cross product. When the
// reference is near-parallel to the primary axis a fallback reference is
// substituted on both sides; if the fallback degenerates too, the pair is
// reported as degenerate geometry.
func AlignFrames(primary, reference, targetPrimary, targetReference quat.Vec3) (quat.Quat, error) {
	sensor, err := orthonormalBasis(primary, reference)
	if err != nil {
		return quat.Identity(), fmt.Errorf("sensor frame: %w", err)
	}
	bone, err := orthonormalBasis(targetPrimary, targetReference)
	if err != nil {
		return quat.Identity(), fmt.Errorf("bone frame: %w", err)
	}

	// R = bone · sensorᵀ maps sensor basis vectors onto bone basis vectors.
	var r [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = bone[0][i]*sensor[0][j] + bone[1][i]*sensor[1][j] + bone[2][i]*sensor[2][j]
		}
	}
	return quat.FromRotationMatrix(r), nil
}

// orthonormalBasis builds {u, v, w} with u along primary and v the reference
// orthogonalized against u. Column k of the basis matrix is the k-th vector
// expressed as {X, Y, Z} slices, i.e. basis[k] = vector k.
func orthonormalBasis(primary, reference quat.Vec3) ([3][3]float64, error) {
	u, n := primary.Normalize()
	if n < 1e-9 {
		return [3][3]float64{}, fmt.Errorf("%w: zero primary axis", ErrDegenerateGeometry)
	}

	ref, n := reference.Normalize()
	if n < 1e-9 || absDot(u, ref) > nearParallelDot {
		ref = fallbackReference(u)
	}

	w := u.Cross(ref)
	w, n = w.Normalize()
	if n < 1e-9 {
		return [3][3]float64{}, fmt.Errorf("%w: reference parallel to primary axis", ErrDegenerateGeometry)
	}
	v := w.Cross(u)

	return [3][3]float64{
		{u.X, u.Y, u.Z},
		{v.X, v.Y, v.Z},
		{w.X, w.Y, w.Z},
	}, nil
}

// fallbackReference picks a world direction guaranteed non-parallel to u.
func fallbackReference(u quat.Vec3) quat.Vec3 {
	if absDot(u, quat.WorldUp) <= nearParallelDot {
		return quat.WorldUp
	}
	return quat.WorldForward
}

func absDot(a, b quat.Vec3) float64 {
	d := a.Dot(b)
	if d < 0 {
		return -d
	}
	return d
}
