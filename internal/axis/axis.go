// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package axis estimates functional joint axes from buffered motion samples.
//
// Two estimators are provided: a single-sensor principal-axis estimator over
// angular-velocity samples (PCA) and a dual-sensor symmetric-axis estimator
// over time-aligned orientation streams (SARA). Both are pure functions over
// their input buffers and safe to call concurrently on independent inputs.
//
// Estimated axes are lines, not rays: the sign is meaningless until a caller
// commits it, which is why the estimators only ever return Ambiguous values.
package axis

import "github.com/relabs-tech/mocap_calibration/internal/quat"

// Ambiguous is an estimated axis whose sign has not been committed. v and -v
// describe the same physical hinge; callers must Resolve before treating the
// estimate as a direction.
type Ambiguous struct {
	vec        quat.Vec3
	Confidence float64 // in [0,1], property of this estimate
	Samples    int
}

// newAmbiguous normalizes v; confidence is clamped to [0,1].
func newAmbiguous(v quat.Vec3, confidence float64, samples int) Ambiguous {
	u, _ := v.Normalize()
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return Ambiguous{vec: u, Confidence: confidence, Samples: samples}
}

// Line returns the undisambiguated unit direction. Only use this for
// sign-independent math (projections, angle-to-line comparisons).
func (a Ambiguous) Line() quat.Vec3 { return a.vec }

// Resolve commits the sign so that the resulting axis has non-negative dot
// product with toward, producing a Resolved axis usable as a direction.
func (a Ambiguous) Resolve(toward quat.Vec3) Resolved {
	v := a.vec
	if v.Dot(toward) < 0 {
		v = v.Scale(-1)
	}
	return Resolved{Vec: v, Confidence: a.Confidence, Samples: a.Samples}
}

// Resolved is a sign-committed unit axis estimate.
type Resolved struct {
	Vec        quat.Vec3
	Confidence float64
	Samples    int
}

// HingePair is a SARA result: the same physical hinge axis expressed in the
// child and parent sensor frames. Both carry the shared confidence.
type HingePair struct {
	Child   Ambiguous
	Parent  Ambiguous
	Samples int
}
