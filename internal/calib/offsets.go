// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package calib

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// SchemaVersion tags the persisted offset format.
const SchemaVersion = 1

// FramePair tags which two frames an offset maps between. An offset is
// meaningless without its pair; merging offsets with different pairs is a
// caller bug this tag makes visible.
type FramePair string

const (
	FrameSensorToBone  FramePair = "sensor_to_bone"
	FrameParentToChild FramePair = "parent_sensor_to_child_sensor"
)

// Offset is a unit quaternion tagged with the frame pair it maps. It
// serializes as a tagged [w,x,y,z] component array so the stored form
// round-trips exactly.
type Offset struct {
	Pair FramePair
	Q    quat.Quat
}

type offsetJSON struct {
	Pair FramePair  `json:"pair"`
	Q    [4]float64 `json:"q"` // [w, x, y, z]
}

func (o Offset) MarshalJSON() ([]byte, error) {
	return json.Marshal(offsetJSON{Pair: o.Pair, Q: [4]float64{o.Q.W, o.Q.X, o.Q.Y, o.Q.Z}})
}

func (o *Offset) UnmarshalJSON(b []byte) error {
	var j offsetJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	o.Pair = j.Pair
	o.Q = quat.Quat{W: j.Q[0], X: j.Q[1], Y: j.Q[2], Z: j.Q[3]}
	return nil
}

// Identity returns an identity offset for the given pair.
func IdentityOffset(pair FramePair) Offset {
	return Offset{Pair: pair, Q: quat.Identity()}
}

// Method tags which estimator produced a result.
type Method string

const (
	MethodSARA       Method = "sara"
	MethodPCA        Method = "pca"
	MethodSinglePose Method = "single_pose"
	MethodDualPose   Method = "dual_pose"
)

// Result is an immutable calibration outcome for one segment. Re-calibration
// produces a new Result that atomically replaces the previous one; nothing
// here is mutated in place after construction.
type Result struct {
	ID        string    `json:"id"`
	SegmentID string    `json:"segment_id"`
	CreatedAt time.Time `json:"created_at"`
	Schema    int       `json:"schema_version"`

	// Mounting (axis-alignment) and Heading (boresight) layers are distinct
	// and compose at runtime; they are stored separately on purpose.
	Mounting Offset `json:"mounting"`
	Heading  Offset `json:"heading"`

	Method     Method   `json:"method"`
	Confidence float64  `json:"confidence"` // [0,1]
	Quality    int      `json:"quality"`    // [0,100]
	Trust      Trust    `json:"trust"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Validate checks the numeric invariants every Result must satisfy before it
// crosses a package boundary.
func (r *Result) Validate() error {
	const unitTol = 1e-5
	if !quat.IsUnit(r.Mounting.Q, unitTol) {
		return fmt.Errorf("mounting offset norm %.7f not unit", quat.Norm(r.Mounting.Q))
	}
	if !quat.IsUnit(r.Heading.Q, unitTol) {
		return fmt.Errorf("heading offset norm %.7f not unit", quat.Norm(r.Heading.Q))
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence %.4f outside [0,1]", r.Confidence)
	}
	if r.Quality < 0 || r.Quality > 100 {
		return fmt.Errorf("quality %d outside [0,100]", r.Quality)
	}
	return nil
}

// WireScale is the fixed-point scale used for int16 quaternion components on
// gateway-bound packets (2^14, ~0.00006 resolution).
const WireScale = 16384.0

// WireQuat packs a unit quaternion into int16 components for the gateway wire
// format.
func WireQuat(q quat.Quat) [4]int16 {
	return [4]int16{
		int16(q.W * WireScale),
		int16(q.X * WireScale),
		int16(q.Y * WireScale),
		int16(q.Z * WireScale),
	}
}

// FromWireQuat reconstructs a quaternion from int16 wire components,
// renormalized to absorb quantization.
func FromWireQuat(w [4]int16) quat.Quat {
	return quat.Normalize(quat.Quat{
		W: float64(w[0]) / WireScale,
		X: float64(w[1]) / WireScale,
		Y: float64(w[2]) / WireScale,
		Z: float64(w[3]) / WireScale,
	})
}
