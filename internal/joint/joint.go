// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package joint carries the static anatomical reference data for calibration:
// per-joint target axes, expected range of motion, and side conventions. The
// table is read-only at calibration time; sessions receive it by injection,
// never through ambient lookup.
package joint

import (
	"fmt"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// Side distinguishes mirrored joints for sign disambiguation.
type Side string

const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideCenter Side = "center"
)

// Definition is the static reference data for one hinge joint.
type Definition struct {
	ID            string
	Name          string
	ParentSegment string
	ChildSegment  string
	Side          Side

	// TargetAxis is the anatomical hinge axis in the bone frame (e.g. the
	// medio-lateral flexion axis); TargetReference the secondary anatomical
	// direction (typically the long axis of the segment, aligned with
	// gravity in the reference pose).
	TargetAxis      quat.Vec3
	TargetReference quat.Vec3

	// Lateral is the world direction the resolved hinge axis should roughly
	// point toward for this side, used to commit the estimator's axis sign.
	Lateral quat.Vec3

	// ExpectedROMDeg is the functional range of motion expected during the
	// calibration movement, for the quality score's coverage term.
	ExpectedROMDeg float64
}

// Table is a read-only joint lookup.
type Table struct {
	byID map[string]Definition
}

// NewTable builds a table from definitions; duplicate IDs are an error.
func NewTable(defs []Definition) (*Table, error) {
	t := &Table{byID: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if _, dup := t.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate joint id %q", d.ID)
		}
		t.byID[d.ID] = d
	}
	return t, nil
}

// Get looks up a joint definition by id.
func (t *Table) Get(id string) (Definition, error) {
	d, ok := t.byID[id]
	if !ok {
		return Definition{}, fmt.Errorf("unknown joint id %q", id)
	}
	return d, nil
}

// IDs returns all known joint ids (unordered).
func (t *Table) IDs() []string {
	ids := make([]string, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	return ids
}

// DefaultTable returns the built-in lower/upper body hinge set. Axes follow
// the module convention: bone X forward, Y left, Z up along the segment.
// Flexion axes are medio-lateral (±Y), pointing laterally outward per side.
func DefaultTable() *Table {
	t, err := NewTable([]Definition{
		{
			ID: "knee_l", Name: "Left Knee", ParentSegment: "thigh_l", ChildSegment: "shank_l",
			Side: SideLeft, TargetAxis: quat.Vec3{Y: 1}, TargetReference: quat.Vec3{Z: 1},
			Lateral: quat.Vec3{Y: 1}, ExpectedROMDeg: 90,
		},
		{
			ID: "knee_r", Name: "Right Knee", ParentSegment: "thigh_r", ChildSegment: "shank_r",
			Side: SideRight, TargetAxis: quat.Vec3{Y: -1}, TargetReference: quat.Vec3{Z: 1},
			Lateral: quat.Vec3{Y: -1}, ExpectedROMDeg: 90,
		},
		{
			ID: "elbow_l", Name: "Left Elbow", ParentSegment: "upperarm_l", ChildSegment: "forearm_l",
			Side: SideLeft, TargetAxis: quat.Vec3{Y: 1}, TargetReference: quat.Vec3{Z: 1},
			Lateral: quat.Vec3{Y: 1}, ExpectedROMDeg: 120,
		},
		{
			ID: "elbow_r", Name: "Right Elbow", ParentSegment: "upperarm_r", ChildSegment: "forearm_r",
			Side: SideRight, TargetAxis: quat.Vec3{Y: -1}, TargetReference: quat.Vec3{Z: 1},
			Lateral: quat.Vec3{Y: -1}, ExpectedROMDeg: 120,
		},
		{
			ID: "ankle_l", Name: "Left Ankle", ParentSegment: "shank_l", ChildSegment: "foot_l",
			Side: SideLeft, TargetAxis: quat.Vec3{Y: 1}, TargetReference: quat.Vec3{Z: 1},
			Lateral: quat.Vec3{Y: 1}, ExpectedROMDeg: 45,
		},
		{
			ID: "ankle_r", Name: "Right Ankle", ParentSegment: "shank_r", ChildSegment: "foot_r",
			Side: SideRight, TargetAxis: quat.Vec3{Y: -1}, TargetReference: quat.Vec3{Z: 1},
			Lateral: quat.Vec3{Y: -1}, ExpectedROMDeg: 45,
		},
	})
	if err != nil {
		panic(err) // static data, unreachable
	}
	return t
}
