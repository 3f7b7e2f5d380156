// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package joint

import (
	"testing"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

func TestDefaultTableLookup(t *testing.T) {
	tbl := DefaultTable()

	knee, err := tbl.Get("knee_l")
	if err != nil {
		t.Fatalf("Get(knee_l): %v", err)
	}
	if knee.Side != SideLeft || knee.ChildSegment != "shank_l" {
		t.Errorf("knee_l = %+v", knee)
	}

	if _, err := tbl.Get("hip_l"); err == nil {
		t.Error("unknown joint id accepted")
	}

	if got := len(tbl.IDs()); got != 6 {
		t.Errorf("IDs() len = %d, want 6", got)
	}
}

func TestDefaultTableSideConventions(t *testing.T) {
	tbl := DefaultTable()
	for _, id := range tbl.IDs() {
		d, err := tbl.Get(id)
		if err != nil {
			t.Fatal(err)
		}
		// Flexion axes point laterally outward: +Y on the left, -Y on the
		// right, and match the Lateral hint's sign.
		switch d.Side {
		case SideLeft:
			if d.TargetAxis.Y <= 0 || d.Lateral.Y <= 0 {
				t.Errorf("%s: left axis %+v lateral %+v", id, d.TargetAxis, d.Lateral)
			}
		case SideRight:
			if d.TargetAxis.Y >= 0 || d.Lateral.Y >= 0 {
				t.Errorf("%s: right axis %+v lateral %+v", id, d.TargetAxis, d.Lateral)
			}
		}
		if d.TargetReference != (quat.Vec3{Z: 1}) {
			t.Errorf("%s: reference %+v, want Z up", id, d.TargetReference)
		}
		if d.ExpectedROMDeg <= 0 {
			t.Errorf("%s: no expected range of motion", id)
		}
	}
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	_, err := NewTable([]Definition{
		{ID: "knee_l"},
		{ID: "knee_l"},
	})
	if err == nil {
		t.Error("duplicate joint ids accepted")
	}
}
