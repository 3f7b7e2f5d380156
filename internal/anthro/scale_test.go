// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package anthro

import (
	"math"
	"testing"
)

func TestScaleReferenceSubject(t *testing.T) {
	s, err := Scale(Subject{HeightM: 1.75})
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if math.Abs(s.Uniform-1) > 1e-12 {
		t.Errorf("Uniform = %v at reference height, want 1", s.Uniform)
	}
	if got := s.SegmentLengthM["thigh_l"]; math.Abs(got-0.245*1.75) > 1e-12 {
		t.Errorf("thigh_l = %v, want %v", got, 0.245*1.75)
	}
	if s.SegmentLengthM["thigh_l"] != s.SegmentLengthM["thigh_r"] {
		t.Error("left/right thigh lengths differ")
	}
}

func TestScaleTallSubject(t *testing.T) {
	s, err := Scale(Subject{HeightM: 1.92, Sex: SexMale})
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if math.Abs(s.Uniform-1.92/1.75) > 1e-12 {
		t.Errorf("Uniform = %v", s.Uniform)
	}
	// Sex refines pelvis width only.
	if s.PelvisWidthM >= 0.191*1.92 {
		t.Errorf("male pelvis width %v not narrower than mixed table", s.PelvisWidthM)
	}
}

func TestScaleImplausibleHeight(t *testing.T) {
	for _, h := range []float64{0, 0.3, 3.0, -1.8} {
		if _, err := Scale(Subject{HeightM: h}); err == nil {
			t.Errorf("height %v accepted", h)
		}
	}
}
