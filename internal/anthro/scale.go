// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package anthro derives per-segment lengths from subject stature using a
// fixed reference proportion table. Pure functions; no state.
package anthro

import "fmt"

// Sex refines the pelvis/shoulder breadth proportions slightly; unknown is
// accepted and uses the mixed table.
type Sex string

const (
	SexUnknown Sex = ""
	SexFemale  Sex = "female"
	SexMale    Sex = "male"
)

// Subject carries the measurements scaling can use. Height is required;
// MassKg and Sex are optional refinements.
type Subject struct {
	HeightM float64
	MassKg  float64
	Sex     Sex
}

// referenceHeightM is the stature the proportion table is normalized to.
const referenceHeightM = 1.75

// segmentProportions maps segment id to length as a fraction of stature
// (standard gait-analysis proportions).
var segmentProportions = map[string]float64{
	"head":       0.130,
	"trunk":      0.288,
	"pelvis":     0.145,
	"upperarm_l": 0.186, "upperarm_r": 0.186,
	"forearm_l": 0.146, "forearm_r": 0.146,
	"hand_l": 0.108, "hand_r": 0.108,
	"thigh_l": 0.245, "thigh_r": 0.245,
	"shank_l": 0.246, "shank_r": 0.246,
	"foot_l": 0.152, "foot_r": 0.152,
}

// Breadth fractions differ by sex enough to matter for the pelvis segment.
var pelvisWidthBySex = map[Sex]float64{
	SexUnknown: 0.191,
	SexFemale:  0.200,
	SexMale:    0.183,
}

// Scaling is the output of Scale: absolute segment lengths plus the uniform
// whole-skeleton factor relative to the reference stature.
type Scaling struct {
	Uniform        float64            `json:"uniform"`
	SegmentLengthM map[string]float64 `json:"segment_length_m"`
	PelvisWidthM   float64            `json:"pelvis_width_m"`
}

// Scale computes segment lengths for a subject. Height must be plausible for
// a standing human (0.5–2.5 m).
func Scale(s Subject) (Scaling, error) {
	if s.HeightM < 0.5 || s.HeightM > 2.5 {
		return Scaling{}, fmt.Errorf("implausible subject height %.2f m", s.HeightM)
	}

	out := Scaling{
		Uniform:        s.HeightM / referenceHeightM,
		SegmentLengthM: make(map[string]float64, len(segmentProportions)),
	}
	for id, p := range segmentProportions {
		out.SegmentLengthM[id] = p * s.HeightM
	}

	pw, ok := pelvisWidthBySex[s.Sex]
	if !ok {
		pw = pelvisWidthBySex[SexUnknown]
	}
	out.PelvisWidthM = pw * s.HeightM

	return out, nil
}
