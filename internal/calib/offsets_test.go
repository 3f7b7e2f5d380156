// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package calib

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

func TestOffsetJSONShape(t *testing.T) {
	o := Offset{Pair: FrameSensorToBone, Q: quat.FromAxisAngle(quat.Vec3{Z: 1}, 0.5)}
	b, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Stored as a tagged [w,x,y,z] array, not a struct of fields.
	if !strings.Contains(string(b), `"pair":"sensor_to_bone"`) || !strings.Contains(string(b), `"q":[`) {
		t.Errorf("unexpected JSON shape: %s", b)
	}

	var back Offset
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Pair != o.Pair || back.Q != o.Q {
		t.Errorf("round trip changed offset: %+v != %+v", back, o)
	}
}

func TestResultValidate(t *testing.T) {
	good := Result{
		ID:         "r1",
		SegmentID:  "shank_l",
		CreatedAt:  time.Now(),
		Schema:     SchemaVersion,
		Mounting:   IdentityOffset(FrameSensorToBone),
		Heading:    IdentityOffset(FrameSensorToBone),
		Method:     MethodSARA,
		Confidence: 0.9,
		Quality:    85,
		Trust:      TrustHigh,
	}
	if err := good.Validate(); err != nil {
		t.Errorf("valid result rejected: %v", err)
	}

	bad := good
	bad.Mounting.Q = quat.Quat{W: 2}
	if err := bad.Validate(); err == nil {
		t.Error("non-unit mounting accepted")
	}

	bad = good
	bad.Confidence = 1.5
	if err := bad.Validate(); err == nil {
		t.Error("confidence > 1 accepted")
	}

	bad = good
	bad.Quality = 101
	if err := bad.Validate(); err == nil {
		t.Error("quality > 100 accepted")
	}
}

func TestWireQuatResolution(t *testing.T) {
	q := quat.FromAxisAngle(quat.Vec3{X: 0.3, Y: -0.7, Z: 0.5}, 1.234)
	back := FromWireQuat(WireQuat(q))
	// 2^14 scale gives ~1e-4 worst-case per component after renormalization.
	if ang := quat.AngleBetween(q, back); ang > 5e-4 {
		t.Errorf("wire round trip off by %v rad", ang)
	}
	if !quat.IsUnit(back, 1e-9) {
		t.Errorf("FromWireQuat not renormalized: %v", quat.Norm(back))
	}
}

func TestTrustLadder(t *testing.T) {
	if TrustFromQuality(85) != TrustHigh || TrustFromQuality(80) != TrustHigh {
		t.Error("quality >= 80 should be high trust")
	}
	if TrustFromQuality(79) != TrustMedium || TrustFromQuality(50) != TrustMedium {
		t.Error("quality 50-79 should be medium trust")
	}
	if TrustFromQuality(1) != TrustLow || TrustFromQuality(0) != TrustNone {
		t.Error("low/none boundaries wrong")
	}

	if TrustHigh.Downgrade() != TrustMedium || TrustMedium.Downgrade() != TrustLow {
		t.Error("downgrade ladder wrong")
	}
	if TrustLow.Downgrade() != TrustNone || TrustNone.Downgrade() != TrustNone {
		t.Error("downgrade must saturate at none")
	}
}

func TestWireQuatHalfTurn(t *testing.T) {
	// A zero-W quaternion exercises the full ±1 component range of the
	// packing. The round trip must land on the same rotation.
	q := quat.FromAxisAngle(quat.Vec3{Z: 1}, math.Pi)
	back := FromWireQuat(WireQuat(q))
	if ang := quat.AngleBetween(q, back); ang > 5e-4 {
		t.Errorf("half turn round trip off by %v rad", ang)
	}
}
