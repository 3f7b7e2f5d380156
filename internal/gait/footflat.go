// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package gait

import (
	"math"
	"time"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// FootFlatConfig gates heading resets. All three conditions must hold on the
// same frame: the external contact detector reports grounded, the foot's
// gyro magnitude is under the bound, and the sole is near level.
type FootFlatConfig struct {
	MaxGyroMag float64       // default 0.3 rad/s
	MaxTiltDeg float64       // pitch/roll from level, default 10°
	RateLimit  time.Duration // min spacing between anchors per foot, default 2 s
}

func (c *FootFlatConfig) applyDefaults() {
	if c.MaxGyroMag == 0 {
		c.MaxGyroMag = 0.3
	}
	if c.MaxTiltDeg == 0 {
		c.MaxTiltDeg = 10
	}
	if c.RateLimit == 0 {
		c.RateLimit = 2 * time.Second
	}
}

// HeadingAnchor is one accepted foot-flat event: a yaw-only orientation
// anchor plus drift relative to the first anchor of the walk.
type HeadingAnchor struct {
	At       time.Time
	YawOnly  quat.Quat // rotation about world up only
	YawDeg   float64
	DriftDeg float64 // vs. the first anchor; heading drift accumulated so far
}

// FootHeadingReset tracks foot-flat heading anchors for one foot. One
// instance per foot; not shared.
type FootHeadingReset struct {
	cfg      FootFlatConfig
	firstYaw float64
	haveBase bool
	lastAt   time.Time
}

// NewFootHeadingReset returns a tracker with the given gates.
func NewFootHeadingReset(cfg FootFlatConfig) *FootHeadingReset {
	cfg.applyDefaults()
	return &FootHeadingReset{cfg: cfg}
}

// Observe evaluates one foot frame. When all gates pass and the rate limit
// allows, it returns the new anchor and true.
func (r *FootHeadingReset) Observe(footQ quat.Quat, gyroMag float64, grounded bool, now time.Time) (HeadingAnchor, bool) {
	if !grounded || gyroMag > r.cfg.MaxGyroMag {
		return HeadingAnchor{}, false
	}
	if tiltDeg(footQ) > r.cfg.MaxTiltDeg {
		return HeadingAnchor{}, false
	}
	if !r.lastAt.IsZero() && now.Sub(r.lastAt) < r.cfg.RateLimit {
		return HeadingAnchor{}, false
	}

	twist := quat.TwistZ(footQ)
	yawDeg := quat.Yaw(footQ) * 180 / math.Pi

	if !r.haveBase {
		r.firstYaw = yawDeg
		r.haveBase = true
	}
	r.lastAt = now

	return HeadingAnchor{
		At:       now,
		YawOnly:  twist,
		YawDeg:   yawDeg,
		DriftDeg: wrapDeg(yawDeg - r.firstYaw),
	}, true
}

// Reset clears the drift baseline and rate limiter (new walking bout).
func (r *FootHeadingReset) Reset() {
	r.haveBase = false
	r.lastAt = time.Time{}
}

// tiltDeg measures how far the orientation's up vector leans from world up.
func tiltDeg(q quat.Quat) float64 {
	up := quat.Rotate(q, quat.WorldUp)
	return up.AngleTo(quat.WorldUp) * 180 / math.Pi
}

func wrapDeg(d float64) float64 {
	for d > 180 {
		d -= 360
	}
	for d < -180 {
		d += 360
	}
	return d
}
