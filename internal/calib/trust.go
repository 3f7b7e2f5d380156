// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package calib

// Trust is the coarse user-facing severity signal, computed from gate
// pass/fail plus post-checks rather than from raw confidence alone.
type Trust string

const (
	TrustNone   Trust = "none"
	TrustLow    Trust = "low"
	TrustMedium Trust = "medium"
	TrustHigh   Trust = "high"
)

// Downgrade steps a trust level down by one.
func (t Trust) Downgrade() Trust {
	switch t {
	case TrustHigh:
		return TrustMedium
	case TrustMedium:
		return TrustLow
	default:
		return TrustNone
	}
}

// TrustFromQuality derives a baseline trust level from the 0-100 quality
// score. Post-checks (verification mismatch, timeout) downgrade from here.
func TrustFromQuality(quality int) Trust {
	switch {
	case quality >= 80:
		return TrustHigh
	case quality >= 50:
		return TrustMedium
	case quality > 0:
		return TrustLow
	default:
		return TrustNone
	}
}
