// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package calib

import "errors"

// Failure taxonomy shared by the estimators, the orchestrator and the capture
// session. Every path degrades to a fallback, a lower-confidence result, or an
// explicit error of one of these kinds; nothing in this module panics on bad
// input data.
var (
	// ErrInsufficientData: too few samples or too little motion. Recoverable,
	// retry with more or better-excited motion.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrLowConfidence: an estimate was produced but fell below the acceptance
	// threshold of every applicable method.
	ErrLowConfidence = errors.New("low confidence")

	// ErrDegenerateGeometry: near-parallel or near-zero vectors where a cross
	// product or normalization is required.
	ErrDegenerateGeometry = errors.New("degenerate geometry")

	// ErrTimeout: a safety deadline expired before the capture finished.
	ErrTimeout = errors.New("capture timeout")

	// ErrVerificationMismatch: the bind-pose self-check exceeded tolerance.
	ErrVerificationMismatch = errors.New("verification mismatch")
)
