// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package hinge orchestrates per-joint functional calibration: it selects
// between the SARA and PCA estimators, commits the estimated axis sign,
// invokes the frame composer against the joint's anatomical targets, and
// scores the result.
package hinge

import (
	"fmt"
	"math"

	"github.com/relabs-tech/mocap_calibration/internal/axis"
	"github.com/relabs-tech/mocap_calibration/internal/calib"
	"github.com/relabs-tech/mocap_calibration/internal/joint"
	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

const (
	// saraMinSamples gates whether SARA is attempted at all;
	// saraAcceptConfidence gates whether its estimate is trusted over the
	// PCA fallback. PCA itself fails below pcaMinConfidence.
	saraMinSamples       = 20
	saraAcceptConfidence = 0.4
	pcaMinConfidence     = 0.3

	// sampleSufficiency is the buffer length treated as "plenty" for the
	// quality score's sufficiency term (2 s at the 50 Hz nominal rate).
	sampleSufficiency = 100
)

// Input is one joint's worth of captured calibration data.
type Input struct {
	Joint joint.Definition

	// Time-aligned orientation streams from the fusion filter. Either may be
	// short/empty, which forces the PCA fallback.
	ParentQ []quat.Quat
	ChildQ  []quat.Quat

	// ChildGyro is the child sensor's angular velocity (rad/s, sensor frame).
	ChildGyro []quat.Vec3

	// Gravity is the sensor-frame gravity direction (pointing down) captured
	// at the stillness checkpoint; Anterior the sensor-frame direction that
	// mapped to world forward at that checkpoint. Both are unit vectors.
	Gravity  quat.Vec3
	Anterior quat.Vec3

	SampleRateHz float64
}

// Result is the orchestrator's output for one joint.
type Result struct {
	Axis       axis.Resolved  // hinge axis, child sensor frame, sign committed
	ParentAxis *axis.Resolved // present for SARA results only
	Mounting   calib.Offset   // child sensor → bone alignment
	Method     calib.Method
	Confidence float64
	Quality    int
	Warnings   []string
}

// Calibrate runs the estimator selection and composition for one joint.
//
// SARA is attempted only with at least saraMinSamples on both orientation
// streams and accepted only above saraAcceptConfidence; otherwise the
// single-sensor PCA estimator is the fallback, which itself fails below
// pcaMinConfidence with ErrLowConfidence.
func Calibrate(in Input) (*Result, error) {
	var (
		estimated  axis.Ambiguous
		parentEst  *axis.Ambiguous
		method     calib.Method
		warnings   []string
		methodConf float64
	)

	if len(in.ParentQ) >= saraMinSamples && len(in.ChildQ) >= saraMinSamples {
		p, c := alignStreams(in.ParentQ, in.ChildQ)
		pair, err := axis.EstimateSARA(p, c, saraMinSamples)
		if err == nil && pair.Child.Confidence > saraAcceptConfidence {
			estimated = pair.Child
			parentEst = &pair.Parent
			method = calib.MethodSARA
			methodConf = pair.Child.Confidence
		} else if err == nil {
			warnings = append(warnings,
				fmt.Sprintf("sara confidence %.2f below %.2f, falling back to pca",
					pair.Child.Confidence, saraAcceptConfidence))
		} else {
			warnings = append(warnings, "sara estimation failed: "+err.Error())
		}
	}

	if method == "" {
		est := axis.EstimatePCA(in.ChildGyro, true)
		if est.Confidence < pcaMinConfidence {
			return nil, fmt.Errorf("%w: pca confidence %.2f below %.2f for joint %s",
				calib.ErrLowConfidence, est.Confidence, pcaMinConfidence, in.Joint.ID)
		}
		estimated = est
		method = calib.MethodPCA
		methodConf = est.Confidence
	}

	resolved := resolveSign(estimated, in.Gravity, in.Anterior, in.Joint.Side)
	var parentResolved *axis.Resolved
	if parentEst != nil {
		pr := resolveSign(*parentEst, in.Gravity, in.Anterior, in.Joint.Side)
		parentResolved = &pr
	}

	up := in.Gravity.Scale(-1)
	mounting, err := calib.AlignFrames(resolved.Vec, up, in.Joint.TargetAxis, in.Joint.TargetReference)
	if err != nil {
		return nil, fmt.Errorf("joint %s: %w", in.Joint.ID, err)
	}

	res := &Result{
		Axis:       resolved,
		ParentAxis: parentResolved,
		Mounting:   calib.Offset{Pair: calib.FrameSensorToBone, Q: mounting},
		Method:     method,
		Confidence: methodConf,
		Warnings:   warnings,
	}
	res.Quality = scoreQuality(in, method, methodConf, resolved.Samples)
	return res, nil
}

// alignStreams truncates both orientation buffers to their common length so a
// straggling frame on one stream never misaligns the pairs.
func alignStreams(parent, child []quat.Quat) ([]quat.Quat, []quat.Quat) {
	n := len(parent)
	if len(child) < n {
		n = len(child)
	}
	return parent[:n], child[:n]
}

// resolveSign commits the hinge-axis sign. The cross product of the sensed
// gravity direction with the axis points anterior when the axis follows the
// side convention (laterally outward on the left, inward flip on the right);
// comparing that against the checkpoint anterior direction picks the sign.
func resolveSign(a axis.Ambiguous, gravity, anterior quat.Vec3, side joint.Side) axis.Resolved {
	forward := gravity.Cross(a.Line())
	agree := forward.Dot(anterior)
	if side == joint.SideRight {
		agree = -agree
	}
	if agree >= 0 {
		return a.Resolve(a.Line())
	}
	return a.Resolve(a.Line().Scale(-1))
}

// scoreQuality blends the quality components: confidence 0-40, range of
// motion coverage 0-30, sample sufficiency 0-15, method bonus 8 (PCA) or
// 15 (SARA).
func scoreQuality(in Input, method calib.Method, confidence float64, samples int) int {
	confScore := 40 * clamp01(confidence)

	romScore := 0.0
	if in.Joint.ExpectedROMDeg > 0 && in.SampleRateHz > 0 {
		total := integratedAngleDeg(in.ChildGyro, in.SampleRateHz)
		romScore = 30 * clamp01(total/in.Joint.ExpectedROMDeg)
	}

	suffScore := 15 * clamp01(float64(samples)/sampleSufficiency)

	bonus := 8.0
	if method == calib.MethodSARA {
		bonus = 15
	}

	q := int(math.Round(confScore + romScore + suffScore + bonus))
	if q > 100 {
		q = 100
	}
	if q < 0 {
		q = 0
	}
	return q
}

// integratedAngleDeg integrates gyro magnitude over the buffer, a proxy for
// how much of the joint's range the motion actually covered.
func integratedAngleDeg(gyro []quat.Vec3, rateHz float64) float64 {
	dt := 1 / rateHz
	sum := 0.0
	for _, g := range gyro {
		sum += g.Norm() * dt
	}
	return sum * 180 / math.Pi
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
