// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package session

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/mocap_calibration/internal/calib"
	"github.com/relabs-tech/mocap_calibration/internal/joint"
	"github.com/relabs-tech/mocap_calibration/internal/quat"
	"github.com/relabs-tech/mocap_calibration/internal/stream"
)

const tickHz = 50.0

// frameAt builds one synthetic frame: child rotated by theta about the hinge
// axis (+Y), gyro as given, accel consistent with the orientation.
func frameAt(t0 time.Time, i int, theta float64, gyro quat.Vec3) stream.Frame {
	childQ := quat.FromAxisAngle(quat.Vec3{Y: 1}, theta)
	return stream.Frame{
		Time:    t0.Add(time.Duration(float64(i) / tickHz * float64(time.Second))),
		ParentQ: quat.Identity(),
		ChildQ:  childQ,
		Gyro:    gyro,
		Accel:   quat.Rotate(quat.Inv(childQ), quat.Vec3{Z: 9.81}),
	}
}

func leftKnee(t *testing.T) joint.Definition {
	t.Helper()
	def, err := joint.DefaultTable().Get("knee_l")
	require.NoError(t, err)
	return def
}

func TestSessionFullRun(t *testing.T) {
	var events []Event
	obs := ObserverFunc(func(e Event) { events = append(events, e) })

	s := New(leftKnee(t), Config{}, obs)
	assert.Equal(t, StateIdle, s.State())

	src := stream.NewMockHingeSource(quat.Vec3{Y: 1}, tickHz, 0.5, 1.0, 2.0, 6.0)

	var state State
	for i := 0; i < 1500; i++ {
		f, err := src.Next()
		require.NoError(t, err)
		state = s.Tick(f)
		if state == StateComplete || state == StateError {
			break
		}
	}
	require.Equal(t, StateComplete, state, "session did not complete")

	result, report, err := s.Result()
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, report)

	assert.NoError(t, result.Validate())
	assert.Equal(t, calib.MethodSARA, result.Method)
	assert.Equal(t, "shank_l", result.SegmentID)
	assert.GreaterOrEqual(t, result.Quality, 80)
	assert.Equal(t, calib.TrustHigh, result.Trust)

	// Sensor frame equal to bone frame in the mock: both layers near identity.
	assert.Less(t, quat.Angle(result.Mounting.Q)*180/math.Pi, 2.0)
	assert.Less(t, quat.Angle(result.Heading.Q)*180/math.Pi, 2.0)

	require.Len(t, report.Steps, 1)
	assert.Equal(t, StepCompleted, report.Steps[0].Status)
	assert.Greater(t, report.Steps[0].Samples, 100)
	assert.InDelta(t, 0, report.GyroBias.Norm(), 1e-9)
	assert.False(t, report.TimedOut)

	// Phases announced in order, completion last.
	var types []EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, EventPhase)
	assert.Equal(t, EventComplete, events[len(events)-1].Type)
}

func TestSessionCompensatesGyroBias(t *testing.T) {
	bias := quat.Vec3{X: 0.2, Y: -0.1, Z: 0.15}

	s := New(leftKnee(t), Config{}, nil)
	src := stream.NewMockHingeSource(quat.Vec3{Y: 1}, tickHz, 0.5, 1.0, 2.0, 6.0)

	var state State
	for i := 0; i < 1500; i++ {
		f, err := src.Next()
		require.NoError(t, err)
		f.Gyro = f.Gyro.Add(bias) // stale uncalibrated gyro
		state = s.Tick(f)
		if state == StateComplete || state == StateError {
			break
		}
	}
	require.Equal(t, StateComplete, state)

	result, report, err := s.Result()
	require.NoError(t, err)

	// The first stillness window identifies the injected bias.
	assert.InDelta(t, bias.X, report.GyroBias.X, 0.01)
	assert.InDelta(t, bias.Y, report.GyroBias.Y, 0.01)
	assert.InDelta(t, bias.Z, report.GyroBias.Z, 0.01)

	// And the axis estimate survives it.
	assert.GreaterOrEqual(t, result.Quality, 70)
}

func TestSessionTimesOutWithoutMotion(t *testing.T) {
	s := New(leftKnee(t), Config{StepTimeout: 2 * time.Second}, nil)
	t0 := time.Now()

	var state State
	for i := 0; i < 400; i++ {
		state = s.Tick(frameAt(t0, i, 0, quat.Vec3{}))
		if state == StateError || state == StateComplete {
			break
		}
	}
	require.Equal(t, StateError, state, "session must not keep waiting past the deadline")

	_, report, err := s.Result()
	require.Error(t, err)
	assert.ErrorIs(t, err, calib.ErrTimeout)
	require.NotNil(t, report)
	assert.True(t, report.TimedOut)
	assert.Equal(t, calib.TrustNone, report.Trust)
	assert.NotEmpty(t, report.Guidance)
	require.Len(t, report.Steps, 1)
	assert.Equal(t, StepTimedOut, report.Steps[0].Status)
}

func TestSessionBestEffortOnTimeoutMidMotion(t *testing.T) {
	s := New(leftKnee(t), Config{StepTimeout: 2 * time.Second}, nil)
	t0 := time.Now()

	// 1 s of stillness, then continuous rotation that never settles.
	const stillN = 50
	rate := 3.0
	var state State
	for i := 0; i < 500; i++ {
		var f stream.Frame
		if i < stillN {
			f = frameAt(t0, i, 0, quat.Vec3{})
		} else {
			theta := rate * float64(i-stillN) / tickHz
			f = frameAt(t0, i, theta, quat.Vec3{Y: rate})
		}
		state = s.Tick(f)
		if state == StateComplete || state == StateError {
			break
		}
	}
	require.Equal(t, StateComplete, state, "collected motion must yield a best-effort result")

	result, report, err := s.Result()
	require.NoError(t, err)
	assert.True(t, report.TimedOut)
	assert.Contains(t, result.Warnings, "best-effort result after timeout")

	// Best-effort results never keep full trust.
	assert.NotEqual(t, calib.TrustHigh, result.Trust)
}

func TestSessionCancel(t *testing.T) {
	s := New(leftKnee(t), Config{}, nil)
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		s.Tick(frameAt(t0, i, 0, quat.Vec3{}))
	}

	s.Cancel()
	assert.Equal(t, StateError, s.State())

	_, report, err := s.Result()
	assert.ErrorIs(t, err, ErrCancelled)
	require.NotNil(t, report)

	// Cancel after completion is a no-op.
	s.Cancel()
	assert.Equal(t, StateError, s.State())
}

func TestSessionResultWhileRunning(t *testing.T) {
	s := New(leftKnee(t), Config{}, nil)
	_, _, err := s.Result()
	assert.Error(t, err)
}

func TestSessionLiveAxisSnapshot(t *testing.T) {
	s := New(leftKnee(t), Config{}, nil)
	src := stream.NewMockHingeSource(quat.Vec3{Y: 1}, tickHz, 0.5, 1.0, 2.0, 6.0)

	// Before any pairs have been collected there is no live estimate.
	assert.Nil(t, s.LiveAxis())

	sawLive := false
	for i := 0; i < 1500; i++ {
		f, err := src.Next()
		require.NoError(t, err)
		state := s.Tick(f)
		if state == StateCollecting && s.LiveAxis() != nil {
			sawLive = true
		}
		if state == StateComplete || state == StateError {
			break
		}
	}
	assert.True(t, sawLive, "live axis must become available during collection")
}

func TestStationaryCheck(t *testing.T) {
	assert.True(t, StationaryCheck(0.1, 0.2, 0.3, 0.5))
	assert.False(t, StationaryCheck(0.4, 0.2, 0.3, 0.5), "gyro over bound")
	assert.False(t, StationaryCheck(0.1, 0.6, 0.3, 0.5), "accel deviation over bound")
}
