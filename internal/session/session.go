// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package session implements the motion-gated capture state machine that
// drives interactive functional calibration: stillness detection, per-step
// motion gating and collection, safety timeouts, and the final two-layer
// (axis-alignment + boresight) composition.
//
// A Session owns one mutable run. It is driven by per-frame Tick calls from
// the host's sampling loop, never by its own goroutine, and must not be
// ticked concurrently. Every Tick returns immediately; deadlines are
// wall-clock checks against the frame timestamps, not OS timers.
package session

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/mocap_calibration/internal/axis"
	"github.com/relabs-tech/mocap_calibration/internal/calib"
	"github.com/relabs-tech/mocap_calibration/internal/hinge"
	"github.com/relabs-tech/mocap_calibration/internal/joint"
	"github.com/relabs-tech/mocap_calibration/internal/quat"
	"github.com/relabs-tech/mocap_calibration/internal/stream"
)

// State names the phases of a capture run. Transitions are one-directional
// except the explicit Cancel.
type State string

const (
	StateIdle              State = "idle"
	StateStationaryDetect  State = "stationary_detection"
	StateWaitingMotion     State = "waiting_for_motion"
	StateCollecting        State = "collecting"
	StateWaitingStationary State = "waiting_for_stationary"
	StateCalculating       State = "calculating"
	StateComplete          State = "complete"
	StateError             State = "error"
)

// ErrCancelled reports a host-initiated stop; in-flight data is discarded.
var ErrCancelled = errors.New("session cancelled")

// Step describes one functional movement the operator is prompted through.
type Step struct {
	ID     string
	Prompt string
}

// Config tunes a capture session. Zero values select the defaults.
type Config struct {
	SampleRateHz float64 // nominal, default 50

	StillnessWindow     int     // rolling window length, default 25 (~0.5 s)
	StillnessStd        float64 // gyro-magnitude std threshold, default 0.05 rad/s
	MotionThreshold     float64 // bias-corrected magnitude, default 0.5 rad/s
	MotionConfirmFrames int     // consecutive frames above threshold, default 3

	// StepTimeout is the hard wall-clock safety deadline applied to every
	// interactive state, checked per tick.
	StepTimeout time.Duration // default 30 s

	// BindPose is the bind-pose target orientation for the boresight layer
	// and its self-check. Defaults to identity.
	BindPose quat.Quat

	Steps []Step // default: single flex/extend step

	// TargetSamples sizes the progress reporting during collection
	// (default 150, 3 s at 50 Hz).
	TargetSamples int
}

func (c *Config) applyDefaults() {
	if c.SampleRateHz == 0 {
		c.SampleRateHz = 50
	}
	if c.StillnessWindow == 0 {
		c.StillnessWindow = 25
	}
	if c.StillnessStd == 0 {
		c.StillnessStd = 0.05
	}
	if c.MotionThreshold == 0 {
		c.MotionThreshold = 0.5
	}
	if c.MotionConfirmFrames == 0 {
		c.MotionConfirmFrames = 3
	}
	if c.StepTimeout == 0 {
		c.StepTimeout = 30 * time.Second
	}
	if quat.Norm(c.BindPose) == 0 {
		c.BindPose = quat.Identity()
	}
	if len(c.Steps) == 0 {
		c.Steps = []Step{{ID: "flex_extend", Prompt: "Bend and straighten the joint through its full range, then hold still."}}
	}
	if c.TargetSamples == 0 {
		c.TargetSamples = 150
	}
}

// Session is one capture run for one joint. Construct with New, drive with
// Tick, read the outcome with Result once State is complete or error.
type Session struct {
	id    string
	cfg   Config
	joint joint.Definition
	obs   Observer

	state     State
	stepIdx   int
	enteredAt time.Time
	startedAt time.Time

	still     *stillnessDetector
	bias      quat.Vec3
	biasKnown bool
	motionRun int

	// Buffers owned exclusively by this run; discarded on cancel.
	parentBuf []quat.Quat
	childBuf  []quat.Quat
	gyroBuf   []quat.Vec3
	sara      *axis.SARAAccumulator

	// Boresight checkpoint: pose and gravity captured at the most recent
	// accepted stillness.
	checkpointQ        quat.Quat
	checkpointGravity  quat.Vec3
	checkpointAnterior quat.Vec3
	haveCheckpoint     bool

	stepStart   time.Time
	stepSamples int
	steps       []StepReport

	result   *calib.Result
	report   *Report
	warnings []string
	timedOut bool
	err      error
}

// New constructs a session for the given joint. obs may be nil.
func New(def joint.Definition, cfg Config, obs Observer) *Session {
	cfg.applyDefaults()
	if obs == nil {
		obs = NopObserver
	}
	return &Session{
		id:    uuid.NewString(),
		cfg:   cfg,
		joint: def,
		obs:   obs,
		state: StateIdle,
		still: newStillnessDetector(cfg.StillnessWindow, cfg.StillnessStd),
		sara:  axis.NewSARAAccumulator(axis.DefaultSARAMinSamples),
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// State returns the current phase.
func (s *Session) State() State { return s.state }

// Steps returns the configured step list (for prompting).
func (s *Session) Steps() []Step { return s.cfg.Steps }

// CurrentStep returns the active step, or a zero Step outside the per-step
// phases.
func (s *Session) CurrentStep() Step {
	if s.stepIdx < len(s.cfg.Steps) {
		return s.cfg.Steps[s.stepIdx]
	}
	return Step{}
}

// LiveAxis snapshots the incremental SARA estimate mid-capture for live
// feedback. It never mutates the accumulator; before enough pairs have
// arrived it returns nil.
func (s *Session) LiveAxis() *axis.HingePair {
	pair, err := s.sara.Compute()
	if err != nil {
		return nil
	}
	return pair
}

// Cancel stops the run from any state and discards in-flight data.
func (s *Session) Cancel() {
	if s.state == StateComplete || s.state == StateError {
		return
	}
	s.parentBuf, s.childBuf, s.gyroBuf = nil, nil, nil
	s.sara.Reset()
	s.err = ErrCancelled
	s.report = s.buildReport(time.Now())
	s.setState(StateError, time.Now())
	s.emit(EventError, "cancelled")
}

// Result returns the calibration result and report once the session has
// finished. A timed-out run can return both a best-effort result and a
// non-nil error context via the report's TimedOut flag.
func (s *Session) Result() (*calib.Result, *Report, error) {
	switch s.state {
	case StateComplete:
		return s.result, s.report, nil
	case StateError:
		return nil, s.report, s.err
	default:
		return nil, nil, fmt.Errorf("session still running (state %s)", s.state)
	}
}

// Tick advances the state machine with one frame and returns the resulting
// state. It never blocks.
func (s *Session) Tick(f stream.Frame) State {
	switch s.state {
	case StateComplete, StateError:
		return s.state
	case StateIdle:
		s.startedAt = f.Time
		s.setState(StateStationaryDetect, f.Time)
		s.emit(EventPhase, "hold still in the reference pose")
	}

	// Hard safety deadline, checked every tick in every interactive state.
	if s.interactive() && f.Time.Sub(s.enteredAt) > s.cfg.StepTimeout {
		s.onTimeout(f)
		return s.state
	}

	switch s.state {
	case StateStationaryDetect:
		s.tickStationaryDetect(f)
	case StateWaitingMotion:
		s.tickWaitingMotion(f)
	case StateCollecting:
		s.tickCollecting(f)
	case StateWaitingStationary:
		s.tickWaitingStationary(f)
	case StateCalculating:
		s.calculate(f.Time)
	}
	return s.state
}

func (s *Session) interactive() bool {
	switch s.state {
	case StateStationaryDetect, StateWaitingMotion, StateCollecting, StateWaitingStationary:
		return true
	}
	return false
}

func (s *Session) tickStationaryDetect(f stream.Frame) {
	s.still.push(f.Gyro)
	if !s.still.still() {
		return
	}

	// First stillness lock: this window's mean is the gyro bias estimate;
	// all later magnitude checks run bias-corrected.
	s.bias = s.still.windowMean()
	s.biasKnown = true
	s.still.lockBias(s.bias)
	s.captureCheckpoint(f)

	s.beginStep(f.Time)
}

func (s *Session) beginStep(now time.Time) {
	s.stepStart = now
	s.stepSamples = 0
	s.motionRun = 0
	s.setState(StateWaitingMotion, now)
	s.emit(EventPhase, s.CurrentStep().Prompt)
}

func (s *Session) tickWaitingMotion(f stream.Frame) {
	if s.corrected(f.Gyro).Norm() > s.cfg.MotionThreshold {
		s.motionRun++
	} else {
		s.motionRun = 0
	}
	// Collection starts only after motion is confirmed; frames before that
	// would pollute the axis estimate with pure noise.
	if s.motionRun >= s.cfg.MotionConfirmFrames {
		s.setState(StateCollecting, f.Time)
		s.emit(EventPhase, "capturing motion")
	}
}

func (s *Session) tickCollecting(f stream.Frame) {
	s.collect(f)

	if s.stepSamples%10 == 0 {
		p := float64(s.stepSamples) / float64(s.cfg.TargetSamples)
		if p > 1 {
			p = 1
		}
		s.emitProgress(p)
	}

	if s.corrected(f.Gyro).Norm() < s.cfg.MotionThreshold {
		s.still.reset()
		s.setState(StateWaitingStationary, f.Time)
		s.emit(EventPhase, "hold still to finish the step")
	}
}

func (s *Session) tickWaitingStationary(f stream.Frame) {
	// Collection continues through return-to-stillness so the tail of the
	// movement is not lost.
	s.collect(f)
	s.still.push(f.Gyro)

	if s.corrected(f.Gyro).Norm() > s.cfg.MotionThreshold {
		// Motion resumed; back to plain collection.
		s.setState(StateCollecting, f.Time)
		return
	}
	if !s.still.still() {
		return
	}

	// Stillness confirmed: refresh the boresight checkpoint and close the
	// step.
	s.captureCheckpoint(f)
	s.steps = append(s.steps, StepReport{
		ID:          s.CurrentStep().ID,
		Status:      StepCompleted,
		DurationSec: f.Time.Sub(s.stepStart).Seconds(),
		Samples:     s.stepSamples,
	})

	s.stepIdx++
	if s.stepIdx < len(s.cfg.Steps) {
		s.beginStep(f.Time)
		return
	}
	s.setState(StateCalculating, f.Time)
	s.emit(EventPhase, "calculating calibration")
}

func (s *Session) collect(f stream.Frame) {
	s.parentBuf = append(s.parentBuf, f.ParentQ)
	s.childBuf = append(s.childBuf, f.ChildQ)
	s.gyroBuf = append(s.gyroBuf, s.corrected(f.Gyro))
	s.sara.Add(f.ParentQ, f.ChildQ)
	s.stepSamples++
}

func (s *Session) corrected(g quat.Vec3) quat.Vec3 {
	if !s.biasKnown {
		return g
	}
	return g.Sub(s.bias)
}

// captureCheckpoint records the child pose and gravity at an accepted
// stillness, the anchor for the boresight layer and sign disambiguation.
func (s *Session) captureCheckpoint(f stream.Frame) {
	s.checkpointQ = f.ChildQ
	down, n := f.Accel.Scale(-1).Normalize()
	if n < 1e-6 {
		// No usable accel (replay without accel data): fall back to the
		// world down direction seen through the reported orientation.
		down = quat.Rotate(quat.Inv(f.ChildQ), quat.Vec3{Z: -1})
	}
	s.checkpointGravity = down
	s.checkpointAnterior = quat.Rotate(quat.Inv(f.ChildQ), quat.WorldForward)
	s.haveCheckpoint = true
}

// onTimeout handles a safety-deadline expiry: if any usable motion was
// collected the run degrades to a best-effort calculation, otherwise it
// finishes as a timeout error. Either way the report is tagged.
func (s *Session) onTimeout(f stream.Frame) {
	s.timedOut = true
	note := fmt.Sprintf("safety timeout in %s after %.0fs", s.state, s.cfg.StepTimeout.Seconds())
	s.warnings = append(s.warnings, note)
	s.emit(EventWarning, note)

	if s.stepIdx < len(s.cfg.Steps) {
		s.steps = append(s.steps, StepReport{
			ID:          s.CurrentStep().ID,
			Status:      StepTimedOut,
			DurationSec: f.Time.Sub(s.stepStart).Seconds(),
			Samples:     s.stepSamples,
			Notes:       []string{note},
		})
		s.stepIdx = len(s.cfg.Steps)
	}

	if len(s.gyroBuf) > 0 && s.haveCheckpoint {
		s.setState(StateCalculating, f.Time)
		s.calculate(f.Time)
		return
	}
	s.finishError(f.Time, fmt.Errorf("%w: no motion captured before deadline", calib.ErrTimeout))
}

// calculate runs the orchestrator over the collected buffers and composes
// the final two-layer calibration.
func (s *Session) calculate(now time.Time) {
	in := hinge.Input{
		Joint:        s.joint,
		ParentQ:      s.parentBuf,
		ChildQ:       s.childBuf,
		ChildGyro:    s.gyroBuf,
		Gravity:      s.checkpointGravity,
		Anterior:     s.checkpointAnterior,
		SampleRateHz: s.cfg.SampleRateHz,
	}
	hr, err := hinge.Calibrate(in)
	if err != nil {
		s.finishError(now, err)
		return
	}

	axisAlign := hr.Mounting.Q
	// Two-layer composition: the mounting tare stays identity, the heading
	// tare zeroes the boresight pose against the bind-pose target.
	headingTare := quat.Normalize(quat.Mul(s.checkpointQ,
		quat.Mul(quat.Inv(axisAlign), quat.Inv(s.cfg.BindPose))))

	warnings := append([]string{}, s.warnings...)
	warnings = append(warnings, hr.Warnings...)

	trust := calib.TrustFromQuality(hr.Quality)

	// Self-check: reapplying the composed transform to the captured pose
	// must land on the bind-pose target. A miss is logged, not fatal, but
	// costs one trust level.
	reapplied := quat.Mul(quat.Inv(headingTare), quat.Mul(s.checkpointQ, quat.Inv(axisAlign)))
	devDeg := quat.AngleBetween(reapplied, s.cfg.BindPose) * 180 / math.Pi
	if devDeg > 0.5 {
		msg := fmt.Sprintf("bind-pose self-check off by %.2f°", devDeg)
		warnings = append(warnings, msg)
		s.emit(EventWarning, msg)
		trust = trust.Downgrade()
	}
	if s.timedOut {
		warnings = append(warnings, "best-effort result after timeout")
		trust = trust.Downgrade()
	}

	s.result = &calib.Result{
		ID:         uuid.NewString(),
		SegmentID:  s.joint.ChildSegment,
		CreatedAt:  now,
		Schema:     calib.SchemaVersion,
		Mounting:   hr.Mounting,
		Heading:    calib.Offset{Pair: calib.FrameSensorToBone, Q: headingTare},
		Method:     hr.Method,
		Confidence: hr.Confidence,
		Quality:    hr.Quality,
		Trust:      trust,
		Warnings:   warnings,
	}
	if err := s.result.Validate(); err != nil {
		s.finishError(now, fmt.Errorf("%w: %v", calib.ErrDegenerateGeometry, err))
		return
	}

	s.report = s.buildReport(now)
	s.report.Method = hr.Method
	s.report.Confidence = hr.Confidence
	s.report.Quality = hr.Quality
	s.report.Trust = trust
	s.report.Warnings = warnings

	s.setState(StateComplete, now)
	s.emit(EventComplete, "calibration complete")
}

func (s *Session) finishError(now time.Time, err error) {
	s.err = err
	s.report = s.buildReport(now)
	s.report.Trust = calib.TrustNone
	s.report.Guidance = RetryGuidance(err)
	s.setState(StateError, now)
	s.emit(EventError, err.Error())
}

func (s *Session) buildReport(now time.Time) *Report {
	return &Report{
		SchemaVersion: calib.SchemaVersion,
		SessionID:     s.id,
		JointID:       s.joint.ID,
		StartedAt:     s.startedAt,
		FinishedAt:    now,
		Steps:         append([]StepReport{}, s.steps...),
		GyroBias:      s.bias,
		Warnings:      append([]string{}, s.warnings...),
		TimedOut:      s.timedOut,
	}
}

func (s *Session) setState(st State, now time.Time) {
	s.state = st
	s.enteredAt = now
}

func (s *Session) emit(t EventType, msg string) {
	s.obs.HandleEvent(Event{
		Type:      t,
		SessionID: s.id,
		State:     s.state,
		Step:      s.CurrentStep().ID,
		Message:   msg,
		At:        s.enteredAt,
	})
}

func (s *Session) emitProgress(p float64) {
	s.obs.HandleEvent(Event{
		Type:      EventProgress,
		SessionID: s.id,
		State:     s.state,
		Step:      s.CurrentStep().ID,
		Progress:  p,
		At:        s.enteredAt,
	})
}
