// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package session

import "time"

// EventType classifies session events.
type EventType string

const (
	EventPhase    EventType = "phase"
	EventProgress EventType = "progress"
	EventWarning  EventType = "warning"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one diagnostic emission from a capture session. The session never
// logs directly; hosts attach an Observer and forward events to whatever sink
// they run (console log, MQTT, websocket).
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	State     State     `json:"state,omitempty"`
	Step      string    `json:"step,omitempty"`
	Progress  float64   `json:"progress,omitempty"` // 0..1 within the step
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
}

// Observer receives session events. Implementations must not block: they are
// called from the host's per-frame tick.
type Observer interface {
	HandleEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) HandleEvent(e Event) { f(e) }

// NopObserver discards all events.
var NopObserver Observer = ObserverFunc(func(Event) {})
