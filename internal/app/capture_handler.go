// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/relabs-tech/mocap_calibration/internal/calib"
	"github.com/relabs-tech/mocap_calibration/internal/joint"
	"github.com/relabs-tech/mocap_calibration/internal/session"
	"github.com/relabs-tech/mocap_calibration/internal/stream"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// CaptureSession holds the state of one websocket-driven joint calibration.
// Frames arrive over the socket from the client-side sensor bridge; session
// events flow back on the same connection.
type CaptureSession struct {
	Conn   *websocket.Conn
	mu     sync.Mutex
	joints *joint.Table
	cfg    session.Config
	sess   *session.Session
	done   bool
}

// WebSocket message types
type WSMessage struct {
	Action string        `json:"action"` // start, frame, cancel
	Joint  string        `json:"joint,omitempty"`
	Frame  *stream.Frame `json:"frame,omitempty"`
}

type WSResponse struct {
	Type     string          `json:"type"` // phase, progress, warning, complete, error
	State    string          `json:"state,omitempty"`
	Step     string          `json:"step,omitempty"`
	Progress float64         `json:"progress,omitempty"`
	Message  string          `json:"message,omitempty"`
	Result   *calib.Result   `json:"result,omitempty"`
	Report   *session.Report `json:"report,omitempty"`
}

// NewCaptureHandler returns the websocket handler for interactive joint
// calibration, bound to a joint table and session tuning.
func NewCaptureHandler(joints *joint.Table, cfg session.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("capture: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		cs := &CaptureSession{
			Conn:   conn,
			joints: joints,
			cfg:    cfg,
		}
		cs.loop()
	}
}

func (s *CaptureSession) loop() {
	for {
		var msg WSMessage
		err := s.Conn.ReadJSON(&msg)
		if err != nil {
			log.Printf("capture: websocket read error: %v", err)
			if s.sess != nil && !s.done {
				s.sess.Cancel()
			}
			return
		}

		switch msg.Action {
		case "start":
			if err := s.start(msg.Joint); err != nil {
				s.sendError(err.Error())
			}

		case "frame":
			if msg.Frame == nil {
				s.sendError("frame action without frame payload")
				continue
			}
			s.tick(*msg.Frame)

		case "cancel":
			log.Printf("capture: cancelled by user")
			if s.sess != nil {
				s.sess.Cancel()
			}
			return

		default:
			s.sendError(fmt.Sprintf("unknown action %q", msg.Action))
		}
	}
}

func (s *CaptureSession) start(jointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess != nil && !s.done {
		return fmt.Errorf("session already running")
	}

	def, err := s.joints.Get(jointID)
	if err != nil {
		return err
	}

	s.done = false
	s.sess = session.New(def, s.cfg, session.ObserverFunc(s.forwardEvent))
	log.Printf("capture: started session %s for joint %s", s.sess.ID(), jointID)
	return nil
}

func (s *CaptureSession) tick(f stream.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil || s.done {
		return
	}

	state := s.sess.Tick(f)
	switch state {
	case session.StateComplete:
		s.done = true
		s.complete()
	case session.StateError:
		s.done = true
		_, report, err := s.sess.Result()
		resp := WSResponse{Type: "error", State: string(state)}
		if err != nil {
			resp.Message = err.Error()
		}
		resp.Report = report
		s.Conn.WriteJSON(resp)
	}
}

// forwardEvent relays session events to the websocket client. complete and
// error are handled in tick so the result rides along; everything else maps
// one-to-one.
func (s *CaptureSession) forwardEvent(e session.Event) {
	switch e.Type {
	case session.EventPhase:
		s.Conn.WriteJSON(WSResponse{
			Type:  "phase",
			State: string(e.State),
			Step:  e.Step,
		})
	case session.EventProgress:
		s.Conn.WriteJSON(WSResponse{
			Type:     "progress",
			Step:     e.Step,
			Progress: e.Progress * 100.0,
		})
	case session.EventWarning:
		s.Conn.WriteJSON(WSResponse{
			Type:    "warning",
			Step:    e.Step,
			Message: e.Message,
		})
	}
}

func (s *CaptureSession) complete() {
	result, report, err := s.sess.Result()
	if err != nil {
		s.sendError(err.Error())
		return
	}

	// Save results next to the server binary, same shape the CLI writes.
	filename := fmt.Sprintf("%s_%d_joint_calibration.json", report.JointID, time.Now().Unix())
	cwd, err := os.Getwd()
	if err == nil {
		path := filepath.Join(cwd, filename)
		if data, merr := json.MarshalIndent(result, "", "  "); merr == nil {
			if werr := os.WriteFile(path, data, 0644); werr != nil {
				log.Printf("capture: failed to write result file: %v", werr)
			} else {
				log.Printf("capture: saved results to %s", path)
			}
		}
	}

	s.Conn.WriteJSON(WSResponse{
		Type:   "complete",
		Result: result,
		Report: report,
	})
}

func (s *CaptureSession) sendError(message string) {
	s.Conn.WriteJSON(WSResponse{
		Type:    "error",
		Message: message,
	})
}
