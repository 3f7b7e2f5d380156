// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// ./cmd/calibrate/main.go
//
// Guided joint calibration for the body-worn sensor network.
// For one hinge joint (knee, elbow, ankle) it runs the motion-gated capture
// session: hold still, flex and extend the joint, hold still again. The hinge
// axis is estimated with SARA (PCA fallback), composed into sensor-to-bone
// mounting and heading offsets, and scored.
//
// Output:
//
//	Writes a JSON offsets file including method, confidence, quality and trust.
//
// Run:
//
//	go run ./cmd/calibrate -joint knee_l -input mock
//
// Notes / assumptions:
//   - Frame input comes from the serial-tethered node (-input serial), a
//     recorded JSONL file (-input replay:<path>), or a synthetic hinge
//     (-input mock) for bench testing without hardware.
//   - Orientations entering the session are unit quaternions in a shared
//     world frame (Z up, X forward); gyro in rad/s, accel in m/s² specific
//     force.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/relabs-tech/mocap_calibration/internal/anthro"
	"github.com/relabs-tech/mocap_calibration/internal/app"
	"github.com/relabs-tech/mocap_calibration/internal/config"
	"github.com/relabs-tech/mocap_calibration/internal/joint"
	"github.com/relabs-tech/mocap_calibration/internal/session"
	"github.com/relabs-tech/mocap_calibration/internal/stream"
)

const (
	mockRateHz    = 50.0
	mockSweepHz   = 0.5
	mockAmplitude = 1.0 // rad, ~57° each way
	mockStillSec  = 2.0
	mockSweepSec  = 6.0
)

func main() {
	in := bufio.NewReader(os.Stdin)

	configPath := flag.String("config", "mocap_config.txt", "Path to configuration file")
	jointID := flag.String("joint", "knee_l", "Joint to calibrate (see -list)")
	input := flag.String("input", "serial", "Frame input: serial, mock, or replay:<file>")
	outPath := flag.String("out", "", "Output offsets file (default <joint>_offsets.json)")
	list := flag.Bool("list", false, "List known joints and exit")
	flag.Parse()

	joints := joint.DefaultTable()

	if *list {
		for _, id := range joints.IDs() {
			def, _ := joints.Get(id)
			fmt.Printf("  %-10s %s (%s)\n", id, def.Name, def.Side)
		}
		return
	}

	fmt.Println("=== Guided Joint Calibration ===")
	fmt.Println()

	if err := config.InitGlobal(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load config from %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	cfg := config.Get()

	def, err := joints.Get(*jointID)
	if err != nil {
		fatal(err)
	}

	src, err := openSource(*input, def, cfg)
	if err != nil {
		fatal(err)
	}

	if cfg.SubjectHeightM > 0 {
		scaling, err := anthro.Scale(anthro.Subject{HeightM: cfg.SubjectHeightM})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Subject height %.2f m: segment scale %.3f\n", cfg.SubjectHeightM, scaling.Uniform)
	}

	fmt.Printf("Calibrating: %s\n\n", def.Name)
	fmt.Println("Stand in the reference pose and hold the limb still.")
	fmt.Println("When prompted, flex and extend the joint through its full range,")
	fmt.Println("then hold still again.")
	waitEnter(in, "Press ENTER to start...")

	sess := session.New(def, app.SessionConfigFromGlobal(), consoleObserver())

	for {
		frame, err := src.Next()
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nstream ended: %v\n", err)
			break
		}
		state := sess.Tick(frame)
		if state == session.StateComplete || state == session.StateError {
			break
		}
	}

	result, report, err := sess.Result()
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nCalibration failed: %v\n", err)
		if report != nil && report.Guidance != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", report.Guidance)
		}
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Method:     %s\n", result.Method)
	fmt.Printf("Confidence: %.2f\n", result.Confidence)
	fmt.Printf("Quality:    %d/100\n", result.Quality)
	fmt.Printf("Trust:      %s\n", result.Trust)
	for _, w := range report.Warnings {
		fmt.Printf("Warning:    %s\n", w)
	}

	path := *outPath
	if path == "" {
		path = fmt.Sprintf("%s_offsets.json", def.ID)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		fatal(err)
	}
	fmt.Printf("\nSaved offsets to %s\n", path)
}

// ---------- Input sources ----------

func openSource(input string, def joint.Definition, cfg *config.Config) (stream.Source, error) {
	switch {
	case input == "serial":
		src, err := stream.NewSerialSource(cfg.SerialPort, cfg.SerialBaud)
		if err != nil {
			return nil, err
		}
		return src, nil

	case input == "mock":
		// Synthetic hinge about the joint's own target axis, resolved to the
		// child sensor frame as identity mounting.
		axis := def.TargetAxis
		return stream.NewMockHingeSource(axis, mockRateHz, mockSweepHz, mockAmplitude, mockStillSec, mockSweepSec), nil

	case strings.HasPrefix(input, "replay:"):
		return stream.NewReplaySource(strings.TrimPrefix(input, "replay:"))

	default:
		return nil, fmt.Errorf("unknown input %q (want serial, mock, or replay:<file>)", input)
	}
}

// ---------- Console output ----------

func consoleObserver() session.Observer {
	var lastBar int = -1
	return session.ObserverFunc(func(e session.Event) {
		switch e.Type {
		case session.EventPhase:
			lastBar = -1
			switch e.State {
			case session.StateStationaryDetect:
				fmt.Println("\nHold still...")
			case session.StateWaitingMotion:
				fmt.Println("Now flex and extend the joint.")
			case session.StateCollecting:
				fmt.Println("Collecting, keep moving...")
			case session.StateWaitingStationary:
				fmt.Println("Hold still to finish the step.")
			case session.StateCalculating:
				fmt.Println("Calculating...")
			}
		case session.EventProgress:
			bar := int(e.Progress * 20)
			if bar != lastBar {
				lastBar = bar
				fmt.Printf("\r[%-20s] %3.0f%%", strings.Repeat("=", bar), e.Progress*100)
				if bar >= 20 {
					fmt.Println()
				}
			}
		case session.EventWarning:
			fmt.Printf("\nWARNING: %s\n", e.Message)
		}
	})
}

// ---------- Helpers ----------

func waitEnter(in *bufio.Reader, prompt string) {
	fmt.Print(prompt)
	_, _ = in.ReadString('\n')
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
