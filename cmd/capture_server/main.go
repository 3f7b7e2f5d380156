// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"

	"github.com/relabs-tech/mocap_calibration/internal/app"
	"github.com/relabs-tech/mocap_calibration/internal/config"
)

func main() {
	log.Println("starting mocap-calibration capture server (websocket)")

	// Load configuration
	if err := config.InitGlobal("mocap_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	log.Println("Note: the browser client streams sensor frames over the /ws/capture socket")

	if err := app.RunCaptureServer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
