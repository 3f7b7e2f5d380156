// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/mocap_calibration/internal/app"
	"github.com/relabs-tech/mocap_calibration/internal/config"
)

func main() {
	configPath := flag.String("config", "mocap_config.txt", "Path to configuration file")
	jointID := flag.String("joint", "knee_l", "Joint to calibrate and publish")
	flag.Parse()

	log.Println("starting mocap-calibration offset publisher")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunOffsetPublisher(*jointID); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
