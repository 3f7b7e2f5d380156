package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/relabs-tech/mocap_calibration/internal/config"
	"github.com/relabs-tech/mocap_calibration/internal/joint"
)

// RunCaptureServer serves the interactive calibration UI: a websocket
// endpoint that runs capture sessions and a small JSON API describing the
// joints that can be calibrated.
func RunCaptureServer() error {
	cfg := config.Get()

	joints := joint.DefaultTable()

	// 1) Interactive capture over websocket
	http.HandleFunc("/ws/capture", NewCaptureHandler(joints, SessionConfigFromGlobal()))

	// 2) JSON API endpoint: joints available for calibration
	http.HandleFunc("/api/joints", func(w http.ResponseWriter, r *http.Request) {
		type jointInfo struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Side        string `json:"side"`
			ExpectedROM int    `json:"expected_rom_deg"`
		}
		var out []jointInfo
		for _, id := range joints.IDs() {
			def, err := joints.Get(id)
			if err != nil {
				continue
			}
			out = append(out, jointInfo{
				ID:          def.ID,
				Name:        def.Name,
				Side:        string(def.Side),
				ExpectedROM: int(def.ExpectedROMDeg),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	// 3) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	port := cfg.WebServerPort
	if port == 0 {
		port = 8080
	}
	addr := fmt.Sprintf(":%d", port)
	log.Printf("capture server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
