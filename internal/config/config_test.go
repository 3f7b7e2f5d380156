package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mocap_config.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
# broker
MQTT_BROKER=tcp://localhost:1883
MQTT_CLIENT_ID_PUBLISHER=mocap-publisher

TOPIC_OFFSETS=mocap/calibration/offsets
TOPIC_REPORT=mocap/calibration/report
TOPIC_EVENTS=mocap/calibration/events

SERIAL_PORT=/dev/ttyUSB0
SERIAL_BAUD=115200

SAMPLE_RATE_HZ=50
STILLNESS_WINDOW=25
STILLNESS_STD=0.05
MOTION_THRESHOLD=0.5
STEP_TIMEOUT_SEC=30

WEB_SERVER_PORT=8080
SUBJECT_HEIGHT_M=1.82
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTTBroker != "tcp://localhost:1883" {
		t.Errorf("MQTTBroker = %q", cfg.MQTTBroker)
	}
	if cfg.SerialBaud != 115200 {
		t.Errorf("SerialBaud = %d", cfg.SerialBaud)
	}
	if cfg.SampleRateHz != 50 || cfg.StillnessWindow != 25 {
		t.Errorf("sampling fields: %+v", cfg)
	}
	if cfg.SubjectHeightM != 1.82 {
		t.Errorf("SubjectHeightM = %v", cfg.SubjectHeightM)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://x\nSAMPLE_RATE_HZ=50\nBOGUS_KEY=1\n")
	if _, err := Load(path); err == nil {
		t.Error("unknown key accepted")
	}
}

func TestLoadRequiresBrokerAndRate(t *testing.T) {
	path := writeConfig(t, "SAMPLE_RATE_HZ=50\n")
	if _, err := Load(path); err == nil {
		t.Error("missing MQTT_BROKER accepted")
	}

	path = writeConfig(t, "MQTT_BROKER=tcp://x\n")
	if _, err := Load(path); err == nil {
		t.Error("missing SAMPLE_RATE_HZ accepted")
	}
}

func TestLoadValidatesRanges(t *testing.T) {
	cases := []string{
		"MQTT_BROKER=tcp://x\nSAMPLE_RATE_HZ=0\n",
		"MQTT_BROKER=tcp://x\nSAMPLE_RATE_HZ=50\nSTILLNESS_WINDOW=2\n",
		"MQTT_BROKER=tcp://x\nSAMPLE_RATE_HZ=50\nSTEP_TIMEOUT_SEC=1000\n",
		"MQTT_BROKER=tcp://x\nSAMPLE_RATE_HZ=50\nSERIAL_BAUD=abc\n",
	}
	for _, c := range cases {
		if _, err := Load(writeConfig(t, c)); err == nil {
			t.Errorf("accepted invalid config: %q", c)
		}
	}
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER tcp://x\n")
	if _, err := Load(path); err == nil {
		t.Error("malformed line accepted")
	}
}
