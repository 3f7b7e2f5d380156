package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker            string
	MQTTClientIDPublisher string
	MQTTClientIDCapture   string

	// Topics
	TopicOffsets string
	TopicReport  string
	TopicEvents  string

	// Serial-tethered node
	SerialPort string
	SerialBaud uint

	// Sampling
	SampleRateHz float64

	// Capture session tuning
	StillnessWindow int     // rolling window length, samples
	StillnessStd    float64 // gyro-magnitude std threshold, rad/s
	MotionThreshold float64 // rad/s
	StepTimeoutSec  int

	// Web Server
	WebServerPort int

	// Subject (optional, for anthropometric scaling)
	SubjectHeightM float64
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//     This enforces encapsulation and prevents external code from modifying config without proper locking.
//     Has package-level scope (visible to all functions in this package, persists for program lifetime).
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PUBLISHER":
		c.MQTTClientIDPublisher = value
	case "MQTT_CLIENT_ID_CAPTURE":
		c.MQTTClientIDCapture = value

	// Topics
	case "TOPIC_OFFSETS":
		c.TopicOffsets = value
	case "TOPIC_REPORT":
		c.TopicReport = value
	case "TOPIC_EVENTS":
		c.TopicEvents = value

	// Serial node
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		baud, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD %q: %w", value, err)
		}
		c.SerialBaud = uint(baud)

	// Sampling
	case "SAMPLE_RATE_HZ":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_RATE_HZ %q: %w", value, err)
		}
		if rate <= 0 || rate > 1000 {
			return fmt.Errorf("SAMPLE_RATE_HZ must be in (0,1000], got %g", rate)
		}
		c.SampleRateHz = rate

	// Capture session tuning
	case "STILLNESS_WINDOW":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid STILLNESS_WINDOW %q: %w", value, err)
		}
		if n < 5 || n > 500 {
			return fmt.Errorf("STILLNESS_WINDOW must be 5-500 samples, got %d", n)
		}
		c.StillnessWindow = n
	case "STILLNESS_STD":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid STILLNESS_STD %q: %w", value, err)
		}
		c.StillnessStd = v
	case "MOTION_THRESHOLD":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MOTION_THRESHOLD %q: %w", value, err)
		}
		c.MotionThreshold = v
	case "STEP_TIMEOUT_SEC":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid STEP_TIMEOUT_SEC %q: %w", value, err)
		}
		if n < 5 || n > 600 {
			return fmt.Errorf("STEP_TIMEOUT_SEC must be 5-600, got %d", n)
		}
		c.StepTimeoutSec = n

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Subject
	case "SUBJECT_HEIGHT_M":
		h, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SUBJECT_HEIGHT_M %q: %w", value, err)
		}
		c.SubjectHeightM = h

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.SampleRateHz == 0 {
		return fmt.Errorf("SAMPLE_RATE_HZ is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// Acquires write lock (configMu.Lock) during initialization to prevent concurrent access.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
// Uses read lock (configMu.RLock) to allow multiple concurrent readers without blocking.
// This is thread-safe and efficient for concurrent access across goroutines.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
