package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/relabs-tech/mocap_calibration/internal/config"
	"github.com/relabs-tech/mocap_calibration/internal/joint"
	"github.com/relabs-tech/mocap_calibration/internal/session"
	"github.com/relabs-tech/mocap_calibration/internal/stream"
)

// SessionConfigFromGlobal maps the application config onto session tuning.
// Unset keys keep the session defaults.
func SessionConfigFromGlobal() session.Config {
	cfg := config.Get()
	if cfg == nil {
		return session.Config{}
	}
	sc := session.Config{
		SampleRateHz:    cfg.SampleRateHz,
		StillnessWindow: cfg.StillnessWindow,
		StillnessStd:    cfg.StillnessStd,
		MotionThreshold: cfg.MotionThreshold,
	}
	if cfg.StepTimeoutSec > 0 {
		sc.StepTimeout = time.Duration(cfg.StepTimeoutSec) * time.Second
	}
	return sc
}

// RunOffsetPublisher drives one joint calibration from the serial-tethered
// sensor node and publishes the outcome over MQTT: live events on the events
// topic, then the offsets (retained) and the structured report.
func RunOffsetPublisher(jointID string) error {
	log.Println("starting joint offset publisher")

	cfg := config.Get()

	def, err := joint.DefaultTable().Get(jointID)
	if err != nil {
		return err
	}

	// --- open the sensor stream ---
	src, err := stream.NewSerialSource(cfg.SerialPort, cfg.SerialBaud)
	if err != nil {
		log.Printf("failed to open serial port %s: %v", cfg.SerialPort, err)
		return err
	}
	defer src.Close()

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDPublisher)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting capture")

	obs := MultiObserver(LogObserver, NewMQTTObserver(client, cfg.TopicEvents))
	sess := session.New(def, SessionConfigFromGlobal(), obs)

	// main tick: one frame in, one state step out
	for {
		frame, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("sensor stream ended before calibration finished")
			}
			log.Printf("serial read error: %v", err)
			continue
		}

		state := sess.Tick(frame)
		if state == session.StateComplete || state == session.StateError {
			break
		}
	}

	result, report, err := sess.Result()

	// The report publishes even on failure: consumers use it for retry guidance.
	if payload, merr := json.Marshal(report); merr != nil {
		log.Printf("report marshal error: %v", merr)
	} else if token := client.Publish(cfg.TopicReport, 0, false, payload); token.Wait() && token.Error() != nil {
		log.Printf("MQTT publish error (report): %v", token.Error())
	}

	if err != nil {
		log.Printf("calibration failed: %v", err)
		return err
	}

	payload, merr := json.Marshal(result)
	if merr != nil {
		log.Printf("offsets marshal error: %v", merr)
		return merr
	}
	// Retained so the skeleton solver picks up the latest offsets on connect.
	if token := client.Publish(cfg.TopicOffsets, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("MQTT publish error (offsets): %v", token.Error())
		return token.Error()
	}

	log.Printf("published offsets for %s: method=%s quality=%d trust=%s",
		jointID, result.Method, result.Quality, result.Trust)
	return nil
}
