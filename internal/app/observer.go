package app

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/relabs-tech/mocap_calibration/internal/session"
)

// LogObserver writes session events to the standard logger.
var LogObserver session.Observer = session.ObserverFunc(func(e session.Event) {
	switch e.Type {
	case session.EventProgress:
		log.Printf("session %s: step %s %.0f%%", e.SessionID, e.Step, e.Progress*100)
	case session.EventWarning:
		log.Printf("session %s: WARNING: %s", e.SessionID, e.Message)
	default:
		log.Printf("session %s: %s state=%s step=%s %s", e.SessionID, e.Type, e.State, e.Step, e.Message)
	}
})

// NewMQTTObserver publishes every session event as JSON to the given topic.
// Publish errors are logged and dropped; event delivery must never stall the
// capture tick.
func NewMQTTObserver(client mqtt.Client, topic string) session.Observer {
	return session.ObserverFunc(func(e session.Event) {
		payload, err := json.Marshal(e)
		if err != nil {
			log.Printf("event marshal error: %v", err)
			return
		}
		client.Publish(topic, 0, false, payload)
	})
}

// MultiObserver fans one event out to several sinks.
func MultiObserver(obs ...session.Observer) session.Observer {
	return session.ObserverFunc(func(e session.Event) {
		for _, o := range obs {
			o.HandleEvent(e)
		}
	})
}
