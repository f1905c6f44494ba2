package broadcast

import (
	api_models "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models/api"
)

// Publisher delivers a device's live data to whoever is listening on its
// topic. Delivery is best-effort, at most once, no replay.
type Publisher interface {
	Publish(topic string, event api_models.RadarDataEvent)
}

// MultiPublisher fans a publish out to several transports (websocket hub,
// MQTT bridge).
type MultiPublisher struct {
	targets []Publisher
}

func NewMultiPublisher(targets ...Publisher) *MultiPublisher {
	return &MultiPublisher{targets: targets}
}

func (m *MultiPublisher) Publish(topic string, event api_models.RadarDataEvent) {
	for _, t := range m.targets {
		t.Publish(topic, event)
	}
}
