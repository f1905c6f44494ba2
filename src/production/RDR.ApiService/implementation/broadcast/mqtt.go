package broadcast

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	config "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Config"
	logger "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Logger"
	api_models "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models/api"
)

// MQTTPublisher bridges live radar batches onto an external broker at
// <topic_prefix>/<device_mac>, for consumers that are not websocket viewers.
type MQTTPublisher struct {
	client      mqtt.Client
	topicPrefix string
	logger      *logger.Logger
}

var _ Publisher = (*MQTTPublisher)(nil)

// NewMQTTPublisher connects to the broker and returns the bridge.
func NewMQTTPublisher(cfg *config.Config, log *logger.Logger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.GetMQTTBrokerURL()).
		SetClientID(cfg.MQTT.ClientID).
		SetOrderMatters(false).
		SetKeepAlive(cfg.MQTT.KeepAlive).
		SetPingTimeout(cfg.MQTT.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	if cfg.MQTT.BrokerUser != "" {
		opts.SetUsername(cfg.MQTT.BrokerUser)
		opts.SetPassword(cfg.MQTT.BrokerPass)
	}

	if cfg.MQTT.UseTLS {
		tlsCfg, err := tlsConfig(cfg.MQTT.CACertPath)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Logger.Error().Err(err).Msg("MQTT connection lost")
	}
	opts.OnConnect = func(mqtt.Client) {
		log.Logger.Info().Str("broker", cfg.GetMQTTBrokerURL()).Msg("MQTT bridge connected")
	}

	client := mqtt.NewClient(opts)
	if tk := client.Connect(); tk.Wait() && tk.Error() != nil {
		return nil, tk.Error()
	}

	return &MQTTPublisher{
		client:      client,
		topicPrefix: cfg.MQTT.TopicPrefix,
		logger:      log,
	}, nil
}

// Publish is fire-and-forget; a failed publish is logged, never bubbled
// into the sync cycle.
func (p *MQTTPublisher) Publish(topic string, event api_models.RadarDataEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorWithError(err, "Failed to marshal MQTT bridge message")
		return
	}

	token := p.client.Publish(p.topicPrefix+"/"+topic, 0, false, data)
	go func() {
		if token.Wait() && token.Error() != nil {
			p.logger.Logger.Warn().Err(token.Error()).Str("device_mac", topic).Msg("MQTT bridge publish failed")
		}
	}()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(500)
	}
}

func tlsConfig(caCertPath string) (*tls.Config, error) {
	if caCertPath == "" {
		return &tls.Config{MinVersion: tls.VersionTLS12}, nil
	}

	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA cert %s", caCertPath)
	}

	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
