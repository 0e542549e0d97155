// Package telemetry republishes core events (status, latency) to an
// external MQTT broker and maintains a set of observation-only counters
// and gauges. None of it gates core pipeline behavior (spec §2's
// ambient stack: this module only watches).
package telemetry

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/e7canasta/pixelmirror/config"
	"github.com/e7canasta/pixelmirror/transport"
)

// Emitter republishes connection status and latency events onto MQTT
// topics for external monitoring.
type Emitter struct {
	cfg config.MQTTConfig

	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

// NewEmitter creates an Emitter bound to the given MQTT broker config.
func NewEmitter(cfg config.MQTTConfig) *Emitter {
	return &Emitter{cfg: cfg}
}

// Connect establishes the MQTT connection with auto-reconnect, mirroring
// transport.Manager's own reconnect policy but for the telemetry
// side-channel rather than the core session.
func (e *Emitter) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(e.cfg.Broker)
	opts.SetClientID(e.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		e.mu.Lock()
		e.connected = true
		e.mu.Unlock()
		slog.Info("telemetry: mqtt connected", "broker", e.cfg.Broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		e.mu.Lock()
		e.connected = false
		e.mu.Unlock()
		slog.Warn("telemetry: mqtt connection lost", "error", err)
	}

	e.client = mqtt.NewClient(opts)
	token := e.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("telemetry: mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("telemetry: mqtt connect: %w", err)
	}
	return nil
}

// Disconnect closes the MQTT connection.
func (e *Emitter) Disconnect() {
	if e.client != nil && e.client.IsConnected() {
		e.client.Disconnect(250)
	}
	e.mu.Lock()
	e.connected = false
	e.mu.Unlock()
}

// AttachStatus subscribes to a transport.Manager's status callback and
// republishes each transition.
func (e *Emitter) AttachStatus(m *transport.Manager) {
	m.OnStatus(func(s transport.Status) {
		e.publish(e.cfg.StatusTopic, []byte(s.String()))
	})
}

// AttachLatency subscribes to a transport.Manager's latency callback and
// republishes each observation, formatted as milliseconds.
func (e *Emitter) AttachLatency(m *transport.Manager) {
	m.OnLatency(func(d time.Duration) {
		e.publish(e.cfg.LatencyTopic, []byte(fmt.Sprintf("%d", d.Milliseconds())))
	})
}

func (e *Emitter) publish(topic string, payload []byte) {
	if topic == "" || e.client == nil || !e.client.IsConnected() {
		return
	}
	token := e.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return
	}
	if err := token.Error(); err != nil {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		slog.Warn("telemetry: publish failed", "topic", topic, "error", err)
		return
	}
	e.mu.Lock()
	e.published++
	e.mu.Unlock()
}

// Stats returns a snapshot of the emitter's own health counters.
func (e *Emitter) Stats() (published, errors uint64, connected bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.published, e.errors, e.connected
}
