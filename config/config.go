// Package config loads and validates a session's YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk session configuration (spec.md §6's
// SessionConfig fields).
type Config struct {
	InstanceID string `yaml:"instance_id"`

	TileSize          int     `yaml:"tile_size"`
	FallbackThreshold float64 `yaml:"fallback_threshold"`
	CaptureIntervalMS int     `yaml:"capture_interval_ms"`
	TileQuality       int     `yaml:"tile_quality"`
	FrameQuality      int     `yaml:"frame_quality"`
	DefaultWidth      int     `yaml:"default_width"`
	DefaultHeight     int     `yaml:"default_height"`
	MonitorID         int     `yaml:"monitor_id"`

	ReconnectDelayInitialMS int `yaml:"reconnect_delay_initial_ms"`
	ReconnectDelayMaxMS     int `yaml:"reconnect_delay_max_ms"`
	ConnectTimeoutMS        int `yaml:"connect_timeout_ms"`

	WorkerPoolSize    int `yaml:"worker_pool_size"`
	OutboundHighWater int `yaml:"outbound_high_water"`

	// Role selects which side of a connection this process runs:
	// "sender" captures and streams, "receiver" reconstructs and serves
	// snapshots. Required; there is no mixed-role process.
	Role string `yaml:"role"`

	// DialURL is the WebSocket URL a sender connects out to.
	DialURL string `yaml:"dial_url"`
	// ListenAddr is the address a receiver accepts WebSocket connections on.
	ListenAddr string `yaml:"listen_addr"`
	// DiagnosticsAddr serves the CBOR stats snapshot (spec §9's
	// diagnostics surface); empty disables it.
	DiagnosticsAddr string `yaml:"diagnostics_addr"`

	MQTT MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig configures the optional telemetry emitter.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	StatusTopic string `yaml:"status_topic"`
	LatencyTopic string `yaml:"latency_topic"`
}

// Load reads and parses path, applies defaults to zero-valued tuning
// fields (see applyDefaults; identity, role, addresses and geometry get
// none), and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.TileSize == 0 {
		cfg.TileSize = 64
	}
	if cfg.FallbackThreshold == 0 {
		cfg.FallbackThreshold = 0.7
	}
	if cfg.CaptureIntervalMS == 0 {
		cfg.CaptureIntervalMS = 100
	}
	if cfg.TileQuality == 0 {
		cfg.TileQuality = 80
	}
	if cfg.FrameQuality == 0 {
		cfg.FrameQuality = 70
	}
	if cfg.ReconnectDelayInitialMS == 0 {
		cfg.ReconnectDelayInitialMS = 1000
	}
	if cfg.ReconnectDelayMaxMS == 0 {
		cfg.ReconnectDelayMaxMS = 30000
	}
	if cfg.ConnectTimeoutMS == 0 {
		cfg.ConnectTimeoutMS = 10000
	}
	if cfg.WorkerPoolSize == 0 {
		cfg.WorkerPoolSize = 1
	}
	if cfg.OutboundHighWater == 0 {
		cfg.OutboundHighWater = 8
	}
}
