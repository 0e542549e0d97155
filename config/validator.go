package config

import "fmt"

// Validate checks field ranges the YAML loader cannot enforce through
// struct tags alone.
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if cfg.TileSize <= 0 {
		return fmt.Errorf("tile_size must be > 0")
	}
	if cfg.FallbackThreshold < 0 || cfg.FallbackThreshold > 1 {
		return fmt.Errorf("fallback_threshold must be within [0, 1]")
	}
	if cfg.CaptureIntervalMS <= 0 {
		return fmt.Errorf("capture_interval_ms must be > 0")
	}
	if cfg.TileQuality < 1 || cfg.TileQuality > 100 {
		return fmt.Errorf("tile_quality must be within [1, 100]")
	}
	if cfg.FrameQuality < 1 || cfg.FrameQuality > 100 {
		return fmt.Errorf("frame_quality must be within [1, 100]")
	}
	if cfg.DefaultWidth < 0 || cfg.DefaultHeight < 0 {
		return fmt.Errorf("default_width/default_height must not be negative")
	}
	if cfg.ReconnectDelayInitialMS <= 0 {
		return fmt.Errorf("reconnect_delay_initial_ms must be > 0")
	}
	if cfg.ReconnectDelayMaxMS < cfg.ReconnectDelayInitialMS {
		return fmt.Errorf("reconnect_delay_max_ms must be >= reconnect_delay_initial_ms")
	}
	if cfg.WorkerPoolSize <= 0 {
		return fmt.Errorf("worker_pool_size must be > 0")
	}
	if cfg.OutboundHighWater <= 0 {
		return fmt.Errorf("outbound_high_water must be > 0")
	}
	switch cfg.Role {
	case "sender":
		if cfg.DialURL == "" {
			return fmt.Errorf("dial_url is required for role=sender")
		}
	case "receiver":
		if cfg.ListenAddr == "" {
			return fmt.Errorf("listen_addr is required for role=receiver")
		}
	default:
		return fmt.Errorf("role must be %q or %q", "sender", "receiver")
	}
	return nil
}
