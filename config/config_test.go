package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTemp(t, "instance_id: desk-1\nrole: sender\ndial_url: ws://localhost:9000/stream\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TileSize != 64 {
		t.Errorf("TileSize = %d, want 64", cfg.TileSize)
	}
	if cfg.FallbackThreshold != 0.7 {
		t.Errorf("FallbackThreshold = %v, want 0.7", cfg.FallbackThreshold)
	}
	if cfg.OutboundHighWater != 8 {
		t.Errorf("OutboundHighWater = %d, want 8", cfg.OutboundHighWater)
	}
}

func TestLoadRejectsMissingInstanceID(t *testing.T) {
	path := writeTemp(t, "tile_size: 64\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing instance_id")
	}
}

func TestLoadRejectsOutOfRangeThreshold(t *testing.T) {
	path := writeTemp(t, "instance_id: desk-1\nrole: sender\ndial_url: ws://localhost:9000/stream\nfallback_threshold: 1.5\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for fallback_threshold > 1")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/session.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsSenderWithoutDialURL(t *testing.T) {
	path := writeTemp(t, "instance_id: desk-1\nrole: sender\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for sender role missing dial_url")
	}
}

func TestLoadRejectsUnknownRole(t *testing.T) {
	path := writeTemp(t, "instance_id: desk-1\nrole: relay\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	path := writeTemp(t, "instance_id: desk-1\nrole: receiver\nlisten_addr: :9000\ntile_size: 32\nworker_pool_size: 4\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TileSize != 32 {
		t.Errorf("TileSize = %d, want 32", cfg.TileSize)
	}
	if cfg.WorkerPoolSize != 4 {
		t.Errorf("WorkerPoolSize = %d, want 4", cfg.WorkerPoolSize)
	}
}
