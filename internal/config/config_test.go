package config

import (
	"path/filepath"
	"testing"
)

func TestLoadFromRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netreco.yaml")

	cfg := DefaultConfig()
	cfg.Defaults.Proto = "udp"
	cfg.Aliases["dns"] = "8.8.8.8"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Defaults.Proto != "udp" {
		t.Fatalf("want proto udp, got %s", loaded.Defaults.Proto)
	}
	if loaded.Aliases["dns"] != "8.8.8.8" {
		t.Fatalf("want alias dns=8.8.8.8, got %v", loaded.Aliases)
	}
}

func TestDefaultConfigHasSaneDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Defaults.PortConcurrency <= 0 {
		t.Fatal("expected a positive default port concurrency")
	}
	if !cfg.Defaults.Enrichment.Enabled {
		t.Fatal("expected enrichment enabled by default")
	}
}
