package configs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestSetDefaultValues(t *testing.T) {
	cfg := &Config{}
	setDefaultValues(cfg)

	t.Run("server defaults", func(t *testing.T) {
		if cfg.Server.Host != "0.0.0.0" {
			t.Errorf("Host = %q, want 0.0.0.0", cfg.Server.Host)
		}
		if cfg.Server.TCPPort != 23234 {
			t.Errorf("TCPPort = %d, want 23234", cfg.Server.TCPPort)
		}
		if cfg.Server.LogLevel != "INFO" {
			t.Errorf("LogLevel = %q, want INFO", cfg.Server.LogLevel)
		}
	})

	t.Run("visualizer defaults", func(t *testing.T) {
		if cfg.Visualizer.Enabled {
			t.Errorf("Visualizer.Enabled = true, want false by default")
		}
		if cfg.Visualizer.RlviserPort != 34255 {
			t.Errorf("RlviserPort = %d, want 34255", cfg.Visualizer.RlviserPort)
		}
	})
}

func TestCreateExampleConfigFileWritesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	CreateExampleConfigFile(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected example config to be written: %v", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid json: %v", err)
	}
	if cfg.Server.TCPPort != 23234 {
		t.Errorf("written TCPPort = %d, want 23234", cfg.Server.TCPPort)
	}
}

func TestCreateExampleConfigFileDoesNotOverwriteExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	custom := []byte(`{"server":{"tcpPort":9999}}`)
	if err := os.WriteFile(path, custom, 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	CreateExampleConfigFile(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back config: %v", err)
	}
	if string(data) != string(custom) {
		t.Errorf("existing config file was overwritten")
	}
}
