package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, contents string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "capdeck"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "capdeck", "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CAPDECK_DEBUG", "CAPDECK_DEMO", "CAPDECK_GEO_DISABLED",
		"CAPDECK_GEO_ENDPOINT", "CAPDECK_SAMPLE_RATE", "CAPDECK_FFMPEG",
		"CAPDECK_LOG_FILE", "CAPDECK_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	clearEnvOverrides(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.SampleRate != DefaultSampleRate {
		t.Fatalf("unexpected sample rate %d", cfg.SampleRate)
	}
	if cfg.AudioChunkInterval != DefaultAudioChunkInterval {
		t.Fatalf("unexpected audio interval %s", cfg.AudioChunkInterval)
	}
	if cfg.VideoChunkInterval != DefaultVideoChunkInterval {
		t.Fatalf("unexpected video interval %s", cfg.VideoChunkInterval)
	}
	if cfg.Facing != DefaultFacing {
		t.Fatalf("unexpected facing %q", cfg.Facing)
	}
	if cfg.DisplayWidth != DefaultDisplayWidth {
		t.Fatalf("unexpected display width %d", cfg.DisplayWidth)
	}
	if cfg.Debug || cfg.Demo || cfg.GeolocationDisabled {
		t.Fatal("boolean options must default to off")
	}
	if cfg.LogFile == "" {
		t.Fatal("expected a default log file path")
	}
}

func TestLoadReadsFile(t *testing.T) {
	clearEnvOverrides(t)
	writeConfigFile(t, `
debug = true

[geolocation]
disabled = true

[audio]
sample_rate = 48000
chunk_interval_ms = 250

[video]
facing = "rear"
display_width = 320
devices = ["/dev/video2"]

[log]
level = "debug"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.Debug {
		t.Fatal("expected debug on")
	}
	if !cfg.GeolocationDisabled {
		t.Fatal("expected geolocation disabled")
	}
	if cfg.SampleRate != 48000 {
		t.Fatalf("unexpected sample rate %d", cfg.SampleRate)
	}
	if cfg.AudioChunkInterval != 250*time.Millisecond {
		t.Fatalf("unexpected audio interval %s", cfg.AudioChunkInterval)
	}
	if cfg.Facing != "rear" {
		t.Fatalf("unexpected facing %q", cfg.Facing)
	}
	if cfg.DisplayWidth != 320 {
		t.Fatalf("unexpected display width %d", cfg.DisplayWidth)
	}
	if len(cfg.CameraDevices) != 1 || cfg.CameraDevices[0] != "/dev/video2" {
		t.Fatalf("unexpected camera devices %v", cfg.CameraDevices)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level %q", cfg.LogLevel)
	}
}

func TestEnvOverridesBeatFile(t *testing.T) {
	clearEnvOverrides(t)
	writeConfigFile(t, `
[audio]
sample_rate = 48000
`)
	t.Setenv("CAPDECK_SAMPLE_RATE", "22050")
	t.Setenv("CAPDECK_DEMO", "true")
	t.Setenv("CAPDECK_GEO_ENDPOINT", "http://geo.test/json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.SampleRate != 22050 {
		t.Fatalf("env override lost, sample rate %d", cfg.SampleRate)
	}
	if !cfg.Demo {
		t.Fatal("expected demo mode from environment")
	}
	if cfg.GeolocationEndpoint != "http://geo.test/json" {
		t.Fatalf("unexpected endpoint %q", cfg.GeolocationEndpoint)
	}
}
