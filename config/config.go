package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults for capture behavior.
const (
	DefaultSampleRate         = 44100
	DefaultAmplification      = 1.0
	DefaultAudioChunkInterval = 500 * time.Millisecond
	DefaultVideoChunkInterval = time.Second
	DefaultDisplayWidth       = 480
	DefaultFacing             = "front"
)

type Config struct {
	Debug bool // verbose logging plus blocking failure notices
	Demo  bool // stub devices instead of real hardware

	GeolocationDisabled bool
	GeolocationEndpoint string // empty selects the built-in endpoint

	SampleRate         int
	Amplification      float64
	AudioChunkInterval time.Duration

	VideoChunkInterval time.Duration
	Facing             string
	FFmpegPath         string   // empty resolves ffmpeg from PATH
	CameraDevices      []string // empty autodetects capture devices
	DisplayWidth       int

	LogFile  string
	LogLevel string
}

type fileConfig struct {
	Debug bool `toml:"debug"`
	Demo  bool `toml:"demo"`

	Geolocation struct {
		Disabled bool   `toml:"disabled"`
		Endpoint string `toml:"endpoint"`
	} `toml:"geolocation"`

	Audio struct {
		SampleRate      int     `toml:"sample_rate"`
		Amplification   float64 `toml:"amplification"`
		ChunkIntervalMS int     `toml:"chunk_interval_ms"`
	} `toml:"audio"`

	Video struct {
		ChunkIntervalMS int      `toml:"chunk_interval_ms"`
		Facing          string   `toml:"facing"`
		FFmpegPath      string   `toml:"ffmpeg_path"`
		Devices         []string `toml:"devices"`
		DisplayWidth    int      `toml:"display_width"`
	} `toml:"video"`

	Log struct {
		File  string `toml:"file"`
		Level string `toml:"level"`
	} `toml:"log"`
}

// Load builds the configuration from defaults, the TOML file at the XDG
// config path and CAPDECK_* environment overrides, in that order.
func Load() (*Config, error) {
	cfg := &Config{
		SampleRate:         DefaultSampleRate,
		Amplification:      DefaultAmplification,
		AudioChunkInterval: DefaultAudioChunkInterval,
		VideoChunkInterval: DefaultVideoChunkInterval,
		Facing:             DefaultFacing,
		DisplayWidth:       DefaultDisplayWidth,
		LogFile:            defaultLogFile(),
	}

	if configPath := configFilePath(); configPath != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(configPath, &fc); err == nil {
			applyFile(cfg, &fc)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyFile(cfg *Config, fc *fileConfig) {
	cfg.Debug = fc.Debug
	cfg.Demo = fc.Demo
	cfg.GeolocationDisabled = fc.Geolocation.Disabled
	if fc.Geolocation.Endpoint != "" {
		cfg.GeolocationEndpoint = fc.Geolocation.Endpoint
	}
	if fc.Audio.SampleRate > 0 {
		cfg.SampleRate = fc.Audio.SampleRate
	}
	if fc.Audio.Amplification > 0 {
		cfg.Amplification = fc.Audio.Amplification
	}
	if fc.Audio.ChunkIntervalMS > 0 {
		cfg.AudioChunkInterval = time.Duration(fc.Audio.ChunkIntervalMS) * time.Millisecond
	}
	if fc.Video.ChunkIntervalMS > 0 {
		cfg.VideoChunkInterval = time.Duration(fc.Video.ChunkIntervalMS) * time.Millisecond
	}
	if fc.Video.Facing != "" {
		cfg.Facing = fc.Video.Facing
	}
	if fc.Video.FFmpegPath != "" {
		cfg.FFmpegPath = fc.Video.FFmpegPath
	}
	if len(fc.Video.Devices) > 0 {
		cfg.CameraDevices = fc.Video.Devices
	}
	if fc.Video.DisplayWidth > 0 {
		cfg.DisplayWidth = fc.Video.DisplayWidth
	}
	if fc.Log.File != "" {
		cfg.LogFile = expandTilde(fc.Log.File)
	}
	if fc.Log.Level != "" {
		cfg.LogLevel = fc.Log.Level
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CAPDECK_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if v := os.Getenv("CAPDECK_DEMO"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Demo = b
		}
	}
	if v := os.Getenv("CAPDECK_GEO_DISABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.GeolocationDisabled = b
		}
	}
	if v := os.Getenv("CAPDECK_GEO_ENDPOINT"); v != "" {
		cfg.GeolocationEndpoint = v
	}
	if v := os.Getenv("CAPDECK_SAMPLE_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SampleRate = n
		}
	}
	if v := os.Getenv("CAPDECK_FFMPEG"); v != "" {
		cfg.FFmpegPath = v
	}
	if v := os.Getenv("CAPDECK_LOG_FILE"); v != "" {
		cfg.LogFile = expandTilde(v)
	}
	if v := os.Getenv("CAPDECK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "capdeck")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "capdeck")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func defaultLogFile() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "capdeck", "capdeck.log")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "capdeck", "capdeck.log")
	}
	return filepath.Join(".", "capdeck.log")
}

func expandTilde(path string) string {
	if len(path) > 1 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
