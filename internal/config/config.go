// Package config loads teamfinger's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/teamfinger/internal/logging"
	"github.com/ayusman/teamfinger/internal/sketch"
)

// CameraConfig selects the capture device and the requested resolution.
type CameraConfig struct {
	Device int `yaml:"device"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ViewportConfig is the size of the composited output.
type ViewportConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// DetectorConfig configures the hand landmark model.
type DetectorConfig struct {
	MaxHands      int     `yaml:"max_hands"`
	MinConfidence float64 `yaml:"min_confidence"`
	Script        string  `yaml:"script"`
	Python        string  `yaml:"python"`
	// MotionGate skips detection on static frames when no hand was seen
	// on the previous tick.
	MotionGate      bool    `yaml:"motion_gate"`
	MotionThreshold float64 `yaml:"motion_threshold"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// GeneratorConfig locates the generative model manifest.
type GeneratorConfig struct {
	Manifest string `yaml:"manifest"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config is the root configuration document.
type Config struct {
	Camera       CameraConfig    `yaml:"camera"`
	Viewport     ViewportConfig  `yaml:"viewport"`
	Detector     DetectorConfig  `yaml:"detector"`
	Server       ServerConfig    `yaml:"server"`
	Store        StoreConfig     `yaml:"store"`
	Generator    GeneratorConfig `yaml:"generator"`
	Log          LogConfig       `yaml:"log"`
	TickInterval time.Duration   `yaml:"tick_interval"`
	Window       bool            `yaml:"window"`

	// Preset names a built-in or stored preset. Sketch, when set, is used
	// instead.
	Preset string         `yaml:"preset"`
	Sketch *sketch.Preset `yaml:"sketch"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Camera:       CameraConfig{Device: 0, Width: 1280, Height: 720},
		Viewport:     ViewportConfig{Width: 1280, Height: 720},
		Detector:     DetectorConfig{MaxHands: 1, MinConfidence: 0.5, MotionThreshold: 1.0},
		Server:       ServerConfig{Addr: ":8080"},
		Store:        StoreConfig{Path: ""},
		Log:          LogConfig{Level: "info"},
		TickInterval: 16 * time.Millisecond,
		Window:       true,
		Preset:       "gradient",
	}
}

// Load reads path over the defaults. A missing file is not an error when
// optional is true.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail deep inside the loop.
func (c Config) Validate() error {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport %dx%d must be positive", c.Viewport.Width, c.Viewport.Height)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera %dx%d must be positive", c.Camera.Width, c.Camera.Height)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval %v must be positive", c.TickInterval)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_confidence %g outside [0,1]", c.Detector.MinConfidence)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Sketch != nil {
		return c.Sketch.Validate()
	}
	return nil
}
