package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/gogpu/gg"
	"github.com/spf13/cobra"

	"github.com/ayusman/teamfinger/internal/app"
	"github.com/ayusman/teamfinger/internal/capture"
	"github.com/ayusman/teamfinger/internal/config"
	"github.com/ayusman/teamfinger/internal/detector"
	"github.com/ayusman/teamfinger/internal/latent"
	"github.com/ayusman/teamfinger/internal/logging"
	"github.com/ayusman/teamfinger/internal/sketch"
	"github.com/ayusman/teamfinger/internal/store"
)

// dataDir is where the default config, database and scripts live.
func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(home, ".teamfinger"), nil
}

// loadConfig reads the config file named by --config, or the optional
// default one, and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	optional := false
	if path == "" {
		dir, err := dataDir()
		if err != nil {
			return config.Config{}, err
		}
		path, optional = filepath.Join(dir, "config.yaml"), true
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return cfg, err
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Store.Path = db
	}
	return cfg, cfg.Validate()
}

// newLogger builds the process logger and hands it to gg as well.
func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level)
	slog.SetDefault(logger)
	gg.SetLogger(logger)
	return logger, nil
}

func openStore(cfg config.Config) (*store.Store, error) {
	path := cfg.Store.Path
	if path == "" {
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		path = filepath.Join(dir, "teamfinger.db")
	}
	return store.New(path)
}

// resolvePreset picks the sketch to run: an inline config record, then
// an explicitly requested name, then the last activated preset, then the
// config default. Names match built-ins before stored presets.
func resolvePreset(cfg config.Config, requested string, st *store.Store) (sketch.Preset, error) {
	if cfg.Sketch != nil && requested == "" {
		return *cfg.Sketch, nil
	}

	name := requested
	if name == "" && st != nil {
		if active, err := st.Settings().Get(store.SettingActivePreset); err == nil {
			name = active
		}
	}
	if name == "" {
		name = cfg.Preset
	}

	p, err := sketch.Lookup(name)
	if err == nil {
		return p, nil
	}
	if st == nil {
		return p, err
	}
	stored, serr := st.Presets().GetByName(name)
	if serr != nil {
		if errors.Is(serr, store.ErrNotFound) {
			return sketch.Preset{}, fmt.Errorf("%w: %s", sketch.ErrUnknownPreset, name)
		}
		return sketch.Preset{}, serr
	}
	return stored.Config, nil
}

func appConfig(cfg config.Config, p sketch.Preset) app.Config {
	return app.Config{
		Camera: capture.Options{
			Device: cfg.Camera.Device,
			Width:  cfg.Camera.Width,
			Height: cfg.Camera.Height,
		},
		Detector: detector.Config{
			MaxHands:      cfg.Detector.MaxHands,
			MinConfidence: cfg.Detector.MinConfidence,
			Script:        cfg.Detector.Script,
			Python:        cfg.Detector.Python,
		},
		ViewportWidth:   cfg.Viewport.Width,
		ViewportHeight:  cfg.Viewport.Height,
		TickInterval:    cfg.TickInterval,
		MotionGate:      cfg.Detector.MotionGate,
		MotionThreshold: cfg.Detector.MotionThreshold,
		Sketch:          p,
	}
}

// loadWalk opens the generator named in the config. A missing manifest
// setting yields a nil walk.
func loadWalk(cfg config.Config, manifest string) (*latent.Walk, func(), error) {
	if manifest == "" {
		manifest = cfg.Generator.Manifest
	}
	if manifest == "" {
		return nil, func() {}, nil
	}
	gen, err := latent.Load(manifest)
	if err != nil {
		return nil, nil, err
	}
	return latent.NewWalk(gen, gen.Manifest().Seed), func() { gen.Close() }, nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// localURL turns a listen address like ":8080" into a browsable URL.
func localURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
