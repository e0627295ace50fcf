package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/teamfinger/internal/app"
	"github.com/ayusman/teamfinger/internal/metrics"
	"github.com/ayusman/teamfinger/internal/server"
	"github.com/ayusman/teamfinger/internal/sketch"
	"github.com/ayusman/teamfinger/internal/tray"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a pointer sketch in an overlay window",
	Long: `Opens the camera, loads the hand model and runs the selected sketch,
showing the composited overlay in a window and serving it over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoop(cmd, true)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the detection loop headless behind the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoop(cmd, false)
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, serveCmd} {
		c.Flags().StringP("preset", "p", "", "Preset to run (built-in or stored name)")
		c.Flags().String("addr", "", "HTTP listen address (default from config, :8080)")
		c.Flags().String("static", "", "Directory of static files to serve at /")
		c.Flags().String("manifest", "", "Generator manifest for /api/latent")
		c.Flags().Int("camera", -1, "Camera device index")
		rootCmd.AddCommand(c)
	}
	runCmd.Flags().Bool("tray", false, "Show a system tray menu instead of the overlay window")
}

func runLoop(cmd *cobra.Command, window bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if dir, _ := cmd.Flags().GetString("static"); dir != "" {
		cfg.Server.StaticDir = dir
	}
	if dev, _ := cmd.Flags().GetInt("camera"); dev >= 0 {
		cfg.Camera.Device = dev
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	requested, _ := cmd.Flags().GetString("preset")
	preset, err := resolvePreset(cfg, requested, st)
	if err != nil {
		return err
	}

	manifest, _ := cmd.Flags().GetString("manifest")
	walk, closeWalk, err := loadWalk(cfg, manifest)
	if err != nil {
		return err
	}
	defer closeWalk()

	useTray := false
	if cmd.Flags().Lookup("tray") != nil {
		useTray, _ = cmd.Flags().GetBool("tray")
	}

	m := metrics.New()
	opts := []app.Option{app.WithLogger(logger), app.WithMetrics(m)}
	if window && cfg.Window && !useTray {
		opts = append(opts, app.WithDisplay(app.NewWindow("teamfinger")))
	}
	a, err := app.New(appConfig(cfg, preset), opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		StaticDir: cfg.Server.StaticDir,
		Store:     st,
		Loop:      a,
		Walk:      walk,
		Metrics:   m,
		Logger:    logger,
	})
	go func() {
		if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "err", err)
			stop()
		}
	}()

	logger.Info("starting sketch", "preset", preset.Name, "addr", cfg.Server.Addr)
	if !useTray {
		return a.Run(ctx)
	}
	return runWithTray(ctx, stop, a, cfg.Server.Addr)
}

// runWithTray runs the loop in the background while the tray owns the
// main goroutine.
func runWithTray(ctx context.Context, stop context.CancelFunc, a *app.App, addr string) error {
	t := tray.New(sketch.Builtins(), a.Sketch().Name)
	t.OnToggle(a.SetEnabled)
	t.OnPreset(func(name string) error {
		p, err := sketch.Lookup(name)
		if err != nil {
			return err
		}
		return a.SetSketch(p)
	})
	t.OnOpen(func() { openBrowser(localURL(addr)) })
	t.OnQuit(stop)

	states, cancel := a.Subscribe()
	defer cancel()
	go func() {
		last := app.StateUninitialized
		for fs := range states {
			if fs.State != last {
				last = fs.State
				t.SetStatus(last.String())
			}
		}
	}()

	errc := make(chan error, 1)
	go func() {
		errc <- a.Run(ctx)
		t.Quit()
	}()
	t.Run()
	stop()
	return <-errc
}
