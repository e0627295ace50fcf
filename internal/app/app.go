// Package app runs the detection loop: camera frames in, hand pointer
// mapped and smoothed, document restyled, composited frame out.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/teamfinger/internal/capture"
	"github.com/ayusman/teamfinger/internal/detector"
	"github.com/ayusman/teamfinger/internal/logging"
	"github.com/ayusman/teamfinger/internal/mapping"
	"github.com/ayusman/teamfinger/internal/metrics"
	"github.com/ayusman/teamfinger/internal/render"
	"github.com/ayusman/teamfinger/internal/sketch"
)

// Loop timing defaults.
const (
	DefaultTickInterval      = 16 * time.Millisecond
	DefaultFirstFrameTimeout = 5 * time.Second
	// motionMaxSkips bounds how long the motion gate may starve the
	// detector, in ticks.
	motionMaxSkips = 30
)

// SketchConfig parameterises the loop: smoothing, mirroring, effect and
// cursor visual.
type SketchConfig = sketch.Preset

// Config holds the loop's settings.
type Config struct {
	Camera            capture.Options
	Detector          detector.Config
	ViewportWidth     int
	ViewportHeight    int
	TickInterval      time.Duration
	FirstFrameTimeout time.Duration
	MotionGate        bool
	MotionThreshold   float64
	FontSize          float64
	Sketch            SketchConfig
}

// Option customises an App.
type Option func(*App)

// WithDetector injects the hand model. It is loaded once in Run.
func WithDetector(d detector.Detector) Option {
	return func(a *App) { a.detector = d }
}

// WithCamera replaces the device camera.
func WithCamera(c capture.Camera) Option {
	return func(a *App) { a.camera = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithDisplay shows every composited frame, for example in a window.
func WithDisplay(d Display) Option {
	return func(a *App) { a.display = d }
}

// App owns one camera, one detector and one session.
type App struct {
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	camera   capture.Camera
	detector detector.Detector
	gate     *capture.MotionGate
	display  Display
	font     *render.Font
	canvas   *render.Canvas

	state   atomic.Int32
	enabled atomic.Bool
	hub     *hub

	mu      sync.Mutex
	session *Session
	last    FrameState
	jpeg    []byte
}

// New builds the scene for cfg.Sketch and prepares the loop. Nothing is
// acquired until Run.
func New(cfg Config, opts ...Option) (*App, error) {
	if cfg.ViewportWidth <= 0 || cfg.ViewportHeight <= 0 {
		return nil, fmt.Errorf("viewport %dx%d: %w", cfg.ViewportWidth, cfg.ViewportHeight, mapping.ErrDomain)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.FirstFrameTimeout <= 0 {
		cfg.FirstFrameTimeout = DefaultFirstFrameTimeout
	}

	a := &App{config: cfg, hub: newHub()}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	if a.metrics == nil {
		a.metrics = metrics.New()
	}
	if a.camera == nil {
		a.camera = capture.NewCamera(cfg.Camera)
	}
	if cfg.MotionGate {
		threshold := cfg.MotionThreshold
		if threshold <= 0 {
			threshold = 1.0
		}
		a.gate = capture.NewMotionGate(threshold, motionMaxSkips)
	}

	font, err := render.NewFont(cfg.FontSize)
	if err != nil {
		return nil, err
	}
	a.font = font

	scene, style, err := a.buildScene(cfg.Sketch)
	if err != nil {
		return nil, err
	}
	// Placeholder mapping until the camera reports its real size.
	mapper, err := mapping.NewMapper(float64(cfg.ViewportWidth), float64(cfg.ViewportHeight),
		float64(cfg.ViewportWidth), float64(cfg.ViewportHeight), cfg.Sketch.Mirror)
	if err != nil {
		return nil, err
	}
	a.session, err = NewSession(scene, mapper)
	if err != nil {
		return nil, err
	}
	a.canvas = render.NewCanvas(cfg.ViewportWidth, cfg.ViewportHeight, font, style)
	a.enabled.Store(true)
	a.last = a.session.frameState(StateUninitialized, true, false)
	return a, nil
}

func (a *App) buildScene(p sketch.Preset) (*sketch.Scene, render.Style, error) {
	scene, err := sketch.Build(p, float64(a.config.ViewportWidth), float64(a.config.ViewportHeight), a.font)
	if err != nil {
		return nil, render.Style{}, err
	}
	class := ""
	if hp, err := p.Effect.Highlight(); err == nil && p.Effect.Kind == sketch.EffectHighlight {
		class = hp.Class
	}
	style, err := render.StyleFor(p.Cursor, class)
	if err != nil {
		return nil, render.Style{}, err
	}
	return scene, style, nil
}

// SetSketch switches to another preset while running. The cursor keeps
// its position.
func (a *App) SetSketch(p SketchConfig) error {
	scene, style, err := a.buildScene(p)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.session.SetScene(scene); err != nil {
		return err
	}
	if m := a.session.Mapper(); m != nil && m.Mirror != p.Mirror {
		w, h := a.camera.Size()
		if w > 0 && h > 0 {
			if nm, err := a.newMapper(w, h, p.Mirror); err == nil {
				a.session.SetMapper(nm)
			}
		}
	}
	a.config.Sketch = p
	a.canvas.SetStyle(style)
	a.logger.Info("sketch switched", "preset", p.Name, "effect", p.Effect.Kind)
	return nil
}

func (a *App) newMapper(videoW, videoH int, mirror bool) (*mapping.Mapper, error) {
	return mapping.NewMapper(float64(videoW), float64(videoH),
		float64(a.config.ViewportWidth), float64(a.config.ViewportHeight), mirror)
}

// Sketch returns the active preset.
func (a *App) Sketch() SketchConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config.Sketch
}

// SetEnabled turns the effect engine on or off. The cursor keeps moving.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
}

func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

func (a *App) State() State {
	return State(a.state.Load())
}

func (a *App) setState(s State) {
	a.state.Store(int32(s))
	a.metrics.LoopState.Set(float64(s))
	a.logger.Debug("loop state", "state", s)

	a.mu.Lock()
	a.last.State = s
	fs := a.last
	a.mu.Unlock()
	a.hub.publish(fs)
}

// Snapshot returns the most recently published frame state.
func (a *App) Snapshot() FrameState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// JPEG returns the latest composited frame and its tick.
func (a *App) JPEG() ([]byte, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.jpeg, a.last.Tick
}

// Subscribe delivers every published frame state until cancel is called.
func (a *App) Subscribe() (<-chan FrameState, func()) {
	ch, cancel := a.hub.subscribe()
	a.metrics.StreamClients.Set(float64(a.hub.count()))
	return ch, func() {
		cancel()
		a.metrics.StreamClients.Set(float64(a.hub.count()))
	}
}

func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Run acquires the camera, loads the model and ticks until ctx is done.
// Camera and model failures are returned; cancellation returns nil.
func (a *App) Run(ctx context.Context) error {
	if !a.state.CompareAndSwap(int32(StateUninitialized), int32(StateCameraAcquiring)) {
		return ErrAlreadyStarted
	}
	a.setState(StateCameraAcquiring)
	defer a.setState(StateStopped)
	defer a.release()

	if err := a.acquireCamera(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	a.setState(StateModelLoading)
	if err := a.loadModel(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	a.setState(StateRunning)
	a.logger.Info("detection loop running", "tick", a.config.TickInterval, "preset", a.Sketch().Name)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if quit := a.tick(); quit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		timer.Reset(a.config.TickInterval)
	}
}

// acquireCamera opens the camera and waits for the first non-empty
// frame, then maps from the negotiated size.
func (a *App) acquireCamera(ctx context.Context) error {
	if err := a.camera.Open(ctx); err != nil {
		a.logger.Error("camera unavailable", "err", err)
		return fmt.Errorf("acquire camera: %w", err)
	}

	deadline := time.Now().Add(a.config.FirstFrameTimeout)
	for {
		frame, err := a.camera.ReadFrame()
		if err == nil {
			w, h := frame.Cols(), frame.Rows()
			frame.Close()
			if cw, ch := a.camera.Size(); cw > 0 && ch > 0 && (cw != w || ch != h) {
				a.logger.Warn("frame size differs from negotiated size", "negotiated", fmt.Sprintf("%dx%d", cw, ch), "frame", fmt.Sprintf("%dx%d", w, h))
			}
			m, err := a.newMapper(w, h, a.Sketch().Mirror)
			if err != nil {
				return fmt.Errorf("map %dx%d video: %w", w, h, err)
			}
			a.mu.Lock()
			a.session.SetMapper(m)
			a.mu.Unlock()
			a.logger.Info("camera ready", "width", w, "height", h)
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: no frame within %s: %v", capture.ErrDevice, a.config.FirstFrameTimeout, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (a *App) loadModel(ctx context.Context) error {
	if a.detector == nil {
		d, err := detector.NewMediaPipeDetector(a.config.Detector, a.logger)
		if err != nil {
			return err
		}
		a.detector = d
	}
	l, ok := a.detector.(detector.Loader)
	if !ok {
		return nil
	}
	start := time.Now()
	if err := l.Load(ctx); err != nil {
		if errors.Is(err, detector.ErrModelLoad) || ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %v", detector.ErrModelLoad, err)
	}
	a.logger.Info("hand model loaded", "took", time.Since(start).Round(time.Millisecond))
	return nil
}

func (a *App) release() {
	if err := a.camera.Close(); err != nil {
		a.logger.Warn("close camera", "err", err)
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.logger.Debug("close detector", "err", err)
		}
	}
	if a.gate != nil {
		a.gate.Close()
	}
	if a.display != nil {
		a.display.Close()
	}
}

// Close frees rendering resources. Call after Run returns.
func (a *App) Close() error {
	return errors.Join(a.canvas.Close(), a.font.Close())
}

// CropRect returns the region of the (possibly mirrored) video that is
// visible in the viewport.
func CropRect(m *mapping.Mapper, videoWidth int) (x0, y0, x1, y1 int) {
	src := m.Source
	if m.Mirror {
		vw := float64(videoWidth)
		return int(vw - src.X.Max), int(src.Y.Min), int(vw - src.X.Min), int(src.Y.Max)
	}
	return int(src.X.Min), int(src.Y.Min), int(src.X.Max), int(src.Y.Max)
}
