package app

import (
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/teamfinger/internal/detector"
	"github.com/ayusman/teamfinger/internal/metrics"
	"github.com/ayusman/teamfinger/internal/render"
)

// tick runs one pass of the loop. Frame, detection and render errors
// are logged and counted; the caller re-arms regardless. It reports
// whether the display asked to quit.
func (a *App) tick() bool {
	start := time.Now()
	a.metrics.Ticks.Inc()
	defer func() { a.metrics.TickDuration.Observe(time.Since(start).Seconds()) }()

	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.metrics.FrameErrors.Inc()
		a.logger.Warn("read frame", "err", err)
		return false
	}
	defer frame.Close()

	hands := a.detect(frame)
	effects := a.enabled.Load()

	a.mu.Lock()
	changed, err := a.session.Advance(hands, effects)
	if err != nil {
		a.logger.Warn("skip effect step", "err", err)
	}
	if changed {
		a.metrics.EffectChanges.Inc()
	}
	fs := a.session.frameState(a.State(), effects, changed)

	video, crop, err := a.videoImage(frame)
	if err != nil {
		a.logger.Warn("convert frame", "err", err)
	}
	img, err := a.canvas.Draw(render.Frame{
		Video:         video,
		Crop:          crop,
		Doc:           a.session.Scene().Doc,
		Cursor:        fs.Cursor,
		CursorVisible: fs.Hand,
	})
	a.mu.Unlock()
	if err != nil {
		a.logger.Warn("render", "err", err)
	}

	var quit bool
	jpeg, err := a.present(img, &quit)
	if err != nil {
		a.logger.Warn("encode frame", "err", err)
	}

	a.mu.Lock()
	a.last = fs
	if jpeg != nil {
		a.jpeg = jpeg
	}
	a.mu.Unlock()
	a.hub.publish(fs)
	return quit
}

// detect asks the model for hands. With the motion gate on, a static
// frame after a tick without a hand is not sent to the model.
func (a *App) detect(frame *gocv.Mat) []detector.HandLandmarks {
	if a.gate != nil {
		a.mu.Lock()
		hadHand := a.session.HasPointer()
		a.mu.Unlock()
		if pass, _ := a.gate.Pass(frame); !pass && !hadHand {
			a.metrics.ObserveDetection(metrics.OutcomeSkipped, 0)
			return nil
		}
	}

	start := time.Now()
	hands, err := a.detector.Detect(frame)
	took := time.Since(start)
	switch {
	case err != nil:
		a.metrics.ObserveDetection(metrics.OutcomeError, took)
		a.logger.Warn("detect hands", "err", err)
		return nil
	case len(hands) == 0:
		a.metrics.ObserveDetection(metrics.OutcomeEmpty, took)
	default:
		a.metrics.ObserveDetection(metrics.OutcomeHand, took)
	}
	return hands
}

// videoImage converts the frame for drawing, flipping it when the
// sketch mirrors, and returns the visible crop.
func (a *App) videoImage(frame *gocv.Mat) (image.Image, image.Rectangle, error) {
	m := a.session.Mapper()
	src := *frame
	if m.Mirror {
		flipped := gocv.NewMat()
		defer flipped.Close()
		gocv.Flip(*frame, &flipped, 1)
		src = flipped
	}
	img, err := src.ToImage()
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	x0, y0, x1, y1 := CropRect(m, frame.Cols())
	return img, image.Rect(x0, y0, x1, y1), nil
}

// present encodes the composited image as JPEG and hands it to the
// display, if any.
func (a *App) present(img image.Image, quit *bool) ([]byte, error) {
	if img == nil {
		return nil, nil
	}
	rgba, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return nil, err
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)

	if a.display != nil {
		*quit = a.display.Show(bgr)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, bgr)
	if err != nil {
		return nil, fmt.Errorf("jpeg: %w", err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}
