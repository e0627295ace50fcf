package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	motionBlurKernel = 21
	motionPixelDelta = 25
)

// MotionGate decides whether a frame differs enough from the previous
// one to be worth sending to the hand detector. Threshold is the
// percentage of pixels that must change. A frame is always let through
// after MaxSkips consecutive rejections so a still hand keeps its
// cursor fresh.
type MotionGate struct {
	mu        sync.Mutex
	threshold float64
	maxSkips  int
	skipped   int
	prev      gocv.Mat
	primed    bool
}

func NewMotionGate(threshold float64, maxSkips int) *MotionGate {
	return &MotionGate{
		threshold: threshold,
		maxSkips:  maxSkips,
		prev:      gocv.NewMat(),
	}
}

// Pass reports whether frame should be processed and the percentage of
// pixels that changed since the last frame. The first frame passes.
func (g *MotionGate) Pass(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(motionBlurKernel, motionBlurKernel), 0, 0, gocv.BorderDefault)

	if !g.primed || g.prev.Rows() != blurred.Rows() || g.prev.Cols() != blurred.Cols() {
		blurred.CopyTo(&g.prev)
		g.primed = true
		g.skipped = 0
		return true, 100
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prev, &diff)
	gocv.Threshold(diff, &diff, motionPixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	blurred.CopyTo(&g.prev)

	if changed > g.threshold || (g.maxSkips > 0 && g.skipped >= g.maxSkips) {
		g.skipped = 0
		return true, changed
	}
	g.skipped++
	return false, changed
}

// Reset forgets the baseline frame.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.primed = false
	g.skipped = 0
}

func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prev.Close()
	g.primed = false
}
