package detector

import (
	"context"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector returns preset hands. It records how often it was
// loaded and called.
type MockDetector struct {
	mu      sync.Mutex
	hands   []HandLandmarks
	err     error
	loadErr error
	loads   int
	calls   int
}

func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

func (m *MockDetector) SetHands(hands ...HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockDetector) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *MockDetector) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return m.loadErr
	}
	return ctx.Err()
}

func (m *MockDetector) Detect(*gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]HandLandmarks, len(m.hands))
	copy(out, m.hands)
	return out, nil
}

func (m *MockDetector) Close() error { return nil }

func (m *MockDetector) Loads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// PointingHand builds a right hand with the index finger extended and
// its tip at (x, y) in pixels. The other fingers curl toward the palm.
func PointingHand(x, y float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	wrist := Point3D{X: x + 20, Y: y + 180}
	h.Points[Wrist] = wrist

	for i, idx := range annotations[IndexFinger] {
		f := float64(3-i) / 3
		h.Points[idx] = Point3D{X: x + 10*f, Y: y + 120*f}
	}
	curled := []string{Thumb, MiddleFinger, RingFinger, Pinky}
	for n, name := range curled {
		off := float64(n-1) * 18
		for i, idx := range annotations[name] {
			h.Points[idx] = Point3D{X: wrist.X + off + float64(i)*2, Y: wrist.Y - 60 - float64(i)*5, Z: -0.02}
		}
	}
	return h
}
