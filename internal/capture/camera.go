// Package capture acquires webcam frames through GoCV.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// Requested resolution when none is configured.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

var (
	// ErrCameraNotOpen is returned when reading from a closed camera.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrPermission means the device exists but access was refused.
	ErrPermission = errors.New("camera permission denied")
	// ErrDevice means no usable device could be opened.
	ErrDevice = errors.New("camera device unavailable")
	// ErrEmptyFrame is returned when the device yields no pixels.
	ErrEmptyFrame = errors.New("captured frame is empty")
)

// Camera is a started video source. Size reports the resolution the
// device actually negotiated, which may differ from the request.
type Camera interface {
	Open(ctx context.Context) error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	Size() (width, height int)
	IsOpen() bool
}

// Options select a device and a requested resolution.
type Options struct {
	Device int
	Width  int
	Height int
}

type deviceCamera struct {
	opts    Options
	mu      sync.Mutex
	capture *gocv.VideoCapture
	width   int
	height  int
}

// NewCamera returns an unopened camera for the given device.
func NewCamera(opts Options) Camera {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	return &deviceCamera{opts: opts}
}

func (c *deviceCamera) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	vc, err := gocv.OpenVideoCapture(c.opts.Device)
	if err != nil {
		return classifyOpenError(c.opts.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return classifyOpenError(c.opts.Device, errors.New("capture did not open"))
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.opts.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.opts.Height))

	c.width = int(vc.Get(gocv.VideoCaptureFrameWidth))
	c.height = int(vc.Get(gocv.VideoCaptureFrameHeight))
	if c.width <= 0 || c.height <= 0 {
		c.width, c.height = c.opts.Width, c.opts.Height
	}
	c.capture = vc
	return nil
}

func (c *deviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

// ReadFrame grabs one frame. The caller owns the returned Mat.
func (c *deviceCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}
	return &mat, nil
}

func (c *deviceCamera) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *deviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}

// devicePath is swapped in tests.
var devicePath = func(id int) string {
	return fmt.Sprintf("/dev/video%d", id)
}

// classifyOpenError separates refused access from a missing device by
// probing the device node. Platforms without device nodes report
// ErrDevice.
func classifyOpenError(id int, cause error) error {
	f, err := os.Open(devicePath(id))
	if err == nil {
		f.Close()
		return fmt.Errorf("%w: device %d: %v", ErrDevice, id, cause)
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: device %d: %v", ErrPermission, id, cause)
	}
	return fmt.Errorf("%w: device %d: %v", ErrDevice, id, cause)
}
