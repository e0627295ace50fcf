package capture

import (
	"context"
	"errors"
	"io"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)
	if err := cam.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	if w, h := cam.Size(); w != 640 || h != 480 {
		t.Errorf("Size() = %dx%d, want 640x480", w, h)
	}

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() #%d error = %v", i, err)
		}
		f.Close()
	}

	if _, err := cam.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Errorf("ReadFrame() past end error = %v, want io.EOF", err)
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	if err := cam.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() #%d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_OpenErr(t *testing.T) {
	cam := NewMockCamera(nil, false)
	cam.OpenErr = ErrPermission

	if err := cam.Open(context.Background()); !errors.Is(err, ErrPermission) {
		t.Errorf("Open() error = %v, want ErrPermission", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() = true after failed Open")
	}
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}
