package capture

import (
	"image"
	"image/color"
	"math"
	"testing"

	"gocv.io/x/gocv"
)

func TestMotionGate_FirstFramePasses(t *testing.T) {
	g := NewMotionGate(1.0, 0)
	defer g.Close()

	frame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if pass, _ := g.Pass(&frame); !pass {
		t.Error("first frame should pass")
	}
}

func TestMotionGate_StillFramesRejected(t *testing.T) {
	g := NewMotionGate(1.0, 0)
	defer g.Close()

	frame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer frame.Close()

	g.Pass(&frame)
	pass, changed := g.Pass(&frame)
	if pass {
		t.Error("identical frame should not pass")
	}
	if math.Abs(changed) > 0.001 {
		t.Errorf("changed = %v%%, want 0", changed)
	}
}

func TestMotionGate_MovementPasses(t *testing.T) {
	g := NewMotionGate(1.0, 0)
	defer g.Close()

	dark := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer dark.Close()
	bright := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer bright.Close()
	gocv.Rectangle(&bright, image.Rect(40, 40, 200, 200), color.RGBA{255, 255, 255, 0}, -1)

	g.Pass(&dark)
	pass, changed := g.Pass(&bright)
	if !pass {
		t.Error("moved frame should pass")
	}
	if changed <= 1.0 {
		t.Errorf("changed = %v%%, want > 1", changed)
	}
}

func TestMotionGate_MaxSkipsForcesPass(t *testing.T) {
	g := NewMotionGate(1.0, 2)
	defer g.Close()

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	want := []bool{true, false, false, true, false}
	for i, w := range want {
		if pass, _ := g.Pass(&frame); pass != w {
			t.Errorf("Pass() #%d = %v, want %v", i, pass, w)
		}
	}
}

func TestMotionGate_EmptyFrame(t *testing.T) {
	g := NewMotionGate(1.0, 0)
	defer g.Close()

	empty := gocv.NewMat()
	defer empty.Close()

	if pass, _ := g.Pass(&empty); pass {
		t.Error("empty frame should not pass")
	}
	if pass, _ := g.Pass(nil); pass {
		t.Error("nil frame should not pass")
	}
}

func TestMotionGate_ResetPrimesAgain(t *testing.T) {
	g := NewMotionGate(1.0, 0)
	defer g.Close()

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	g.Pass(&frame)
	g.Reset()
	if pass, _ := g.Pass(&frame); !pass {
		t.Error("frame after Reset should pass")
	}
}
