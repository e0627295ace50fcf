package app

import "gocv.io/x/gocv"

// Display shows composited frames. Show reports true when the viewer
// asked to quit.
type Display interface {
	Show(frame gocv.Mat) bool
	Close() error
}

// Window is a Display backed by an OpenCV HighGUI window. Esc or q
// quits.
type Window struct {
	win *gocv.Window
}

func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

func (w *Window) Show(frame gocv.Mat) bool {
	w.win.IMShow(frame)
	switch w.win.WaitKey(1) {
	case 27, 'q':
		return true
	}
	return false
}

func (w *Window) Close() error {
	return w.win.Close()
}
