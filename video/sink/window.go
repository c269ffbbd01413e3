package sink

import (
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"livecam/video/source"
)

const keyEscape = 27

var windowKeys = map[int]Command{
	'a':       CommandRotateLeft,
	',':       CommandRotateLeft,
	'd':       CommandRotateRight,
	'.':       CommandRotateRight,
	'q':       CommandClose,
	keyEscape: CommandClose,
}

// Window is a Display backed by an OpenCV highgui window. It must be created
// and run on the main OS thread.
type Window struct {
	*EventLoop

	name    string
	window  *gocv.Window
	sizeSet bool
	closed  bool
	visible visibility
}

// visibility tracks WindowPropertyVisible. Some highgui backends report -1
// for it, so the window only counts as closed once it has been seen open.
type visibility struct {
	seen bool
}

func (v *visibility) closed(prop float64) bool {
	if prop >= 1 {
		v.seen = true
		return false
	}
	return v.seen
}

func NewWindow(name string) *Window {
	w := &Window{
		name:   name,
		window: gocv.NewWindow(name),
	}
	w.EventLoop = NewEventLoop(w.pump)
	log.Infof("Window %q: a/, rotate left, d/. rotate right, q/Esc close", name)
	return w
}

func (w *Window) Paint(f *source.Frame) {
	if w.closed {
		return
	}
	if !w.sizeSet {
		w.window.ResizeWindow(f.Width(), f.Height())
		w.sizeSet = true
	}
	w.window.IMShow(f.Mat)
}

// Layout is BGR; highgui displays OpenCV's native order.
func (w *Window) Layout() source.Layout {
	return source.LayoutBGR
}

func (w *Window) pump(wait time.Duration) []Command {
	if w.closed {
		time.Sleep(wait)
		return nil
	}
	ms := int(wait / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	key := w.window.WaitKey(ms)
	// The user closed the window with the title bar button.
	if w.visible.closed(w.window.GetWindowProperty(gocv.WindowPropertyVisible)) {
		return []Command{CommandClose}
	}
	if key < 0 {
		return nil
	}
	if c, ok := windowKeys[key&0xff]; ok {
		return []Command{c}
	}
	return nil
}

func (w *Window) Close() {
	if w.closed {
		return
	}
	w.closed = true
	if err := w.window.Close(); err != nil {
		log.Errorf("Failed to close window %q: %v", w.name, err)
	}
}
