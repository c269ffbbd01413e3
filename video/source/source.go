package source

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gocv.io/x/gocv"
)

var (
	// ErrOpen wraps failures to connect to the stream at startup.
	ErrOpen = errors.New("unable to open video source")
	// ErrInvalidURL is returned for URLs without a recognized scheme or host.
	ErrInvalidURL = errors.New("invalid stream URL")
	// ErrNoFrame is a transient read failure; the caller should retry.
	ErrNoFrame = errors.New("no frame available")
	// ErrEndOfStream means the source will not produce any more frames.
	ErrEndOfStream = errors.New("end of stream")
)

// Schemes lists the URL schemes accepted by ValidateURL.
var Schemes = []string{"http", "https", "rtsp"}

// Layout is the channel order of a frame's pixel buffer.
type Layout int

const (
	LayoutBGR Layout = iota
	LayoutRGB
)

func (l Layout) String() string {
	switch l {
	case LayoutBGR:
		return "BGR"
	case LayoutRGB:
		return "RGB"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// Frame is a single decoded image plus its capture time. A Frame is owned by
// exactly one holder at a time and must be closed by that holder.
type Frame struct {
	Mat    gocv.Mat
	Time   time.Time
	Layout Layout

	// Processed marks frames with detection overlays burned in.
	Processed  bool
	Detections int

	closed bool
}

func NewFrame(m gocv.Mat, t time.Time) *Frame {
	return &Frame{
		Mat:  m,
		Time: t,
	}
}

func (f *Frame) Close() {
	if f.closed {
		panic("frame already closed")
	}
	f.closed = true
	f.Mat.Close()
}

func (f *Frame) Clone() *Frame {
	return &Frame{
		Mat:        f.Mat.Clone(),
		Time:       f.Time,
		Layout:     f.Layout,
		Processed:  f.Processed,
		Detections: f.Detections,
	}
}

// Replace swaps in a new pixel buffer, closing the previous one.
func (f *Frame) Replace(m gocv.Mat) {
	old := f.Mat
	f.Mat = m
	old.Close()
}

func (f *Frame) Width() int {
	return f.Mat.Cols()
}

func (f *Frame) Height() int {
	return f.Mat.Rows()
}

// Source defines a stream of images, such as a camera.
type Source interface {
	// Read blocks until the next frame is decoded. It returns ErrNoFrame for
	// transient failures and ErrEndOfStream once the stream is exhausted. The
	// caller owns the returned frame.
	Read() (*Frame, error)

	// Release disconnects from the capture source and frees up all resources.
	// It is safe to call more than once.
	Release()
}

// Opener connects to the stream at uri.
type Opener func(uri string) (Source, error)

// ValidateURL rejects anything that is not an absolute URL with one of the
// recognized Schemes.
func ValidateURL(uri string) error {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", ErrInvalidURL, uri)
	}
	for _, s := range Schemes {
		if strings.EqualFold(u.Scheme, s) {
			return nil
		}
	}
	return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
}
