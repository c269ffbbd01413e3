package source

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

type VideoCaptureOptions struct {
	// Width hint passed to the decoder. Zero leaves the stream size alone.
	Width int
	// Consecutive failed reads before the stream is considered over. Zero
	// retries forever.
	MaxReadFailures int
}

// VideoCapture adapts gocv.VideoCapture (FFmpeg backend) to Source.
type VideoCapture struct {
	URI string

	cap      *gocv.VideoCapture
	opts     VideoCaptureOptions
	failures int

	mu       sync.Mutex
	released bool
}

func NewVideoCapture(uri string, opts VideoCaptureOptions) (*VideoCapture, error) {
	cap, err := gocv.VideoCaptureFile(uri)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOpen, uri, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("%w %s", ErrOpen, uri)
	}

	// Keep at most one decoded frame queued so reads return the freshest image.
	cap.Set(gocv.VideoCaptureBufferSize, 1)
	if opts.Width > 0 {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
		cap.Set(gocv.VideoCaptureFrameHeight, float64(opts.Width*3/4))
	}

	log.WithField("uri", uri).Infof("Opened video capture (%vx%v)",
		cap.Get(gocv.VideoCaptureFrameWidth), cap.Get(gocv.VideoCaptureFrameHeight))

	return &VideoCapture{
		URI:  uri,
		cap:  cap,
		opts: opts,
	}, nil
}

// VideoCaptureOpener returns an Opener producing VideoCapture sources.
func VideoCaptureOpener(opts VideoCaptureOptions) Opener {
	return func(uri string) (Source, error) {
		return NewVideoCapture(uri, opts)
	}
}

func (v *VideoCapture) Read() (*Frame, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.released || !v.cap.IsOpened() {
		return nil, ErrEndOfStream
	}

	m := gocv.NewMat()
	t := time.Now()
	if ok := v.cap.Read(&m); !ok || m.Empty() {
		m.Close()
		v.failures++
		if v.opts.MaxReadFailures > 0 && v.failures >= v.opts.MaxReadFailures {
			log.WithField("uri", v.URI).Warnf("Giving up after %d failed reads", v.failures)
			return nil, ErrEndOfStream
		}
		return nil, ErrNoFrame
	}
	v.failures = 0
	return NewFrame(m, t), nil
}

func (v *VideoCapture) Release() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.released {
		return
	}
	v.released = true
	if err := v.cap.Close(); err != nil {
		log.Errorf("Failed to close video capture %s: %v", v.URI, err)
	}
}
