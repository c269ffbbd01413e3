package source

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestValidateURL(t *testing.T) {
	for _, uri := range []string{
		"http://192.168.1.70:4747/video",
		"https://cam.example.com/stream.mjpg",
		"rtsp://10.0.0.2:554/av0_0",
		"HTTP://host/video",
	} {
		assert.NoError(t, ValidateURL(uri), uri)
	}

	for _, uri := range []string{
		"",
		"192.168.1.70:4747/video",
		"ftp://host/video",
		"file:///tmp/video.mp4",
		"http://",
		"not a url",
	} {
		err := ValidateURL(uri)
		assert.True(t, errors.Is(err, ErrInvalidURL), "%q: %v", uri, err)
	}
}

func TestFrameCloneIsIndependent(t *testing.T) {
	f := NewFrame(gocv.NewMatWithSize(4, 6, gocv.MatTypeCV8UC3), time.Now())
	f.Processed = true
	f.Detections = 2

	c := f.Clone()
	f.Close()

	require.False(t, c.Mat.Empty())
	assert.Equal(t, 6, c.Width())
	assert.Equal(t, 4, c.Height())
	assert.True(t, c.Processed)
	assert.Equal(t, 2, c.Detections)
	assert.Equal(t, f.Time, c.Time)
	c.Close()
}

func TestFrameDoubleClosePanics(t *testing.T) {
	f := NewFrame(gocv.NewMat(), time.Now())
	f.Close()
	assert.Panics(t, f.Close)
}

func TestLayoutString(t *testing.T) {
	assert.Equal(t, "BGR", LayoutBGR.String())
	assert.Equal(t, "RGB", LayoutRGB.String())
	assert.Equal(t, "Layout(7)", Layout(7).String())
}

// writeClip records n black frames to an MJPG file and returns its path.
func writeClip(t *testing.T, n int) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "clip.avi")
	w, err := gocv.VideoWriterFile(name, "MJPG", 10, 32, 24, true)
	if err != nil || !w.IsOpened() {
		t.Skipf("MJPG writer unavailable: %v", err)
	}
	img := gocv.NewMatWithSize(24, 32, gocv.MatTypeCV8UC3)
	defer img.Close()
	for i := 0; i < n; i++ {
		require.NoError(t, w.Write(img))
	}
	require.NoError(t, w.Close())
	return name
}

func TestVideoCaptureEndOfStream(t *testing.T) {
	v, err := NewVideoCapture(writeClip(t, 3), VideoCaptureOptions{MaxReadFailures: 2})
	require.NoError(t, err)
	defer v.Release()

	frames := 0
	for {
		f, err := v.Read()
		if err != nil {
			// The first failure is transient, the second ends the stream.
			assert.True(t, errors.Is(err, ErrNoFrame), "%v", err)
			break
		}
		assert.Equal(t, 32, f.Width())
		f.Close()
		frames++
	}
	assert.Equal(t, 3, frames)

	_, err = v.Read()
	assert.True(t, errors.Is(err, ErrEndOfStream), "%v", err)
}

func TestVideoCaptureRetriesForever(t *testing.T) {
	v, err := NewVideoCapture(writeClip(t, 1), VideoCaptureOptions{})
	require.NoError(t, err)

	f, err := v.Read()
	require.NoError(t, err)
	f.Close()
	for i := 0; i < 5; i++ {
		_, err = v.Read()
		assert.True(t, errors.Is(err, ErrNoFrame), "%v", err)
	}

	v.Release()
	v.Release()
	_, err = v.Read()
	assert.True(t, errors.Is(err, ErrEndOfStream))
}

func TestNewVideoCaptureMissingFile(t *testing.T) {
	_, err := NewVideoCapture(filepath.Join(t.TempDir(), "missing.avi"), VideoCaptureOptions{})
	assert.True(t, errors.Is(err, ErrOpen), "%v", err)
}
