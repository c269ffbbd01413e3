package process

import (
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"livecam/video/source"
)

func testFrame(w, h int) *source.Frame {
	return source.NewFrame(gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3), time.Now())
}

func TestOrientationInverse(t *testing.T) {
	var o Orientation
	for _, start := range []int{0, 1, 2, 3} {
		for i := 0; i < start; i++ {
			o.RotateRight()
		}
		before := o.Angle()
		o.RotateLeft()
		o.RotateRight()
		assert.Equal(t, before, o.Angle())
	}
}

func TestOrientationClosure(t *testing.T) {
	var o Orientation
	assert.Equal(t, Rotate0, o.Angle())

	seen := []Rotation{}
	for i := 0; i < 4; i++ {
		seen = append(seen, o.RotateRight())
	}
	assert.Equal(t, []Rotation{Rotate90, Rotate180, Rotate270, Rotate0}, seen)

	assert.Equal(t, Rotate270, o.RotateLeft())
	assert.Equal(t, Rotate180, o.RotateLeft())
}

func TestOrientationConcurrentTurns(t *testing.T) {
	var o Orientation
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				o.RotateRight()
				_ = o.Angle()
			}
		}()
	}
	wg.Wait()
	// 800 quarter turns is a whole number of revolutions.
	assert.Equal(t, Rotate0, o.Angle())
}

func TestRotate(t *testing.T) {
	for _, tc := range []struct {
		r    Rotation
		w, h int
	}{
		{Rotate0, 8, 4},
		{Rotate90, 4, 8},
		{Rotate180, 8, 4},
		{Rotate270, 4, 8},
		{Rotation(45), 8, 4},
	} {
		f := testFrame(8, 4)
		Rotate(f, tc.r)
		assert.Equal(t, tc.w, f.Width(), "rotation %d", tc.r)
		assert.Equal(t, tc.h, f.Height(), "rotation %d", tc.r)
		f.Close()
	}
}

func TestDownscale(t *testing.T) {
	f := testFrame(960, 720)
	defer f.Close()
	require.True(t, Downscale(f, 480))
	assert.Equal(t, 480, f.Width())
	assert.Equal(t, 360, f.Height())

	assert.False(t, Downscale(f, 480))
	assert.False(t, Downscale(f, 0))
	assert.Equal(t, 480, f.Width())
}

func TestAnnotate(t *testing.T) {
	f := testFrame(200, 100)
	defer f.Close()

	dets := Detections{
		{Box: image.Rect(10, 0, 50, 40), Label: "person", Confidence: 0.9},
		{Box: image.Rect(60, 30, 120, 90), Label: "dog", Confidence: 0.45},
		{Box: image.Rect(5, 5, 20, 20), Label: "cat", Confidence: 0.1},
	}
	Annotate(f, dets, 0.4)

	assert.True(t, f.Processed)
	assert.Equal(t, 2, f.Detections)
	// Box edge of the first detection is painted green (BGR order).
	px := f.Mat.GetVecbAt(20, 10)
	assert.Equal(t, uint8(0), px[0])
	assert.Equal(t, uint8(255), px[1])
	assert.Equal(t, uint8(0), px[2])
}

func TestDetectionsAbove(t *testing.T) {
	dets := Detections{
		{Label: "a", Confidence: 0.5},
		{Label: "b", Confidence: 0.2},
		{Label: "c", Confidence: 0.8},
	}
	got := dets.Above(0.4)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Label)
	assert.Equal(t, "a", got[1].Label)
	assert.Equal(t, "c 0.80, a 0.50", got.DebugString())
}

func TestDecodeYOLO(t *testing.T) {
	// Eight anchors, two classes: attrs = 4 + 2 = 6, laid out attr-major.
	const attrs, anchors = 6, 8
	data := make([]float32, attrs*anchors)
	set := func(attr, anchor int, v float32) { data[attr*anchors+anchor] = v }

	// Anchor 0: box centred at (320, 320), 100x50, class 1 with 0.9.
	set(0, 0, 320)
	set(1, 0, 320)
	set(2, 0, 100)
	set(3, 0, 50)
	set(4, 0, 0.1)
	set(5, 0, 0.9)
	// Anchor 1: below threshold.
	set(4, 1, 0.2)

	c := decodeYOLO(data, attrs, anchors, 0.5, 0.5, 0.4)
	require.Len(t, c.boxes, 1)
	assert.Equal(t, image.Rect(135, 147, 185, 172), c.boxes[0])
	assert.Equal(t, float32(0.9), c.scores[0])
	assert.Equal(t, 1, c.classes[0])
	assert.Equal(t, "bicycle", cocoLabel(c.classes[0]))

	// The transposed layout decodes to the same candidates.
	tr := make([]float32, len(data))
	for a := 0; a < attrs; a++ {
		for j := 0; j < anchors; j++ {
			tr[j*attrs+a] = data[a*anchors+j]
		}
	}
	assert.Equal(t, c, decodeYOLO(tr, anchors, attrs, 0.5, 0.5, 0.4))
}

func TestDecodeYOLOShortOutput(t *testing.T) {
	c := decodeYOLO(make([]float32, 3), 84, 8400, 1, 1, 0.4)
	assert.Empty(t, c.boxes)
	assert.Equal(t, "unknown", cocoLabel(99))
}
