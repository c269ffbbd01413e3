package process

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"livecam/video/source"
)

var colorBox = color.RGBA{R: 0, G: 255, B: 0, A: 255}

const (
	captionFont      = gocv.FontHersheySimplex
	captionScale     = 0.5
	captionThickness = 2
	boxThickness     = 2
)

// Annotate draws a box and a "label confidence" caption for every detection
// at or above thresh, and marks the frame as processed.
func Annotate(f *source.Frame, dets Detections, thresh float32) {
	drawn := 0
	for _, d := range dets {
		if d.Confidence < thresh {
			continue
		}
		gocv.Rectangle(&f.Mat, d.Box, colorBox, boxThickness)
		drawCaption(&f.Mat, d.Caption(), d.Box.Min)
		drawn++
	}
	f.Processed = true
	f.Detections = drawn
}

func drawCaption(m *gocv.Mat, text string, at image.Point) {
	sz := gocv.GetTextSize(text, captionFont, captionScale, captionThickness)
	org := image.Point{X: at.X, Y: at.Y - 10}
	// Boxes touching the top edge get their caption inside the box.
	if org.Y < sz.Y {
		org.Y = at.Y + sz.Y + 2
	}
	if org.X < 0 {
		org.X = 0
	}
	gocv.PutText(m, text, org, captionFont, captionScale, colorBox, captionThickness)
}
