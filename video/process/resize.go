package process

import (
	"image"

	"gocv.io/x/gocv"

	"livecam/video/source"
)

// Downscale shrinks the frame in place so it is no wider than maxWidth,
// preserving the aspect ratio. It reports whether the frame was resized.
func Downscale(f *source.Frame, maxWidth int) bool {
	w, h := f.Width(), f.Height()
	if maxWidth <= 0 || w <= maxWidth {
		return false
	}
	nh := h * maxWidth / w
	if nh < 1 {
		nh = 1
	}
	dst := gocv.NewMat()
	gocv.Resize(f.Mat, &dst, image.Point{X: maxWidth, Y: nh}, 0, 0, gocv.InterpolationArea)
	f.Replace(dst)
	return true
}
