package process

import (
	"sync/atomic"

	"gocv.io/x/gocv"

	"livecam/video/source"
)

// Rotation is a clockwise rotation in degrees.
type Rotation int32

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Orientation holds the rotation applied to captured frames. It is written
// from the UI and read by the capture loop.
type Orientation struct {
	angle atomic.Int32
}

func (o *Orientation) Angle() Rotation {
	return Rotation(o.angle.Load())
}

// RotateLeft turns the picture 90 degrees counter-clockwise.
func (o *Orientation) RotateLeft() Rotation {
	return o.turn(-90)
}

// RotateRight turns the picture 90 degrees clockwise.
func (o *Orientation) RotateRight() Rotation {
	return o.turn(90)
}

func (o *Orientation) turn(delta int32) Rotation {
	for {
		old := o.angle.Load()
		next := ((old+delta)%360 + 360) % 360
		if o.angle.CompareAndSwap(old, next) {
			return Rotation(next)
		}
	}
}

// Rotate applies r to the frame in place. Angles other than 90, 180 and 270
// leave the frame untouched.
func Rotate(f *source.Frame, r Rotation) {
	var code gocv.RotateFlag
	switch r {
	case Rotate90:
		code = gocv.Rotate90Clockwise
	case Rotate180:
		code = gocv.Rotate180Clockwise
	case Rotate270:
		code = gocv.Rotate90CounterClockwise
	default:
		return
	}
	dst := gocv.NewMat()
	gocv.Rotate(f.Mat, &dst, code)
	f.Replace(dst)
}
