package process

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

// Detection is one object found in a frame. Box is in pixel coordinates of
// the image passed to the detector.
type Detection struct {
	Box        image.Rectangle
	Label      string
	Confidence float32
}

func (d Detection) Caption() string {
	return fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
}

type Detections []Detection

// Above returns the detections with confidence at or above thresh, highest
// confidence first.
func (d Detections) Above(thresh float32) Detections {
	var out Detections
	for _, det := range d {
		if det.Confidence >= thresh {
			out = append(out, det)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

func (d Detections) DebugString() string {
	var ds []string
	for _, det := range d {
		ds = append(ds, det.Caption())
	}
	return strings.Join(ds, ", ")
}

// Detector runs object detection on a single image. Implementations are
// loaded once and reused for every call.
type Detector interface {
	Detect(img gocv.Mat, confidence float32) (Detections, error)
	Close() error
}
