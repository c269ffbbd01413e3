package process

import (
	"fmt"
	"image"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Detection classes for MobileNet SSD
var mobileNetClasses = map[int]string{
	0: "background",
	1: "aeroplane", 2: "bicycle", 3: "bird", 4: "boat",
	5: "bottle", 6: "bus", 7: "car", 8: "cat", 9: "chair",
	10: "cow", 11: "diningtable", 12: "dog", 13: "horse",
	14: "motorbike", 15: "person", 16: "pottedplant",
	17: "sheep", 18: "sofa", 19: "train", 20: "tvmonitor",
}

// MobileNetSSD is a Detector backed by the Caffe MobileNet SSD model.
type MobileNetSSD struct {
	net gocv.Net

	// Resized 300x300 image for the network input.
	small gocv.Mat

	l sync.Mutex
}

func NewMobileNetSSD(prototxt, caffeModel string, cuda bool) (*MobileNetSSD, error) {
	net := gocv.ReadNetFromCaffe(prototxt, caffeModel)
	if net.Empty() {
		return nil, fmt.Errorf("failed to read caffe model %s", caffeModel)
	}
	if cuda {
		setCUDA(&net)
	}
	log.Infof("Loaded MobileNet SSD from %s", caffeModel)
	return &MobileNetSSD{
		net:   net,
		small: gocv.NewMat(),
	}, nil
}

func (cl *MobileNetSSD) Detect(input gocv.Mat, confidence float32) (Detections, error) {
	if input.Empty() {
		return nil, fmt.Errorf("empty input image")
	}
	cl.l.Lock()
	defer cl.l.Unlock()

	start := time.Now()
	defer func() {
		log.Debugf("MobileNet SSD ran in %v", time.Since(start))
	}()

	scale := image.Point{X: 300, Y: 300}
	gocv.Resize(input, &cl.small, scale, 0, 0, gocv.InterpolationLinear)

	blob := gocv.BlobFromImage(cl.small, 0.007843, scale, gocv.NewScalar(127.5, 127.5, 127.5, 0), false, false)
	defer blob.Close()

	cl.net.SetInput(blob, "data")

	detBlob := cl.net.Forward("detection_out")
	defer detBlob.Close()

	detections := gocv.GetBlobChannel(detBlob, 0, 0)
	defer detections.Close()

	var out Detections
	for r := 0; r < detections.Rows(); r++ {
		classID := int(detections.GetFloatAt(r, 1))
		class, ok := mobileNetClasses[classID]
		if !ok || classID == 0 {
			continue
		}

		conf := detections.GetFloatAt(r, 2)
		if conf < confidence {
			continue
		}

		left := int(detections.GetFloatAt(r, 3) * float32(input.Cols()))
		top := int(detections.GetFloatAt(r, 4) * float32(input.Rows()))
		right := int(detections.GetFloatAt(r, 5) * float32(input.Cols()))
		bottom := int(detections.GetFloatAt(r, 6) * float32(input.Rows()))
		log.Debugf("Detection of %s at (%d, %d, %d, %d), confidence %.2f", class, left, top, right, bottom, conf)

		out = append(out, Detection{
			Box:        clampRect(image.Rect(left, top, right, bottom), input.Cols(), input.Rows()),
			Label:      class,
			Confidence: conf,
		})
	}
	return out, nil
}

func (cl *MobileNetSSD) Close() error {
	cl.l.Lock()
	defer cl.l.Unlock()
	cl.small.Close()
	return cl.net.Close()
}

func setCUDA(net *gocv.Net) {
	if err := net.SetPreferableBackend(gocv.NetBackendCUDA); err != nil {
		log.Warnf("CUDA backend unavailable: %v", err)
		return
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCUDA); err != nil {
		log.Warnf("CUDA target unavailable: %v", err)
	}
}

func clampRect(r image.Rectangle, w, h int) image.Rectangle {
	return r.Canon().Intersect(image.Rect(0, 0, w, h))
}
