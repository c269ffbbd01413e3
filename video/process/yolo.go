package process

import (
	"fmt"
	"image"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	yoloInputSize = 640
	yoloNMSThresh = 0.45
)

// YOLO is a Detector backed by a YOLOv8 ONNX export.
type YOLO struct {
	net gocv.Net
	l   sync.Mutex
}

func NewYOLO(onnxPath string, cuda bool) (*YOLO, error) {
	net := gocv.ReadNetFromONNX(onnxPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to read ONNX model %s", onnxPath)
	}
	if cuda {
		setCUDA(&net)
	}
	log.Infof("Loaded YOLOv8 model from %s", onnxPath)
	return &YOLO{net: net}, nil
}

func (y *YOLO) Detect(input gocv.Mat, confidence float32) (Detections, error) {
	if input.Empty() {
		return nil, fmt.Errorf("empty input image")
	}
	y.l.Lock()
	defer y.l.Unlock()

	start := time.Now()
	defer func() {
		log.Debugf("YOLOv8 ran in %v", time.Since(start))
	}()

	size := image.Point{X: yoloInputSize, Y: yoloInputSize}
	blob := gocv.BlobFromImage(input, 1/255.0, size, gocv.Scalar{}, true, false)
	defer blob.Close()

	y.net.SetInput(blob, "")
	out := y.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected YOLO output shape %v", dims)
	}
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("reading YOLO output: %w", err)
	}

	scaleX := float32(input.Cols()) / yoloInputSize
	scaleY := float32(input.Rows()) / yoloInputSize
	cands := decodeYOLO(data, dims[1], dims[2], scaleX, scaleY, confidence)
	if len(cands.boxes) == 0 {
		return nil, nil
	}

	var dets Detections
	for _, i := range gocv.NMSBoxes(cands.boxes, cands.scores, confidence, yoloNMSThresh) {
		dets = append(dets, Detection{
			Box:        clampRect(cands.boxes[i], input.Cols(), input.Rows()),
			Label:      cocoLabel(cands.classes[i]),
			Confidence: cands.scores[i],
		})
	}
	return dets, nil
}

func (y *YOLO) Close() error {
	y.l.Lock()
	defer y.l.Unlock()
	return y.net.Close()
}

type yoloCandidates struct {
	boxes   []image.Rectangle
	scores  []float32
	classes []int
}

// decodeYOLO turns the raw network output into candidate boxes scaled back
// to the input image. The output is either [attrs x anchors] (the usual
// 84x8400 export) or its transpose; attrs is 4 box values plus one score
// per class.
func decodeYOLO(data []float32, d1, d2 int, scaleX, scaleY, confidence float32) yoloCandidates {
	attrs, anchors := d1, d2
	transposed := false
	if d1 > d2 {
		attrs, anchors = d2, d1
		transposed = true
	}
	at := func(attr, anchor int) float32 {
		if transposed {
			return data[anchor*attrs+attr]
		}
		return data[attr*anchors+anchor]
	}

	var c yoloCandidates
	if attrs <= 4 || len(data) < attrs*anchors {
		return c
	}
	for j := 0; j < anchors; j++ {
		best, bestScore := 0, float32(0)
		for i := 4; i < attrs; i++ {
			if s := at(i, j); s > bestScore {
				best, bestScore = i-4, s
			}
		}
		if bestScore < confidence {
			continue
		}
		x, y, w, h := at(0, j), at(1, j), at(2, j), at(3, j)
		c.boxes = append(c.boxes, image.Rect(
			int((x-w/2)*scaleX), int((y-h/2)*scaleY),
			int((x+w/2)*scaleX), int((y+h/2)*scaleY),
		))
		c.scores = append(c.scores, bestScore)
		c.classes = append(c.classes, best)
	}
	return c
}
