package video

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livecam_frames_captured_total",
		Help: "Frames read from the stream and published to the raw slot.",
	})
	readErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livecam_read_errors_total",
		Help: "Transient failures reading from the stream.",
	})
	slotDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livecam_slot_drops_total",
		Help: "Frames overwritten before anyone read them.",
	}, []string{"slot"})
	inferences = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livecam_inferences_total",
		Help: "Successful detector runs.",
	})
	detectorErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livecam_detector_errors_total",
		Help: "Detector runs that failed and were skipped.",
	})
	inferenceSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "livecam_inference_seconds",
		Help:    "Detector latency.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	})
	framesPainted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livecam_frames_painted_total",
		Help: "Frames handed to the display, by kind.",
	}, []string{"kind"})
)

const (
	slotRaw       = "raw"
	slotProcessed = "processed"
)
