package config

import (
	"time"
)

const (
	ModelYOLO         = "yolov8"
	ModelMobileNetSSD = "mobilenet-ssd"
)

type Config struct {
	// Capture rate ceiling in frames per second.
	TargetFPS float64 `json:"target_fps" validate:"gt=0,lte=240"`

	// Only every Nth inference tick is eligible to run the detector.
	InferenceStride int `json:"inference_stride" validate:"gte=1"`
	// Minimum seconds between two successful inferences.
	InferenceIntervalSec float64 `json:"inference_interval_sec" validate:"gte=0"`

	// Frames wider than these are downscaled, preserving aspect ratio. Zero
	// disables downscaling.
	CaptureMaxWidth   int `json:"capture_max_width" validate:"gte=0"`
	InferenceMaxWidth int `json:"inference_max_width" validate:"gte=0"`

	Confidence float32 `json:"confidence" validate:"gte=0,lte=1"`

	RefreshPeriodMs int `json:"refresh_period_ms" validate:"gte=1"`
	JoinTimeoutMs   int `json:"join_timeout_ms" validate:"gte=0"`
	IdleMs          int `json:"idle_ms" validate:"gte=1"`
	YieldMs         int `json:"yield_ms" validate:"gte=0"`

	// If non-zero, this many consecutive failed reads end the stream.
	MaxReadFailures int `json:"max_read_failures" validate:"gte=0"`

	Model ModelConfig `json:"model"`

	WindowTitle string `json:"window_title"`
}

type ModelConfig struct {
	Kind string `json:"kind" validate:"oneof=yolov8 mobilenet-ssd"`
	// Path to the ONNX file (yolov8) or caffemodel (mobilenet-ssd).
	Path string `json:"path" validate:"required"`
	// Prototxt for mobilenet-ssd. Unused for yolov8.
	Prototxt string `json:"prototxt" validate:"required_if=Kind mobilenet-ssd"`
	CUDA     bool   `json:"cuda"`
}

func Default() *Config {
	return &Config{
		TargetFPS:            15,
		InferenceStride:      4,
		InferenceIntervalSec: 0.3,
		CaptureMaxWidth:      480,
		InferenceMaxWidth:    480,
		Confidence:           0.4,
		RefreshPeriodMs:      50,
		JoinTimeoutMs:        1000,
		IdleMs:               10,
		YieldMs:              10,
		Model: ModelConfig{
			Kind: ModelYOLO,
			Path: "yolov8n.onnx",
		},
		WindowTitle: "Live stream",
	}
}

func (c *Config) InferenceInterval() time.Duration {
	return time.Duration(c.InferenceIntervalSec * float64(time.Second))
}

func (c *Config) RefreshPeriod() time.Duration {
	return time.Duration(c.RefreshPeriodMs) * time.Millisecond
}

func (c *Config) JoinTimeout() time.Duration {
	return time.Duration(c.JoinTimeoutMs) * time.Millisecond
}

func (c *Config) Idle() time.Duration {
	return time.Duration(c.IdleMs) * time.Millisecond
}

func (c *Config) Yield() time.Duration {
	return time.Duration(c.YieldMs) * time.Millisecond
}
