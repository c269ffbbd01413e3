package video

import (
	"errors"
	"time"

	"golang.org/x/time/rate"

	"livecam/video/process"
	"livecam/video/source"
)

// captureLoop reads frames at no more than TargetFPS, orients them and
// publishes them to the raw slot. Only accepted frames spend a token, so a
// failed read is retried after the idle back-off.
func (p *Pipeline) captureLoop() {
	defer p.captureDone.Notify()
	defer p.clearAfterStop(p.raw)
	limiter := rate.NewLimiter(rate.Limit(p.opts.TargetFPS), 1)

	for p.running.Load() {
		// This loop is the limiter's only consumer, so the token seen here is
		// still there after the read.
		if limiter.Tokens() < 1 {
			time.Sleep(p.opts.Idle)
			continue
		}

		f, err := p.src.Read()
		if errors.Is(err, source.ErrEndOfStream) {
			p.log.Warn("Stream ended; keeping last frame on screen")
			return
		}
		if err != nil {
			readErrors.Inc()
			p.readErrors.Add(1)
			p.log.WithError(err).Debug("Read failure")
			time.Sleep(p.opts.Idle)
			continue
		}

		limiter.Allow()

		process.Downscale(f, p.opts.CaptureMaxWidth)
		process.Rotate(f, p.orientation.Angle())

		if p.raw.Publish(f) {
			slotDrops.WithLabelValues(slotRaw).Inc()
		}
		framesCaptured.Inc()
		p.captured.Add(1)

		time.Sleep(p.opts.Yield)
	}
}
