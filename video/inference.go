package video

import (
	"fmt"
	"time"

	"livecam/video/process"
	"livecam/video/source"
)

// throttle admits a tick only when it is a multiple of stride and at least
// interval has passed since the last success.
type throttle struct {
	stride   uint64
	interval time.Duration

	ticks uint64
	last  time.Time
}

func newThrottle(stride int, interval time.Duration) *throttle {
	if stride < 1 {
		stride = 1
	}
	return &throttle{
		stride:   uint64(stride),
		interval: interval,
	}
}

func (t *throttle) tick(now time.Time) bool {
	t.ticks++
	if t.ticks%t.stride != 0 {
		return false
	}
	return t.last.IsZero() || now.Sub(t.last) >= t.interval
}

func (t *throttle) succeeded(at time.Time) {
	t.last = at
}

// inferLoop runs the detector on the latest raw frame whenever the throttle
// allows and publishes the annotated result to the processed slot.
func (p *Pipeline) inferLoop() {
	defer p.inferDone.Notify()
	defer p.clearAfterStop(p.processed)
	th := newThrottle(p.opts.Stride, p.opts.Interval)

	for p.running.Load() {
		now := time.Now()
		if !th.tick(now) {
			time.Sleep(p.opts.Idle)
			continue
		}

		f, ok := p.raw.Peek()
		if !ok {
			time.Sleep(p.opts.Idle)
			continue
		}

		if err := p.detect(f); err != nil {
			f.Close()
			detectorErrors.Inc()
			p.detectorErrors.Add(1)
			p.log.WithError(err).Warn("Detection failed; skipping frame")
			time.Sleep(p.opts.Idle)
			continue
		}

		if p.processed.Publish(f) {
			slotDrops.WithLabelValues(slotProcessed).Inc()
		}
		th.succeeded(now)
	}
}

// detect downscales f, runs the detector and burns the results into f. A
// panicking detector is reported as an error.
func (p *Pipeline) detect(f *source.Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("detector panic: %v", r)
		}
	}()

	process.Downscale(f, p.opts.InferenceMaxWidth)

	start := time.Now()
	dets, err := p.det.Detect(f.Mat, p.opts.Confidence)
	inferenceSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	process.Annotate(f, dets, p.opts.Confidence)
	inferences.Inc()
	p.inferences.Add(1)
	if len(dets) > 0 {
		p.log.Debugf("Detected %s", dets.Above(p.opts.Confidence).DebugString())
	}
	return nil
}
