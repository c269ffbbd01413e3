package video

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"livecam/util"
	"livecam/video/process"
	"livecam/video/sink"
	"livecam/video/source"
)

type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

type Options struct {
	// Capture rate ceiling.
	TargetFPS float64
	// Inference runs on every Stride-th tick, at most once per Interval.
	Stride   int
	Interval time.Duration
	// Downscale limits; zero disables.
	CaptureMaxWidth   int
	InferenceMaxWidth int
	Confidence        float32
	RefreshPeriod     time.Duration
	// How long Stop waits for each background loop.
	JoinTimeout time.Duration
	// Back-off between retries when a loop has nothing to do.
	Idle time.Duration
	// Pause after each published frame.
	Yield time.Duration
}

func DefaultOptions() Options {
	return Options{
		TargetFPS:         15,
		Stride:            4,
		Interval:          300 * time.Millisecond,
		CaptureMaxWidth:   480,
		InferenceMaxWidth: 480,
		Confidence:        0.4,
		RefreshPeriod:     50 * time.Millisecond,
		JoinTimeout:       time.Second,
		Idle:              10 * time.Millisecond,
		Yield:             10 * time.Millisecond,
	}
}

func (o Options) validate() error {
	switch {
	case o.TargetFPS <= 0:
		return errors.New("target fps must be positive")
	case o.Stride < 1:
		return errors.New("inference stride must be at least 1")
	case o.Interval < 0:
		return errors.New("inference interval must not be negative")
	case o.RefreshPeriod <= 0:
		return errors.New("refresh period must be positive")
	case o.Idle <= 0:
		return errors.New("idle back-off must be positive")
	}
	return nil
}

// Pipeline moves frames from a Source through a Detector to a Display.
//
// The capture and inference loops run on their own goroutines and hand frames
// over through latest-wins slots. The display refresh runs on the display's
// event loop and never blocks on either of them.
type Pipeline struct {
	opts Options
	src  source.Source
	det  process.Detector
	log  *log.Entry

	raw       *Slot[*source.Frame]
	processed *Slot[*source.Frame]

	orientation process.Orientation

	display     sink.Display
	running     atomic.Bool
	state       atomic.Int32
	captureDone *util.Event
	inferDone   *util.Event
	releaseOnce sync.Once

	captured       atomic.Uint64
	readErrors     atomic.Uint64
	inferences     atomic.Uint64
	detectorErrors atomic.Uint64
	painted        atomic.Uint64
}

// Launch validates uri, opens it and starts a pipeline painting to d. Nothing
// is opened or started when uri is rejected.
func Launch(uri string, open source.Opener, det process.Detector, d sink.Display, opts Options) (*Pipeline, error) {
	if err := source.ValidateURL(uri); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	src, err := open(uri)
	if err != nil {
		if !errors.Is(err, source.ErrOpen) {
			err = fmt.Errorf("%w %s: %v", source.ErrOpen, uri, err)
		}
		return nil, err
	}
	p := New(src, det, opts)
	if err := p.Start(d); err != nil {
		p.Stop()
		return nil, err
	}
	return p, nil
}

func New(src source.Source, det process.Detector, opts Options) *Pipeline {
	return &Pipeline{
		opts:        opts,
		src:         src,
		det:         det,
		log:         log.WithField("session", uuid.NewString()),
		raw:         NewSlot[*source.Frame](),
		processed:   NewSlot[*source.Frame](),
		captureDone: util.NewEvent(),
		inferDone:   util.NewEvent(),
	}
}

// Start spawns the capture and inference loops, arms the display refresh and
// wires user commands to the pipeline.
func (p *Pipeline) Start(d sink.Display) error {
	if err := p.opts.validate(); err != nil {
		return err
	}
	if !p.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return fmt.Errorf("pipeline already %v", p.State())
	}
	p.display = d
	p.running.Store(true)

	go p.captureLoop()
	go p.inferLoop()

	d.OnCommand(p.handle)
	d.Schedule(p.opts.RefreshPeriod, p.refresh)

	p.log.WithFields(log.Fields{
		"fps":      p.opts.TargetFPS,
		"stride":   p.opts.Stride,
		"interval": p.opts.Interval,
	}).Info("Pipeline started")
	return nil
}

// Stop asks both loops to finish, waits for each up to the join timeout and
// releases the source. Loops that miss the deadline are logged and left to
// exit on their own. Stop is idempotent.
func (p *Pipeline) Stop() {
	if p.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
		p.release()
		return
	}
	if !p.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return
	}
	p.log.Info("Stopping pipeline")
	p.running.Store(false)

	for _, l := range []struct {
		name string
		done *util.Event
	}{
		{"capture", p.captureDone},
		{"inference", p.inferDone},
	} {
		if !l.done.WaitTimeout(p.opts.JoinTimeout) {
			p.log.Warnf("%s loop did not stop within %v", l.name, p.opts.JoinTimeout)
		}
	}

	p.release()
	p.raw.Clear()
	p.processed.Clear()
	p.state.Store(int32(StateStopped))
	p.log.Info("Pipeline stopped")
}

// clearAfterStop empties s when a loop exits because of Stop. A loop that
// missed the join timeout may have published after Stop cleared the slots.
func (p *Pipeline) clearAfterStop(s *Slot[*source.Frame]) {
	if !p.running.Load() {
		s.Clear()
	}
}

func (p *Pipeline) release() {
	p.releaseOnce.Do(p.src.Release)
}

func (p *Pipeline) handle(c sink.Command) {
	switch c {
	case sink.CommandRotateLeft:
		p.log.Infof("Rotation now %d", p.orientation.RotateLeft())
	case sink.CommandRotateRight:
		p.log.Infof("Rotation now %d", p.orientation.RotateRight())
	case sink.CommandClose:
		p.Stop()
		p.display.Quit()
	}
}

func (p *Pipeline) RotateLeft() process.Rotation {
	return p.orientation.RotateLeft()
}

func (p *Pipeline) RotateRight() process.Rotation {
	return p.orientation.RotateRight()
}

func (p *Pipeline) State() State {
	return State(p.state.Load())
}

type Stats struct {
	State          State
	Angle          process.Rotation
	Captured       uint64
	ReadErrors     uint64
	Inferences     uint64
	DetectorErrors uint64
	Painted        uint64
	Raw            SlotStats
	Processed      SlotStats
	CaptureDone    bool
	InferenceDone  bool
}

func (p *Pipeline) Stats() Stats {
	return Stats{
		State:          p.State(),
		Angle:          p.orientation.Angle(),
		Captured:       p.captured.Load(),
		ReadErrors:     p.readErrors.Load(),
		Inferences:     p.inferences.Load(),
		DetectorErrors: p.detectorErrors.Load(),
		Painted:        p.painted.Load(),
		Raw:            p.raw.Stats(),
		Processed:      p.processed.Stats(),
		CaptureDone:    p.captureDone.HasBeenNotified(),
		InferenceDone:  p.inferDone.HasBeenNotified(),
	}
}
