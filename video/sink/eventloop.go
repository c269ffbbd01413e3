package sink

import (
	"sort"
	"sync"
	"time"
)

// maxPumpWait bounds how long the loop hands control to the toolkit so
// callbacks scheduled from other goroutines are picked up promptly.
const maxPumpWait = 10 * time.Millisecond

// PumpFunc gives the toolkit up to wait to process its own events, returning
// the commands the user issued meanwhile.
type PumpFunc func(wait time.Duration) []Command

type scheduled struct {
	at time.Time
	fn func()
}

// EventLoop is a single-threaded cooperative scheduler. Scheduled callbacks,
// command handlers and the toolkit pump all run on the goroutine calling Run.
type EventLoop struct {
	pump PumpFunc

	mu      sync.Mutex
	pending []scheduled
	handler func(Command)
	quit    bool
}

func NewEventLoop(pump PumpFunc) *EventLoop {
	return &EventLoop{pump: pump}
}

func (l *EventLoop) Schedule(delay time.Duration, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, scheduled{at: time.Now().Add(delay), fn: fn})
}

func (l *EventLoop) OnCommand(fn func(Command)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = fn
}

// Post delivers c to the command handler on the loop. Safe to call from any
// goroutine, e.g. a signal handler.
func (l *EventLoop) Post(c Command) {
	l.Schedule(0, func() { l.dispatch(c) })
}

func (l *EventLoop) Quit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quit = true
}

// Run processes events until Quit is called.
func (l *EventLoop) Run() {
	for {
		due, wait, quit := l.next(time.Now())
		if quit {
			return
		}
		for _, fn := range due {
			fn()
		}
		if len(due) > 0 {
			continue
		}
		for _, c := range l.pump(wait) {
			l.dispatch(c)
		}
	}
}

// next pops the callbacks due at now, in deadline order, and reports how long
// the pump may block before the next one is due.
func (l *EventLoop) next(now time.Time) ([]func(), time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.quit {
		return nil, 0, true
	}

	var due []scheduled
	wait := maxPumpWait
	rest := l.pending[:0]
	for _, s := range l.pending {
		if !s.at.After(now) {
			due = append(due, s)
			continue
		}
		if d := s.at.Sub(now); d < wait {
			wait = d
		}
		rest = append(rest, s)
	}
	l.pending = rest

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].at.Before(due[j].at)
	})
	fns := make([]func(), len(due))
	for i, s := range due {
		fns[i] = s.fn
	}
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return fns, wait, false
}

func (l *EventLoop) dispatch(c Command) {
	l.mu.Lock()
	h := l.handler
	l.mu.Unlock()
	if h != nil {
		h(c)
	}
}
