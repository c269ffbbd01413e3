package sink

import (
	"time"

	"livecam/video/source"
)

// Command is a user action delivered by the display toolkit.
type Command int

const (
	CommandRotateLeft Command = iota
	CommandRotateRight
	CommandClose
)

func (c Command) String() string {
	switch c {
	case CommandRotateLeft:
		return "rotate-left"
	case CommandRotateRight:
		return "rotate-right"
	case CommandClose:
		return "close"
	}
	return "unknown"
}

// Display is a window surface driven by its own event loop. All callbacks,
// including command handlers, run on that loop.
type Display interface {
	// Paint shows the frame. The caller keeps ownership; implementations must
	// not hold any references to the frame after returning.
	Paint(f *source.Frame)

	// Layout is the pixel layout Paint expects.
	Layout() source.Layout

	// Schedule runs fn on the event loop after delay. Safe to call from any
	// goroutine.
	Schedule(delay time.Duration, fn func())

	// OnCommand registers the handler for user commands.
	OnCommand(fn func(Command))

	// Quit stops the event loop.
	Quit()
}
