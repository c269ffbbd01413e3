package video

import (
	"sync"
)

// Releasable values can be deep-copied and must be closed by their owner.
type Releasable[T any] interface {
	Clone() T
	Close()
}

// Slot is a single-capacity, latest-wins hand-off cell. Publish overwrites
// whatever is held; Peek hands out a private copy and leaves the held value in
// place. Memory is bounded to one value however fast the producer runs.
type Slot[T Releasable[T]] struct {
	mu     sync.Mutex
	v      T
	full   bool
	peeked bool

	publishes uint64
	drops     uint64
}

func NewSlot[T Releasable[T]]() *Slot[T] {
	return &Slot[T]{}
}

// Publish takes ownership of v and releases the previous occupant. It reports
// whether that occupant was dropped without ever being peeked.
func (s *Slot[T]) Publish(v T) bool {
	s.mu.Lock()
	old, hadOld := s.v, s.full
	dropped := hadOld && !s.peeked
	s.v, s.full, s.peeked = v, true, false
	s.publishes++
	if dropped {
		s.drops++
	}
	s.mu.Unlock()

	if hadOld {
		old.Close()
	}
	return dropped
}

// Peek returns a copy of the latest value. The caller owns the copy.
func (s *Slot[T]) Peek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.full {
		var zero T
		return zero, false
	}
	s.peeked = true
	return s.v.Clone(), true
}

// Clear releases the held value, leaving the slot empty.
func (s *Slot[T]) Clear() {
	s.mu.Lock()
	old, hadOld := s.v, s.full
	var zero T
	s.v, s.full, s.peeked = zero, false, false
	s.mu.Unlock()

	if hadOld {
		old.Close()
	}
}

type SlotStats struct {
	Publishes uint64
	Drops     uint64
	Full      bool
}

func (s *Slot[T]) Stats() SlotStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SlotStats{
		Publishes: s.publishes,
		Drops:     s.drops,
		Full:      s.full,
	}
}
