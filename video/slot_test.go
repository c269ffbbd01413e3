package video

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pair is written as two halves; a torn read would show different halves.
type pair struct {
	a, b   int
	closed *atomic.Int64
}

func newPair(i int, closed *atomic.Int64) *pair {
	return &pair{a: i, b: i, closed: closed}
}

func (p *pair) Clone() *pair {
	return &pair{a: p.a, b: p.b, closed: p.closed}
}

func (p *pair) Close() {
	p.closed.Add(1)
}

func TestSlotEmpty(t *testing.T) {
	s := NewSlot[*pair]()
	v, ok := s.Peek()
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.False(t, s.Stats().Full)
}

func TestSlotLatestWins(t *testing.T) {
	var closed atomic.Int64
	s := NewSlot[*pair]()

	assert.False(t, s.Publish(newPair(1, &closed)))
	for i := 2; i <= 10; i++ {
		assert.True(t, s.Publish(newPair(i, &closed)))
	}
	// Every overwritten value was released.
	assert.Equal(t, int64(9), closed.Load())

	v, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, 10, v.a)

	st := s.Stats()
	assert.Equal(t, uint64(10), st.Publishes)
	assert.Equal(t, uint64(9), st.Drops)
}

func TestSlotPeekIsNonDestructive(t *testing.T) {
	var closed atomic.Int64
	s := NewSlot[*pair]()
	s.Publish(newPair(7, &closed))

	for i := 0; i < 3; i++ {
		v, ok := s.Peek()
		require.True(t, ok)
		assert.Equal(t, 7, v.a)
	}

	// A peeked value that gets overwritten is not a drop.
	assert.False(t, s.Publish(newPair(8, &closed)))
	assert.Equal(t, uint64(0), s.Stats().Drops)
}

func TestSlotPeekReturnsCopy(t *testing.T) {
	var closed atomic.Int64
	s := NewSlot[*pair]()
	orig := newPair(3, &closed)
	s.Publish(orig)

	v, _ := s.Peek()
	assert.NotSame(t, orig, v)
	v.a = 99

	again, _ := s.Peek()
	assert.Equal(t, 3, again.a)
}

func TestSlotClear(t *testing.T) {
	var closed atomic.Int64
	s := NewSlot[*pair]()
	s.Publish(newPair(1, &closed))
	s.Clear()
	s.Clear()

	assert.Equal(t, int64(1), closed.Load())
	_, ok := s.Peek()
	assert.False(t, ok)
}

func TestSlotNoTornReads(t *testing.T) {
	var closed atomic.Int64
	s := NewSlot[*pair]()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20000; i++ {
			s.Publish(newPair(i, &closed))
		}
	}()
	go func() {
		defer wg.Done()
		last := -1
		for i := 0; i < 20000; i++ {
			v, ok := s.Peek()
			if !ok {
				continue
			}
			if v.a != v.b {
				t.Errorf("torn read: %d != %d", v.a, v.b)
				return
			}
			// Values only move forward.
			if v.a < last {
				t.Errorf("went back from %d to %d", last, v.a)
				return
			}
			last = v.a
		}
	}()
	wg.Wait()

	assert.Equal(t, int64(19999), closed.Load())
}
