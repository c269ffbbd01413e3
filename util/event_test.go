package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventNotifyIsSticky(t *testing.T) {
	e := NewEvent()
	assert.False(t, e.HasBeenNotified())

	e.Notify()
	e.Notify() // second notify is a no-op

	assert.True(t, e.HasBeenNotified())
	e.Wait()
	assert.True(t, e.WaitTimeout(time.Millisecond))
}

func TestEventWaitTimeoutExpires(t *testing.T) {
	e := NewEvent()
	start := time.Now()
	assert.False(t, e.WaitTimeout(20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestEventWakesWaiters(t *testing.T) {
	e := NewEvent()
	woke := make(chan struct{})
	for i := 0; i < 3; i++ {
		go func() {
			e.Wait()
			woke <- struct{}{}
		}()
	}
	e.Notify()
	for i := 0; i < 3; i++ {
		select {
		case <-woke:
		case <-time.After(time.Second):
			t.Fatal("waiter was not woken")
		}
	}
	select {
	case <-e.Done():
	default:
		t.Fatal("Done channel should be closed")
	}
}
