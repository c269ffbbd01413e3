package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisibilityUnsupportedProperty(t *testing.T) {
	var v visibility
	// Backends without the property report -1 forever.
	for i := 0; i < 5; i++ {
		assert.False(t, v.closed(-1))
	}
}

func TestVisibilityClosedAfterShown(t *testing.T) {
	var v visibility
	assert.False(t, v.closed(0), "not mapped yet")
	assert.False(t, v.closed(1))
	assert.False(t, v.closed(1))
	assert.True(t, v.closed(0))
}

func TestWindowKeys(t *testing.T) {
	assert.Equal(t, CommandRotateLeft, windowKeys['a'])
	assert.Equal(t, CommandRotateRight, windowKeys['.'])
	assert.Equal(t, CommandClose, windowKeys[keyEscape])
}
