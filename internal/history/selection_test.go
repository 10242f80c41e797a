package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelection_FIFOEviction(t *testing.T) {
	var s Selection
	s.Toggle("A")
	s.Toggle("B")
	s.Toggle("C")

	assert.Equal(t, []string{"B", "C"}, s.IDs())
	left, right, ok := s.Pair()
	assert.True(t, ok)
	assert.Equal(t, "B", left)
	assert.Equal(t, "C", right)
}

func TestSelection_ToggleOff(t *testing.T) {
	var s Selection
	s.Toggle("A")
	s.Toggle("B")
	s.Toggle("A")

	assert.Equal(t, []string{"B"}, s.IDs())
	assert.False(t, s.Ready())

	s.Clear()
	assert.Empty(t, s.IDs())
}
