// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package javasrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdits_Apply(t *testing.T) {
	text := "a\nb\nc\nd\ne\n"
	var e Edits
	assert.True(t, e.Empty())

	e.Drop(2, 3)
	e.Insert(5, "x", "y")
	e.Replace(4, "D")
	assert.True(t, e.Dropped(3))
	assert.False(t, e.Empty())

	got, move := e.Apply(text)
	assert.Equal(t, "a\nD\nx\ny\ne\n", got)

	for _, c := range []struct{ old, new int }{{1, 1}, {4, 2}, {5, 5}} {
		n, ok := move(c.old)
		assert.True(t, ok)
		assert.Equal(t, c.new, n, "line %d", c.old)
	}
	_, ok := move(2)
	assert.False(t, ok)
	_, ok = move(99)
	assert.False(t, ok)
}

func TestEdits_NoTrailingNewline(t *testing.T) {
	var e Edits
	e.Insert(1, "// top")
	e.Replace(2, "end")
	got, move := e.Apply("first\nlast")
	assert.Equal(t, "// top\nfirst\nend", got)
	n, ok := move(2)
	assert.True(t, ok)
	assert.Equal(t, 3, n)
}
