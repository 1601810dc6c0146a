// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package linemap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SortsAndDedups(t *testing.T) {
	m := New(Pair{5, 50}, Pair{2, 20}, Pair{5, 99}, Pair{0, 1}, Pair{3, -1})
	assert.Equal(t, []Pair{{2, 20}, {5, 50}}, m.Pairs())
	assert.Equal(t, 5, m.MaxLine())
	assert.Equal(t, 50, m.MaxOriginal())

	orig, ok := m.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, 50, orig)
	_, ok = m.Lookup(4)
	assert.False(t, ok)

	var zero Map
	assert.True(t, zero.Empty())
	assert.Equal(t, 0, zero.MaxLine())
}

func TestShift(t *testing.T) {
	m := New(Pair{1, 10}, Pair{4, 40}, Pair{9, 90})
	shifted := m.Shift(func(line int) (int, bool) {
		if line == 4 {
			return 0, false
		}
		return line + 2, true
	})
	assert.Equal(t, []Pair{{3, 10}, {11, 90}}, shifted.Pairs())
	assert.True(t, m.Equal(New(Pair{9, 90}, Pair{4, 40}, Pair{1, 10})))
	assert.False(t, m.Equal(shifted))
}

func TestWriteRead(t *testing.T) {
	classes := []Class{
		{Name: "pkg/B", Map: New(Pair{7, 3}, Pair{4, 12})},
		{Name: "pkg/Empty"},
		{Name: "pkg/A", Map: New(Pair{1, 1})},
	}
	var b strings.Builder
	require.NoError(t, Write(&b, classes))

	want := "pkg/A\t1\t1\n" +
		"\t1\t1\n" +
		"pkg/B\t12\t7\n" +
		"\t3\t7\n" +
		"\t12\t4\n"
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Fatalf("line map text mismatch (-want +got):\n%s", diff)
	}

	back, err := Read(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "pkg/A", back[0].Name)
	assert.True(t, back[1].Map.Equal(classes[0].Map))
}

func TestRead_Errors(t *testing.T) {
	for _, in := range []string{
		"\t1\t2\n",
		"pkg/A\t1\n",
		"pkg/A\t1\t1\n\tx\t1\n",
	} {
		_, err := Read(strings.NewReader(in))
		assert.Error(t, err, in)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "sources.linemap")
	require.NoError(t, WriteFile(path, []Class{{Name: "a/B", Map: New(Pair{2, 8})}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a/B\t8\t2\n\t8\t2\n", string(data))
}
