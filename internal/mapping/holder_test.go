// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mapping

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeMappings(t *testing.T, path, named string) {
	t.Helper()
	body := "tiny\t2\t0\tofficial\tnamed\nc\ta\t" + named + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestHolder_ReloadSwapsSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.tiny")
	writeMappings(t, path, "pkg/First")

	h, err := NewHolder(path)
	require.NoError(t, err)
	name, _ := h.Get().Lookup(Named, ClassDescriptor("a"))
	assert.Equal(t, "pkg/First", name)

	updates := make(chan *Set, 1)
	h.Subscribe(updates)

	writeMappings(t, path, "pkg/Second")
	require.NoError(t, h.Reload(context.Background()))
	name, _ = h.Get().Lookup(Named, ClassDescriptor("a"))
	assert.Equal(t, "pkg/Second", name)

	select {
	case s := <-updates:
		assert.Same(t, h.Get(), s)
	default:
		t.Fatal("expected reload notification")
	}
}

func TestHolder_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.tiny")
	writeMappings(t, path, "pkg/First")
	h, err := NewHolder(path)
	require.NoError(t, err)
	before := h.Get()

	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0o600))
	err = h.Reload(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedMapping)
	assert.Same(t, before, h.Get())
}

func TestHolder_WatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.tiny")
	writeMappings(t, path, "pkg/First")
	h, err := NewHolder(path)
	require.NoError(t, err)
	h.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, h.Watch(ctx))

	writeMappings(t, path, "pkg/Watched")
	require.Eventually(t, func() bool {
		name, _ := h.Get().Lookup(Named, ClassDescriptor("a"))
		return name == "pkg/Watched"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	h.Stop()
	// Let the debounce timer and watcher goroutines drain before goleak runs.
	time.Sleep(50 * time.Millisecond)
}

func TestNewHolder_MissingFile(t *testing.T) {
	_, err := NewHolder(filepath.Join(t.TempDir(), "nope.tiny"))
	require.Error(t, err)
}
