// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package decompiler_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/loomsrc/internal/decompiler"
)

func TestRegistry(t *testing.T) {
	r := decompiler.NewRegistry()
	r.Register("Fake", func() decompiler.Adapter { return &fakeAdapter{} })
	r.Register("other", func() decompiler.Adapter { return &fakeAdapter{} })

	a, err := r.Resolve("FAKE")
	require.NoError(t, err)
	assert.Equal(t, "fake", a.Backend())
	assert.Equal(t, []string{"fake", "other"}, r.Backends())

	_, err = r.Resolve("nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, decompiler.ErrUnknownBackend)
	var ube *decompiler.UnknownBackendError
	require.True(t, errors.As(err, &ube))
	assert.Equal(t, "nonexistent", ube.Backend)
	assert.Equal(t, []string{"fake", "other"}, ube.Known)
}

func TestOptionsNormalize(t *testing.T) {
	o := decompiler.Options{Indent: "xx"}.Normalize()
	assert.Positive(t, o.ThreadCount)
	assert.Equal(t, decompiler.DefaultIndent, o.Indent)
	assert.Equal(t, 4, o.IndentWidth())

	tab := decompiler.Options{ThreadCount: 2, Indent: "\t"}.Normalize()
	assert.Equal(t, 2, tab.ThreadCount)
	assert.Equal(t, 1, tab.IndentWidth())
}
