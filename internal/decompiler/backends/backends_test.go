// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package backends

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/loomsrc/internal/decompiler"
)

func TestRegistry(t *testing.T) {
	reg := Registry(Config{Jars: map[string]string{"cfr": "/opt/cfr.jar"}})
	assert.Equal(t, Names(), reg.Backends())

	for _, name := range Names() {
		a, err := reg.Resolve(name)
		require.NoError(t, err)
		assert.Equal(t, name, a.Backend())
	}

	def, err := reg.Resolve(Default)
	require.NoError(t, err)
	assert.Equal(t, "vineflower", def.Backend())

	_, err = reg.Resolve("procyon")
	assert.ErrorIs(t, err, decompiler.ErrUnknownBackend)
}

func TestConfigRunner(t *testing.T) {
	cfg := Config{JavaBin: "java", Jars: map[string]string{"fernflower": "/opt/ff.jar"}}
	assert.True(t, cfg.runner("Fernflower").Enabled())
	assert.Equal(t, "/opt/ff.jar", cfg.runner("fernflower").Jar())
	assert.False(t, cfg.runner("cfr").Enabled())
}
