// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type state string
type event string

func lights(t *testing.T, obs ...Observer[state, event]) *Machine[state, event] {
	t.Helper()
	m, err := New[state, event]("red", []Transition[state, event]{
		{From: "red", Event: "go", To: "green"},
		{From: "green", Event: "slow", To: "amber"},
		{From: "amber", Event: "stop", To: "off"},
	}, obs...)
	require.NoError(t, err)
	return m
}

func TestMachine_Fire(t *testing.T) {
	var seen []string
	m := lights(t, func(from, to state, ev event) {
		seen = append(seen, string(from)+">"+string(to))
	})
	ctx := context.Background()

	to, err := m.Fire(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, state("green"), to)
	assert.False(t, m.Terminal())

	_, err = m.Fire(ctx, "go")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, state("green"), m.State())

	_, err = m.Fire(ctx, "slow")
	require.NoError(t, err)
	_, err = m.Fire(ctx, "stop")
	require.NoError(t, err)

	assert.True(t, m.Terminal())
	assert.Equal(t, []state{"red", "green", "amber", "off"}, m.History())
	assert.Equal(t, []string{"red>green", "green>amber", "amber>off"}, seen)
}

func TestMachine_GuardAndAction(t *testing.T) {
	veto := errors.New("veto")
	m, err := New[state, event]("a", []Transition[state, event]{
		{From: "a", Event: "x", To: "b", Guard: func(context.Context, state, event) error { return veto }},
		{From: "a", Event: "y", To: "c", Action: func(context.Context, state, state, event) error { return veto }},
		{From: "a", Event: "z", To: "d"},
	})
	require.NoError(t, err)

	_, err = m.Fire(context.Background(), "x")
	assert.ErrorIs(t, err, veto)
	_, err = m.Fire(context.Background(), "y")
	assert.ErrorIs(t, err, veto)
	assert.Equal(t, state("a"), m.State())
	assert.Equal(t, []state{"a"}, m.History())
}

func TestNew_Duplicate(t *testing.T) {
	_, err := New[state, event]("a", []Transition[state, event]{
		{From: "a", Event: "x", To: "b"},
		{From: "a", Event: "x", To: "c"},
	})
	assert.Error(t, err)
}
