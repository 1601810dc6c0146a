// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fsm implements a strict finite state machine over string-typed
// states and events.
package fsm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrInvalidTransition is returned when no edge leaves the current state
// for the fired event.
var ErrInvalidTransition = errors.New("invalid transition")

// Transition is one edge. Guard may veto it; Action runs before the state
// changes and a failing Action leaves the machine where it was.
type Transition[S ~string, E ~string] struct {
	From   S
	Event  E
	To     S
	Guard  func(ctx context.Context, from S, event E) error
	Action func(ctx context.Context, from, to S, event E) error
}

// Observer is told about every applied transition.
type Observer[S ~string, E ~string] func(from, to S, event E)

// Machine is safe for concurrent use. Unknown transitions are errors.
type Machine[S ~string, E ~string] struct {
	mu        sync.Mutex
	state     S
	index     map[edge[S, E]]Transition[S, E]
	terminal  []S
	observers []Observer[S, E]
	history   []S
}

type edge[S ~string, E ~string] struct {
	from  S
	event E
}

// New builds a machine in state initial. States without outgoing edges are
// terminal.
func New[S ~string, E ~string](initial S, transitions []Transition[S, E], observers ...Observer[S, E]) (*Machine[S, E], error) {
	idx := make(map[edge[S, E]]Transition[S, E], len(transitions))
	from := map[S]bool{}
	var targets []S
	for _, t := range transitions {
		k := edge[S, E]{t.From, t.Event}
		if _, exists := idx[k]; exists {
			return nil, fmt.Errorf("duplicate transition: %s on %s", t.From, t.Event)
		}
		idx[k] = t
		from[t.From] = true
		targets = append(targets, t.To)
	}
	var terminal []S
	for _, s := range targets {
		if !from[s] && !slices.Contains(terminal, s) {
			terminal = append(terminal, s)
		}
	}
	return &Machine[S, E]{
		state:     initial,
		index:     idx,
		terminal:  terminal,
		observers: observers,
		history:   []S{initial},
	}, nil
}

// State returns the current state.
func (m *Machine[S, E]) State() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Terminal reports whether the machine reached a state with no way out.
func (m *Machine[S, E]) Terminal() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.terminal, m.state)
}

// History returns every state visited, starting with the initial one.
func (m *Machine[S, E]) History() []S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history)
}

// Fire applies event. Guard and Action run outside the lock; if the state
// moved meanwhile the transition is rejected.
func (m *Machine[S, E]) Fire(ctx context.Context, event E) (S, error) {
	m.mu.Lock()
	from := m.state
	t, ok := m.index[edge[S, E]{from, event}]
	m.mu.Unlock()
	if !ok {
		return from, fmt.Errorf("%w: state=%s event=%s", ErrInvalidTransition, from, event)
	}

	if t.Guard != nil {
		if err := t.Guard(ctx, from, event); err != nil {
			return from, err
		}
	}
	if t.Action != nil {
		if err := t.Action(ctx, from, t.To, event); err != nil {
			return from, err
		}
	}

	m.mu.Lock()
	if m.state != from {
		cur := m.state
		m.mu.Unlock()
		return cur, fmt.Errorf("concurrent transition: from=%s cur=%s event=%s", from, cur, event)
	}
	m.state = t.To
	m.history = append(m.history, t.To)
	observers := m.observers
	m.mu.Unlock()

	for _, o := range observers {
		o(from, t.To, event)
	}
	return t.To, nil
}
