// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build linux

package procgroup

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T, script string) (*exec.Cmd, <-chan error) {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	Set(cmd)
	require.NoError(t, cmd.Start())
	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()
	return cmd, waitCh
}

func TestSetMakesGroupLeader(t *testing.T) {
	cmd, waitCh := start(t, "sleep 10")
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	require.NoError(t, err)
	assert.Equal(t, cmd.Process.Pid, pgid)

	require.NoError(t, Kill(cmd, syscall.SIGKILL))
	<-waitCh
}

func TestTerminateStopsChildren(t *testing.T) {
	cmd, waitCh := start(t, "sleep 10 & sleep 10")
	time.Sleep(50 * time.Millisecond)
	pgid := cmd.Process.Pid
	members, err := liveMembers(pgid)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(members), 2)

	err = Terminate(cmd, waitCh, time.Second)
	require.Error(t, err, "terminated by signal")

	// Orphaned children are reparented to init, which may leave them as
	// zombies for a while, so only running members count.
	assert.Eventually(t, func() bool {
		members, err := liveMembers(pgid)
		return err == nil && len(members) == 0
	}, 2*time.Second, 20*time.Millisecond, "group %d still has running members", pgid)
}

// liveMembers lists the non-zombie processes in group pgid.
func liveMembers(pgid int) ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		stat, err := os.ReadFile("/proc/" + e.Name() + "/stat")
		if err != nil {
			continue
		}
		// pid (comm) state ppid pgrp ...; comm may contain spaces.
		i := strings.LastIndexByte(string(stat), ')')
		if i < 0 {
			continue
		}
		fields := strings.Fields(string(stat[i+1:]))
		if len(fields) < 3 || fields[0] == "Z" || fields[0] == "X" {
			continue
		}
		if g, err := strconv.Atoi(fields[2]); err == nil && g == pgid {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

func TestTerminateEscalates(t *testing.T) {
	cmd, waitCh := start(t, "trap '' TERM; sleep 10")
	time.Sleep(50 * time.Millisecond)

	began := time.Now()
	err := Terminate(cmd, waitCh, 100*time.Millisecond)
	require.Error(t, err)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	require.True(t, ok)
	assert.Equal(t, syscall.SIGKILL, status.Signal())
	assert.GreaterOrEqual(t, time.Since(began), 100*time.Millisecond)
}

func TestKillExitedProcess(t *testing.T) {
	cmd, waitCh := start(t, "true")
	require.NoError(t, <-waitCh)
	assert.NoError(t, Kill(cmd, syscall.SIGTERM))
	assert.NoError(t, Terminate(nil, nil, time.Millisecond))
}
