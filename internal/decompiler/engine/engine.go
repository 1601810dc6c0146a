// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package engine runs an external Java decompiler over one class group at a
// time, each invocation in its own scratch directory and process group.
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/loomsrc/internal/archive"
	"github.com/ManuGH/loomsrc/internal/classfile"
	xlog "github.com/ManuGH/loomsrc/internal/log"
	"github.com/ManuGH/loomsrc/internal/metrics"
	"github.com/ManuGH/loomsrc/internal/procgroup"
)

const (
	defaultJava      = "java"
	defaultKillGrace = 5 * time.Second
	stderrTailLines  = 20
)

// ErrEngine classifies failed engine invocations.
var ErrEngine = errors.New("decompiler engine failed")

// Error describes a failed invocation with the tail of its stderr.
type Error struct {
	Backend  string
	Class    string
	ExitCode int
	Reason   string
	Stderr   []string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s engine on %s: %s", e.Backend, e.Class, e.Reason)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if len(e.Stderr) > 0 {
		msg += ": " + e.Stderr[len(e.Stderr)-1]
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrEngine, e.Err}
	}
	return []error{ErrEngine}
}

// Config locates the engine and bounds each invocation.
type Config struct {
	JavaBin string
	// Jar is the engine jar. An empty Jar disables the runner.
	Jar     string
	JVMArgs []string
	// Timeout bounds one class group; zero means no limit.
	Timeout   time.Duration
	KillGrace time.Duration
	// ScratchDir is the parent of per-invocation directories (os.TempDir when empty).
	ScratchDir string
}

// Invocation is one engine run over a class group.
type Invocation struct {
	Backend string
	Group   archive.ClassGroup
	// Args returns the engine arguments (after -jar <jar>) for the class
	// files written to inputs and the directory sources must be written to.
	Args func(inputs []string, outDir string) []string
}

// Runner starts engine processes.
type Runner struct {
	cfg Config
}

// New returns a runner for cfg.
func New(cfg Config) *Runner {
	if cfg.JavaBin == "" {
		cfg.JavaBin = defaultJava
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = defaultKillGrace
	}
	return &Runner{cfg: cfg}
}

// Enabled reports whether an engine jar is configured.
func (r *Runner) Enabled() bool { return r != nil && r.cfg.Jar != "" }

// Jar returns the configured engine jar.
func (r *Runner) Jar() string { return r.cfg.Jar }

// Identity names the engine behind r: "builtin" when disabled, otherwise
// the jar path with its size and modification time, so replacing the jar
// changes it.
func (r *Runner) Identity() string {
	if !r.Enabled() {
		return "builtin"
	}
	id := "jar:" + r.cfg.Jar
	if fi, err := os.Stat(r.cfg.Jar); err == nil {
		id += fmt.Sprintf(":%d:%d", fi.Size(), fi.ModTime().UnixNano())
	}
	return id
}

// Run decompiles inv.Group and returns the source text of its top-level class.
func (r *Runner) Run(ctx context.Context, inv Invocation) (string, error) {
	logger := xlog.WithContext(ctx, xlog.WithComponent("engine")).With().
		Str(xlog.FieldBackend, inv.Backend).
		Str(xlog.FieldClass, inv.Group.Name).
		Logger()
	fail := func(reason string, err error) *Error {
		return &Error{Backend: inv.Backend, Class: inv.Group.Name, Reason: reason, Err: err}
	}

	dir, err := os.MkdirTemp(r.cfg.ScratchDir, "loomsrc-"+inv.Backend+"-")
	if err != nil {
		return "", fail("create scratch dir", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	inputs, err := writeInputs(filepath.Join(dir, "in"), inv.Group)
	if err != nil {
		return "", fail("write class files", err)
	}
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return "", fail("create output dir", err)
	}

	runCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	args := make([]string, 0, len(r.cfg.JVMArgs)+2)
	args = append(args, r.cfg.JVMArgs...)
	args = append(args, "-jar", r.cfg.Jar)
	args = append(args, inv.Args(inputs, outDir)...)
	cmd := exec.Command(r.cfg.JavaBin, args...) // #nosec G204 -- engine path comes from operator config
	cmd.Dir = dir
	procgroup.Set(cmd)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fail("capture stderr", err)
	}

	start := time.Now()
	logger.Debug().Str(xlog.FieldEvent, "engine.start").Str("command", cmd.String()).Msg("starting engine")
	if err := cmd.Start(); err != nil {
		metrics.IncEngineRun(inv.Backend, "start_failed")
		return "", fail("start", err)
	}

	tail := newStderrTail(stderrTailLines)
	var ioWg sync.WaitGroup
	ioWg.Add(1)
	go func() {
		defer ioWg.Done()
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			line := sc.Text()
			if line == "" || IsNoise(line) {
				continue
			}
			tail.add(line)
			logger.Debug().Str(xlog.FieldEvent, "engine.stderr").Msg(line)
		}
	}()
	waitCh := make(chan error, 1)
	go func() {
		ioWg.Wait()
		waitCh <- cmd.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-runCtx.Done():
		_ = procgroup.Terminate(cmd, waitCh, r.cfg.KillGrace)
		metrics.IncEngineRun(inv.Backend, "timeout")
		e := fail("stopped", runCtx.Err())
		e.Stderr = tail.lines()
		return "", e
	}

	if waitErr != nil {
		metrics.IncEngineRun(inv.Backend, "failed")
		e := fail("engine exited with error", waitErr)
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			e.ExitCode = exitErr.ExitCode()
		}
		e.Stderr = tail.lines()
		return "", e
	}

	src, err := readOutput(outDir, inv.Group.Name)
	if err != nil {
		metrics.IncEngineRun(inv.Backend, "no_output")
		e := fail("no source produced", err)
		e.Stderr = tail.lines()
		return "", e
	}
	metrics.IncEngineRun(inv.Backend, "ok")
	logger.Debug().Str(xlog.FieldEvent, "engine.done").Dur("duration", time.Since(start)).Msg("engine finished")
	return src, nil
}

func writeInputs(dir string, g archive.ClassGroup) ([]string, error) {
	inputs := make([]string, 0, len(g.Classes))
	for _, c := range g.Classes {
		p := filepath.Join(dir, filepath.FromSlash(c.Name)+".class")
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return nil, err
		}
		if err := os.WriteFile(p, c.Data, 0o600); err != nil {
			return nil, err
		}
		inputs = append(inputs, p)
	}
	return inputs, nil
}

// readOutput finds the source of class under outDir. Engines differ in
// whether they keep the package directory for loose class files, so the
// package path is tried first and any file named after the class second.
func readOutput(outDir, class string) (string, error) {
	direct := filepath.Join(outDir, filepath.FromSlash(class)+".java")
	if b, err := os.ReadFile(direct); err == nil {
		return string(b), nil
	}
	want := classfile.SimpleName(class) + ".java"
	var found string
	err := filepath.WalkDir(outDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == want {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("%s not found in engine output", want)
	}
	b, err := os.ReadFile(found)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var noise = []string{
	"Inconsistent inner class entries",
	"Inconsistent generic signature",
}

// IsNoise reports whether an engine log line is a known harmless warning.
func IsNoise(line string) bool {
	for _, n := range noise {
		if strings.Contains(line, n) {
			return true
		}
	}
	return false
}
