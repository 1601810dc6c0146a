// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/loomsrc/internal/archive"
	"github.com/ManuGH/loomsrc/internal/classfile"
	"github.com/ManuGH/loomsrc/internal/classfile/classfiletest"
	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/decompiler/backends"
	"github.com/ManuGH/loomsrc/internal/decompiler/cache"
	"github.com/ManuGH/loomsrc/internal/mapping"
	"github.com/ManuGH/loomsrc/internal/pipeline/orchestrator"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const mappings = "tiny\t2\t0\tofficial\tnamed\n" +
	"c\tA\tpkg/Foo\n" +
	"\tm\t()V\trun\texecute\n" +
	"c\tB\tpkg/Bar\n"

func loadSet(t *testing.T, text string) *mapping.Set {
	t.Helper()
	s, err := mapping.Load(strings.NewReader(text))
	require.NoError(t, err)
	return s
}

func newArchive(t *testing.T, entries ...archive.Entry) *archive.Archive {
	t.Helper()
	arc, err := archive.New(mapping.Official, entries)
	require.NoError(t, err)
	return arc
}

func classEntry(c classfiletest.Class) archive.Entry {
	return archive.Entry{Name: c.Name + ".class", Data: c.Bytes()}
}

var (
	classA = classfiletest.Class{
		Name: "A",
		Methods: []classfiletest.Method{
			{Access: classfile.AccPublic, Name: "run", Desc: "()V", Lines: []classfile.LineNumber{{StartPC: 0, Line: 7}}},
		},
	}
	classB = classfiletest.Class{
		Name: "B",
		Methods: []classfiletest.Method{
			{Access: classfile.AccPublic, Name: "close", Desc: "()V", Lines: []classfile.LineNumber{{StartPC: 0, Line: 12}}},
		},
	}
)

func builtIn() *decompiler.Registry { return backends.Registry(backends.Config{}) }

func options() decompiler.Options {
	opts := decompiler.DefaultOptions()
	opts.ThreadCount = 2
	return opts
}

func TestRun_DecompilesAndRemaps(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	o := orchestrator.New(builtIn(), orchestrator.WithObserver(func(from, to orchestrator.State, _ orchestrator.Event) {
		mu.Lock()
		seen = append(seen, string(from)+"->"+string(to))
		mu.Unlock()
	}))

	res, err := o.Run(context.Background(), orchestrator.Request{
		Backend:  "CFR",
		Archive:  newArchive(t, classEntry(classA), classEntry(classB)),
		Mappings: loadSet(t, mappings),
		Options:  options(),
		Target:   mapping.Named,
	})
	require.NoError(t, err)

	assert.Equal(t, orchestrator.Completed, res.State)
	assert.Equal(t, "cfr", res.Backend)
	assert.NotEmpty(t, res.RunID)
	assert.Zero(t, res.Partial)
	assert.Equal(t, []orchestrator.State{orchestrator.Idle, orchestrator.Loading, orchestrator.Running, orchestrator.Completed}, res.History)
	assert.Equal(t, []string{"idle->loading", "loading->running", "running->completed"}, seen)

	require.Len(t, res.Units, 2)
	bar, foo := res.Units[0], res.Units[1]
	assert.Equal(t, "pkg/Bar", bar.ClassName)
	assert.Equal(t, "pkg/Foo", foo.ClassName)
	assert.Equal(t, mapping.Named, foo.Namespace)
	assert.Contains(t, foo.Source, "package pkg;\n")
	assert.Contains(t, foo.Source, "public class Foo {")
	assert.Contains(t, foo.Source, "public void execute() {")
	assert.NotContains(t, foo.Source, "run()")

	assert.Contains(t, bar.Source, "public void close() {")
	for _, tc := range []struct {
		unit     decompiler.Unit
		original int
	}{{foo, 7}, {bar, 12}} {
		require.Positive(t, tc.unit.Lines.Len(), tc.unit.ClassName)
		var mapped bool
		for _, p := range tc.unit.Lines.Pairs() {
			if p.Original == tc.original {
				mapped = true
			}
		}
		assert.True(t, mapped, "%s: line %d should survive the remap", tc.unit.ClassName, tc.original)
	}

	require.NotNil(t, res.Remap)
	assert.Equal(t, 2, res.Remap.Remapped)
	assert.Empty(t, res.Remap.Errors)
}

func TestRun_WithoutTargetKeepsSourceNames(t *testing.T) {
	o := orchestrator.New(builtIn())
	res, err := o.Run(context.Background(), orchestrator.Request{
		Backend:  "fernflower",
		Archive:  newArchive(t, classEntry(classB), classEntry(classA)),
		Mappings: loadSet(t, mappings),
		Options:  options(),
	})
	require.NoError(t, err)
	require.Len(t, res.Units, 2)
	assert.Equal(t, "A", res.Units[0].ClassName)
	assert.Equal(t, "B", res.Units[1].ClassName)
	assert.Equal(t, mapping.Official, res.Units[0].Namespace)
	assert.Nil(t, res.Remap)
}

func TestRun_CorruptClassIsPartial(t *testing.T) {
	o := orchestrator.New(builtIn())
	res, err := o.Run(context.Background(), orchestrator.Request{
		Archive:  newArchive(t, classEntry(classA), archive.Entry{Name: "C.class", Data: []byte("garbage")}),
		Mappings: loadSet(t, mappings),
		Options:  options(),
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.Completed, res.State)
	assert.Equal(t, backends.Default, res.Backend)
	assert.Equal(t, 1, res.Partial)

	require.Len(t, res.Units, 2)
	assert.False(t, res.Units[0].Failed())
	bad := res.Units[1]
	require.True(t, bad.Failed())
	assert.Equal(t, "C", bad.Failure.Class)
	assert.ErrorIs(t, bad.Failure, decompiler.ErrClassFailed)
}

func TestRun_UnknownBackendBeforeIO(t *testing.T) {
	o := orchestrator.New(builtIn())
	res, err := o.Run(context.Background(), orchestrator.Request{
		Backend:     "nonexistent",
		ArchivePath: "/definitely/not/here.jar",
		Mappings:    loadSet(t, mappings),
	})
	require.Error(t, err)

	var unknown *decompiler.UnknownBackendError
	require.ErrorAs(t, err, &unknown)
	assert.False(t, errors.Is(err, archive.ErrArchiveUnreadable))
	assert.Equal(t, orchestrator.Failed, res.State)
	assert.Equal(t, []orchestrator.State{orchestrator.Idle, orchestrator.Failed}, res.History)
	assert.Same(t, err, res.Err)
}

func TestRun_EmptyArchive(t *testing.T) {
	o := orchestrator.New(builtIn())
	res, err := o.Run(context.Background(), orchestrator.Request{
		Archive:  newArchive(t),
		Mappings: loadSet(t, mappings),
	})
	var unreadable *archive.ArchiveUnreadableError
	require.ErrorAs(t, err, &unreadable)
	assert.Equal(t, orchestrator.Failed, res.State)
	assert.Equal(t, []orchestrator.State{orchestrator.Idle, orchestrator.Loading, orchestrator.Failed}, res.History)
	assert.Empty(t, res.Units)
}

func TestRun_MissingArchiveFile(t *testing.T) {
	o := orchestrator.New(builtIn())
	_, err := o.Run(context.Background(), orchestrator.Request{
		ArchivePath: t.TempDir() + "/missing.jar",
		Mappings:    loadSet(t, mappings),
	})
	assert.ErrorIs(t, err, archive.ErrArchiveUnreadable)
}

func TestRun_NamespaceMismatch(t *testing.T) {
	o := orchestrator.New(builtIn())
	_, err := o.Run(context.Background(), orchestrator.Request{
		Archive:  newArchive(t, classEntry(classA)),
		Mappings: loadSet(t, "tiny\t2\t0\tintermediary\tnamed\nc\tclass_1\tpkg/Foo\n"),
	})
	var mismatch *mapping.NamespaceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, mapping.Official, mismatch.Namespace)

	_, err = o.Run(context.Background(), orchestrator.Request{Archive: newArchive(t, classEntry(classA))})
	assert.ErrorIs(t, err, mapping.ErrNamespaceMismatch)
}

func TestRun_UnknownRemapTargetFails(t *testing.T) {
	o := orchestrator.New(builtIn())
	res, err := o.Run(context.Background(), orchestrator.Request{
		Archive:  newArchive(t, classEntry(classA)),
		Mappings: loadSet(t, mappings),
		Options:  options(),
		Target:   mapping.Intermediary,
	})
	assert.ErrorIs(t, err, mapping.ErrNamespaceMismatch)
	assert.Equal(t, orchestrator.Failed, res.State)
	// Units decompiled before the failure are kept for diagnostics.
	assert.Len(t, res.Units, 1)
}

func TestRun_ConcurrentRunsShareCapacityAndCache(t *testing.T) {
	store, err := cache.NewMemory(64)
	require.NoError(t, err)
	o := orchestrator.New(builtIn(), orchestrator.WithMaxWorkers(1), orchestrator.WithCache(store))
	set := loadSet(t, mappings)

	const runs = 4
	results := make([]*orchestrator.Result, runs)
	var wg sync.WaitGroup
	for i := range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := o.Run(context.Background(), orchestrator.Request{
				Backend:  "vineflower",
				Archive:  newArchive(t, classEntry(classA), classEntry(classB)),
				Mappings: set,
				Options:  options(),
			})
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	var hits int
	ids := map[string]bool{}
	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, orchestrator.Completed, res.State)
		assert.Len(t, res.Units, 2)
		hits += res.Cache.Hits
		ids[res.RunID] = true
	}
	assert.Len(t, ids, runs)
	assert.Positive(t, hits)
	for _, res := range results[1:] {
		assert.Equal(t, results[0].Units[0].Source, res.Units[0].Source)
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := orchestrator.New(builtIn())
	res, err := o.Run(ctx, orchestrator.Request{
		Archive:  newArchive(t, classEntry(classA), classEntry(classB)),
		Mappings: loadSet(t, mappings),
		Options:  options(),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, orchestrator.Failed, res.State)
}
