// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package remap_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/linemap"
	"github.com/ManuGH/loomsrc/internal/mapping"
	"github.com/ManuGH/loomsrc/internal/remap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const mappings = "tiny\t2\t0\tofficial\tnamed\n" +
	"c\ta\tpkg/Foo\n" +
	"\tc\tA foo.\n" +
	"\tf\tI\tb\tcount\n" +
	"\tm\t(La;I)V\tc\tmerge\n" +
	"\t\tc\tMerges two foos.\n" +
	"\t\tp\t1\t\tother\n" +
	"\t\tp\t2\t\tamount\n" +
	"\t\t\tc\tHow many.\n" +
	"\tm\t()I\td\tsize\n" +
	"c\ta$a\tpkg/Foo$Inner\n" +
	"c\te\tpkg/Bar\n" +
	"\tm\t()V\tf\trun\n" +
	"c\tx/y/c\tpkg/Widget\n" +
	"c\tx/y/d\tpkg/Holder\n"

func loadSet(t *testing.T) *mapping.Set {
	t.Helper()
	s, err := mapping.Load(strings.NewReader(mappings))
	require.NoError(t, err)
	return s
}

func lines(l ...string) string { return strings.Join(l, "\n") + "\n" }

var fooSource = lines(
	"public class a {",
	"    private int b;",
	"",
	"    public void c(a var1, int var2) {",
	"        int var3 = var2 + this.b;",
	"        b = var3;",
	"        var1.c(this, var3);",
	"        e e0 = new e();",
	"        e0.f();",
	"    }",
	"",
	"    // $VF: bridge method",
	"    public Object d() {",
	"        return null;",
	"    }",
	"",
	"    public int d() {",
	"        return b;",
	"    }",
	"}",
)

func fooUnit() decompiler.Unit {
	return decompiler.Unit{
		ClassName: "a",
		Namespace: mapping.Official,
		Source:    fooSource,
		Lines:     linemap.New(linemap.Pair{Line: 5, Original: 10}, linemap.Pair{Line: 18, Original: 20}),
		Inner:     []string{"a$a"},
	}
}

func TestRemap_RenamesDocumentsAndDropsBridges(t *testing.T) {
	rep, err := remap.Remap(context.Background(), []decompiler.Unit{fooUnit()}, loadSet(t), mapping.Named)
	require.NoError(t, err)
	require.Empty(t, rep.Errors)
	require.Len(t, rep.Units, 1)
	assert.Equal(t, 1, rep.Remapped)

	got := rep.Units[0]
	want := lines(
		"package pkg;",
		"",
		"/**",
		" * A foo.",
		" */",
		"public class Foo {",
		"    private int count;",
		"",
		"    /**",
		"     * Merges two foos.",
		"     *",
		"     * @param amount How many.",
		"     */",
		"    public void merge(Foo other, int amount) {",
		"        int var3 = amount + this.count;",
		"        count = var3;",
		"        other.merge(this, var3);",
		"        Bar e0 = new Bar();",
		"        e0.run();",
		"    }",
		"",
		"    public int size() {",
		"        return count;",
		"    }",
		"}",
	)
	if diff := cmp.Diff(want, got.Source); diff != "" {
		t.Fatalf("source mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "pkg/Foo", got.ClassName)
	assert.Equal(t, mapping.Named, got.Namespace)
	assert.Equal(t, []string{"pkg/Foo$Inner"}, got.Inner)
	assert.Equal(t, "pkg/Foo.java", got.FileName())

	line, ok := got.Lines.Lookup(15)
	require.True(t, ok)
	assert.Equal(t, 10, line)
	line, ok = got.Lines.Lookup(23)
	require.True(t, ok)
	assert.Equal(t, 20, line)
}

func TestRemap_KeepBridgesNormalizesMarker(t *testing.T) {
	rep, err := remap.Remap(context.Background(), []decompiler.Unit{fooUnit()}, loadSet(t), mapping.Named,
		remap.KeepBridges(), remap.WithoutJavadoc())
	require.NoError(t, err)
	require.Len(t, rep.Units, 1)

	src := rep.Units[0].Source
	assert.Contains(t, src, "\n    // bridge method\n    public Object size() {\n")
	assert.NotContains(t, src, "$VF")
	assert.NotContains(t, src, "/**")
}

func TestRemap_QualifiedNamesAndImports(t *testing.T) {
	u := decompiler.Unit{
		ClassName: "x/y/d",
		Namespace: mapping.Official,
		Source: lines(
			"package x.y;",
			"",
			"import java.util.List;",
			"import x.y.c;",
			"",
			"public class d {",
			"    c field;",
			"    x.y.c other;",
			"    List<c> all;",
			"}",
		),
	}
	rep, err := remap.Remap(context.Background(), []decompiler.Unit{u}, loadSet(t), mapping.Named)
	require.NoError(t, err)
	require.Len(t, rep.Units, 1)

	want := lines(
		"package pkg;",
		"",
		"import java.util.List;",
		"import pkg.Widget;",
		"",
		"public class Holder {",
		"    Widget field;",
		"    pkg.Widget other;",
		"    List<Widget> all;",
		"}",
	)
	assert.Equal(t, want, rep.Units[0].Source)
}

func TestRemap_LocalShadowsField(t *testing.T) {
	u := decompiler.Unit{
		ClassName: "a",
		Namespace: mapping.Official,
		Source: lines(
			"public class a {",
			"    int b;",
			"",
			"    void g() {",
			"        int b = 2;",
			"        b++;",
			"        this.b = b;",
			"    }",
			"}",
		),
	}
	rep, err := remap.Remap(context.Background(), []decompiler.Unit{u}, loadSet(t), mapping.Named, remap.WithoutJavadoc())
	require.NoError(t, err)
	require.Len(t, rep.Units, 1)

	want := lines(
		"package pkg;",
		"",
		"public class Foo {",
		"    int count;",
		"",
		"    void g() {",
		"        int b = 2;",
		"        b++;",
		"        this.count = b;",
		"    }",
		"}",
	)
	assert.Equal(t, want, rep.Units[0].Source)
}

func TestRemap_RejectsMismatchedPrimaryType(t *testing.T) {
	bad := decompiler.Unit{ClassName: "a", Namespace: mapping.Official, Source: "public class zzz {}\n"}
	good := decompiler.Unit{ClassName: "e", Namespace: mapping.Official, Source: "class e {}\n"}

	rep, err := remap.Remap(context.Background(), []decompiler.Unit{bad, good}, loadSet(t), mapping.Named)
	require.NoError(t, err)

	require.Len(t, rep.Errors, 1)
	rerr := rep.Errors[0]
	assert.Equal(t, "a", rerr.Class)
	assert.True(t, errors.Is(rerr, remap.ErrRemap))
	assert.Contains(t, rerr.Error(), "zzz")

	require.Len(t, rep.Units, 1)
	assert.Equal(t, "pkg/Bar", rep.Units[0].ClassName)
	assert.Equal(t, "package pkg;\n\nclass Bar {}\n", rep.Units[0].Source)
}

func TestRemap_PassThroughAndUnchanged(t *testing.T) {
	failed := decompiler.Unit{
		ClassName: "a",
		Namespace: mapping.Official,
		Failure:   &decompiler.PartialFailure{Class: "a", Backend: "cfr", Cause: errors.New("boom")},
	}
	done := decompiler.Unit{ClassName: "pkg/Bar", Namespace: mapping.Named, Source: "package pkg;\n\nclass Bar {}\n"}

	rep, err := remap.Remap(context.Background(), []decompiler.Unit{failed, done}, loadSet(t), mapping.Named)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.PassedThrough)
	assert.Equal(t, 1, rep.Unchanged)
	assert.Equal(t, 0, rep.Remapped)
	assert.Equal(t, []decompiler.Unit{failed, done}, rep.Units)
}

func TestRemap_UnknownTarget(t *testing.T) {
	_, err := remap.Remap(context.Background(), []decompiler.Unit{fooUnit()}, loadSet(t), mapping.Intermediary)
	require.Error(t, err)
	assert.ErrorIs(t, err, mapping.ErrNamespaceMismatch)

	var mismatch *mapping.NamespaceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, mapping.Intermediary, mismatch.Namespace)
}

func TestRemap_UndeclaredUnitNamespace(t *testing.T) {
	u := fooUnit()
	u.Namespace = "srg"
	rep, err := remap.Remap(context.Background(), []decompiler.Unit{u}, loadSet(t), mapping.Named)
	require.NoError(t, err)
	require.Len(t, rep.Errors, 1)
	assert.Empty(t, rep.Units)
}

func TestRemap_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := remap.Remap(ctx, []decompiler.Unit{fooUnit()}, loadSet(t), mapping.Named)
	assert.ErrorIs(t, err, context.Canceled)
}
