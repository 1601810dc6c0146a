// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package javasrc

import (
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/loomsrc/internal/classfile"
	"github.com/ManuGH/loomsrc/internal/classfile/classfiletest"
	"github.com/ManuGH/loomsrc/internal/linemap"
)

var testStyle = Style{
	Name:            "test",
	Header:          []string{"// header"},
	SyntheticMarker: "// synthetic",
	BridgeMarker:    "// bridge",
	StubBody:        "throw new RuntimeException();",
}

func parse(t *testing.T, c classfiletest.Class) *classfile.ClassFile {
	t.Helper()
	cf, err := classfile.Parse(c.Bytes())
	require.NoError(t, err)
	return cf
}

func TestRender_Class(t *testing.T) {
	outer := parse(t, classfiletest.Class{
		Name:       "a/b/Widget",
		Super:      "a/c/Base",
		Interfaces: []string{"java/lang/Runnable", "java/util/function/Supplier"},
		Signature:  "<T:Ljava/lang/Object;>La/c/Base;Ljava/lang/Runnable;Ljava/util/function/Supplier<Ljava/util/List<TT;>;>;",
		Fields: []classfiletest.Field{
			{Access: classfile.AccPrivate | classfile.AccFinal, Name: "items", Desc: "Ljava/util/List;", Signature: "Ljava/util/List<TT;>;"},
			{Access: classfile.AccStatic | classfile.AccSynthetic, Name: "$assertions", Desc: "Z"},
		},
		Methods: []classfiletest.Method{
			{Access: classfile.AccPublic, Name: "<init>", Desc: "(La/b/Widget$Part;)V", Lines: []classfile.LineNumber{{StartPC: 0, Line: 10}}},
			{Access: classfile.AccPublic, Name: "run", Desc: "()V", Lines: []classfile.LineNumber{{StartPC: 0, Line: 14}, {StartPC: 0, Line: 16}}},
			{Access: classfile.AccPublic | classfile.AccStatic | classfile.AccVarargs, Name: "of", Desc: "(I[Ljava/lang/String;)La/b/Widget;",
				Locals: []classfile.LocalVar{{Name: "count", Descriptor: "I", Index: 0}}},
			{Access: classfile.AccPublic | classfile.AccBridge | classfile.AccSynthetic, Name: "get", Desc: "()Ljava/lang/Object;"},
		},
		Inner: []classfile.InnerClass{{Inner: "a/b/Widget$Part", Outer: "a/b/Widget", Name: "Part", AccessFlags: classfile.AccPublic | classfile.AccStatic}},
	})
	part := parse(t, classfiletest.Class{
		Name:   "a/b/Widget$Part",
		Access: classfile.AccPublic | classfile.AccStatic,
		Inner:  []classfile.InnerClass{{Inner: "a/b/Widget$Part", Outer: "a/b/Widget", Name: "Part", AccessFlags: classfile.AccPublic | classfile.AccStatic}},
	})

	got, err := Render([]*classfile.ClassFile{outer, part}, testStyle, RenderOptions{Indent: "  ", Generics: true})
	require.NoError(t, err)

	want := `// header
package a.b;

import a.c.Base;
import java.util.List;
import java.util.function.Supplier;

public class Widget<T> extends Base implements Runnable, Supplier<List<T>> {
  private final List<T> items;
  public Widget(Part var1) {
    throw new RuntimeException();
  }
  public void run() {
    throw new RuntimeException();
  }
  public static Widget of(int count, String... var1) {
    throw new RuntimeException();
  }
  public static class Part {
  }
}
`
	if diff := cmp.Diff(want, got.Text); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []linemap.Pair{{Line: 11, Original: 10}, {Line: 14, Original: 14}, {Line: 15, Original: 16}}, got.Lines.Pairs())

	toks, err := Lex(got.Text)
	require.NoError(t, err)
	assert.Equal(t, got.Text, Join(toks))
}

func TestRender_SyntheticsAndErasure(t *testing.T) {
	cf := parse(t, classfiletest.Class{
		Name:      "Top",
		Signature: "<T:Ljava/lang/Object;>Ljava/lang/Object;",
		Methods: []classfiletest.Method{
			{Access: classfile.AccPublic | classfile.AccBridge | classfile.AccSynthetic, Name: "get", Desc: "()Ljava/lang/Object;"},
			{Access: classfile.AccStatic | classfile.AccSynthetic, Name: "access$000", Desc: "(LTop;)I"},
		},
	})
	got, err := Render([]*classfile.ClassFile{cf}, testStyle, RenderOptions{Synthetics: true})
	require.NoError(t, err)
	assert.Contains(t, got.Text, "public class Top {\n")
	assert.Contains(t, got.Text, "    // bridge\n    public Object get() {")
	assert.Contains(t, got.Text, "    // synthetic\n    static int access$000(Top var0) {")
	assert.NotContains(t, got.Text, "package")
	assert.True(t, got.Lines.Empty())
}

func TestRender_InterfaceEnumRecord(t *testing.T) {
	iface := parse(t, classfiletest.Class{
		Name:       "x/Shape",
		Access:     classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract,
		Interfaces: []string{"x/Named"},
		Methods: []classfiletest.Method{
			{Access: classfile.AccPublic | classfile.AccAbstract, Name: "area", Desc: "()D"},
			{Access: classfile.AccPublic, Name: "describe", Desc: "()Ljava/lang/String;"},
		},
	})
	got, err := Render([]*classfile.ClassFile{iface}, testStyle, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, got.Text, "public interface Shape extends Named {\n")
	assert.Contains(t, got.Text, "    double area();\n")
	assert.Contains(t, got.Text, "    default String describe() {\n")

	enum := parse(t, classfiletest.Class{
		Name:   "x/Color",
		Super:  "java/lang/Enum",
		Access: classfile.AccPublic | classfile.AccFinal | classfile.AccEnum,
		Fields: []classfiletest.Field{
			{Access: classfile.AccPublic | classfile.AccStatic | classfile.AccFinal | classfile.AccEnum, Name: "RED", Desc: "Lx/Color;"},
			{Access: classfile.AccPublic | classfile.AccStatic | classfile.AccFinal | classfile.AccEnum, Name: "GREEN", Desc: "Lx/Color;"},
		},
		Methods: []classfiletest.Method{
			{Access: classfile.AccPublic | classfile.AccStatic, Name: "values", Desc: "()[Lx/Color;"},
			{Access: classfile.AccPrivate, Name: "<init>", Desc: "(Ljava/lang/String;II)V"},
		},
	})
	got, err = Render([]*classfile.ClassFile{enum}, testStyle, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, got.Text, "public enum Color {\n    RED,\n    GREEN;\n    private Color(int var3) {\n")
	assert.NotContains(t, got.Text, "values")

	rec := parse(t, classfiletest.Class{
		Name:   "x/Point",
		Super:  "java/lang/Record",
		Access: classfile.AccPublic | classfile.AccFinal,
		Fields: []classfiletest.Field{
			{Access: classfile.AccPrivate | classfile.AccFinal, Name: "x", Desc: "I"},
			{Access: classfile.AccPrivate | classfile.AccFinal, Name: "y", Desc: "I"},
		},
	})
	got, err = Render([]*classfile.ClassFile{rec}, testStyle, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, got.Text, "public record Point(int x, int y) {\n}\n")
}

func TestRender_ImportClash(t *testing.T) {
	cf := parse(t, classfiletest.Class{
		Name: "p/Main",
		Fields: []classfiletest.Field{
			{Name: "a", Desc: "Ljava/util/List;"},
			{Name: "b", Desc: "Ljava/awt/List;"},
			{Name: "c", Desc: "Lq/Main;"},
			{Name: "d", Desc: "Lp/Helper;"},
		},
	})
	got, err := Render([]*classfile.ClassFile{cf}, testStyle, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, got.Text, "import java.util.List;\n\n")
	assert.NotContains(t, got.Text, "import java.awt")
	assert.Contains(t, got.Text, "    java.awt.List b;\n")
	assert.Contains(t, got.Text, "    q.Main c;\n")
	assert.Contains(t, got.Text, "    Helper d;\n")
}

func TestTypeParamNames(t *testing.T) {
	types := []classfile.Type{{Base: 'I'}, {Base: 'I'}, {Base: 'L', Class: "java/lang/String"}, {Base: 'L', Class: "a/Int", Dims: 1}, {Base: 'L', Class: "a/Class"}}
	assert.Equal(t, []string{"n", "n2", "string", "intArray", "class_"}, TypeParamNames(nil, types))
}

func TestExtractLineMarkers(t *testing.T) {
	text := "class A {\n  void f() {\n    run(); // 12\n    // 14\n  }\n}\n"
	got, lines := ExtractLineMarkers(text, regexp.MustCompile(`\s*// (\d+)\s*$`))
	assert.Equal(t, "class A {\n  void f() {\n    run();\n\n  }\n}\n", got)
	assert.Equal(t, []linemap.Pair{{Line: 3, Original: 12}, {Line: 4, Original: 14}}, lines.Pairs())
}

func TestCorrelateDeclarations(t *testing.T) {
	cf := parse(t, classfiletest.Class{
		Name: "a/A",
		Methods: []classfiletest.Method{
			{Name: "<init>", Desc: "()V", Lines: []classfile.LineNumber{{Line: 3}}},
			{Name: "f", Desc: "()V", Lines: []classfile.LineNumber{{Line: 7}}},
			{Name: "f", Desc: "(I)V", Lines: []classfile.LineNumber{{Line: 9}}},
		},
	})
	text := "class A {\n" +
		"  A() {\n" +
		"    super();\n" +
		"  }\n" +
		"  void f() throws java.io.IOException {\n" +
		"    g(new Object() {});\n" +
		"  }\n" +
		"  void f(int x) { h(x); }\n" +
		"}\n"
	lines := CorrelateDeclarations(text, []*classfile.ClassFile{cf})
	assert.Equal(t, []linemap.Pair{{Line: 3, Original: 3}, {Line: 6, Original: 7}, {Line: 8, Original: 9}}, lines.Pairs())
}
