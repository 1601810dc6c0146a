// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethodDescriptor(t *testing.T) {
	params, ret, err := ParseMethodDescriptor("(I[JLjava/lang/String;[[Lpkg/A$B;)Z")
	require.NoError(t, err)
	require.Len(t, params, 4)
	assert.Equal(t, "int", params[0].Java(nil))
	assert.Equal(t, "long[]", params[1].Java(nil))
	assert.Equal(t, "java.lang.String", params[2].Java(nil))
	assert.Equal(t, "B[][]", params[3].Java(SimpleName))
	assert.Equal(t, "boolean", ret.Java(nil))

	for _, bad := range []string{"I", "(I", "(V)V", "(Lfoo)V", "(Q)V", "()VV"} {
		_, _, err := ParseMethodDescriptor(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseFieldDescriptor(t *testing.T) {
	ft, err := ParseFieldDescriptor("[Ljava/util/Map;")
	require.NoError(t, err)
	assert.Equal(t, Type{Base: 'L', Class: "java/util/Map", Dims: 1}, ft)

	_, err = ParseFieldDescriptor("V")
	assert.Error(t, err)
	_, err = ParseFieldDescriptor("II")
	assert.Error(t, err)
}

func TestParamSlots(t *testing.T) {
	slots, err := ParamSlots("(JI[DD)V", false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4, 5}, slots)

	slots, err = ParamSlots("(JI)V", true)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, slots)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "a.b.C.D", JavaName("a/b/C$D"))
	assert.Equal(t, "D", SimpleName("a/b/C$D"))
	assert.Equal(t, "C", SimpleName("C"))
	assert.Equal(t, "a/b", PackageOf("a/b/C"))
	assert.Equal(t, "", PackageOf("C"))
}

func TestRenderSignatures(t *testing.T) {
	f, err := RenderFieldSignature("Ljava/util/Map<Ljava/lang/String;+Ljava/util/List<*>;>;", SimpleName)
	require.NoError(t, err)
	assert.Equal(t, "Map<String, ? extends List<?>>", f)

	tp, super, ifaces, err := RenderClassSignature(
		"<T::Ljava/lang/Comparable<TT;>;U:Ljava/lang/Object;>Ljava/lang/Object;Ljava/lang/Iterable<TT;>;", SimpleName)
	require.NoError(t, err)
	assert.Equal(t, "<T extends Comparable<T>, U>", tp)
	assert.Equal(t, "Object", super)
	assert.Equal(t, []string{"Iterable<T>"}, ifaces)

	ms, err := RenderMethodSignature("<R:Ljava/lang/Object;>(Ljava/util/function/Function<-TT;+TR;>;[TT;)TR;^Ljava/io/IOException;", SimpleName)
	require.NoError(t, err)
	assert.Equal(t, "<R>", ms.TypeParams)
	assert.Equal(t, []string{"Function<? super T, ? extends R>", "T[]"}, ms.Params)
	assert.Equal(t, "R", ms.Return)
	assert.Equal(t, []string{"IOException"}, ms.Throws)

	_, err = RenderFieldSignature("Ljava/util/List<", nil)
	assert.Error(t, err)
}
