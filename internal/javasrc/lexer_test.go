// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package javasrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lexSample = `package a.b;

/** Doc with "quotes" and a.b.C */
public class C<T extends Map<K, List<V>>> {
    String s = "a \"b\" // not a comment";
    char c = '\'';
    String block = """
        text "with" quotes \"""
        """;
    double d = 1.5e-3 + 0x1.8p+1 + 10_000L;
    /* block */ int x; // trailing
}
`

func TestLex_Lossless(t *testing.T) {
	toks, err := Lex(lexSample)
	require.NoError(t, err)
	assert.Equal(t, lexSample, Join(toks))
}

func TestLex_Kinds(t *testing.T) {
	toks, err := Lex(lexSample)
	require.NoError(t, err)

	count := map[Kind]int{}
	for _, tok := range toks {
		count[tok.Kind]++
	}
	assert.Equal(t, 1, count[Javadoc])
	assert.Equal(t, 1, count[BlockComment])
	assert.Equal(t, 1, count[LineComment])
	assert.Equal(t, 1, count[TextBlock])
	assert.Equal(t, 1, count[String])
	assert.Equal(t, 1, count[Char])
	assert.Equal(t, 3, count[Number])

	for _, tok := range toks {
		if tok.Kind == String {
			assert.Equal(t, `"a \"b\" // not a comment"`, tok.Text)
		}
		if tok.Text == ">" {
			assert.Equal(t, Punct, tok.Kind)
		}
	}
}

func TestLex_LineNumbers(t *testing.T) {
	toks, err := Lex(lexSample)
	require.NoError(t, err)
	for _, tok := range toks {
		if tok.Text == "x" {
			assert.Equal(t, 11, tok.Line)
		}
		if tok.Kind == Keyword && tok.Text == "public" {
			assert.Equal(t, 4, tok.Line)
		}
	}
}

func TestLex_Errors(t *testing.T) {
	for _, src := range []string{`/* open`, `"open`, "\"line\nbreak\"", `"""open`} {
		_, err := Lex(src)
		require.Error(t, err, src)
		assert.ErrorIs(t, err, ErrLex)
	}
}

func TestKindTrivia(t *testing.T) {
	assert.True(t, Javadoc.Trivia())
	assert.False(t, Ident.Trivia())
	assert.Equal(t, "javadoc", Javadoc.String())
}
