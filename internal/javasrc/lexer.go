// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package javasrc lexes and prints Java source text.
//
// The lexer is lossless: concatenating the Text of every token yields the
// input. Rewriters work by replacing the Text of identifier tokens and
// inserting whole lines, so literals and comments are never touched.
package javasrc

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a token.
type Kind int

const (
	Space Kind = iota // spaces and tabs
	Newline
	Ident
	Keyword
	Number
	String
	Char
	TextBlock
	LineComment
	BlockComment
	Javadoc
	Punct
)

var kindNames = [...]string{"space", "newline", "ident", "keyword", "number", "string", "char", "textblock", "line-comment", "block-comment", "javadoc", "punct"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Trivia reports whether the token carries no syntax.
func (k Kind) Trivia() bool {
	switch k {
	case Space, Newline, LineComment, BlockComment, Javadoc:
		return true
	}
	return false
}

// Token is one lexeme. Line is 1-based and refers to the token's first line.
type Token struct {
	Kind Kind
	Text string
	Line int
}

// ErrLex classifies input the lexer cannot tokenize.
var ErrLex = errors.New("java lex error")

// LexError locates a lexing failure.
type LexError struct {
	Line   int
	Reason string
}

func (e *LexError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Reason) }

func (e *LexError) Unwrap() error { return ErrLex }

var keywords = map[string]bool{}

func init() {
	for _, k := range strings.Fields(`abstract assert boolean break byte case catch char class const
	continue default do double else enum extends final finally float for goto if implements import
	instanceof int interface long native new package private protected public return short static
	strictfp super switch synchronized this throw throws transient try void volatile while
	true false null`) {
		keywords[k] = true
	}
}

// IsKeyword reports whether s is a reserved word or literal of Java.
func IsKeyword(s string) bool { return keywords[s] }

// Lex splits src into tokens.
func Lex(src string) ([]Token, error) {
	l := lexer{src: src, line: 1}
	for l.pos < len(l.src) {
		if err := l.next(); err != nil {
			return nil, err
		}
	}
	return l.toks, nil
}

// Join concatenates token texts.
func Join(toks []Token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.Text)
	}
	return b.String()
}

type lexer struct {
	src  string
	pos  int
	line int
	toks []Token
}

func (l *lexer) emit(k Kind, end int) {
	text := l.src[l.pos:end]
	l.toks = append(l.toks, Token{Kind: k, Text: text, Line: l.line})
	l.line += strings.Count(text, "\n")
	l.pos = end
}

func (l *lexer) fail(reason string) error {
	return &LexError{Line: l.line, Reason: reason}
}

func (l *lexer) next() error {
	s, i := l.src, l.pos
	c := s[i]
	switch {
	case c == ' ' || c == '\t' || c == '\f':
		j := i
		for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\f') {
			j++
		}
		l.emit(Space, j)
	case c == '\n':
		l.emit(Newline, i+1)
	case c == '\r':
		if i+1 < len(s) && s[i+1] == '\n' {
			l.emit(Newline, i+2)
		} else {
			l.emit(Newline, i+1)
		}
	case strings.HasPrefix(s[i:], "//"):
		j := strings.IndexAny(s[i:], "\r\n")
		if j < 0 {
			j = len(s) - i
		}
		l.emit(LineComment, i+j)
	case strings.HasPrefix(s[i:], "/*"):
		j := strings.Index(s[i+2:], "*/")
		if j < 0 {
			return l.fail("unterminated comment")
		}
		kind := BlockComment
		if strings.HasPrefix(s[i:], "/**") && !strings.HasPrefix(s[i:], "/**/") {
			kind = Javadoc
		}
		l.emit(kind, i+2+j+2)
	case strings.HasPrefix(s[i:], `"""`):
		j := i + 3
		for {
			k := strings.Index(s[j:], `"""`)
			if k < 0 {
				return l.fail("unterminated text block")
			}
			if escaped(s, j+k) {
				j += k + 1
				continue
			}
			l.emit(TextBlock, j+k+3)
			return nil
		}
	case c == '"' || c == '\'':
		j := i + 1
		for ; j < len(s); j++ {
			if s[j] == '\\' {
				j++
				continue
			}
			if s[j] == '\n' {
				break
			}
			if s[j] == c {
				kind := String
				if c == '\'' {
					kind = Char
				}
				l.emit(kind, j+1)
				return nil
			}
		}
		return l.fail("unterminated literal")
	case c >= '0' && c <= '9' || c == '.' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9':
		l.emit(Number, scanNumber(s, i))
	default:
		r, size := utf8.DecodeRuneInString(s[i:])
		if isIdentStart(r) {
			j := i + size
			for j < len(s) {
				r, n := utf8.DecodeRuneInString(s[j:])
				if !isIdentPart(r) {
					break
				}
				j += n
			}
			kind := Ident
			if keywords[s[i:j]] {
				kind = Keyword
			}
			l.emit(kind, j)
			return nil
		}
		l.emit(Punct, i+punctLen(s[i:]))
	}
	return nil
}

func escaped(s string, i int) bool {
	n := 0
	for i > 0 && s[i-1] == '\\' {
		n++
		i--
	}
	return n%2 == 1
}

func scanNumber(s string, i int) int {
	hex := strings.HasPrefix(s[i:], "0x") || strings.HasPrefix(s[i:], "0X")
	j := i
	for j < len(s) {
		c := s[j]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '.':
			j++
		case c == '+' || c == '-':
			prev := s[j-1]
			if hex && (prev == 'p' || prev == 'P') || !hex && (prev == 'e' || prev == 'E') {
				j++
				continue
			}
			return j
		default:
			return j
		}
	}
	return j
}

var puncts = []string{"<<=", "...", "->", "::", "++", "--", "&&", "||", "==", "!=", "<=", "+=", "-=", "*=", "/=", "&=", "|=", "^=", "%=", "<<"}

// punctLen returns the length of the operator at the start of s. Closing
// angle brackets are always single tokens so nested generics lex cleanly.
func punctLen(s string) int {
	for _, p := range puncts {
		if strings.HasPrefix(s, p) {
			return len(p)
		}
	}
	_, size := utf8.DecodeRuneInString(s)
	return size
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
