// Some of the scanner package is adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/scanner/scanner.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scanner converts .funcs source text into a lazy sequence of
// tokens: '{', '}', word, number literal and string literal. Whitespace is
// skipped between tokens, and |...| or |...\n line comments are discarded
// entirely.
package scanner

import (
	"fmt"
	goscanner "go/scanner"
	gotoken "go/token"
	"strings"

	"github.com/mScule/stall/lang/token"
)

type (
	// Error and ErrorList are re-exported from the standard library's go/scanner
	// package: there is no reason to reinvent a positioned-error type and a
	// sortable list of them when go/scanner already provides one.
	Error     = goscanner.Error
	ErrorList = goscanner.ErrorList
)

var PrintError = goscanner.PrintError

func newErrorPos(pos token.Pos) gotoken.Position {
	line, col := pos.LineCol()
	return gotoken.Position{Line: line, Column: col}
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isLetter(r rune) bool {
	return r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z'
}

func isWordStart(r rune) bool { return isLetter(r) || r == '_' }
func isWordRune(r rune) bool  { return isLetter(r) || isDigit(r) || r == '_' }

// Scanner tokenizes a single source text, producing one token at a time from
// Next. Once the input is exhausted, every call to Next returns EOF; callers
// should stop calling Next after EOF (or ILLEGAL).
type Scanner struct {
	src  []rune
	off  int // index into src of the next unread rune
	line int
	col  int

	errs ErrorList
}

// New creates a Scanner over the given source text.
func New(src string) *Scanner {
	return &Scanner{src: []rune(src), line: 1, col: 1}
}

// Errs returns the accumulated scan errors, or nil if none occurred.
func (s *Scanner) Errs() error {
	if len(s.errs) == 0 {
		return nil
	}
	s.errs.Sort()
	return s.errs.Err()
}

func (s *Scanner) peek() (rune, bool) {
	if s.off >= len(s.src) {
		return 0, false
	}
	return s.src[s.off], true
}

func (s *Scanner) pos() token.Pos { return token.MakePos(s.line, s.col) }

func (s *Scanner) advance() rune {
	r := s.src[s.off]
	s.off++
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

func (s *Scanner) error(pos token.Pos, format string, args ...any) {
	s.errs.Add(newErrorPos(pos), fmt.Sprintf(format, args...))
}

// skipCommentsAndBlanks consumes whitespace and |...| / |...\n comments.
// An unclosed comment (EOF reached before a closing '|' or newline) is
// fatal. Either a '|' or a newline may close a comment.
func (s *Scanner) skipCommentsAndBlanks() bool {
	for {
		r, ok := s.peek()
		if !ok {
			return true
		}
		switch {
		case isBlank(r):
			s.advance()
		case r == '|':
			startPos := s.pos()
			s.advance() // discard opening '|'
			closed := false
			for {
				r, ok := s.peek()
				if !ok {
					s.error(startPos, "unclosed comment")
					return false
				}
				if r == '|' || r == '\n' {
					s.advance() // discard the closing delimiter
					closed = true
					break
				}
				s.advance()
			}
			if !closed {
				return false
			}
		default:
			return true
		}
	}
}

// Next scans and returns the next token. At end of input it returns a token
// of Kind token.EOF.
func (s *Scanner) Next() token.Token {
	if !s.skipCommentsAndBlanks() {
		return token.Token{Kind: token.ILLEGAL, Pos: s.pos()}
	}

	startPos := s.pos()
	r, ok := s.peek()
	if !ok {
		return token.Token{Kind: token.EOF, Pos: startPos}
	}

	switch {
	case r == '{':
		s.advance()
		return token.Token{Kind: token.LBRACE, Pos: startPos}
	case r == '}':
		s.advance()
		return token.Token{Kind: token.RBRACE, Pos: startPos}
	case r == '"':
		return s.scanString(startPos)
	case isDigit(r) || r == '-':
		return s.scanNumber(startPos)
	case isWordStart(r):
		return s.scanWord(startPos)
	default:
		s.error(startPos, "unsupported character %q", r)
		s.advance()
		return token.Token{Kind: token.ILLEGAL, Pos: startPos}
	}
}

func (s *Scanner) scanWord(pos token.Pos) token.Token {
	var sb strings.Builder
	for {
		r, ok := s.peek()
		if !ok || !isWordRune(r) {
			break
		}
		sb.WriteRune(s.advance())
	}
	return token.Token{Kind: token.WORD, Text: sb.String(), Pos: pos}
}

// scanNumber accepts an optional single leading '-', decimal digits, an
// optional single '.' for the fractional part, and '_' anywhere, kept
// verbatim here so the parser sees exactly what was written. A second '.'
// is fatal; a '-' anywhere after the start simply ends the number token.
func (s *Scanner) scanNumber(pos token.Pos) token.Token {
	var sb strings.Builder
	seenDot := false
	seenSign := false
	for {
		r, ok := s.peek()
		if !ok {
			break
		}
		switch {
		case isDigit(r) || r == '_':
			sb.WriteRune(s.advance())
		case r == '-':
			if seenSign || sb.Len() > 0 {
				return token.Token{Kind: token.NUMBER, Text: sb.String(), Pos: pos}
			}
			seenSign = true
			sb.WriteRune(s.advance())
		case r == '.':
			if seenDot {
				s.error(pos, "number has more than one fractional point")
				return token.Token{Kind: token.ILLEGAL, Pos: pos}
			}
			seenDot = true
			sb.WriteRune(s.advance())
		default:
			return token.Token{Kind: token.NUMBER, Text: sb.String(), Pos: pos}
		}
	}
	return token.Token{Kind: token.NUMBER, Text: sb.String(), Pos: pos}
}

// scanString accepts \t, \n, \\ and \" escapes; any other escape, or an
// unterminated string, is fatal.
func (s *Scanner) scanString(pos token.Pos) token.Token {
	s.advance() // discard opening '"'
	var sb strings.Builder
	for {
		r, ok := s.peek()
		if !ok {
			s.error(pos, "unterminated string")
			return token.Token{Kind: token.ILLEGAL, Pos: pos}
		}
		switch r {
		case '"':
			s.advance()
			return token.Token{Kind: token.STRING, Text: sb.String(), Pos: pos}
		case '\\':
			s.advance()
			esc, ok := s.peek()
			if !ok {
				s.error(pos, "unterminated string")
				return token.Token{Kind: token.ILLEGAL, Pos: pos}
			}
			switch esc {
			case 't':
				sb.WriteByte('\t')
			case 'n':
				sb.WriteByte('\n')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				s.error(s.pos(), "unsupported escape %q", esc)
				return token.Token{Kind: token.ILLEGAL, Pos: pos}
			}
			s.advance()
		default:
			sb.WriteRune(s.advance())
		}
	}
}

// ScanAll tokenizes the whole source text up-front, for callers (such as the
// CLI's tokenize command) that want the full stream rather than a lazy pull.
func ScanAll(src string) ([]token.Token, error) {
	s := New(src)
	var toks []token.Token
	for {
		tok := s.Next()
		if tok.Kind == token.ILLEGAL {
			return toks, s.Errs()
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks, s.Errs()
}
