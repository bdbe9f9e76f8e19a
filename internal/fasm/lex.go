// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fasm

import (
	"strconv"
	"unicode/utf8"
)

// Type is the type of a lexed item.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Word
	Dot
	BracketOpen
	BracketClose
	Colon
	Equal
	Quote
	Comment
)

var typeNames = [...]string{
	EOF:          "end of input",
	Raw:          "raw",
	Word:         "word",
	Dot:          "'.'",
	BracketOpen:  "'['",
	BracketClose: "']'",
	Colon:        "':'",
	Equal:        "'='",
	Quote:        "'''",
	Comment:      "comment",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

// Item is a lexed token. Pos is the byte offset of the token in the input.
//
type Item struct {
	Type  Type
	Pos   int
	Value string
}

func (i Item) String() string {
	switch i.Type {
	case Word, Raw:
		return i.Type.String() + " " + strconv.Quote(i.Value)
	}
	return i.Type.String()
}

type stateFn func(l *lexer) stateFn

// lexer splits a single FASM line into items. Words are runs of letters,
// digits and underscores; the parser decides whether a word is a name or a
// number.
//
type lexer struct {
	input string
	start int
	pos   int
	items []Item
}

// Lex returns all the items in input, terminated by an EOF item.
//
func Lex(input string) []Item {
	l := &lexer{input: input}
	for state := lexInit; state != nil; {
		state = state(l)
	}
	return l.items
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.pos++
		return -1
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += w
	return r
}

func (l *lexer) backup(r rune) {
	if r < 0 {
		l.pos--
		return
	}
	l.pos -= utf8.RuneLen(r)
}

func (l *lexer) emit(t Type) {
	end := l.pos
	if end > len(l.input) {
		end = len(l.input)
	}
	l.items = append(l.items, Item{t, l.start, l.input[l.start:end]})
	l.start = l.pos
}

func isWordRune(r rune) bool {
	return r == '_' || '0' <= r && r <= '9' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
}

func lexInit(l *lexer) stateFn {
	r := l.next()
	switch {
	case r < 0:
		return lexEOF
	case r == ' ' || r == '\t' || r == '\r' || r == '\n':
		l.start = l.pos
	case isWordRune(r):
		return lexWord
	case r == '.':
		l.emit(Dot)
	case r == '[':
		l.emit(BracketOpen)
	case r == ']':
		l.emit(BracketClose)
	case r == ':':
		l.emit(Colon)
	case r == '=':
		l.emit(Equal)
	case r == '\'':
		l.emit(Quote)
	case r == '#':
		l.pos = len(l.input)
		l.emit(Comment)
		return lexEOF
	default:
		l.emit(Raw)
		return lexEOF
	}
	return lexInit
}

func lexWord(l *lexer) stateFn {
	r := l.next()
	for isWordRune(r) {
		r = l.next()
	}
	l.backup(r)
	l.emit(Word)
	return lexInit
}

// lexEOF terminates the item stream.
//
func lexEOF(l *lexer) stateFn {
	l.start = len(l.input)
	l.pos = l.start
	l.emit(EOF)
	return nil
}
