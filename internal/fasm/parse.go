// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package fasm parses FASM feature lines into canonical one-bit features.
//
// A line has the form:
//
//	TILE.FEATURE.PATH[hi:lo] = 4'b1010  # comment
//
// The address and value are optional. Addressed features are expanded to one
// Bit per address, so the line above yields PATH[3]=1, PATH[2]=0, PATH[1]=1
// and PATH[0]=0.
//
package fasm

import (
	"bufio"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Bit is a canonical feature: a dotted name, optionally ending in a [bit]
// address, and a 0 or 1 value.
//
type Bit struct {
	Feature string
	Value   int
}

func (b Bit) String() string {
	if b.Value == 1 {
		return b.Feature
	}
	return b.Feature + " = " + strconv.Itoa(b.Value)
}

type parser struct {
	input string
	items []Item
	i     int
}

func (p *parser) peek() Item { return p.items[p.i] }

func (p *parser) next() Item {
	it := p.items[p.i]
	if it.Type != EOF {
		p.i++
	}
	return it
}

func (p *parser) errorf(it Item, msg string) error {
	return parseError(p.input, it.Pos, msg)
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}

// MaxAddress is the highest bit address accepted in a feature address.
const MaxAddress = 1<<16 - 1

// ParseLine parses a single FASM line. Empty lines and comment lines return
// no bits and no error.
//
func ParseLine(line string) ([]Bit, error) {
	p := &parser{input: line, items: Lex(line)}

	it := p.next()
	switch it.Type {
	case EOF, Comment:
		return nil, nil
	case Word:
	default:
		return nil, p.errorf(it, "expected feature name, got "+it.String())
	}

	// dotted name
	var name strings.Builder
	name.WriteString(it.Value)
	for p.peek().Type == Dot {
		p.next()
		it = p.next()
		if it.Type != Word {
			return nil, p.errorf(it, "expected name after '.', got "+it.String())
		}
		name.WriteByte('.')
		name.WriteString(it.Value)
	}

	// optional address
	lo, hi, addressed := 0, 0, false
	if p.peek().Type == BracketOpen {
		p.next()
		var err error
		if hi, err = p.address(); err != nil {
			return nil, err
		}
		lo = hi
		if p.peek().Type == Colon {
			p.next()
			if lo, err = p.address(); err != nil {
				return nil, err
			}
		}
		if it = p.next(); it.Type != BracketClose {
			return nil, p.errorf(it, "closing ']' expected after address")
		}
		if lo > hi {
			return nil, p.errorf(it, "invalid address range ["+strconv.Itoa(hi)+":"+strconv.Itoa(lo)+"]")
		}
		addressed = true
	}

	// optional value
	value := big.NewInt(1)
	if p.peek().Type == Equal {
		p.next()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		value = v
	}

	switch it = p.next(); it.Type {
	case EOF, Comment:
	default:
		return nil, p.errorf(it, "unexpected "+it.String())
	}

	width := hi - lo + 1
	if value.BitLen() > width {
		return nil, errors.Errorf("in %q: value %s does not fit in %d bit(s)", line, value.Text(2), width)
	}
	if !addressed {
		return []Bit{{name.String(), int(value.Bit(0))}}, nil
	}
	base := name.String()
	bits := make([]Bit, 0, width)
	for i := hi; i >= lo; i-- {
		bits = append(bits, Bit{
			Feature: base + "[" + strconv.Itoa(i) + "]",
			Value:   int(value.Bit(i - lo)),
		})
	}
	return bits, nil
}

func (p *parser) int() (int, error) {
	it := p.next()
	if it.Type != Word {
		return 0, p.errorf(it, "integer expected, got "+it.String())
	}
	n, err := strconv.Atoi(it.Value)
	if err != nil || n < 0 {
		return 0, p.errorf(it, "invalid integer "+strconv.Quote(it.Value))
	}
	return n, nil
}

// address parses a bit address, at most MaxAddress.
//
func (p *parser) address() (int, error) {
	it := p.peek()
	n, err := p.int()
	if err != nil {
		return 0, err
	}
	if n > MaxAddress {
		return 0, p.errorf(it, "address "+it.Value+" out of range")
	}
	return n, nil
}

// value parses a plain decimal integer or a sized literal like 4'b1010,
// 8'hff or 3'd5.
//
func (p *parser) value() (*big.Int, error) {
	it := p.next()
	if it.Type != Word {
		return nil, p.errorf(it, "value expected, got "+it.String())
	}
	if p.peek().Type != Quote {
		v, ok := new(big.Int).SetString(it.Value, 10)
		if !ok {
			return nil, p.errorf(it, "invalid integer "+strconv.Quote(it.Value))
		}
		return v, nil
	}
	width, err := strconv.Atoi(it.Value)
	if err != nil || width <= 0 {
		return nil, p.errorf(it, "invalid literal width "+strconv.Quote(it.Value))
	}
	p.next()
	it = p.next()
	if it.Type != Word || len(it.Value) < 2 {
		return nil, p.errorf(it, "expected base and digits after '''")
	}
	var base int
	switch it.Value[0] {
	case 'b', 'B':
		base = 2
	case 'h', 'H':
		base = 16
	case 'd', 'D':
		base = 10
	case 'o', 'O':
		base = 8
	default:
		return nil, p.errorf(it, "unsupported base "+strconv.QuoteRune(rune(it.Value[0])))
	}
	digits := strings.Replace(it.Value[1:], "_", "", -1)
	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, p.errorf(it, "invalid digits "+strconv.Quote(it.Value[1:]))
	}
	if v.BitLen() > width {
		return nil, p.errorf(it, "literal overflows its width")
	}
	return v, nil
}

// Parse reads FASM lines from r. Errors are reported with their line number.
//
func Parse(r io.Reader) ([]Bit, error) {
	var out []Bit
	s := bufio.NewScanner(r)
	n := 0
	for s.Scan() {
		n++
		bits, err := ParseLine(s.Text())
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", n)
		}
		out = append(out, bits...)
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "read error")
	}
	return out, nil
}
