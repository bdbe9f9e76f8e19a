// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bels

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Value is a decoded bel parameter. String returns its netlist literal.
//
type Value interface {
	String() string
}

// Int is an integer parameter, used for 0/1 flags.
//
type Int int

func (i Int) String() string { return strconv.Itoa(int(i)) }

// String is a string parameter. It prints quoted.
//
type String string

func (s String) String() string { return strconv.Quote(string(s)) }

// Bits is a sized binary parameter. It prints as a Verilog sized literal,
// zero padded to Width digits: 4'b0101.
//
type Bits struct {
	Width int
	V     *big.Int
}

func (b Bits) String() string {
	v := b.V
	if v == nil {
		v = new(big.Int)
	}
	s := v.Text(2)
	if n := b.Width - len(s); n > 0 {
		s = strings.Repeat("0", n) + s
	}
	return strconv.Itoa(b.Width) + "'b" + s
}

// ParamKind is the decoding rule of a parameter.
//
type ParamKind int

// Decoding rules.
const (
	// KindFlag decodes to Int 1 if the option is asserted, 0 otherwise.
	KindFlag ParamKind = iota
	// KindFlagIfClear decodes to Int 1 if the option is not asserted.
	KindFlagIfClear
	// KindBool decodes to String "TRUE" if the option is asserted, "FALSE"
	// otherwise.
	KindBool
	// KindBoolIfClear decodes to String "TRUE" if the option is not asserted.
	KindBoolIfClear
	// KindChoice decodes to String IfSet or IfClear.
	KindChoice
	// KindBinary decodes a multi-bit field into Bits of the given Width.
	KindBinary
)

// A ParamSpec describes how to decode one bel parameter from an option set.
//
type ParamSpec struct {
	Name    string
	Kind    ParamKind
	Option  string // option tested, or base name of a multi-bit field
	Width   int
	IfSet   string
	IfClear string
}

// Flag returns the spec of a flag set when the option of the same name is
// asserted.
//
func Flag(name string) ParamSpec {
	return ParamSpec{Name: name, Kind: KindFlag, Option: name}
}

// FlagIfClear returns the spec of a flag set when option is not asserted.
//
func FlagIfClear(name, option string) ParamSpec {
	return ParamSpec{Name: name, Kind: KindFlagIfClear, Option: option}
}

// Inversion returns the spec of IS_<pin>_INVERTED. The pin is inverted
// unless ZINV_<pin> is asserted.
//
func Inversion(pin string) ParamSpec {
	return FlagIfClear(InversionParam(pin), "ZINV_"+pin)
}

// InversionParam returns the name of the inversion parameter of pin.
//
func InversionParam(pin string) string {
	return "IS_" + pin + "_INVERTED"
}

// Bool returns the spec of a "TRUE"/"FALSE" parameter that is "TRUE" when
// the option of the same name is asserted.
//
func Bool(name string) ParamSpec {
	return ParamSpec{Name: name, Kind: KindBool, Option: name}
}

// BoolIfClear returns the spec of a "TRUE"/"FALSE" parameter that is "TRUE"
// when option is not asserted.
//
func BoolIfClear(name, option string) ParamSpec {
	return ParamSpec{Name: name, Kind: KindBoolIfClear, Option: option}
}

// Choice returns the spec of a string parameter set to ifSet when option is
// asserted, ifClear otherwise.
//
func Choice(name, option, ifSet, ifClear string) ParamSpec {
	return ParamSpec{Name: name, Kind: KindChoice, Option: option, IfSet: ifSet, IfClear: ifClear}
}

// Binary returns the spec of a width bits field stored in options
// name[0] .. name[width-1].
//
func Binary(name string, width int) ParamSpec {
	return ParamSpec{Name: name, Kind: KindBinary, Option: name, Width: width}
}

func b2i(b bool) Int {
	if b {
		return 1
	}
	return 0
}

func b2s(b bool) String {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Decode decodes a single parameter.
//
func Decode(opts OptionSet, spec ParamSpec) (Value, error) {
	switch spec.Kind {
	case KindFlag:
		return b2i(opts.Has(spec.Option)), nil
	case KindFlagIfClear:
		return b2i(!opts.Has(spec.Option)), nil
	case KindBool:
		return b2s(opts.Has(spec.Option)), nil
	case KindBoolIfClear:
		return b2s(!opts.Has(spec.Option)), nil
	case KindChoice:
		if opts.Has(spec.Option) {
			return String(spec.IfSet), nil
		}
		return String(spec.IfClear), nil
	case KindBinary:
		if spec.Width <= 0 {
			return nil, errors.Errorf("parameter %s: invalid width %d", spec.Name, spec.Width)
		}
		v, err := DecodeMultiBit(opts, spec.Option, spec.Width)
		if err != nil {
			return nil, errors.Wrap(err, "parameter "+spec.Name)
		}
		return Bits{Width: spec.Width, V: v}, nil
	}
	return nil, errors.Errorf("parameter %s: unknown kind %d", spec.Name, spec.Kind)
}

// DecodeParams decodes all specs into a parameter map.
//
func DecodeParams(opts OptionSet, specs []ParamSpec) (map[string]Value, error) {
	params := make(map[string]Value, len(specs))
	for _, s := range specs {
		v, err := Decode(opts, s)
		if err != nil {
			return nil, err
		}
		params[s.Name] = v
	}
	return params, nil
}

// DecodeMultiBit decodes the width bits field base from the options
// base[0] .. base[width-1]. Each asserted option sets the corresponding bit;
// an option addressing a bit at or above width is an error.
//
func DecodeMultiBit(opts OptionSet, base string, width int) (*big.Int, error) {
	v := new(big.Int)
	prefix := base + "["
	for o := range opts {
		if !strings.HasPrefix(o, prefix) || !strings.HasSuffix(o, "]") {
			continue
		}
		bit, err := strconv.Atoi(o[len(prefix) : len(o)-1])
		if err != nil || bit < 0 {
			return nil, errors.Errorf("invalid bit address in option %s", o)
		}
		if bit >= width {
			return nil, errors.Errorf("option %s overflows %d bits", o, width)
		}
		v.SetBit(v, bit, 1)
	}
	return v, nil
}

// MultiBitOptions returns the options encoding v as the multi-bit field base.
// It is the inverse of DecodeMultiBit.
//
func MultiBitOptions(base string, v *big.Int) []string {
	var opts []string
	for i := 0; i < v.BitLen(); i++ {
		if v.Bit(i) != 0 {
			opts = append(opts, BusPinName(base, i))
		}
	}
	return opts
}
