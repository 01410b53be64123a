// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coerce converts the text of a fixed-width field into a typed value.
// The same lenient number grammar is used for column widths in spec files and
// for BOOLEAN and INTEGER fields in data files.
package coerce

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/pdiddy/fwconv/pkg/types"
)

// Number parses s as a number. Surrounding whitespace is ignored and an empty
// string is 0. Decimal, exponent, and 0x/0o/0b integer forms are accepted, as
// is a signed "Infinity". Anything else yields NaN.
func Number(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			return prefixedInt(s[2:], base)
		}
	}

	unsigned := strings.TrimLeft(s, "+-")
	if unsigned == "Infinity" && len(s)-len(unsigned) <= 1 {
		if s[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	if !isDecimal(s) {
		return math.NaN()
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out-of-range literals still parse to ±Inf with ErrRange.
		if errors.Is(err, strconv.ErrRange) {
			return f
		}
		return math.NaN()
	}
	return f
}

func prefixedInt(digits string, base int) float64 {
	if strings.ContainsAny(digits, "_+-") {
		return math.NaN()
	}
	u, err := strconv.ParseUint(digits, base, 64)
	if err == nil {
		return float64(u)
	}
	if !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	// Wider than 64 bits: round the exact value to the nearest float64.
	i, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return math.NaN()
	}
	f, _ := new(big.Float).SetInt(i).Float64()
	return f
}

// isDecimal reports whether s only contains characters of a decimal literal.
// strconv.ParseFloat also accepts "inf", "nan", hex floats, and underscores,
// none of which are numbers here.
func isDecimal(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c == '.', c == 'e', c == 'E', c == '+', c == '-':
		default:
			return false
		}
	}
	return true
}

// Bool reports whether s is a nonzero number. Non-numeric text is false.
func Bool(s string) bool {
	n := Number(s)
	return n != 0 && !math.IsNaN(n)
}

// Value coerces raw according to t. Unrecognized types are treated as strings.
func Value(raw string, t types.DataType) types.Value {
	switch t {
	case types.TypeBoolean:
		return types.BoolValue(Bool(raw))
	case types.TypeInteger:
		return types.NumberValue(Number(raw))
	default:
		return types.StringValue(raw)
	}
}
