// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package spec interprets CSV column specifications for fixed-width files.
//
// A spec file has a header line naming the attribute held by each position
// ("column name", "width", "datatype") followed by one line per column:
//
//	column name,width,datatype
//	id,5,INTEGER
//	active,1,BOOLEAN
//	label,10,STRING
//
// Columns are laid out back to back in file order, so each column starts
// where the previous one ends.
package spec

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/pdiddy/fwconv/internal/coerce"
	"github.com/pdiddy/fwconv/pkg/types"
)

var (
	// ErrEmptySpec means the spec had no lines at all. Callers treat it as
	// nothing to do.
	ErrEmptySpec = errors.New("no specifications given")

	// ErrInvalidSpecField means a header token is outside the vocabulary.
	ErrInvalidSpecField = errors.New("invalid spec field")

	// ErrFieldCount means a column line has a different number of values
	// than the header.
	ErrFieldCount = errors.New("field count does not match header")

	// ErrInvalidWidth means a column width is not a positive integer.
	ErrInvalidWidth = errors.New("width must be a positive integer")
)

const separator = ","

// Header is a parsed spec header: the attribute set by each value position.
type Header []types.SpecField

// ParseHeader resolves every token of a header line. It fails with
// ErrInvalidSpecField on the first token outside the vocabulary.
func ParseHeader(line string) (Header, error) {
	tokens := strings.Split(line, separator)
	h := make(Header, len(tokens))
	for i, tok := range tokens {
		f, ok := types.LookupSpecField(tok)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSpecField, tok)
		}
		h[i] = f
	}
	return h, nil
}

// Interpret parses spec lines into column rules with computed start offsets.
// The first line is the header. Rules come back in file order.
func Interpret(lines []string) ([]types.ColumnRule, error) {
	if len(lines) == 0 {
		return nil, ErrEmptySpec
	}

	header, err := ParseHeader(lines[0])
	if err != nil {
		return nil, err
	}

	rules := make([]types.ColumnRule, 0, len(lines)-1)
	for i, line := range lines[1:] {
		r, err := header.parseRule(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		rules = append(rules, r)
	}

	assignOffsets(rules)
	return rules, nil
}

func (h Header) parseRule(line string) (types.ColumnRule, error) {
	values := strings.Split(line, separator)
	if len(values) != len(h) {
		return types.ColumnRule{}, fmt.Errorf("%w: got %d values, header has %d", ErrFieldCount, len(values), len(h))
	}

	var r types.ColumnRule
	haveWidth := false
	for i, v := range values {
		switch h[i] {
		case types.FieldName:
			r.Name = v
		case types.FieldWidth:
			w, err := parseWidth(v)
			if err != nil {
				return types.ColumnRule{}, err
			}
			r.Width = w
			haveWidth = true
		case types.FieldType:
			r.DeclaredType = v
		}
	}
	if !haveWidth {
		return types.ColumnRule{}, fmt.Errorf("%w: no width column", ErrInvalidWidth)
	}
	r.Type = types.ParseDataType(r.DeclaredType)
	return r, nil
}

func parseWidth(s string) (int, error) {
	n := coerce.Number(s)
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWidth, s)
	}
	return int(n), nil
}

// assignOffsets sets Start on each rule from the widths before it. It runs
// only after every rule is built.
func assignOffsets(rules []types.ColumnRule) {
	for i := range rules {
		if i == 0 {
			rules[i].Start = 0
			continue
		}
		prev := rules[i-1]
		rules[i].Start = prev.Start + prev.Width
	}
}

// Span returns the total width of a record laid out by rules.
func Span(rules []types.ColumnRule) int {
	if len(rules) == 0 {
		return 0
	}
	return rules[len(rules)-1].End()
}

// Lines splits spec file text into lines. Both CRLF and LF endings are
// accepted and blank lines are dropped.
func Lines(data []byte) []string {
	raw := strings.Split(string(data), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Load reads and interprets the spec file at path.
func Load(path string) ([]types.ColumnRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file: %w", err)
	}
	return Interpret(Lines(data))
}
