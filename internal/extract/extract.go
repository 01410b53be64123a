// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract slices fixed-width lines into typed records using column
// rules from a spec, and serializes the records as NDJSON.
package extract

import (
	"bytes"
	"errors"
	"strings"

	"github.com/pdiddy/fwconv/internal/coerce"
	"github.com/pdiddy/fwconv/pkg/types"
)

var (
	// ErrEmptyData means there were no data lines to convert.
	ErrEmptyData = errors.New("no data provided")

	// ErrNoRules means there were no column rules to apply.
	ErrNoRules = errors.New("no specification provided")
)

// Field returns the trimmed text of column r in line. Columns past the end of
// a short line are empty.
func Field(line string, r types.ColumnRule) string {
	start, end := r.Start, r.End()
	if start > len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(line[start:end])
}

// Record extracts one line into a record with one value per rule.
func Record(line string, rules []types.ColumnRule) types.Record {
	var rec types.Record
	for _, r := range rules {
		rec.Set(r.Name, coerce.Value(Field(line, r), r.Type))
	}
	return rec
}

// Records extracts every line. The data check runs before the rules check.
func Records(lines []string, rules []types.ColumnRule) ([]types.Record, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyData
	}
	if len(rules) == 0 {
		return nil, ErrNoRules
	}
	out := make([]types.Record, len(lines))
	for i, line := range lines {
		out[i] = Record(line, rules)
	}
	return out, nil
}

// NDJSON serializes records one per line. Lines are joined with "\n" and
// there is no trailing newline.
func NDJSON(records []types.Record) ([]byte, error) {
	var b bytes.Buffer
	for i, rec := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		line, err := rec.MarshalJSON()
		if err != nil {
			return nil, err
		}
		b.Write(line)
	}
	return b.Bytes(), nil
}

// Lines splits data file text into lines, dropping blank lines and a trailing
// carriage return on each line.
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
