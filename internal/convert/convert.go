// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs batch conversion of fixed-width data files to NDJSON.
// Spec files and data files are discovered in two directories and matched by
// name; each matched pair is converted independently, so one bad file never
// stops the others.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/fwconv/internal/extract"
	"github.com/pdiddy/fwconv/internal/spec"
	"github.com/pdiddy/fwconv/pkg/types"
)

// Recorder receives the result of every converted pair. It is called from
// multiple goroutines.
type Recorder interface {
	Record(ctx context.Context, res types.PairResult) error
}

// SpecResult holds the outcome of loading one spec file.
type SpecResult struct {
	Spec  string `yaml:"spec"`
	Rules int    `yaml:"rules"`
	Error string `yaml:"error,omitempty"`
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int

	// Unmatched lists spec files with no data files.
	Unmatched []string

	Specs []SpecResult
	Pairs []types.PairResult
}

// Total returns the total number of pairs processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any pair failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(p types.PairResult) {
	switch p.Status {
	case types.PairConverted:
		r.Converted++
	case types.PairSkipped:
		r.Skipped++
	case types.PairFailed:
		r.Failed++
	}
	r.Pairs = append(r.Pairs, p)
}

// IsNothingToDo reports whether err means there was nothing to convert, as
// opposed to a real failure.
func IsNothingToDo(err error) bool {
	return errors.Is(err, extract.ErrEmptyData) || errors.Is(err, extract.ErrNoRules)
}

// IsInvalidSpec reports whether err comes from interpreting spec content.
// Such specs yield no rules; their pairs are skipped rather than failed.
func IsInvalidSpec(err error) bool {
	return errors.Is(err, spec.ErrEmptySpec) ||
		errors.Is(err, spec.ErrInvalidSpecField) ||
		errors.Is(err, spec.ErrFieldCount) ||
		errors.Is(err, spec.ErrInvalidWidth)
}

// ConvertPair converts one data file with rules and writes the NDJSON result
// into outDir. rules are only read.
func ConvertPair(rules []types.ColumnRule, specName, dataPath, outDir, dataExt string) types.PairResult {
	res := types.PairResult{
		Spec: specName,
		Data: filepath.Base(dataPath),
	}

	data, err := os.ReadFile(dataPath)
	if err != nil {
		return fail(res, fmt.Errorf("reading data file: %w", err))
	}

	records, err := extract.Records(extract.Lines(data), rules)
	if err != nil {
		if IsNothingToDo(err) {
			res.Status = types.PairSkipped
			res.Err = err
			return res
		}
		return fail(res, err)
	}

	body, err := extract.NDJSON(records)
	if err != nil {
		return fail(res, fmt.Errorf("serializing records: %w", err))
	}

	// MkdirAll succeeds when a concurrent pair created the directory first.
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fail(res, fmt.Errorf("creating output directory: %w", err))
	}

	outPath := filepath.Join(outDir, OutputName(res.Data, dataExt))
	if err := writeFileAtomic(outPath, body); err != nil {
		return fail(res, err)
	}

	res.Output = outPath
	res.Records = len(records)
	res.Status = types.PairConverted
	return res
}

func fail(res types.PairResult, err error) types.PairResult {
	res.Status = types.PairFailed
	res.Err = err
	return res
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".convert-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing output: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting output permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// job is one data file queued for conversion.
type job struct {
	spec     string
	rules    []types.ColumnRule
	specErr  error
	dataFile string
}

// Run discovers spec and data files under cfg, converts every matched pair,
// and prints per-file status lines and a summary to w. Only a failure to list
// either directory is returned as an error; everything else is reported per
// pair in the BatchResult.
func Run(ctx context.Context, cfg types.ConversionConfig, rec Recorder, w io.Writer) (BatchResult, error) {
	cfg = cfg.WithDefaults()
	var result BatchResult

	specFiles, err := Discover(cfg.SpecsDir, cfg.SpecExt)
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return result, err
	}
	if len(specFiles) == 0 {
		fmt.Fprintf(w, "No specification files in %s\n", cfg.SpecsDir)
		return result, nil
	}

	dataFiles, err := Discover(cfg.DataDir, cfg.DataExt)
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return result, err
	}
	if len(dataFiles) == 0 {
		fmt.Fprintln(w, "No data files available")
		return result, nil
	}

	var jobs []job
	for _, p := range Plan(specFiles, dataFiles, cfg.SpecExt) {
		if len(p.DataFiles) == 0 {
			fmt.Fprintf(w, "No data file for specification %s\n", p.Spec)
			result.Unmatched = append(result.Unmatched, p.Spec)
			continue
		}

		// Rules are parsed once per spec and shared by all of its data files.
		rules, err := spec.Load(filepath.Join(cfg.SpecsDir, p.Spec))
		sr := SpecResult{Spec: p.Spec, Rules: len(rules)}
		var specErr error
		if err != nil {
			sr.Error = err.Error()
			if IsInvalidSpec(err) {
				fmt.Fprintf(w, "invalid spec: %s (%v)\n", p.Spec, err)
			} else {
				specErr = err
			}
		}
		result.Specs = append(result.Specs, sr)

		for _, d := range p.DataFiles {
			jobs = append(jobs, job{spec: p.Spec, rules: rules, specErr: specErr, dataFile: d})
		}
	}

	pairs := make([]types.PairResult, len(jobs))
	recErrs := make([]error, len(jobs))

	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			pairs[i] = runJob(ctx, cfg, j)
			if rec != nil {
				recErrs[i] = rec.Record(ctx, pairs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, p := range pairs {
		reportPair(w, p)
		if recErrs[i] != nil {
			fmt.Fprintf(w, "  warning: recording %s: %v\n", p.Data, recErrs[i])
		}
		result.add(p)
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result, nil
}

func runJob(ctx context.Context, cfg types.ConversionConfig, j job) types.PairResult {
	if err := ctx.Err(); err != nil {
		return fail(types.PairResult{Spec: j.spec, Data: j.dataFile}, err)
	}
	if j.specErr != nil {
		return fail(types.PairResult{Spec: j.spec, Data: j.dataFile}, j.specErr)
	}
	return ConvertPair(j.rules, j.spec, filepath.Join(cfg.DataDir, j.dataFile), cfg.OutputDir, cfg.DataExt)
}

func reportPair(w io.Writer, p types.PairResult) {
	switch p.Status {
	case types.PairConverted:
		fmt.Fprintf(w, "converted: %s -> %s (%d records)\n", p.Data, p.Output, p.Records)
	case types.PairSkipped:
		fmt.Fprintf(w, "skipped: %s (%v)\n", p.Data, p.Err)
	default:
		fmt.Fprintf(w, "failed:  %s (%v)\n", p.Data, p.Err)
	}
}
