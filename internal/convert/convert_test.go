// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fwconv/internal/extract"
	"github.com/pdiddy/fwconv/internal/spec"
	"github.com/pdiddy/fwconv/pkg/types"
)

const acmeSpec = "column name,width,datatype\r\nid,3,INTEGER\r\nflag,1,BOOLEAN\r\nlabel,6,STRING\r\n"

// setupDirs creates specs/ and data/ under a temp dir and returns a config
// pointing at them.
func setupDirs(t *testing.T) types.ConversionConfig {
	t.Helper()
	root := t.TempDir()
	cfg := types.ConversionConfig{
		SpecsDir:  filepath.Join(root, "specs"),
		DataDir:   filepath.Join(root, "data"),
		OutputDir: filepath.Join(root, "output"),
		Workers:   2,
	}
	require.NoError(t, os.MkdirAll(cfg.SpecsDir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0o755))
	return cfg
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func readOutput(t *testing.T, cfg types.ConversionConfig, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, name))
	require.NoError(t, err)
	return string(data)
}

// fakeRecorder collects recorded pairs. It can fail for one data file.
type fakeRecorder struct {
	mu      sync.Mutex
	pairs   []types.PairResult
	failFor string
}

func (f *fakeRecorder) Record(_ context.Context, res types.PairResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairs = append(f.pairs, res)
	if res.Data == f.failFor {
		return errors.New("disk full")
	}
	return nil
}

func TestDataPrefix(t *testing.T) {
	tests := []struct {
		name      string
		wantPref  string
		wantFound bool
	}{
		{"acme_2024-01-01.txt", "acme", true},
		{"acme_a_b.txt", "acme", true},
		{"_x.txt", "", true},
		{"acme.txt", "acme.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := DataPrefix(tt.name)
			assert.Equal(t, tt.wantPref, got)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestPlan(t *testing.T) {
	specs := []string{"acme.csv", "beta.csv", "gamma.csv"}
	data := []string{"acme_1.txt", "acme_2.txt", "acme.txt", "acmecorp_1.txt", "beta_x.txt"}

	plans := Plan(specs, data, ".csv")

	require.Len(t, plans, 3)
	assert.Equal(t, SpecPlan{Spec: "acme.csv", DataFiles: []string{"acme_1.txt", "acme_2.txt"}}, plans[0])
	assert.Equal(t, SpecPlan{Spec: "beta.csv", DataFiles: []string{"beta_x.txt"}}, plans[1])
	assert.Equal(t, "gamma.csv", plans[2].Spec)
	assert.Empty(t, plans[2].DataFiles)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "acme_1.ndjson", OutputName("acme_1.txt", ".txt"))
	assert.Equal(t, "acme_1.dat.ndjson", OutputName("acme_1.dat", ".txt"))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "")
	writeFile(t, dir, "a.csv", "")
	writeFile(t, dir, "notes.md", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))

	got, err := Discover(dir, ".csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv"}, got)

	_, err = Discover(filepath.Join(dir, "missing"), ".csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConvertPair(t *testing.T) {
	rules, err := spec.Interpret(spec.Lines([]byte(acmeSpec)))
	require.NoError(t, err)

	tests := []struct {
		name        string
		data        *string
		rules       []types.ColumnRule
		wantStatus  types.PairStatus
		wantErr     error
		wantRecords int
	}{
		{
			name:        "converts lines",
			data:        ptr("0071widget\n0120gadget\n"),
			rules:       rules,
			wantStatus:  types.PairConverted,
			wantRecords: 2,
		},
		{
			name:       "empty data is skipped",
			data:       ptr("\n\n"),
			rules:      rules,
			wantStatus: types.PairSkipped,
			wantErr:    extract.ErrEmptyData,
		},
		{
			name:       "no rules is skipped",
			data:       ptr("0071widget\n"),
			rules:      nil,
			wantStatus: types.PairSkipped,
			wantErr:    extract.ErrNoRules,
		},
		{
			name:       "missing data file fails",
			rules:      rules,
			wantStatus: types.PairFailed,
			wantErr:    os.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			dataPath := filepath.Join(dir, "acme_1.txt")
			if tt.data != nil {
				writeFile(t, dir, "acme_1.txt", *tt.data)
			}
			outDir := filepath.Join(dir, "out")

			res := ConvertPair(tt.rules, "acme.csv", dataPath, outDir, ".txt")

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, "acme.csv", res.Spec)
			assert.Equal(t, "acme_1.txt", res.Data)
			assert.Equal(t, tt.wantRecords, res.Records)
			if tt.wantErr != nil {
				assert.ErrorIs(t, res.Err, tt.wantErr)
				assert.Empty(t, res.Output)
				assert.NoFileExists(t, filepath.Join(outDir, "acme_1.ndjson"))
				return
			}
			require.NoError(t, res.Err)
			assert.Equal(t, filepath.Join(outDir, "acme_1.ndjson"), res.Output)

			data, err := os.ReadFile(res.Output)
			require.NoError(t, err)
			assert.Equal(t, `{"id":7,"flag":true,"label":"widget"}`+"\n"+`{"id":12,"flag":false,"label":"gadget"}`, string(data))

			info, err := os.Stat(res.Output)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
		})
	}
}

func ptr(s string) *string { return &s }

func TestRun(t *testing.T) {
	cfg := setupDirs(t)
	writeFile(t, cfg.SpecsDir, "acme.csv", acmeSpec)
	writeFile(t, cfg.SpecsDir, "beta.csv", acmeSpec)
	writeFile(t, cfg.SpecsDir, "bad.csv", "column name,size\r\nid,3\r\n")
	writeFile(t, cfg.SpecsDir, "README.md", "not a spec")

	writeFile(t, cfg.DataDir, "acme_1.txt", "0071widget\n")
	writeFile(t, cfg.DataDir, "acme_2.txt", "0120gadget\n9990thing \n")
	writeFile(t, cfg.DataDir, "acme_empty.txt", "")
	writeFile(t, cfg.DataDir, "bad_1.txt", "0071\n")
	writeFile(t, cfg.DataDir, "acme.txt", "0071widget\n")

	rec := &fakeRecorder{}
	var log bytes.Buffer
	result, err := Run(context.Background(), cfg, rec, &log)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Converted)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 4, result.Total())
	assert.False(t, result.HasFailures())
	assert.Equal(t, []string{"beta.csv"}, result.Unmatched)

	// Pairs come back in plan order: specs sorted by name, then data files.
	var order []string
	for _, p := range result.Pairs {
		order = append(order, p.Data)
	}
	assert.Equal(t, []string{"acme_1.txt", "acme_2.txt", "acme_empty.txt", "bad_1.txt"}, order)

	assert.Equal(t, `{"id":7,"flag":true,"label":"widget"}`, readOutput(t, cfg, "acme_1.ndjson"))
	assert.Equal(t,
		`{"id":12,"flag":false,"label":"gadget"}`+"\n"+`{"id":999,"flag":false,"label":"thing"}`,
		readOutput(t, cfg, "acme_2.ndjson"))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "bad_1.ndjson"))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "acme.ndjson"))

	out := log.String()
	assert.Contains(t, out, "No data file for specification beta.csv")
	assert.Contains(t, out, "invalid spec: bad.csv")
	assert.Contains(t, out, "converted: acme_1.txt")
	assert.Contains(t, out, "skipped: acme_empty.txt (no data provided)")
	assert.Contains(t, out, "skipped: bad_1.txt (no specification provided)")
	assert.Contains(t, out, "Batch summary: 2 converted, 2 skipped, 0 failed (total: 4)")

	require.Len(t, result.Specs, 2)
	assert.Equal(t, SpecResult{Spec: "acme.csv", Rules: 3}, result.Specs[0])
	assert.Equal(t, "bad.csv", result.Specs[1].Spec)
	assert.Contains(t, result.Specs[1].Error, "invalid spec field")

	assert.Len(t, rec.pairs, 4)
}

func TestRun_SharedRulesAcrossDataFiles(t *testing.T) {
	cfg := setupDirs(t)
	cfg.Workers = 8
	writeFile(t, cfg.SpecsDir, "acme.csv", acmeSpec)

	var names []string
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		name := "acme_" + n + ".txt"
		names = append(names, name)
		writeFile(t, cfg.DataDir, name, "0421"+n+"\n")
	}

	var log bytes.Buffer
	result, err := Run(context.Background(), cfg, nil, &log)
	require.NoError(t, err)
	assert.Equal(t, len(names), result.Converted)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	sort.Strings(got)
	require.Len(t, got, len(names))
	for _, n := range []string{"a", "j"} {
		assert.Equal(t, `{"id":42,"flag":true,"label":"`+n+`"}`, readOutput(t, cfg, "acme_"+n+".ndjson"))
	}
	for _, name := range got {
		assert.False(t, strings.HasSuffix(name, ".tmp"), "temp file left behind: %s", name)
	}
}

func TestRun_UnreadableSpecFailsItsPairs(t *testing.T) {
	cfg := setupDirs(t)
	require.NoError(t, os.Symlink(filepath.Join(cfg.SpecsDir, "nowhere"), filepath.Join(cfg.SpecsDir, "acme.csv")))
	writeFile(t, cfg.SpecsDir, "beta.csv", acmeSpec)
	writeFile(t, cfg.DataDir, "acme_1.txt", "0071widget\n")
	writeFile(t, cfg.DataDir, "acme_2.txt", "0071widget\n")
	writeFile(t, cfg.DataDir, "beta_1.txt", "0071widget\n")

	var log bytes.Buffer
	result, err := Run(context.Background(), cfg, nil, &log)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 1, result.Converted)
	assert.True(t, result.HasFailures())
	for _, p := range result.Pairs[:2] {
		assert.Equal(t, types.PairFailed, p.Status)
		assert.ErrorIs(t, p.Err, os.ErrNotExist)
	}
	assert.Contains(t, log.String(), "failed:  acme_1.txt")
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "beta_1.ndjson"))
}

func TestRun_RecorderErrorIsReported(t *testing.T) {
	cfg := setupDirs(t)
	writeFile(t, cfg.SpecsDir, "acme.csv", acmeSpec)
	writeFile(t, cfg.DataDir, "acme_1.txt", "0071widget\n")

	rec := &fakeRecorder{failFor: "acme_1.txt"}
	var log bytes.Buffer
	result, err := Run(context.Background(), cfg, rec, &log)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Converted)
	assert.Contains(t, log.String(), "warning: recording acme_1.txt: disk full")
}

func TestRun_CanceledContext(t *testing.T) {
	cfg := setupDirs(t)
	writeFile(t, cfg.SpecsDir, "acme.csv", acmeSpec)
	writeFile(t, cfg.DataDir, "acme_1.txt", "0071widget\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var log bytes.Buffer
	result, err := Run(ctx, cfg, nil, &log)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.ErrorIs(t, result.Pairs[0].Err, context.Canceled)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRun_OutputDirAlreadyExists(t *testing.T) {
	cfg := setupDirs(t)
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	writeFile(t, cfg.SpecsDir, "acme.csv", acmeSpec)
	writeFile(t, cfg.DataDir, "acme_1.txt", "0071widget\n")

	var log bytes.Buffer
	result, err := Run(context.Background(), cfg, nil, &log)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Converted)
}

func TestRun_NothingToDo(t *testing.T) {
	t.Run("missing specs dir", func(t *testing.T) {
		cfg := setupDirs(t)
		require.NoError(t, os.RemoveAll(cfg.SpecsDir))

		var log bytes.Buffer
		_, err := Run(context.Background(), cfg, nil, &log)
		require.Error(t, err)
		assert.Contains(t, log.String(), "error:")
	})

	t.Run("missing data dir", func(t *testing.T) {
		cfg := setupDirs(t)
		writeFile(t, cfg.SpecsDir, "acme.csv", acmeSpec)
		require.NoError(t, os.RemoveAll(cfg.DataDir))

		var log bytes.Buffer
		_, err := Run(context.Background(), cfg, nil, &log)
		require.Error(t, err)
	})

	t.Run("no spec files", func(t *testing.T) {
		cfg := setupDirs(t)
		writeFile(t, cfg.DataDir, "acme_1.txt", "0071widget\n")

		var log bytes.Buffer
		result, err := Run(context.Background(), cfg, nil, &log)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Total())
		assert.Contains(t, log.String(), "No specification files")
	})

	t.Run("no data files", func(t *testing.T) {
		cfg := setupDirs(t)
		writeFile(t, cfg.SpecsDir, "acme.csv", acmeSpec)
		writeFile(t, cfg.DataDir, "acme_1.dat", "0071widget\n")

		var log bytes.Buffer
		result, err := Run(context.Background(), cfg, nil, &log)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Total())
		assert.Contains(t, log.String(), "No data files available")
	})

	t.Run("no matching data file", func(t *testing.T) {
		cfg := setupDirs(t)
		writeFile(t, cfg.SpecsDir, "acme.csv", acmeSpec)
		writeFile(t, cfg.DataDir, "other_1.txt", "0071widget\n")

		var log bytes.Buffer
		result, err := Run(context.Background(), cfg, nil, &log)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Total())
		assert.Equal(t, []string{"acme.csv"}, result.Unmatched)
		assert.Contains(t, log.String(), "No data file for specification acme.csv")
		assert.NoDirExists(t, cfg.OutputDir)
	})
}

func TestWriteSummary(t *testing.T) {
	cfg := setupDirs(t)
	writeFile(t, cfg.SpecsDir, "acme.csv", acmeSpec)
	writeFile(t, cfg.DataDir, "acme_1.txt", "0071widget\n")
	writeFile(t, cfg.DataDir, "acme_2.txt", "")

	var log bytes.Buffer
	result, err := Run(context.Background(), cfg, nil, &log)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "summary.yaml")
	require.NoError(t, WriteSummary(path, cfg, result))

	sf, err := ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, SummaryTotals{Converted: 1, Skipped: 1, Total: 2}, sf.Totals)
	assert.Equal(t, types.DefaultSpecExt, sf.Config.SpecExt)
	require.Len(t, sf.Pairs, 2)
	assert.Equal(t, types.PairConverted, sf.Pairs[0].Status)
	assert.Equal(t, 1, sf.Pairs[0].Records)
	assert.Equal(t, "no data provided", sf.Pairs[1].Error)
	assert.False(t, sf.Timestamp.IsZero())
}
