// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fwconv/pkg/types"
)

// SummaryFile is the on-disk record of a batch run.
type SummaryFile struct {
	Config    types.ConversionConfig `yaml:"config"`
	Specs     []SpecResult           `yaml:"specs,omitempty"`
	Unmatched []string               `yaml:"unmatched,omitempty"`
	Pairs     []SummaryPair          `yaml:"pairs,omitempty"`
	Totals    SummaryTotals          `yaml:"totals"`
	Timestamp time.Time              `yaml:"timestamp"`
}

// SummaryPair is one pair outcome in a summary file.
type SummaryPair struct {
	Spec    string           `yaml:"spec"`
	Data    string           `yaml:"data"`
	Output  string           `yaml:"output,omitempty"`
	Records int              `yaml:"records"`
	Status  types.PairStatus `yaml:"status"`
	Error   string           `yaml:"error,omitempty"`
}

// SummaryTotals holds pair counts by status.
type SummaryTotals struct {
	Converted int `yaml:"converted"`
	Skipped   int `yaml:"skipped"`
	Failed    int `yaml:"failed"`
	Total     int `yaml:"total"`
}

// WriteSummary saves the batch result as YAML at path.
func WriteSummary(path string, cfg types.ConversionConfig, r BatchResult) error {
	sf := SummaryFile{
		Config:    cfg.WithDefaults(),
		Specs:     r.Specs,
		Unmatched: r.Unmatched,
		Totals: SummaryTotals{
			Converted: r.Converted,
			Skipped:   r.Skipped,
			Failed:    r.Failed,
			Total:     r.Total(),
		},
		Timestamp: time.Now().UTC(),
	}
	for _, p := range r.Pairs {
		sf.Pairs = append(sf.Pairs, SummaryPair{
			Spec:    p.Spec,
			Data:    p.Data,
			Output:  p.Output,
			Records: p.Records,
			Status:  p.Status,
			Error:   p.ErrString(),
		})
	}

	data, err := yaml.Marshal(&sf)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSummary loads a summary file written by WriteSummary.
func ReadSummary(path string) (*SummaryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading summary file: %w", err)
	}
	var sf SummaryFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing summary file: %w", err)
	}
	return &sf, nil
}
