package types

import "time"

// ConversionConfig holds settings for the convert stage.
type ConversionConfig struct {
	// SpecsDir is the directory scanned for spec files.
	SpecsDir string `json:"specs_dir" yaml:"specs_dir" mapstructure:"specs_dir"`

	// DataDir is the directory scanned for fixed-width data files.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// OutputDir receives one .ndjson file per converted data file. It is
	// created on demand.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// SpecExt is the spec file extension, including the dot (default ".csv").
	SpecExt string `json:"spec_ext" yaml:"spec_ext" mapstructure:"spec_ext"`

	// DataExt is the data file extension, including the dot (default ".txt").
	DataExt string `json:"data_ext" yaml:"data_ext" mapstructure:"data_ext"`

	// Workers bounds how many spec/data pairs are converted at once (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// LedgerConfig holds settings for the conversion history database.
type LedgerConfig struct {
	// Path is the SQLite database file. Empty disables the ledger.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// WatchConfig holds settings for watch mode.
type WatchConfig struct {
	// Debounce is the quiet period after the last change before a re-run
	// (default 500ms).
	Debounce time.Duration `json:"debounce" yaml:"debounce" mapstructure:"debounce"`
}

// Config groups all settings read from fwconv.yaml and the environment.
type Config struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Ledger     LedgerConfig     `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Watch      WatchConfig      `json:"watch" yaml:"watch" mapstructure:"watch"`
}

const (
	DefaultSpecsDir  = "specs"
	DefaultDataDir   = "data"
	DefaultOutputDir = "output"
	DefaultSpecExt   = ".csv"
	DefaultDataExt   = ".txt"
	DefaultWorkers   = 4
	DefaultDebounce  = 500 * time.Millisecond
)

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c ConversionConfig) WithDefaults() ConversionConfig {
	if c.SpecsDir == "" {
		c.SpecsDir = DefaultSpecsDir
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.SpecExt == "" {
		c.SpecExt = DefaultSpecExt
	}
	if c.DataExt == "" {
		c.DataExt = DefaultDataExt
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	return c
}
