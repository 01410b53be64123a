// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PairStatus is the outcome of converting one spec/data pair.
type PairStatus string

const (
	PairConverted PairStatus = "converted"
	PairSkipped   PairStatus = "skipped"
	PairFailed    PairStatus = "failed"
)

// PairResult records what happened to one data file.
type PairResult struct {
	// Spec is the spec file name the data file was matched to.
	Spec string `json:"spec" yaml:"spec"`

	// Data is the data file name.
	Data string `json:"data" yaml:"data"`

	// Output is the path of the written NDJSON file. Empty unless converted.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Records is the number of records written.
	Records int `json:"records" yaml:"records"`

	Status PairStatus `json:"status" yaml:"status"`

	// Err is the reason for a skipped or failed pair.
	Err error `json:"-" yaml:"-"`
}

// ErrString returns the error text, or "" when there is no error.
func (r PairResult) ErrString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
