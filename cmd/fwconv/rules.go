// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fwconv/internal/spec"
	"github.com/pdiddy/fwconv/pkg/types"
)

var rulesCmd = &cobra.Command{
	Use:   "rules <spec-file>",
	Short: "Show the column layout parsed from a spec file",
	Long: `Rules interprets a spec file and prints each column with its width,
type, and computed start offset. Use it to check a spec before converting.`,
	Args: cobra.ExactArgs(1),
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().Bool("json", false, "output rules as JSON")

	rootCmd.AddCommand(rulesCmd)
}

// rulesOutput is the printed form of a parsed spec.
type rulesOutput struct {
	Spec    string             `json:"spec" yaml:"spec"`
	Span    int                `json:"span" yaml:"span"`
	Columns []types.ColumnRule `json:"columns" yaml:"columns"`
}

func runRules(cmd *cobra.Command, args []string) error {
	rules, err := spec.Load(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRules(cmd.OutOrStdout(), filepath.Base(args[0]), rules, jsonOutput)
}

func formatRules(w io.Writer, name string, rules []types.ColumnRule, jsonOutput bool) error {
	out := rulesOutput{Spec: name, Span: spec.Span(rules), Columns: rules}
	if out.Columns == nil {
		out.Columns = []types.ColumnRule{}
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}
	return enc.Close()
}
