// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fwconv/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent conversion runs from the ledger",
	Long: `History reads the SQLite ledger written by convert --ledger and lists
recent runs, newest first, with the outcome of every file in each run.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if cfg.Ledger.Path == "" {
		return fmt.Errorf("no ledger configured: pass --ledger or set ledger.path")
	}

	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistory(cmd.OutOrStdout(), runs, jsonOutput)
}

func formatHistory(w io.Writer, runs []ledger.Run, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-20s  %9s  %7s  %6s\n", "Run", "Started", "Converted", "Skipped", "Failed")
	fmt.Fprintln(w, strings.Repeat("-", 86))
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-20s  %9d  %7d  %6d\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Converted, r.Skipped, r.Failed)
		for _, p := range r.Pairs {
			detail := p.Output
			if p.Error != "" {
				detail = p.Error
			}
			fmt.Fprintf(w, "    %-9s  %s (%s)\n", p.Status, p.Data, detail)
		}
	}
	fmt.Fprintf(w, "\n%d runs\n", len(runs))
	return nil
}
