package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fwconv/internal/convert"
	"github.com/pdiddy/fwconv/internal/ledger"
	"github.com/pdiddy/fwconv/internal/watch"
	"github.com/pdiddy/fwconv/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert every matched data file to NDJSON",
	Long: `Convert scans the specs directory for spec files and the data directory
for data files, matches each data file to the spec named by its prefix (the
text before the first underscore), and writes one .ndjson file per data file.

Problems with one file are reported and do not stop the others. Use --strict
to exit non-zero when any file failed, and --watch to keep converting as
files change.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("specs-dir", types.DefaultSpecsDir, "directory containing spec files")
	convertCmd.Flags().String("data-dir", types.DefaultDataDir, "directory containing fixed-width data files")
	convertCmd.Flags().String("output-dir", types.DefaultOutputDir, "directory for .ndjson output (created if missing)")
	convertCmd.Flags().Int("workers", types.DefaultWorkers, "number of files converted concurrently")
	convertCmd.Flags().String("summary", "", "write a YAML summary of the run to this file")
	convertCmd.Flags().Bool("watch", false, "re-run whenever the specs or data directory changes")
	convertCmd.Flags().Bool("strict", false, "exit non-zero if any file failed")

	_ = viper.BindPFlag("conversion.specs_dir", convertCmd.Flags().Lookup("specs-dir"))
	_ = viper.BindPFlag("conversion.data_dir", convertCmd.Flags().Lookup("data-dir"))
	_ = viper.BindPFlag("conversion.output_dir", convertCmd.Flags().Lookup("output-dir"))
	_ = viper.BindPFlag("conversion.workers", convertCmd.Flags().Lookup("workers"))

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	summaryPath, _ := cmd.Flags().GetString("summary")
	watchMode, _ := cmd.Flags().GetBool("watch")
	strict, _ := cmd.Flags().GetBool("strict")

	var store *ledger.Store
	if cfg.Ledger.Path != "" {
		store, err = ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	result, err := convertOnce(ctx, cfg, store, summaryPath, out)
	if err != nil && !watchMode {
		return err
	}

	if watchMode {
		dirs := []string{cfg.Conversion.SpecsDir, cfg.Conversion.DataDir}
		exts := []string{cfg.Conversion.SpecExt, cfg.Conversion.DataExt}
		return watch.Run(ctx, dirs, exts, cfg.Watch.Debounce, out, func(ctx context.Context) {
			if _, err := convertOnce(ctx, cfg, store, summaryPath, out); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		})
	}

	if strict && result.HasFailures() {
		return fmt.Errorf("%d file(s) failed conversion", result.Failed)
	}
	return nil
}

// convertOnce runs one batch, recording it in the ledger and summary file
// when those are configured.
func convertOnce(ctx context.Context, cfg types.Config, store *ledger.Store, summaryPath string, w io.Writer) (convert.BatchResult, error) {
	var rec convert.Recorder
	var run *ledger.Run
	if store != nil {
		var err error
		run, err = store.BeginRun(ctx)
		if err != nil {
			fmt.Fprintf(w, "  warning: ledger: %v\n", err)
		} else {
			rec = run
		}
	}

	result, err := convert.Run(ctx, cfg.Conversion, rec, w)

	if run != nil {
		if ferr := run.Finish(ctx, result.Converted, result.Skipped, result.Failed); ferr != nil {
			fmt.Fprintf(w, "  warning: ledger: %v\n", ferr)
		}
	}
	if err != nil {
		return result, err
	}

	if summaryPath != "" {
		if err := convert.WriteSummary(summaryPath, cfg.Conversion, result); err != nil {
			return result, err
		}
		fmt.Fprintf(w, "Summary written to %s\n", summaryPath)
	}
	return result, nil
}
