// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the fwconv CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fwconv/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the fwconv CLI.
var rootCmd = &cobra.Command{
	Use:   "fwconv",
	Short: "Convert fixed-width text files to NDJSON",
	Long: `fwconv converts fixed-width text records into newline-delimited JSON.

Column layouts are described by CSV spec files (column name, width, datatype).
Data files are matched to a spec by name: acme_2024.txt uses specs/acme.csv.
Each matched data file becomes one .ndjson file in the output directory.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./fwconv.yaml or ~/.config/fwconv/config.yaml)")
	rootCmd.PersistentFlags().String("ledger", "", "SQLite history database (empty disables history)")
	_ = viper.BindPFlag("ledger.path", rootCmd.PersistentFlags().Lookup("ledger"))

	setDefaults(viper.GetViper())
}

// setDefaults registers every config key so environment variables and
// Unmarshal see them even without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("conversion.specs_dir", types.DefaultSpecsDir)
	v.SetDefault("conversion.data_dir", types.DefaultDataDir)
	v.SetDefault("conversion.output_dir", types.DefaultOutputDir)
	v.SetDefault("conversion.spec_ext", types.DefaultSpecExt)
	v.SetDefault("conversion.data_ext", types.DefaultDataExt)
	v.SetDefault("conversion.workers", types.DefaultWorkers)
	v.SetDefault("ledger.path", "")
	v.SetDefault("watch.debounce", types.DefaultDebounce)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("fwconv")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "fwconv"))
		}
	}

	configureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "warning: reading config file: %v\n", err)
	}
}

// configureEnv maps FWCONV_SECTION_KEY environment variables to section.key.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("FWCONV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadConfig decodes the merged flag, env, file, and default settings.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Conversion = cfg.Conversion.WithDefaults()
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = types.DefaultDebounce
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
