package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/fontindex/pkg/fontindex/config"
	"github.com/jamesainslie/fontindex/pkg/fontindex/logging"
	"github.com/jamesainslie/fontindex/pkg/fontindex/types"
)

var (
	cfgFile   string
	appConfig *config.Config

	rootCmd = &cobra.Command{
		Use:   "fontindex",
		Short: "Index installed fonts and look them up by family and style",
		Long: `fontindex keeps a cached index of the fonts on this machine so lookups by
family and style are instant.

Two indexes are maintained: "system" covers the platform font directories and
"user" covers fonts installed with "fontindex add". An index is trusted for a
while after each scan and rescanned only when its directories change.

Examples:
  fontindex find Arial               # All Arial faces
  fontindex find "DejaVu Sans" Bold  # One style
  fontindex rebuild --force          # Re-extract every font
  fontindex status                   # Index ages and last build counters
  fontindex add ~/Downloads/Inter.ttf`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logging.Close()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/fontindex/config.yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output on stderr")
	rootCmd.PersistentFlags().StringP("output", "o", "pretty", "output format (pretty, plain, json, yaml, tsv)")
	rootCmd.PersistentFlags().StringP("store", "s", "all", "index to use (system, user, all)")

	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("store", rootCmd.PersistentFlags().Lookup("store"))
}

// setup loads configuration and starts logging before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	appConfig = cfg

	console := ""
	if getVerbose() {
		console = "debug"
	}
	logCfg, err := cfg.LoggingSetup(console)
	if err != nil {
		return err
	}
	if err := logging.Init(logCfg); err != nil {
		// Logging is not worth failing a lookup over.
		printVerbose("logging disabled: %v", err)
	}

	if cmd.Context() == nil {
		cmd.SetContext(context.Background())
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if errors.Is(err, types.ErrIndexCorrupt) {
		printError("the index file is damaged; run \"fontindex rebuild --force\" or \"fontindex index clear\"")
	}
	return err
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
