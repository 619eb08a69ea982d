package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/fontindex/pkg/fontindex/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage fontindex configuration settings.

Configuration is loaded from $XDG_CONFIG_HOME/fontindex/config.yaml, or the
file named by --config.

Environment variables can override config file settings using the FONTINDEX_
prefix:
  FONTINDEX_INDEX_REBUILD_THRESHOLD=10m
  FONTINDEX_SCAN_WORKERS=4
  FONTINDEX_FONTS_USER_DIR=~/fonts`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the effective configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := appConfig

	if cfg.File != "" {
		fmt.Printf("Config file: %s\n\n", cfg.File)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("index.dir:                %s\n", cfg.Index.Dir)
	fmt.Printf("index.rebuild_threshold:  %s\n", cfg.Index.RebuildThreshold)
	fmt.Printf("index.debounce_window:    %s\n", cfg.Index.DebounceWindow)
	fmt.Printf("index.content_hash:       %t\n", cfg.Index.ContentHash)
	fmt.Printf("index.snapshots:          %t\n", cfg.Index.Snapshots)
	fmt.Printf("scan.workers:             %d\n", cfg.Scan.Workers)
	fmt.Printf("scan.parallel_threshold:  %d\n", cfg.Scan.ParallelThreshold)
	fmt.Printf("scan.exclude:             %v\n", cfg.Scan.Exclude)
	fmt.Printf("scan.extensions:          %v\n", cfg.Scan.Extensions)
	fmt.Printf("fonts.system_dirs:        %v\n", cfg.Fonts.SystemDirs)
	fmt.Printf("fonts.user_dir:           %s\n", cfg.Fonts.UserDir)
	fmt.Printf("logging.level:            %s\n", cfg.Logging.Level)
	fmt.Printf("logging.path:             %s\n", cfg.Logging.Path)

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	anyOverrides := false
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "FONTINDEX_") {
			fmt.Println(kv)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath, _, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath, created, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if !created {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'fontindex config edit' to modify it.")
		return nil
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configPath := config.ConfigPath()
	fmt.Println(configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
