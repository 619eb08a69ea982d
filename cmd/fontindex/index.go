package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage index files",
}

var indexPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show index file paths",
	Args:  cobra.NoArgs,
	RunE:  runIndexPath,
}

var indexClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete index files",
	Long: `Clear deletes the index file and snapshot database of each selected store.
The next lookup rebuilds from scratch. Font files are never touched.`,
	Args: cobra.NoArgs,
	RunE: runIndexClear,
}

func init() {
	indexCmd.AddCommand(indexPathCmd)
	indexCmd.AddCommand(indexClearCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexPath(cmd *cobra.Command, args []string) error {
	stores, err := openStores(appConfig)
	if err != nil {
		return err
	}
	for _, s := range stores {
		fmt.Printf("%s\t%s\n", s.Name(), s.Path())
		printVerbose("lock: %s", s.LockPath())
	}
	return nil
}

func runIndexClear(cmd *cobra.Command, args []string) error {
	stores, err := openStores(appConfig)
	if err != nil {
		return err
	}
	for _, s := range stores {
		if err := s.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
		printInfo("Cleared %s index: %s", s.Name(), s.Path())
	}
	return nil
}
