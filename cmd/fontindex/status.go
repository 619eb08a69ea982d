package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/fontindex/pkg/fontindex/index"
	"github.com/jamesainslie/fontindex/pkg/fontindex/output"
	"github.com/jamesainslie/fontindex/pkg/fontindex/stats"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index files, sizes and scan ages",
	Long: `Status prints each selected store's index file, entry count and the time
of its last scan. It never scans.

With --metrics-file the same figures are written in the Prometheus text
format, for node_exporter's textfile collector.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("metrics-file", "", "also write Prometheus metrics to this file")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	formatter, err := output.Get(viper.GetString("output"))
	if err != nil {
		return err
	}

	stores, err := openStores(appConfig)
	if err != nil {
		return err
	}

	result := &output.Result{}
	collector := stats.NewCollector()
	for _, s := range stores {
		info, err := storeInfo(s)
		if err != nil {
			info.Error = err.Error()
		}
		result.Stores = append(result.Stores, info)
		collector.Register(s.Name(), s.MetricsReport)
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return err
	}
	fmt.Print(buf.String())

	if path, _ := cmd.Flags().GetString("metrics-file"); path != "" {
		if err := stats.WriteTextfile(path, collector); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		printVerbose("metrics written to %s", path)
	}
	return nil
}

// storeInfo loads a store's backing file without refreshing it.
func storeInfo(s *index.Store) (output.StoreInfo, error) {
	info := output.StoreInfo{Name: s.Name(), Path: s.Path()}

	entries, err := s.Entries()
	if err != nil {
		return info, err
	}
	info.Entries = len(entries)
	if last := s.LastScan(); !last.IsZero() {
		info.LastScan = last.UTC().Truncate(time.Second)
	}
	info.Stats = s.Stats()
	return info, nil
}
