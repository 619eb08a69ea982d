package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/fontindex/pkg/fontindex/output"
)

var findCmd = &cobra.Command{
	Use:   "find FAMILY [STYLE]",
	Short: "Find fonts by family and optional style",
	Long: `Find every indexed font whose family matches FAMILY, optionally narrowed
to one STYLE (subfamily). Matching is case-insensitive.

The index is refreshed first if it is stale.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFind,
}

func init() {
	findCmd.Flags().Bool("cached", false, "use the index as loaded, without checking for changes")
	_ = viper.BindPFlag("cached", findCmd.Flags().Lookup("cached"))
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	name, style := args[0], ""
	if len(args) == 2 {
		style = args[1]
	}

	formatter, err := output.Get(viper.GetString("output"))
	if err != nil {
		return err
	}

	stores, err := openStores(appConfig)
	if err != nil {
		return err
	}

	result := &output.Result{Query: name, Style: style}
	for _, s := range stores {
		s.SetReadOnly(viper.GetBool("cached"))
		matches, err := s.Find(cmd.Context(), name, style)
		if err != nil {
			return fmt.Errorf("%s index: %w", s.Name(), err)
		}
		result.Fonts = append(result.Fonts, output.FontsFromEntries(s.Name(), matches)...)
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return err
	}
	fmt.Print(buf.String())

	if len(result.Fonts) == 0 {
		return errNoMatch
	}
	return nil
}
