package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/fontindex/cmd/fontindex/tui"
	"github.com/jamesainslie/fontindex/pkg/fontindex/index"
	"github.com/jamesainslie/fontindex/pkg/fontindex/scanner"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rescan font directories and rewrite the index",
	Long: `Rebuild re-enumerates the font directories of each selected store and
rewrites its index file.

Unchanged fonts are reused from the existing index unless --force is given.
If another fontindex process finished a rebuild moments ago, its result is
adopted instead of scanning again.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func init() {
	rebuildCmd.Flags().BoolP("force", "f", false, "ignore cached entries and re-extract every font")
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	names, err := storeNames()
	if err != nil {
		return err
	}
	if err := userStoreReady(appConfig); err != nil {
		return err
	}

	jobs := make([]tui.Job, 0, len(names))
	for _, name := range names {
		jobs = append(jobs, tui.Job{Store: name, Run: rebuildJob(name, force)})
	}

	var reports []index.Report
	if !getQuiet() && isatty.IsTerminal(os.Stderr.Fd()) {
		reports, err = tui.RunRebuild(cmd.Context(), jobs, tuiOutput())
	} else {
		for _, job := range jobs {
			var r index.Report
			r, err = job.Run(cmd.Context(), nil)
			if err != nil {
				err = fmt.Errorf("%s: %w", job.Store, err)
				break
			}
			reports = append(reports, r)
		}
	}

	for _, r := range reports {
		printInfo("%s", describeReport(r))
	}
	return err
}

// rebuildJob opens the named store and rebuilds it.
func rebuildJob(name string, force bool) tui.RebuildFunc {
	return func(ctx context.Context, onProgress func(scanner.Progress)) (index.Report, error) {
		s, err := openStore(appConfig, name, onProgress)
		if err != nil {
			return index.Report{}, err
		}
		return s.Rebuild(ctx, force)
	}
}

// tuiOutput keeps stdout free for the summary lines.
func tuiOutput() tea.ProgramOption {
	return tea.WithOutput(os.Stderr)
}

// describeReport renders a one-line rebuild summary.
func describeReport(r index.Report) string {
	if r.Adopted {
		return fmt.Sprintf("%s: %s fonts (adopted a rebuild that just finished)", r.Store, humanize.Comma(int64(r.Entries)))
	}

	st := r.Stats
	line := fmt.Sprintf("%s: %s fonts, %s files scanned (%.0f%% cached)",
		r.Store, humanize.Comma(int64(r.Entries)), humanize.Comma(st.FilesScanned()), st.HitRate()*100)
	if st.Skipped > 0 {
		line += fmt.Sprintf(", %s skipped", humanize.Comma(st.Skipped))
	}
	if st.Errors > 0 {
		line += fmt.Sprintf(", %s unrecognized", humanize.Comma(st.Errors))
	}
	if st.ValidationFailures > 0 {
		line += fmt.Sprintf(", %s invalid", humanize.Comma(st.ValidationFailures))
	}
	return line + fmt.Sprintf(" in %s", st.Elapsed.Round(time.Millisecond))
}
