package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/fontindex/pkg/fontindex/config"
	"github.com/jamesainslie/fontindex/pkg/fontindex/types"
)

var addCmd = &cobra.Command{
	Use:   "add FILE...",
	Short: "Install fonts into the user font directory and index them",
	Long: `Add copies each font file into the user font directory and records it in
the user index without a full rescan. An installed font of the same name is
only replaced with --force, and is restored if the replacement cannot be
indexed. With --no-copy the file is indexed where it is, which only makes
sense for files already inside the user font directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().Bool("no-copy", false, "index the file in place instead of copying it")
	addCmd.Flags().BoolP("force", "f", false, "replace an installed font of the same name")
	rootCmd.AddCommand(addCmd)
}

// entryAdder indexes one file.
type entryAdder interface {
	AddEntry(ctx context.Context, path string) (types.IndexEntry, error)
}

func runAdd(cmd *cobra.Command, args []string) error {
	noCopy, _ := cmd.Flags().GetBool("no-copy")
	force, _ := cmd.Flags().GetBool("force")

	if err := userStoreReady(appConfig); err != nil {
		return err
	}
	s, err := openStore(appConfig, config.UserStore, nil)
	if err != nil {
		return err
	}

	for _, arg := range args {
		src, err := filepath.Abs(arg)
		if err != nil {
			return err
		}

		var entry types.IndexEntry
		if noCopy {
			entry, err = s.AddEntry(cmd.Context(), src)
		} else {
			dst := filepath.Join(appConfig.Fonts.UserDir, filepath.Base(src))
			entry, err = installFont(cmd.Context(), s, src, dst, force)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		printInfo("Added %s (%s) -> %s", entry.FullName, entry.Subfamily, entry.Path)
	}
	return nil
}

// installFont copies src to dst and indexes it. An existing dst is moved
// aside first and put back if the new file cannot be indexed, so a failed
// install never leaves the index pointing at a missing file.
func installFont(ctx context.Context, idx entryAdder, src, dst string, force bool) (types.IndexEntry, error) {
	if src == dst {
		return idx.AddEntry(ctx, dst)
	}

	backup := ""
	if _, err := os.Stat(dst); err == nil {
		if !force {
			return types.IndexEntry{}, fmt.Errorf("%w: %s (use --force to replace it)", errFontInstalled, dst)
		}
		backup = filepath.Join(filepath.Dir(dst), ".fontindex-backup-"+filepath.Base(dst))
		if err := os.Rename(dst, backup); err != nil {
			return types.IndexEntry{}, fmt.Errorf("failed to set aside %s: %w", dst, err)
		}
	} else if !os.IsNotExist(err) {
		return types.IndexEntry{}, err
	}

	restore := func() {
		if backup == "" {
			_ = os.Remove(dst)
			return
		}
		if err := os.Rename(backup, dst); err != nil {
			printError("could not restore %s from %s: %v", dst, backup, err)
		}
	}

	if err := copyFile(src, dst); err != nil {
		restore()
		return types.IndexEntry{}, fmt.Errorf("failed to install: %w", err)
	}

	entry, err := idx.AddEntry(ctx, dst)
	if err != nil {
		restore()
		return types.IndexEntry{}, err
	}
	if backup != "" {
		_ = os.Remove(backup)
	}
	return entry, nil
}

// copyFile copies src to dst through a temporary file so a failed copy
// never leaves a truncated font behind.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".fontindex-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
