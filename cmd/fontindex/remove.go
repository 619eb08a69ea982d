package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/fontindex/pkg/fontindex/config"
)

var removeCmd = &cobra.Command{
	Use:     "remove FILE...",
	Aliases: []string{"rm"},
	Short:   "Remove fonts from the user index",
	Long: `Remove drops each file from the user index. Files inside the user font
directory are deleted as well unless --keep-file is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().Bool("keep-file", false, "leave the font file on disk")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	keep, _ := cmd.Flags().GetBool("keep-file")

	s, err := openStore(appConfig, config.UserStore, nil)
	if err != nil {
		return err
	}

	for _, arg := range args {
		path, err := resolveUserFont(arg, appConfig.Fonts.UserDir)
		if err != nil {
			return err
		}

		removed, err := s.RemoveEntry(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		if !removed {
			printInfo("%s is not in the user index", path)
		} else {
			printInfo("Removed %s", path)
		}

		if !keep && within(path, appConfig.Fonts.UserDir) {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to delete %s: %w", path, err)
			}
		}
	}
	return nil
}

// resolveUserFont turns a bare file name into a path inside the user font
// directory and makes other paths absolute.
func resolveUserFont(arg, userDir string) (string, error) {
	if !strings.ContainsRune(arg, filepath.Separator) {
		return filepath.Join(userDir, arg), nil
	}
	return filepath.Abs(arg)
}

// within reports whether path lies inside dir.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
