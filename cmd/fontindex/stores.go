package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/jamesainslie/fontindex/pkg/fontindex/config"
	"github.com/jamesainslie/fontindex/pkg/fontindex/extract"
	"github.com/jamesainslie/fontindex/pkg/fontindex/index"
	"github.com/jamesainslie/fontindex/pkg/fontindex/paths"
	"github.com/jamesainslie/fontindex/pkg/fontindex/scanner"
	"github.com/jamesainslie/fontindex/pkg/fontindex/snapshot"
)

// storeNames resolves the --store flag.
func storeNames() ([]string, error) {
	switch s := viper.GetString("store"); s {
	case "", "all":
		return []string{config.SystemStore, config.UserStore}, nil
	case config.SystemStore, config.UserStore:
		return []string{s}, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want system, user or all)", s)
	}
}

// openStore builds the named index store from configuration.
// onProgress may be nil.
func openStore(cfg *config.Config, name string, onProgress func(scanner.Progress)) (*index.Store, error) {
	walker, err := paths.NewWalker(cfg.Roots(name), cfg.Scan.Extensions)
	if err != nil {
		return nil, fmt.Errorf("%s font roots: %w", name, err)
	}

	mode := snapshot.SignatureStat
	if cfg.Index.ContentHash {
		mode = snapshot.SignatureContent
	}

	return index.New(index.Options{
		Name:             name,
		Path:             cfg.IndexPath(name),
		Enumerator:       walker,
		Extractor:        extract.NewSFNT(),
		Exclude:          cfg.Scan.Exclude,
		RebuildThreshold: cfg.Index.RebuildThreshold,
		DebounceWindow:   cfg.Index.DebounceWindow,
		SnapshotDir:      cfg.SnapshotDir(name),
		SignatureMode:    mode,
		Scan: scanner.Options{
			Workers:           cfg.Scan.Workers,
			ParallelThreshold: cfg.Scan.ParallelThreshold,
			OnProgress:        onProgress,
		},
	})
}

// openStores opens every store selected by --store.
func openStores(cfg *config.Config) ([]*index.Store, error) {
	names, err := storeNames()
	if err != nil {
		return nil, err
	}
	stores := make([]*index.Store, 0, len(names))
	for _, name := range names {
		s, err := openStore(cfg, name, nil)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, nil
}

// userStoreReady makes sure the user font directory exists so the first
// scan of the user store has a base directory to record.
func userStoreReady(cfg *config.Config) error {
	return os.MkdirAll(cfg.Fonts.UserDir, 0o755)
}
