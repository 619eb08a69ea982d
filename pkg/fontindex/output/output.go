// Package output provides formatters for find results and index status
// (pretty, plain, json, yaml, tsv).
//
// Formatters are looked up by name from a registry:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/fontindex/pkg/fontindex/stats"
	"github.com/jamesainslie/fontindex/pkg/fontindex/types"
)

// FontInfo is one matching font.
type FontInfo struct {
	Store           string    `json:"store" yaml:"store"`
	Path            string    `json:"path" yaml:"path"`
	FullName        string    `json:"full_name" yaml:"full_name"`
	Family          string    `json:"family" yaml:"family"`
	Style           string    `json:"style" yaml:"style"`
	PreferredFamily string    `json:"preferred_family,omitempty" yaml:"preferred_family,omitempty"`
	PreferredStyle  string    `json:"preferred_style,omitempty" yaml:"preferred_style,omitempty"`
	Size            int64     `json:"size" yaml:"size"`
	SizeHuman       string    `json:"size_human" yaml:"size_human"`
	ModTime         time.Time `json:"mod_time" yaml:"mod_time"`
}

// StoreInfo describes one index store.
type StoreInfo struct {
	Name     string         `json:"name" yaml:"name"`
	Path     string         `json:"path" yaml:"path"`
	Entries  int            `json:"entries" yaml:"entries"`
	LastScan time.Time      `json:"last_scan" yaml:"last_scan"`
	Stats    stats.Snapshot `json:"stats" yaml:"stats"`
	// Error is set when the index file could not be read.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result is the data handed to a formatter. Find commands fill Fonts;
// status fills Stores.
type Result struct {
	Query    string      `json:"query,omitempty" yaml:"query,omitempty"`
	Style    string      `json:"style,omitempty" yaml:"style,omitempty"`
	Fonts    []FontInfo  `json:"fonts,omitempty" yaml:"fonts,omitempty"`
	Stores   []StoreInfo `json:"stores,omitempty" yaml:"stores,omitempty"`
	Warnings []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FontsFromEntries converts index entries of one store.
func FontsFromEntries(store string, entries []types.IndexEntry) []FontInfo {
	fonts := make([]FontInfo, len(entries))
	for i := range entries {
		e := &entries[i]
		fonts[i] = FontInfo{
			Store:           store,
			Path:            e.Path,
			FullName:        e.FullName,
			Family:          e.FamilyName,
			Style:           e.Subfamily,
			PreferredFamily: e.PreferredFamilyName,
			PreferredStyle:  e.PreferredSubfamilyName,
			Size:            e.FileSize,
			SizeHuman:       e.HumanSize(),
			ModTime:         e.ModTime().UTC(),
		}
	}
	return fonts
}

// Formatter renders a Result.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
