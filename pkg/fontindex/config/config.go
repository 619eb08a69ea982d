package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/jamesainslie/fontindex/pkg/fontindex/logging"
	"github.com/jamesainslie/fontindex/pkg/fontindex/paths"
)

const appName = "fontindex"

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// IndexConfig configures index storage and staleness.
type IndexConfig struct {
	Dir              string        `mapstructure:"dir"`
	RebuildThreshold time.Duration `mapstructure:"rebuild_threshold"`
	DebounceWindow   time.Duration `mapstructure:"debounce_window"`
	ContentHash      bool          `mapstructure:"content_hash"`
	Snapshots        bool          `mapstructure:"snapshots"`
}

// ScanConfig configures the batch scanner.
type ScanConfig struct {
	Workers           int      `mapstructure:"workers"`
	ParallelThreshold int      `mapstructure:"parallel_threshold"`
	Exclude           []string `mapstructure:"exclude"`
	Extensions        []string `mapstructure:"extensions"`
}

// FontsConfig lists the directories each store covers.
type FontsConfig struct {
	SystemDirs []string `mapstructure:"system_dirs"`
	UserDir    string   `mapstructure:"user_dir"`
}

// Config represents the application configuration.
type Config struct {
	Index   IndexConfig   `mapstructure:"index"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Fonts   FontsConfig   `mapstructure:"fonts"`
	Logging LoggingConfig `mapstructure:"logging"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// Load loads configuration from file and environment variables.
// With an empty path the file is looked up as
// $XDG_CONFIG_HOME/fontindex/config.yaml.
//
// Environment variables are prefixed with FONTINDEX_
// (e.g., FONTINDEX_INDEX_REBUILD_THRESHOLD=10m).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
	}

	v.SetEnvPrefix("FONTINDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("index.dir", CacheDir())
	v.SetDefault("index.rebuild_threshold", DefaultRebuildThreshold)
	v.SetDefault("index.debounce_window", DefaultDebounceWindow)
	v.SetDefault("index.content_hash", false)
	v.SetDefault("index.snapshots", true)

	v.SetDefault("scan.workers", 0)
	v.SetDefault("scan.parallel_threshold", DefaultParallelThreshold)
	v.SetDefault("scan.exclude", DefaultExclusions)
	v.SetDefault("scan.extensions", DefaultExtensions)

	v.SetDefault("fonts.system_dirs", paths.DefaultSystemRoots())
	v.SetDefault("fonts.user_dir", paths.DefaultUserRoot())

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_backups", DefaultLogMaxBackups)
	v.SetDefault("logging.components", map[string]string{
		"index":   "info",
		"scanner": "info",
		"lock":    "info",
	})
}

// expand resolves ~ in every configured path.
func (c *Config) expand() error {
	var err error
	if c.Index.Dir, err = ExpandPath(c.Index.Dir); err != nil {
		return err
	}
	if c.Fonts.UserDir, err = ExpandPath(c.Fonts.UserDir); err != nil {
		return err
	}
	if c.Logging.Path, err = ExpandPath(c.Logging.Path); err != nil {
		return err
	}
	for i, d := range c.Fonts.SystemDirs {
		if c.Fonts.SystemDirs[i], err = ExpandPath(d); err != nil {
			return err
		}
	}
	return nil
}

// IndexPath returns the backing file of the named store.
func (c *Config) IndexPath(store string) string {
	return filepath.Join(c.Index.Dir, store+".yaml")
}

// SnapshotDir returns the snapshot database directory of the named store,
// or "" when snapshots are disabled.
func (c *Config) SnapshotDir(store string) string {
	if !c.Index.Snapshots {
		return ""
	}
	return filepath.Join(c.Index.Dir, store+".snapshots")
}

// Roots returns the font roots of the named store.
func (c *Config) Roots(store string) []string {
	if store == UserStore {
		return []string{c.Fonts.UserDir}
	}
	return c.Fonts.SystemDirs
}

// LoggingSetup converts the logging section into a logging.Config.
// console is the stderr level, empty to disable console output.
func (c *Config) LoggingSetup(console string) (logging.Config, error) {
	rotation := logging.DefaultRotationConfig()
	if c.Logging.Rotation.MaxSize != "" {
		size, err := humanize.ParseBytes(c.Logging.Rotation.MaxSize)
		if err != nil {
			return logging.Config{}, fmt.Errorf("invalid logging.rotation.max_size %q: %w", c.Logging.Rotation.MaxSize, err)
		}
		rotation.MaxSize = int64(size)
	}
	if c.Logging.Rotation.MaxBackups > 0 {
		rotation.MaxBackups = c.Logging.Rotation.MaxBackups
	}

	return logging.Config{
		Level:        c.Logging.Level,
		Path:         c.Logging.Path,
		Rotation:     rotation,
		Components:   c.Logging.Components,
		ConsoleLevel: console,
	}, nil
}

// ConfigDir returns $XDG_CONFIG_HOME/fontindex.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// CacheDir returns $XDG_CACHE_HOME/fontindex, the default index directory.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// StateDir returns $XDG_STATE_HOME/fontindex for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// WriteDefault writes a default config file if none exists and returns its
// path. created is false when a file was already present.
func WriteDefault() (path string, created bool, err error) {
	if err := EnsureConfigDir(); err != nil {
		return "", false, err
	}

	path = ConfigPath()
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to check config file: %w", err)
	}

	var systemDirs strings.Builder
	for _, d := range paths.DefaultSystemRoots() {
		fmt.Fprintf(&systemDirs, "    - %s\n", d)
	}

	defaultConfig := fmt.Sprintf(`# fontindex configuration

index:
  # Directory holding the index files (<store>.yaml) and their lock files
  dir: %s
  # Trust a scan this recent without touching the filesystem
  rebuild_threshold: %s
  # Adopt another process's rebuild if it finished this recently
  debounce_window: %s
  # Hash file contents for change detection instead of size and mtime
  content_hash: false
  # Remember unindexable files between rebuilds
  snapshots: true

scan:
  # Worker count; 0 picks min(CPUs, 8)
  workers: 0
  # Scan in parallel above this many files
  parallel_threshold: %d
  # File name patterns never indexed
  exclude:
    - "LastResort*"
    - ".*"
  extensions: [ttf, otf, ttc, otc]

fonts:
  system_dirs:
%s  # Application-managed fonts
  user_dir: %s

logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/fontindex/fontindex.log)
  path: ""
  rotation:
    max_size: %s
    max_backups: %d
  # Per-component log levels
  components:
    index: info
    scanner: info
    lock: info
`, CacheDir(), DefaultRebuildThreshold, DefaultDebounceWindow, DefaultParallelThreshold,
		systemDirs.String(), paths.DefaultUserRoot(), DefaultLogMaxSize, DefaultLogMaxBackups)

	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}
	return path, true, nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}
