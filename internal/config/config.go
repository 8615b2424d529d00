// Package config loads the catalog2pdf YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-catalog2pdf/internal/logger"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// DefaultName is the config file searched for when none is given.
const DefaultName = "catalog2pdf"

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxURLLength      = 2048
	MaxNameLength     = 100
	MaxBucketLength   = 63 // S3 rule
	MaxRegionLength   = 32
	MaxCommandLength  = 256
	MaxArgLength      = 512
	MaxArgs           = 16
	MaxTableLength    = 63 // Postgres identifier limit
	MaxPageSizeLength = 10
)

// Export bounds.
const (
	DefaultWidth   = 794
	DefaultScale   = 2.0
	DefaultMargin  = 10.0
	DefaultTimeout = 90 * time.Second
	MinWidth       = 320
	MaxWidth       = 4096
	MaxScale       = 4.0
	MaxWorkers     = 32
	MaxMargin      = 50.0
)

// Config holds all configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Blobs  BlobsConfig  `yaml:"blobs"`
	Export ExportConfig `yaml:"export"`
	Share  ShareConfig  `yaml:"share"`
	Log    LogConfig    `yaml:"log"`
	Assets AssetsConfig `yaml:"assets"`
}

// StoreConfig selects where the profile and product list live.
type StoreConfig struct {
	Driver      string `yaml:"driver"` // "file" (default) or "postgres"
	Dir         string `yaml:"dir"`
	QuotaBytes  int64  `yaml:"quotaBytes"` // 0 = default, negative = unlimited
	DatabaseURL string `yaml:"databaseURL"`
	Table       string `yaml:"table"`
}

// BlobsConfig selects where product images live.
type BlobsConfig struct {
	Driver string `yaml:"driver"` // "local" (default) or "s3"
	Dir    string `yaml:"dir"`
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix"`
}

// ExportConfig tunes the export pipeline.
type ExportConfig struct {
	OutputDir string     `yaml:"outputDir"`
	BaseName  string     `yaml:"baseName"`
	Width     int        `yaml:"width"`   // CSS px, default 794
	Scale     float64    `yaml:"scale"`   // supersampling, default 2
	Timeout   string     `yaml:"timeout"` // Go duration, default 90s
	Workers   int        `yaml:"workers"` // 0 = auto
	Page      PageConfig `yaml:"page"`
}

// PageConfig sets the physical page.
type PageConfig struct {
	Size   string  `yaml:"size"`   // "a4" (default), "letter", "legal"
	Margin float64 `yaml:"margin"` // mm, default 10
}

// ShareConfig names the command that shares a finished PDF. The PDF
// path is appended to Args.
type ShareConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" (default) or "json"
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// DefaultConfig returns the configuration used when no file is found.
// Directories are left empty; ApplyDefaults fills them from a data dir.
func DefaultConfig() *Config {
	return &Config{
		Store:  StoreConfig{Driver: "file"},
		Blobs:  BlobsConfig{Driver: "local"},
		Export: ExportConfig{Width: DefaultWidth, Scale: DefaultScale, Page: PageConfig{Size: "a4", Margin: DefaultMargin}},
		Log:    LogConfig{Level: "info", Format: logger.FormatConsole},
	}
}

// DefaultDataDir is where the file store and local blobs live unless
// configured otherwise.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "go-catalog2pdf")
	}
	return filepath.Join(os.TempDir(), "go-catalog2pdf")
}

// ApplyDefaults fills unset fields. Relative data paths stay relative.
func (c *Config) ApplyDefaults(dataDir string) {
	if c.Store.Driver == "" {
		c.Store.Driver = "file"
	}
	if c.Store.Dir == "" {
		c.Store.Dir = filepath.Join(dataDir, "store")
	}
	if c.Blobs.Driver == "" {
		c.Blobs.Driver = "local"
	}
	if c.Blobs.Dir == "" {
		c.Blobs.Dir = filepath.Join(dataDir, "blobs")
	}
	if c.Export.Width == 0 {
		c.Export.Width = DefaultWidth
	}
	if c.Export.Scale == 0 {
		c.Export.Scale = DefaultScale
	}
	if c.Export.Page.Size == "" {
		c.Export.Page.Size = "a4"
	}
	if c.Export.Page.Margin == 0 {
		c.Export.Page.Margin = DefaultMargin
	}
	if c.Log.Format == "" {
		c.Log.Format = logger.FormatConsole
	}
}

// TimeoutDuration returns the export timeout, DefaultTimeout when unset.
func (c *Config) TimeoutDuration() time.Duration {
	if c.Export.Timeout == "" {
		return DefaultTimeout
	}
	d, err := time.ParseDuration(c.Export.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// Validate checks enums, ranges and field lengths. Called by LoadConfig,
// and by the CLI after environment overrides.
func (c *Config) Validate() error {
	checks := []struct {
		field string
		value string
		max   int
	}{
		{"store.dir", c.Store.Dir, MaxPathLength},
		{"store.databaseURL", c.Store.DatabaseURL, MaxURLLength},
		{"store.table", c.Store.Table, MaxTableLength},
		{"blobs.dir", c.Blobs.Dir, MaxPathLength},
		{"blobs.bucket", c.Blobs.Bucket, MaxBucketLength},
		{"blobs.region", c.Blobs.Region, MaxRegionLength},
		{"blobs.prefix", c.Blobs.Prefix, MaxPathLength},
		{"export.outputDir", c.Export.OutputDir, MaxPathLength},
		{"export.baseName", c.Export.BaseName, MaxNameLength},
		{"export.page.size", c.Export.Page.Size, MaxPageSizeLength},
		{"share.command", c.Share.Command, MaxCommandLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
	}
	for _, chk := range checks {
		if err := validateFieldLength(chk.field, chk.value, chk.max); err != nil {
			return err
		}
	}

	if len(c.Share.Args) > MaxArgs {
		return fmt.Errorf("%w: share.args has %d entries (max %d)", ErrInvalidValue, len(c.Share.Args), MaxArgs)
	}
	for i, arg := range c.Share.Args {
		if err := validateFieldLength(fmt.Sprintf("share.args[%d]", i), arg, MaxArgLength); err != nil {
			return err
		}
	}

	if err := validateEnum("store.driver", c.Store.Driver, "file", "postgres"); err != nil {
		return err
	}
	if strings.EqualFold(c.Store.Driver, "postgres") && c.Store.DatabaseURL == "" {
		return fmt.Errorf("%w: store.databaseURL: required for the postgres driver", ErrInvalidValue)
	}
	if err := validateEnum("blobs.driver", c.Blobs.Driver, "local", "s3"); err != nil {
		return err
	}
	if strings.EqualFold(c.Blobs.Driver, "s3") && c.Blobs.Bucket == "" {
		return fmt.Errorf("%w: blobs.bucket: required for the s3 driver", ErrInvalidValue)
	}

	if err := validateEnum("export.page.size", c.Export.Page.Size, "a4", "letter", "legal"); err != nil {
		return err
	}
	if w := c.Export.Width; w != 0 && (w < MinWidth || w > MaxWidth) {
		return fmt.Errorf("%w: export.width: must be between %d and %d, got %d", ErrInvalidValue, MinWidth, MaxWidth, w)
	}
	if s := c.Export.Scale; s != 0 && (s < 1 || s > MaxScale) {
		return fmt.Errorf("%w: export.scale: must be between 1 and %.0f, got %.2f", ErrInvalidValue, MaxScale, s)
	}
	if w := c.Export.Workers; w < 0 || w > MaxWorkers {
		return fmt.Errorf("%w: export.workers: must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, w)
	}
	if m := c.Export.Page.Margin; m < 0 || m > MaxMargin {
		return fmt.Errorf("%w: export.page.margin: must be between 0 and %.0f mm, got %.2f", ErrInvalidValue, MaxMargin, m)
	}
	if c.Export.Timeout != "" {
		d, err := time.ParseDuration(c.Export.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: export.timeout: %q is not a positive duration", ErrInvalidValue, c.Export.Timeout)
		}
	}

	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("%w: log.level: unknown level %q", ErrInvalidValue, c.Log.Level)
	}
	if err := validateEnum("log.format", c.Log.Format, logger.FormatConsole, logger.FormatJSON); err != nil {
		return err
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateEnum accepts "" or one of allowed, case-insensitively.
func validateEnum(field, value string, allowed ...string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: invalid value %q (must be one of %s)", ErrInvalidValue, field, value, strings.Join(allowed, ", "))
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name: .yaml then .yml,
// in the current directory, then in ~/.config/go-catalog2pdf/.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-catalog2pdf", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
