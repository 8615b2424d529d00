package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-catalog2pdf/internal/config"
)

// envPrefix marks the variables this program reads.
const envPrefix = "CATALOG2PDF_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // CATALOG2PDF_CONFIG: config file path
	Timeout    time.Duration // CATALOG2PDF_TIMEOUT: export timeout
	OutputDir  string        // CATALOG2PDF_OUTPUT_DIR: where PDFs are written
	LogLevel   string        // CATALOG2PDF_LOG_LEVEL

	// Tier 2 - Storage
	StoreDir    string // CATALOG2PDF_STORE_DIR: file store directory
	DatabaseURL string // CATALOG2PDF_DATABASE_URL: selects the postgres store
	BlobDriver  string // CATALOG2PDF_BLOB_DRIVER: local or s3
	BlobDir     string // CATALOG2PDF_BLOB_DIR
	S3Bucket    string // CATALOG2PDF_S3_BUCKET
	S3Region    string // CATALOG2PDF_S3_REGION

	// Tier 3 - Extended
	PageSize string // CATALOG2PDF_PAGE_SIZE: a4, letter, legal
	Workers  int    // CATALOG2PDF_WORKERS: parallel exports
}

// knownEnvVars lists valid CATALOG2PDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"CATALOG2PDF_CONFIG":            true,
	"CATALOG2PDF_TIMEOUT":           true,
	"CATALOG2PDF_OUTPUT_DIR":        true,
	"CATALOG2PDF_LOG_LEVEL":         true,
	"CATALOG2PDF_STORE_DIR":         true,
	"CATALOG2PDF_DATABASE_URL":      true,
	"CATALOG2PDF_BLOB_DRIVER":       true,
	"CATALOG2PDF_BLOB_DIR":          true,
	"CATALOG2PDF_S3_BUCKET":         true,
	"CATALOG2PDF_S3_REGION":         true,
	"CATALOG2PDF_PAGE_SIZE":         true,
	"CATALOG2PDF_WORKERS":           true,
	"CATALOG2PDF_CONTAINER":         true, // doctor override
	"CATALOG2PDF_TEST_DATABASE_URL": true, // integration tests
}

// loadEnvConfig reads the recognized CATALOG2PDF_* values through getenv.
// Malformed numbers and durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:  getenv("CATALOG2PDF_CONFIG"),
		OutputDir:   getenv("CATALOG2PDF_OUTPUT_DIR"),
		LogLevel:    getenv("CATALOG2PDF_LOG_LEVEL"),
		StoreDir:    getenv("CATALOG2PDF_STORE_DIR"),
		DatabaseURL: getenv("CATALOG2PDF_DATABASE_URL"),
		BlobDriver:  strings.ToLower(strings.TrimSpace(getenv("CATALOG2PDF_BLOB_DRIVER"))),
		BlobDir:     getenv("CATALOG2PDF_BLOB_DIR"),
		S3Bucket:    getenv("CATALOG2PDF_S3_BUCKET"),
		S3Region:    getenv("CATALOG2PDF_S3_REGION"),
		PageSize:    strings.ToLower(getenv("CATALOG2PDF_PAGE_SIZE")),
	}

	if timeout := getenv("CATALOG2PDF_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := getenv("CATALOG2PDF_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars reports unrecognized CATALOG2PDF_* variables, which
// are usually typos like CATALOG2PDF_TIMOUT.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overrides file values with the variables that are set.
// Flags are merged afterwards, giving flags > env > file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" {
		cfg.Export.OutputDir = env.OutputDir
	}
	if env.Timeout > 0 {
		cfg.Export.Timeout = env.Timeout.String()
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}

	if env.StoreDir != "" {
		cfg.Store.Dir = env.StoreDir
	}
	if env.DatabaseURL != "" {
		cfg.Store.DatabaseURL = env.DatabaseURL
		cfg.Store.Driver = "postgres"
	}
	if env.BlobDriver != "" {
		cfg.Blobs.Driver = env.BlobDriver
	}
	if env.BlobDir != "" {
		cfg.Blobs.Dir = env.BlobDir
	}
	if env.S3Bucket != "" {
		cfg.Blobs.Bucket = env.S3Bucket
	}
	if env.S3Region != "" {
		cfg.Blobs.Region = env.S3Region
	}

	if env.PageSize != "" {
		cfg.Export.Page.Size = env.PageSize
	}
	if env.Workers > 0 {
		cfg.Export.Workers = env.Workers
	}
}
