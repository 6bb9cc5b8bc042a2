package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of the reviewgen binary.
type Config struct {
	DataDir     string `yaml:"data_dir"`
	DataFile    string `yaml:"data_file"`
	DownloadURL string `yaml:"download_url"`
	DBPath      string `yaml:"db_path"`
	ListenAddr  string `yaml:"listen_addr"`
	// Language selects the tokenizer: "en" or "ja".
	Language  string `yaml:"language"`
	Workers   int    `yaml:"workers"`
	BatchSize int    `yaml:"batch_size"`
	MaxSteps  int    `yaml:"max_steps"`
	// Seed for the shared random source. 0 seeds from the clock.
	Seed     uint64 `yaml:"seed"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:    "data",
		DataFile:   "reviews.json",
		DBPath:     "reviewgen.db",
		ListenAddr: ":8080",
		Language:   "en",
		Workers:    4,
		BatchSize:  500,
		MaxSteps:   250,
		LogLevel:   "info",
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DataPath is the location of the decompressed review file.
func (c Config) DataPath() string {
	return filepath.Join(c.DataDir, c.DataFile)
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DataFile) == "" {
		errs = append(errs, errors.New("data_file must be set"))
	}
	switch strings.ToLower(c.Language) {
	case "en", "ja":
	default:
		errs = append(errs, fmt.Errorf("language %q is not supported (en, ja)", c.Language))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps))
	}
	return errors.Join(errs...)
}

// RegisterFlags binds command-line flags to c. Pair it with Overlay so only
// flags the user actually set win over the config file.
func RegisterFlags(fs *pflag.FlagSet, c *Config) {
	fs.StringVar(&c.DataDir, "data-dir", c.DataDir, "directory holding the review data")
	fs.StringVar(&c.DataFile, "data-file", c.DataFile, "decompressed review file name inside data-dir")
	fs.StringVar(&c.DownloadURL, "download-url", c.DownloadURL, "archive to download when the data file is missing")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "path to SQLite staging database")
	fs.StringVar(&c.ListenAddr, "listen", c.ListenAddr, "HTTP listen address")
	fs.StringVar(&c.Language, "language", c.Language, "tokenizer language (en, ja)")
	fs.IntVar(&c.Workers, "workers", c.Workers, "tokenizer workers")
	fs.IntVar(&c.BatchSize, "batch-size", c.BatchSize, "reviews per import transaction")
	fs.IntVar(&c.MaxSteps, "max-steps", c.MaxSteps, "maximum words per generated text")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "random seed (0 seeds from the clock)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn, error or none")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "also append logs to this file")
}

// Overlay copies into dst every field whose flag was set explicitly in fs.
func Overlay(dst *Config, flags Config, fs *pflag.FlagSet) {
	set := map[string]func(){
		"data-dir":     func() { dst.DataDir = flags.DataDir },
		"data-file":    func() { dst.DataFile = flags.DataFile },
		"download-url": func() { dst.DownloadURL = flags.DownloadURL },
		"db":           func() { dst.DBPath = flags.DBPath },
		"listen":       func() { dst.ListenAddr = flags.ListenAddr },
		"language":     func() { dst.Language = flags.Language },
		"workers":      func() { dst.Workers = flags.Workers },
		"batch-size":   func() { dst.BatchSize = flags.BatchSize },
		"max-steps":    func() { dst.MaxSteps = flags.MaxSteps },
		"seed":         func() { dst.Seed = flags.Seed },
		"log-level":    func() { dst.LogLevel = flags.LogLevel },
		"log-file":     func() { dst.LogFile = flags.LogFile },
	}
	fs.Visit(func(f *pflag.Flag) {
		if apply, ok := set[f.Name]; ok {
			apply()
		}
	})
}
