package model

import (
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
)

// Config is the full ieml configuration. Fields are read from the config
// file and IEML_* environment variables through viper.
type Config struct {
	Dictionary  DictionaryConfig  `yaml:"dictionary" mapstructure:"dictionary"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Watch       WatchConfig       `yaml:"watch" mapstructure:"watch"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// DictionaryConfig locates the dictionary source and the version store
type DictionaryConfig struct {
	Source string `yaml:"source" mapstructure:"source"` // YAML source file
	Store  string `yaml:"store" mapstructure:"store"`   // SQLite version store
}

// CacheConfig controls factorization memoization
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// WatchConfig throttles rebuilds of a watched source
type WatchConfig struct {
	RebuildsPerSecond float64 `yaml:"rebuilds_per_second" mapstructure:"rebuilds_per_second"`
}

// OutputConfig controls logging and metrics output
type OutputConfig struct {
	Verbose     bool   `yaml:"verbose" mapstructure:"verbose"`
	JSONLogs    bool   `yaml:"json_logs" mapstructure:"json_logs"`
	MetricsFile string `yaml:"metrics_file" mapstructure:"metrics_file"` // node_exporter textfile, empty to skip
}

// DefaultConfig returns the built-in defaults. Paths are relative to
// ~/.ieml.
func DefaultConfig() Config {
	return Config{
		Dictionary: DictionaryConfig{
			Source: "dictionary.yaml",
			Store:  "versions.db",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Watch: WatchConfig{
			RebuildsPerSecond: 1,
		},
	}
}

// Validate rejects settings no command can run with
func (c Config) Validate() error {
	if c.Concurrency.Workers <= 0 {
		return errors.Newf("concurrency.workers must be positive, got %d", c.Concurrency.Workers)
	}
	if c.Watch.RebuildsPerSecond <= 0 {
		return errors.Newf("watch.rebuilds_per_second must be positive, got %v", c.Watch.RebuildsPerSecond)
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return errors.New("cache.dir is required when the cache is enabled")
	}
	if c.Cache.MemoryTTL < 0 || c.Cache.DiskTTL < 0 {
		return errors.New("cache ttl must not be negative")
	}
	return nil
}
