package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/ieml/internal/logging"
	"github.com/ppiankov/ieml/internal/metrics"
	"github.com/ppiankov/ieml/internal/model"
)

// Version is the CLI version, overridden at link time.
var Version = "v0.1.0"

var (
	cfgFile     string
	verbose     bool
	jsonLogs    bool
	metricsFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ieml",
	Short: "ieml - IEML script algebra, dictionary relations and proposition checks",
	Long: `ieml works with IEML scripts and dictionaries:

- parse, expand and factorize scripts
- build a dictionary from a YAML source, compute its twelve relations
  and ranks, and keep every published version in a local store
- check that a proposition forms a single rooted tree and print its
  clauses in canonical depth order`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(viper.GetBool("output.json_logs"), viper.GetBool("output.verbose"))
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer logging.Cleanup()
		if path := viper.GetString("output.metrics_file"); path != "" {
			return metrics.WriteToTextfile(path)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ieml %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.ieml/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "structured JSON logs on stderr")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile after the run")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output.json_logs", rootCmd.PersistentFlags().Lookup("json-logs"))
	_ = viper.BindPFlag("output.metrics_file", rootCmd.PersistentFlags().Lookup("metrics-file"))

	rootCmd.AddCommand(versionCmd)
}

// configDir is ~/.ieml, or the working directory when home is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".ieml")
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// IEML_CACHE_ENABLED overrides cache.enabled
	viper.SetEnvPrefix("IEML")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so that env overrides apply to keys
// absent from the config file.
func setDefaults(cfg model.Config) {
	viper.SetDefault("dictionary.source", cfg.Dictionary.Source)
	viper.SetDefault("dictionary.store", cfg.Dictionary.Store)
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)
	viper.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	viper.SetDefault("watch.rebuilds_per_second", cfg.Watch.RebuildsPerSecond)
	viper.SetDefault("output.verbose", cfg.Output.Verbose)
	viper.SetDefault("output.json_logs", cfg.Output.JSONLogs)
	viper.SetDefault("output.metrics_file", cfg.Output.MetricsFile)
}

// loadConfig merges defaults, config file, env and flags. Relative paths
// are resolved against ~/.ieml.
func loadConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	dir := configDir()
	cfg.Dictionary.Source = resolvePath(dir, cfg.Dictionary.Source)
	cfg.Dictionary.Store = resolvePath(dir, cfg.Dictionary.Store)
	cfg.Cache.Dir = resolvePath(dir, cfg.Cache.Dir)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func resolvePath(dir, path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
