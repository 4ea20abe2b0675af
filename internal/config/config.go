// Package config loads the CLI settings from flags, BORN_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/born-ml/vmap/internal/parallel"
	"github.com/born-ml/vmap/internal/vmap"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the complete CLI configuration.
type Config struct {
	Vmap    VmapConfig    `mapstructure:"vmap"`
	Runtime RuntimeConfig `mapstructure:"runtime"`
	Log     LogConfig     `mapstructure:"log"`
}

// VmapConfig controls the batching fallback.
type VmapConfig struct {
	FallbackEnabled bool `mapstructure:"fallback_enabled"`
	FallbackWarning bool `mapstructure:"fallback_warning"`
	BatchingRules   bool `mapstructure:"batching_rules"`
}

// RuntimeConfig controls the CPU kernels.
type RuntimeConfig struct {
	Parallel bool `mapstructure:"parallel"`
	Workers  int  `mapstructure:"workers"`
}

// LogConfig controls klog verbosity.
type LogConfig struct {
	Verbosity int `mapstructure:"verbosity"`
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Vmap: VmapConfig{
			FallbackEnabled: true,
			FallbackWarning: true,
			BatchingRules:   true,
		},
		Runtime: RuntimeConfig{
			Parallel: true,
			Workers:  runtime.NumCPU(),
		},
		Log: LogConfig{
			Verbosity: 0,
		},
	}
}

// RegisterFlags adds one flag per setting to fs.
func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.Bool("vmap-fallback-enabled", defaults.Vmap.FallbackEnabled, "Allow operators without a batching rule to run through the per-example fallback")
	fs.Bool("vmap-fallback-warning", defaults.Vmap.FallbackWarning, "Warn once per operator that takes the per-example fallback")
	fs.Bool("vmap-batching-rules", defaults.Vmap.BatchingRules, "Register the built-in batching rules for pointwise operators")
	fs.Bool("runtime-parallel", defaults.Runtime.Parallel, "Split large CPU kernel loops across goroutines")
	fs.Int("runtime-workers", defaults.Runtime.Workers, "Number of goroutines used by CPU kernels")
	fs.Int("log-verbosity", defaults.Log.Verbosity, "klog verbosity level")
}

// Load resolves every setting from, in decreasing precedence: flags set on
// the command line, BORN_* environment variables, the config file, and
// opts.Defaults. Without opts.ConfigFile, ./born.{yaml,json,toml} is read
// when present.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("BORN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("born")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Runtime.Workers < 1 {
		return Config{}, fmt.Errorf("runtime.workers must be at least 1, got %d", cfg.Runtime.Workers)
	}
	return cfg, nil
}

// Apply pushes the vmap settings into the process-wide fallback flags.
func Apply(cfg Config) {
	vmap.SetFallbackEnabled(cfg.Vmap.FallbackEnabled)
	vmap.SetFallbackWarningEnabled(cfg.Vmap.FallbackWarning)
}

// ParallelConfig returns the kernel parallelism settings.
func (c RuntimeConfig) ParallelConfig() parallel.Config {
	if !c.Parallel {
		return parallel.Sequential()
	}
	cfg := parallel.DefaultConfig()
	cfg.Enabled = c.Workers > 1
	cfg.NumWorkers = c.Workers
	return cfg
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("vmap.fallback_enabled", c.Vmap.FallbackEnabled)
	v.SetDefault("vmap.fallback_warning", c.Vmap.FallbackWarning)
	v.SetDefault("vmap.batching_rules", c.Vmap.BatchingRules)
	v.SetDefault("runtime.parallel", c.Runtime.Parallel)
	v.SetDefault("runtime.workers", c.Runtime.Workers)
	v.SetDefault("log.verbosity", c.Log.Verbosity)
}

// flagKeys maps each flag registered by RegisterFlags to its config key.
var flagKeys = map[string]string{
	"vmap-fallback-enabled": "vmap.fallback_enabled",
	"vmap-fallback-warning": "vmap.fallback_warning",
	"vmap-batching-rules":   "vmap.batching_rules",
	"runtime-parallel":      "runtime.parallel",
	"runtime-workers":       "runtime.workers",
	"log-verbosity":         "log.verbosity",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
