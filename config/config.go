// Package config defines nanogo's node configuration, loaded via
// spf13/viper from a TOML file generated by config/toml.go, the same
// BaseConfig-plus-subsection shape as the classic config/config.go, with
// every section unrelated to this node's scope (RPC, P2P, mempool,
// consensus, tx index, instrumentation) dropped in favor of one nested
// BootstrapAscendingConfig carrying the design's tunables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gonano/nanogo/internal/bootstrap"
)

const (
	// LogFormatPlain is a format for colored text.
	LogFormatPlain = "plain"
	// LogFormatJSON is a format for json output.
	LogFormatJSON = "json"
)

var (
	defaultConfigDir = "config"
	defaultDataDir   = "data"

	defaultConfigFileName = "config.toml"
	defaultConfigFilePath = filepath.Join(defaultConfigDir, defaultConfigFileName)
)

// Config is the top-level configuration for a nanogo node.
type Config struct {
	BaseConfig `mapstructure:",squash"`

	BootstrapAscending *BootstrapAscendingConfig `mapstructure:"bootstrap_ascending"`
}

// DefaultConfig returns a configuration with every section at its default
// value.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:         DefaultBaseConfig(),
		BootstrapAscending: DefaultBootstrapAscendingConfig(),
	}
}

// TestConfig returns a configuration suited to in-process tests: an
// in-memory database backend and a faster bootstrap cadence.
func TestConfig() *Config {
	cfg := DefaultConfig()
	cfg.BaseConfig = TestBaseConfig()
	cfg.BootstrapAscending.RequestTimeout = 2 * time.Second
	cfg.BootstrapAscending.Cooldown = 200 * time.Millisecond
	return cfg
}

// SetRoot sets RootDir on every section that carries one.
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic bounds/enum validation, returning the first
// error found.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.BootstrapAscending.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [bootstrap_ascending] section: %w", err)
	}
	return nil
}

// BaseConfig holds the options every node needs regardless of which
// subsystems are enabled: where it stores data, and how it logs.
type BaseConfig struct {
	// RootDir is set by viper from --home/the NANOGO_HOME env var before
	// the rest of the config is unmarshaled.
	RootDir string `mapstructure:"home"`

	// Moniker is a human-readable name for this node, used only in logs.
	Moniker string `mapstructure:"moniker"`

	// LogLevel is a zerolog level name (trace/debug/info/warn/error/none).
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is "plain" or "json".
	LogFormat string `mapstructure:"log_format"`

	// DBBackend names the tm-db backend: goleveldb | memdb | badgerdb.
	DBBackend string `mapstructure:"db_backend"`

	// DBPath is the ledger database directory, relative to RootDir unless
	// absolute.
	DBPath string `mapstructure:"db_dir"`
}

// DefaultBaseConfig returns the default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		Moniker:   defaultMoniker,
		LogLevel:  "info",
		LogFormat: LogFormatPlain,
		DBBackend: "goleveldb",
		DBPath:    "data",
	}
}

// TestBaseConfig returns a base configuration for in-process tests.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.DBBackend = "memdb"
	return cfg
}

// DBDir returns the full path to the ledger database directory.
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ValidateBasic checks LogFormat is a recognized value.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return errors.New("unknown log_format (must be 'plain' or 'json')")
	}
	return nil
}

// BootstrapAscendingConfig mirrors internal/bootstrap.Config, giving every
// service tunable a TOML/viper binding. ToBootstrapConfig converts it to
// the type the service actually consumes.
type BootstrapAscendingConfig struct {
	Enable  bool `mapstructure:"enable"`
	Threads uint `mapstructure:"threads"`

	ChannelLimit uint32 `mapstructure:"channel_limit"`

	RateLimit         float64 `mapstructure:"rate_limit"`
	DatabaseRateLimit float64 `mapstructure:"database_rate_limit"`
	FrontierRateLimit float64 `mapstructure:"frontier_rate_limit"`

	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Cooldown       time.Duration `mapstructure:"cooldown"`

	ThrottleCoefficient float64 `mapstructure:"throttle_coefficient"`

	BlockProcessorThreshold int `mapstructure:"block_processor_threshold"`

	PriorityInitial  float64 `mapstructure:"priority_initial"`
	PriorityIncrease float64 `mapstructure:"priority_increase"`
	PriorityDecrease float64 `mapstructure:"priority_decrease"`
	PriorityMax      float64 `mapstructure:"priority_max"`
	PriorityCutoff   float64 `mapstructure:"priority_cutoff"`
	MaxFails         uint32  `mapstructure:"max_fails"`
	PriorityCapacity int     `mapstructure:"priority_capacity"`
	BlockingCapacity int     `mapstructure:"blocking_capacity"`

	MaxPullCount uint32 `mapstructure:"max_pull_count"`

	SyncDependenciesInterval time.Duration `mapstructure:"sync_dependencies_interval"`

	FrontierHeadParallelism int `mapstructure:"frontier_head_parallelism"`
	FrontierMaxRetries      int `mapstructure:"frontier_max_retries"`

	ResponseWorkers int `mapstructure:"response_workers"`
}

// DefaultBootstrapAscendingConfig returns the design's indicative defaults,
// sourced from internal/bootstrap.DefaultConfig so the two never drift.
func DefaultBootstrapAscendingConfig() *BootstrapAscendingConfig {
	d := bootstrap.DefaultConfig()
	return &BootstrapAscendingConfig{
		Enable:                   d.Enable,
		Threads:                  d.Threads,
		ChannelLimit:             d.ChannelLimit,
		RateLimit:                d.RateLimit,
		DatabaseRateLimit:        d.DatabaseRateLimit,
		FrontierRateLimit:        d.FrontierRateLimit,
		RequestTimeout:           d.RequestTimeout,
		Cooldown:                 d.Cooldown,
		ThrottleCoefficient:      d.ThrottleCoefficient,
		BlockProcessorThreshold:  d.BlockProcessorThreshold,
		PriorityInitial:          d.PriorityInitial,
		PriorityIncrease:         d.PriorityIncrease,
		PriorityDecrease:         d.PriorityDecrease,
		PriorityMax:              d.PriorityMax,
		PriorityCutoff:           d.PriorityCutoff,
		MaxFails:                 d.MaxFails,
		PriorityCapacity:         d.PriorityCapacity,
		BlockingCapacity:         d.BlockingCapacity,
		MaxPullCount:             d.MaxPullCount,
		SyncDependenciesInterval: d.SyncDependenciesInterval,
		FrontierHeadParallelism:  d.FrontierScan.HeadParallelism,
		FrontierMaxRetries:       d.FrontierScan.MaxRetries,
		ResponseWorkers:          d.ResponseWorkers,
	}
}

// ToBootstrapConfig converts to internal/bootstrap.Config.
func (c *BootstrapAscendingConfig) ToBootstrapConfig() bootstrap.Config {
	return bootstrap.Config{
		Enable:                  c.Enable,
		Threads:                 c.Threads,
		ChannelLimit:            c.ChannelLimit,
		RateLimit:               c.RateLimit,
		DatabaseRateLimit:       c.DatabaseRateLimit,
		FrontierRateLimit:       c.FrontierRateLimit,
		RequestTimeout:          c.RequestTimeout,
		Cooldown:                c.Cooldown,
		ThrottleCoefficient:     c.ThrottleCoefficient,
		BlockProcessorThreshold: c.BlockProcessorThreshold,
		PriorityInitial:         c.PriorityInitial,
		PriorityIncrease:        c.PriorityIncrease,
		PriorityDecrease:        c.PriorityDecrease,
		PriorityMax:             c.PriorityMax,
		PriorityCutoff:          c.PriorityCutoff,
		MaxFails:                c.MaxFails,
		PriorityCapacity:        c.PriorityCapacity,
		BlockingCapacity:        c.BlockingCapacity,
		MaxPullCount:            c.MaxPullCount,
		SyncDependenciesInterval: c.SyncDependenciesInterval,
		FrontierScan: bootstrap.FrontierScanConfig{
			HeadParallelism: c.FrontierHeadParallelism,
			MaxRetries:      c.FrontierMaxRetries,
		},
		ResponseWorkers: c.ResponseWorkers,
	}
}

// ValidateBasic checks the tunables most likely to be hand-edited into
// nonsense: rates and capacities must be positive, priority bounds must be
// ordered correctly.
func (c *BootstrapAscendingConfig) ValidateBasic() error {
	if c.ChannelLimit == 0 {
		return errors.New("channel_limit must be positive")
	}
	if c.RateLimit <= 0 || c.DatabaseRateLimit <= 0 || c.FrontierRateLimit <= 0 {
		return errors.New("rate limits must be positive")
	}
	if c.PriorityInitial <= 0 || c.PriorityMax < c.PriorityInitial {
		return errors.New("priority_max must be >= priority_initial > 0")
	}
	if c.PriorityCutoff <= 0 || c.PriorityCutoff >= c.PriorityInitial {
		return errors.New("priority_cutoff must be in (0, priority_initial)")
	}
	if c.FrontierHeadParallelism <= 0 {
		return errors.New("frontier_head_parallelism must be positive")
	}
	if c.ResponseWorkers <= 0 {
		return errors.New("response_workers must be positive")
	}
	return nil
}

// rootify makes path independent of the working directory: absolute paths
// pass through, relative ones resolve against root.
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

var defaultMoniker = getDefaultMoniker()

// getDefaultMoniker returns the host name, falling back to "anonymous" if
// the runtime can't determine it.
func getDefaultMoniker() string {
	moniker, err := os.Hostname()
	if err != nil {
		moniker = "anonymous"
	}
	return moniker
}
