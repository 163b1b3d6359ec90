package config

import (
	"bytes"
	"path/filepath"
	"text/template"

	tmos "github.com/gonano/nanogo/libs/os"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

var configTemplate *template.Template

func init() {
	tmpl := template.New("configFileTemplate")
	var err error
	if configTemplate, err = tmpl.Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

// EnsureRoot creates the root, config, and data directories if they don't
// exist, and panics if it fails.
func EnsureRoot(rootDir string) {
	if err := tmos.EnsureDir(rootDir, defaultDirPerm); err != nil {
		panic(err.Error())
	}
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultConfigDir), defaultDirPerm); err != nil {
		panic(err.Error())
	}
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultDataDir), defaultDirPerm); err != nil {
		panic(err.Error())
	}
}

// WriteConfigFile renders config using the template and writes it to the
// default config file path under rootDir.
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(filepath.Join(rootDir, defaultConfigFilePath))
}

// WriteToTemplate writes the config to the exact file specified by path, in
// the default TOML template, without mangling the path.
func (cfg *Config) WriteToTemplate(path string) error {
	var buffer bytes.Buffer
	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}
	return tmos.WriteFile(path, buffer.Bytes(), 0644)
}

func writeDefaultConfigFileIfNone(rootDir string) error {
	configFilePath := filepath.Join(rootDir, defaultConfigFilePath)
	if !tmos.FileExists(configFilePath) {
		return WriteConfigFile(rootDir, DefaultConfig())
	}
	return nil
}

// Note: any changes to the comments/variables/mapstructure tags must be
// reflected in the appropriate struct in config/config.go.
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/nanogo/data") or
# relative to the home directory (e.g. "data"). The home directory is
# set via the --home flag or the NANOGO_HOME env var.

#######################################################################
###                   Main Base Config Options                      ###
#######################################################################

# A custom human readable name for this node
moniker = "{{ .BaseConfig.Moniker }}"

# Output level for logging: trace | debug | info | warn | error | none
log_level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log_format = "{{ .BaseConfig.LogFormat }}"

# Database backend: goleveldb | memdb | badgerdb
db_backend = "{{ .BaseConfig.DBBackend }}"

# Database directory
db_dir = "{{ .BaseConfig.DBPath }}"

#######################################################################
###                 Bootstrap Ascending Config Options               ###
#######################################################################

[bootstrap_ascending]

# Enables the account-chain bootstrap service
enable = {{ .BootstrapAscending.Enable }}

# Number of producer threads driving the bootstrap pipeline
threads = {{ .BootstrapAscending.Threads }}

# Maximum outstanding requests per peer channel
channel_limit = {{ .BootstrapAscending.ChannelLimit }}

# Requests per second, general/priority source
rate_limit = {{ .BootstrapAscending.RateLimit }}

# Requests per second, database-revisit source
database_rate_limit = {{ .BootstrapAscending.DatabaseRateLimit }}

# Requests per second, frontier-scan source
frontier_rate_limit = {{ .BootstrapAscending.FrontierRateLimit }}

# How long an in-flight tag may go unanswered before it's reaped
request_timeout = "{{ .BootstrapAscending.RequestTimeout }}"

# Minimum time an account must sit idle in the priority set before it is
# eligible to be picked again
cooldown = "{{ .BootstrapAscending.Cooldown }}"

# Scales the database-revisit throttle window against sqrt(block_count)
throttle_coefficient = {{ .BootstrapAscending.ThrottleCoefficient }}

# Suspend new requests while the block processor's queue is at or above
# this many pending blocks
block_processor_threshold = {{ .BootstrapAscending.BlockProcessorThreshold }}

priority_initial  = {{ .BootstrapAscending.PriorityInitial }}
priority_increase = {{ .BootstrapAscending.PriorityIncrease }}
priority_decrease = {{ .BootstrapAscending.PriorityDecrease }}
priority_max      = {{ .BootstrapAscending.PriorityMax }}
priority_cutoff   = {{ .BootstrapAscending.PriorityCutoff }}
max_fails         = {{ .BootstrapAscending.MaxFails }}
priority_capacity = {{ .BootstrapAscending.PriorityCapacity }}
blocking_capacity = {{ .BootstrapAscending.BlockingCapacity }}

# Maximum blocks requested in a single blocks_by_account/blocks_by_hash pull
max_pull_count = {{ .BootstrapAscending.MaxPullCount }}

# How often the cleanup thread re-checks blocking accounts against the
# ledger's confirmed blocks
sync_dependencies_interval = "{{ .BootstrapAscending.SyncDependenciesInterval }}"

# Number of independent ranges the frontier scan partitions the account-id
# space into
frontier_head_parallelism = {{ .BootstrapAscending.FrontierHeadParallelism }}

# Retries before a frontier head resets to the start of its range
frontier_max_retries = {{ .BootstrapAscending.FrontierMaxRetries }}

# Size of the worker pool draining inbound asc_pull_ack responses
response_workers = {{ .BootstrapAscending.ResponseWorkers }}
`
