package bootstrap

import "time"

// Config is every tunable the design enumerates for the bootstrap service,
// wired into the node's top-level config as BootstrapAscendingConfig.
type Config struct {
	Enable  bool
	Threads uint

	ChannelLimit uint32

	RateLimit         float64 // per-second, general source
	DatabaseRateLimit float64
	FrontierRateLimit float64

	RequestTimeout time.Duration
	Cooldown       time.Duration

	ThrottleCoefficient float64

	BlockProcessorThreshold int

	PriorityInitial  float64
	PriorityIncrease float64
	PriorityDecrease float64
	PriorityMax      float64
	PriorityCutoff   float64
	MaxFails         uint32
	PriorityCapacity int
	BlockingCapacity int

	MaxPullCount uint32

	SyncDependenciesInterval time.Duration

	FrontierScan FrontierScanConfig

	// ResponseWorkers sizes the small pool draining the network's inbound
	// envelope channel.
	ResponseWorkers int
}

// DefaultConfig returns conservative defaults in the same spirit as
// the design's indicative values.
func DefaultConfig() Config {
	return Config{
		Enable:                  true,
		Threads:                 5,
		ChannelLimit:            16,
		RateLimit:               64,
		DatabaseRateLimit:       10,
		FrontierRateLimit:       8,
		RequestTimeout:          15 * time.Second,
		Cooldown:                3 * time.Second,
		ThrottleCoefficient:     8,
		BlockProcessorThreshold: 1000,
		PriorityInitial:         2.0,
		PriorityIncrease:        2.0,
		PriorityDecrease:        0.5,
		PriorityMax:             32.0,
		PriorityCutoff:          0.15,
		MaxFails:                6,
		PriorityCapacity:        65536,
		BlockingCapacity:        65536,
		MaxPullCount:            128,
		SyncDependenciesInterval: 30 * time.Second,
		FrontierScan: FrontierScanConfig{
			HeadParallelism: 4,
			MaxRetries:      4,
		},
		ResponseWorkers: 4,
	}
}

func (c Config) accountSetsConfig() AccountSetsConfig {
	return AccountSetsConfig{
		PriorityInitial:  c.PriorityInitial,
		PriorityIncrease: c.PriorityIncrease,
		PriorityDecrease: c.PriorityDecrease,
		PriorityMax:      c.PriorityMax,
		PriorityCutoff:   c.PriorityCutoff,
		MaxFails:         c.MaxFails,
		Cooldown:         c.Cooldown,
		PriorityCapacity: c.PriorityCapacity,
		BlockingCapacity: c.BlockingCapacity,
	}
}
