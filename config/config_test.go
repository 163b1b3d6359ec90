package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NotNil(t, cfg.BootstrapAscending)

	cfg.SetRoot("/foo")
	cfg.DBPath = "data"
	assert.Equal(t, "/foo/data", cfg.DBDir())

	cfg.DBPath = "/opt/data"
	assert.Equal(t, "/opt/data", cfg.DBDir())
}

func TestConfigValidateBasic(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.ValidateBasic())

	cfg.BootstrapAscending.ChannelLimit = 0
	assert.Error(t, cfg.ValidateBasic())
}

func TestBaseConfigValidateBasic(t *testing.T) {
	cfg := TestBaseConfig()
	assert.NoError(t, cfg.ValidateBasic())

	cfg.LogFormat = "invalid"
	assert.Error(t, cfg.ValidateBasic())
}

func TestBootstrapAscendingConfigValidateBasic(t *testing.T) {
	cfg := DefaultBootstrapAscendingConfig()
	assert.NoError(t, cfg.ValidateBasic())

	cfg.RateLimit = 0
	assert.Error(t, cfg.ValidateBasic())
	cfg.RateLimit = DefaultBootstrapAscendingConfig().RateLimit

	cfg.PriorityCutoff = cfg.PriorityInitial
	assert.Error(t, cfg.ValidateBasic())
}

func TestBootstrapAscendingConfigToBootstrapConfig(t *testing.T) {
	cfg := DefaultBootstrapAscendingConfig()
	bc := cfg.ToBootstrapConfig()
	assert.Equal(t, cfg.ChannelLimit, bc.ChannelLimit)
	assert.Equal(t, cfg.FrontierHeadParallelism, bc.FrontierScan.HeadParallelism)
}
