// Package commands implements the nanogo command-line entry points,
// wiring config, logging, the ledger store, the block processor and the
// bootstrap service together.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gonano/nanogo/config"
	"github.com/gonano/nanogo/libs/cli"
	"github.com/gonano/nanogo/libs/log"
)

const envPrefix = "NANOGO"

// ParseConfig unmarshals viper's bound flags/config file into conf, sets
// its root directory and validates it.
func ParseConfig(conf *config.Config) (*config.Config, error) {
	if err := viper.Unmarshal(conf); err != nil {
		return nil, err
	}
	conf.SetRoot(conf.RootDir)
	if err := conf.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("error in config file: %w", err)
	}
	return conf, nil
}

// RootCommand constructs the root command-line entry point for nanogo.
func RootCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nanogo",
		Short: "account-chain bootstrap node for a block-lattice ledger",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == VersionCmd.Name() {
				return nil
			}
			if err := cli.BindFlagsLoadViper(cmd, args); err != nil {
				return err
			}
			pconf, err := ParseConfig(conf)
			if err != nil {
				return err
			}
			*conf = *pconf
			config.EnsureRoot(conf.RootDir)
			logger.Debug("loaded config", "home", conf.RootDir, "moniker", conf.Moniker)
			return nil
		},
	}
	cmd.PersistentFlags().StringP(cli.HomeFlag, "", defaultHome(), "directory for config and data")
	cmd.PersistentFlags().String("log-level", conf.LogLevel, "log level")
	cmd.PersistentFlags().String("log-format", conf.LogFormat, "log output format (plain|json)")
	cobra.OnInitialize(func() { cli.InitEnv(envPrefix) })
	return cmd
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nanogo"
	}
	return home + "/.nanogo"
}
