package main

import (
	"fmt"
	"os"

	"github.com/gonano/nanogo/cmd/nanogo/commands"
	"github.com/gonano/nanogo/config"
	"github.com/gonano/nanogo/libs/log"
)

func main() {
	conf := config.DefaultConfig()
	logger, err := log.NewDefaultLogger(conf.LogFormat, conf.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := commands.RootCommand(conf, logger)
	rootCmd.AddCommand(commands.VersionCmd, commands.NewStartCmd(conf, logger))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
