package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags; it defaults to "dev" for
// source builds.
var Version = "dev"

// VersionCmd prints the nanogo version and exits without touching config
// or viper, so it works even with no home directory set up.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the nanogo version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}
