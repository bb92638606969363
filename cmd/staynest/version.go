package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrygo/staynest/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build version information",
	// Skip the root hook, no configuration is needed.
	PersistentPreRun: func(_ *cobra.Command, _ []string) {},
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.StringFull())
	},
}
