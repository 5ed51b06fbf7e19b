package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gostrips/pkg/fstrips"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gostrips version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gostrips %s (%s)\n", fstrips.GetVersion(), runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
