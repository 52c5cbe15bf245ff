package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/smoc"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of smoc",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("smoc version %s\n", strings.TrimSpace(smoc.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
