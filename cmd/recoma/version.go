package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/recoma"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of recoma",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("recoma version %s\n", strings.TrimSpace(recoma.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
