package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("formlab %s (commit %s, built %s, %s %s/%s)\n",
				version, commit, date,
				runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
