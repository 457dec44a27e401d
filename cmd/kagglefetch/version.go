package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"kagglefetch/pkg/ui"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ui.PrintBanner()
		fmt.Printf("kagglefetch %s\n", version)
		fmt.Printf("Commit: %s\n", gitCommit)
		fmt.Printf("Built: %s\n", buildDate)
		fmt.Printf("Go Version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
