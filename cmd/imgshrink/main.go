package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hsuyc/imgshrink/internal/i18n"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "imgshrink",
	Short:   "imgshrink - batch image recompression with backups",
	Long:    "imgshrink walks a folder of images, backs each one up and recompresses it in place, then reports the savings.",
	Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(
		versionCmd(),
		runCmd(),
		langsCmd(),
	)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("imgshrink %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		},
	}
}

func langsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List built-in report languages",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(strings.Join(i18n.Locales(), "\n"))
		},
	}
}
