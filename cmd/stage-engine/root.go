package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"benchkit/stage-engine/pkg/logger"
)

const (
	// Version is the current version number.
	Version = "0.1.0"
	// Banner is the ASCII art shown at startup.
	Banner = `
  ___ _                    ___           _
 / __| |_ __ _ __ _ ___   | __|_ _  __ _(_)_ _  ___
 \__ \  _/ _` + "`" + ` / _` + "`" + ` / -_)  | _|| ' \/ _` + "`" + ` | | ' \/ -_)
 |___/\__\__,_\__, \___|  |___|_||_\__, |_|_||_\___|  %s
              |___/                |___/
`
)

var (
	debug bool
	quiet bool
)

var rootCmd = &cobra.Command{
	Use:   "stage-engine",
	Short: "Staged task orchestration around a measurement window",
	Long: `stage-engine runs configured tasks in four ordered stages (pre, start,
stop, post) around a timed measurement window. Tasks can execute
processes, shell commands or HTTP requests, synchronously or in the
background.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			logger.EnableDebug()
		}
		if quiet {
			logger.SetLevelFromString("error")
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.SetVersionTemplate(fmt.Sprintf(Banner, Version) + "\n")
}
