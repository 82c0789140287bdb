package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"benchkit/stage-engine/api/rest"
	"benchkit/stage-engine/internal/config"
	"benchkit/stage-engine/internal/sequencer"
	"benchkit/stage-engine/pkg/engine"
	"benchkit/stage-engine/pkg/logger"
	"benchkit/stage-engine/pkg/types"
)

var (
	runDuration int
	runWarmup   int
	runDelay    int
	runAPIAddr  string
)

var runCmd = &cobra.Command{
	Use:   "run <config.yaml>",
	Short: "Execute a run configuration",
	Long: `Execute the stage sequence described by a run configuration file.

The stages run in fixed order: pre, start, then the engine waits out the
measurement window (delay + warmup + duration), then stop and post. The
post stage always runs, even after a failure.`,
	Example: `  # Basic run
  stage-engine run run.yaml

  # Override the window parameters (seconds)
  stage-engine run -d 300 --warmup 30 run.yaml

  # Expose the control API while running
  stage-engine run --api :8080 run.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runDuration, "duration", "d", 0, "measurement duration in seconds (overrides config)")
	runCmd.Flags().IntVar(&runWarmup, "warmup", -1, "warmup in seconds (overrides config)")
	runCmd.Flags().IntVar(&runDelay, "delay", -1, "start delay in seconds (overrides config)")
	runCmd.Flags().StringVar(&runAPIAddr, "api", "", "serve the control API on this address")
}

func runConfig(cmd *cobra.Command, args []string) error {
	configPath := args[0]

	cfg, err := config.ParseFile(configPath)
	if err != nil {
		return err
	}
	applyOverrides(cfg)

	if cfg.LogLevel != "" && !debug && !quiet {
		logger.SetLevelFromString(cfg.LogLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "\nreceived %s, aborting run...\n", sig)
		eng.Abort(fmt.Sprintf("received signal %s", sig))
	}()

	var apiServer *rest.Server
	if addr := apiAddress(cfg); addr != "" {
		apiCfg := rest.DefaultConfig()
		apiCfg.Address = addr
		apiServer = rest.NewServer(eng, apiCfg)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("control API server failed: %v", err)
			}
		}()
		defer apiServer.Shutdown()
	}

	if !quiet {
		printRunInfo(cfg, configPath)
	}

	report, runErr := eng.Run(ctx)

	if !quiet && report != nil {
		printRunOutcome(report)
	}

	if runErr != nil {
		var aborted *sequencer.AbortError
		if errors.As(runErr, &aborted) {
			return fmt.Errorf("run aborted: %s", aborted.Reason)
		}
		return runErr
	}
	return nil
}

// applyOverrides applies command line window overrides to the config.
func applyOverrides(cfg *config.File) {
	if runDuration > 0 {
		cfg.Control.Duration = runDuration
	}
	if runWarmup >= 0 {
		cfg.Control.Warmup = runWarmup
	}
	if runDelay >= 0 {
		cfg.Control.Delay = runDelay
	}
}

// apiAddress resolves the control API address, flag over config.
func apiAddress(cfg *config.File) string {
	if runAPIAddr != "" {
		return runAPIAddr
	}
	if cfg.API != nil && cfg.API.Enabled {
		if cfg.API.Address != "" {
			return cfg.API.Address
		}
		return rest.DefaultConfig().Address
	}
	return ""
}

func printRunInfo(cfg *config.File, path string) {
	fmt.Printf(Banner, Version)
	fmt.Println()
	fmt.Printf("  Configuration: %s\n", path)
	stages := cfg.Stages()
	for _, stage := range types.StageOrder {
		fmt.Printf("  %-5s tasks: %d\n", stage, len(stages.Stage(stage)))
	}
	fmt.Printf("  Window: delay=%ds warmup=%ds duration=%ds\n",
		cfg.Control.Delay, cfg.Control.Warmup, cfg.Control.Duration)
	fmt.Println()
}

func printRunOutcome(report *types.RunReport) {
	fmt.Println()
	fmt.Printf("Run %s: %s", report.RunID, report.Status)
	if report.Message != "" {
		fmt.Printf(" (%s)", report.Message)
	}
	fmt.Println()
}
