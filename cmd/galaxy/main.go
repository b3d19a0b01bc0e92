package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lao-tseu-is-alive/go-galaxy-simulation/internal/simulation"
	"github.com/spf13/cobra"
	golog "github.com/tochemey/goakt/v3/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "galaxy",
		Short:         "Barnes-Hut N-body galaxy simulation",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	f := root.PersistentFlags()
	f.StringP("config", "c", "", "JSON config file, built-in defaults when empty")
	f.Int("steps", 0, "number of steps, 0 runs until every star escaped")
	f.Int("stars", 0, "number of stars")
	f.Int("workers", 0, "worker goroutines, 0 uses every CPU")
	f.Uint64("seed", 0, "random seed of the initial galaxy")
	f.String("out", "", "snapshot directory")
	f.String("format", "", "snapshot format: text, msgpack or none")
	f.Float64("precision", 0, "Barnes-Hut opening angle, 0 sums every pair")

	root.AddCommand(newRunCmd(), newConfigCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation and write one snapshot per step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := effectiveConfig(cmd)
			if err != nil {
				return err
			}
			level := golog.InfoLevel
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				level = golog.DebugLevel
			}
			logger := golog.New(level, os.Stdout)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner, err := simulation.NewRunner(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := runner.Stop(context.Background()); err != nil {
					logger.Errorf("failed to stop the actor system: %v", err)
				}
			}()
			return runner.Run(ctx)
		},
	}
	cmd.Flags().Bool("debug", false, "log every step")
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := effectiveConfig(cmd)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}

// effectiveConfig loads the config file (or the defaults) and applies the flags that
// were set explicitly.
func effectiveConfig(cmd *cobra.Command) (*simulation.Config, error) {
	flags := cmd.Flags()
	cfg := simulation.DefaultConfig()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := simulation.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flags.Changed("steps") {
		cfg.MaxIterations, _ = flags.GetInt("steps")
	}
	if flags.Changed("stars") {
		cfg.StarsNumber, _ = flags.GetInt("stars")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("out") {
		cfg.OutputDir, _ = flags.GetString("out")
	}
	if flags.Changed("format") {
		cfg.SnapshotFormat, _ = flags.GetString("format")
	}
	if flags.Changed("precision") {
		cfg.Precision, _ = flags.GetFloat64("precision")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
