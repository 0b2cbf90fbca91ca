// Command extract runs work-order extraction from the command line, for one text or a spreadsheet batch.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"workorder-intake-go/internal/app"
	"workorder-intake-go/internal/config"
	"workorder-intake-go/internal/logger"
)

// builder loads config, applies an optional override and wires the extraction chain.
type builder func(cmd *cobra.Command, override func(*config.Config)) (*app.App, error)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "extract",
		Short:         "Turn free-text job descriptions into structured work orders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "Path to YAML config file")

	var build builder = func(cmd *cobra.Command, override func(*config.Config)) (*app.App, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if override != nil {
			override(&cfg)
		}
		return app.Build(cmd.Context(), cfg, logger.NewWithWriter(cmd.ErrOrStderr()), prometheus.NewRegistry())
	}

	root.AddCommand(newTextCmd(build), newBatchCmd(build))
	return root
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
