package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/ghl-ops/internal/di"
	"github.com/mikey/ghl-ops/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

var flags di.CLIFlags

var container *dig.Container

var rootCmd = &cobra.Command{
	Use:           "ghl-ops",
	Short:         "ghl-ops manages GoHighLevel contacts, tags and workflows from email and CSV exports.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := di.BuildCLIContainer(&flags)
		if err != nil {
			return fmt.Errorf("failed to build dependency container: %w", err)
		}
		container = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if container != nil {
			_ = container.Invoke(func(logger *zap.Logger) { _ = logger.Sync() })
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flags.JSONLog, "json-log", false, "write logs as JSON")
}

// Execute runs the root command, cancelling on SIGINT/SIGTERM
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// invoke runs fn with its arguments resolved from the container
func invoke(fn any) error {
	return container.Invoke(fn)
}

// addOutputFlags registers --format and --out on cmd
func addOutputFlags(cmd *cobra.Command, format, out *string) {
	cmd.Flags().StringVarP(format, "format", "f", "table", "output format: table, json or csv")
	cmd.Flags().StringVarP(out, "out", "o", "", "write output to a file instead of stdout")
}

// output resolves --format and --out. The returned close func must be called.
func output(format, path string) (report.Format, io.Writer, func() error, error) {
	f, err := report.ParseFormat(format)
	if err != nil {
		return "", nil, nil, err
	}
	if path == "" {
		return f, os.Stdout, func() error { return nil }, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, file, file.Close, nil
}
