// Command levelusctl is an offline companion to the LevelUs service: it normalizes analysis
// responses, replays the demo meeting and uploads recordings for analysis.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pkglogger "github.com/johnquangdev/levelus/pkg/logger"
)

// Global flags
var (
	outputFormat string
	debug        bool
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "levelusctl",
		Short:         "LevelUs meeting tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatJSON, "Output format: json, yaml")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(newNormalizeCommand())
	root.AddCommand(newReplayCommand())
	root.AddCommand(newUploadCommand())
	return root
}

// newLogger returns a development logger with --debug and a no-op logger otherwise
func newLogger() *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	logger, err := pkglogger.New("development")
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
