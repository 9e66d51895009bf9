package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the ingestion queue worker",
	Long: `Drains the ingestion job queue until interrupted. Failed jobs are
logged and discarded; the worker itself never exits on a bad job.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.ingestor.Setup(ctx); err != nil {
		return fmt.Errorf("prepare vector index: %w", err)
	}

	if err := a.worker.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
