// Package cli wires the application together behind its cobra
// commands: an API server, a queue worker and a one-shot ingestion
// run.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/maanavnair/synapse/internal/config"
	"github.com/maanavnair/synapse/internal/logger"
)

var (
	cfgFile string
	cfg     config.Config
	log     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "synapse",
	Short: "Repository ingestion and retrieval service",
	Long: `Synapse ingests GitHub repositories into a project-partitioned
vector index and answers natural-language questions about their code.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		log = logger.New(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
