package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/logging"
)

// app holds state shared by every subcommand
type app struct {
	envFile string
	stdin   io.Reader
	stdout  io.Writer
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout}

	cmd := &cobra.Command{
		Use:   "breakdown-rag",
		Short: "Index machine-breakdown records and answer maintenance questions",
		Long: `breakdown-rag reads machine-breakdown records from the maintenance database,
turns them into searchable documents in per-plant vector collections, and answers
questions against them.

Examples:
  breakdown-rag ingest --dry-run
  breakdown-rag query --role MYSORE --question "Why does Press 1 keep stopping?"
  breakdown-rag verify
  breakdown-rag ledger stats`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.LoadEnvFile(a.envFile)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetIn(stdin)
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "optional .env file loaded before reading configuration")

	cmd.AddCommand(newIngestCmd(a))
	cmd.AddCommand(newQueryCmd(a))
	cmd.AddCommand(newVerifyCmd(a))
	cmd.AddCommand(newLedgerCmd(a))
	return cmd
}

// setup loads configuration and installs the global logger. withSource
// selects whether the source store settings are required.
func (a *app) setup(withSource bool) (*config.Config, *zap.Logger, error) {
	load := config.LoadServiceConfig
	if withSource {
		load = config.LoadConfig
	}
	cfg, err := load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}
