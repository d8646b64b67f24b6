package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/ledger"
)

func newLedgerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the progress ledger",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print the processed record count per collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.setup(false)
			if err != nil {
				return err
			}
			defer logger.Sync()

			state, err := ledger.LoadState(cfg.LedgerPath, logger)
			if err != nil {
				return err
			}
			printLedgerStats(a.stdout, cfg.LedgerPath, cfg.Plants, state)
			return nil
		},
	})
	return cmd
}

func printLedgerStats(w io.Writer, path string, registry *config.PlantRegistry, state *ledger.State) {
	fmt.Fprintf(w, "Ledger: %s\n", path)
	fmt.Fprintf(w, "%-8s %-22s %s\n", "TARGET", "COLLECTION", "PROCESSED")
	for _, target := range registry.Targets() {
		collection, _ := registry.CollectionFor(target)
		fmt.Fprintf(w, "%-8s %-22s %d\n", target, collection, state.Count(target))
	}
}
