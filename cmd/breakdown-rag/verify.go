package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/ledger"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/transfer"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/vectorstore"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Compare ledger counts with the point counts of every collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runVerify(cmd.Context())
		},
	}
}

func (a *app) runVerify(ctx context.Context) error {
	cfg, logger, err := a.setup(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	state, err := ledger.LoadState(cfg.LedgerPath, logger)
	if err != nil {
		return err
	}

	store := vectorstore.NewQdrantStore(*cfg.Qdrant, logger)
	verifier := transfer.NewVerifier(store, transfer.NewRouter(cfg.Plants), logger)
	reports := verifier.VerifyAll(ctx, state)
	fmt.Fprint(a.stdout, verifier.GenerateVerificationReport(reports))

	for _, r := range reports {
		if r.Error != "" || (r.CollectionExists && !r.CountMatches) || (!r.CollectionExists && r.LedgerCount > 0) {
			return fmt.Errorf("verification found discrepancies")
		}
	}
	return nil
}
