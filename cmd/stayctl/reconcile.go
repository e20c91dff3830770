package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"travelly_stays/internal/adapters/backend"
	"travelly_stays/internal/app"
	"travelly_stays/internal/shared"
)

func newReconcileCmd() *cobra.Command {
	var (
		batch   int
		workers int
	)
	c := &cobra.Command{
		Use:   "reconcile",
		Short: "Retry inventory releases that commit compensation left pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := shared.Load()
			if batch <= 0 {
				batch = cfg.ReconcileBatch
			}
			if workers <= 0 {
				workers = cfg.ReconcileWorkers
			}

			ctx := cmd.Context()
			journal, db, err := openJournal(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			client, err := backend.New(cfg.BackendBase, cfg.BackendKey, cfg.BackendRPS)
			if err != nil {
				return err
			}

			log.Info().Int("batch", batch).Int("workers", workers).Msg("reconcile starting")
			res, err := app.NewReconciler(journal, client, workers).RunOnce(ctx, batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d released=%d failed=%d\n", res.Scanned, res.Released, res.Failed)
			if res.Failed > 0 {
				return fmt.Errorf("%d releases still pending", res.Failed)
			}
			return nil
		},
	}
	c.Flags().IntVar(&batch, "batch", 0, "max pending releases to process (default RECONCILE_BATCH)")
	c.Flags().IntVar(&workers, "workers", 0, "concurrent releases (default RECONCILE_WORKERS)")
	return c
}
