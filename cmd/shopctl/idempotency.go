package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dejobratic/skinstore/internal/config"
	"github.com/dejobratic/skinstore/internal/database"
	"github.com/dejobratic/skinstore/internal/idempotency"
)

func idempotencyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "idempotency",
		Short: "Maintain the Idempotency-Key replay store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete replay entries older than IDEMPOTENCY_TTL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			var pool *pgxpool.Pool
			if e.cfg.Idempotency.Backend == config.IdempotencyBackendPostgres {
				pool, err = database.NewPool(cmd.Context(), e.cfg.Database.URL)
				if err != nil {
					return err
				}
				e.closers = append(e.closers, pool.Close)
			}

			store, closeStore, err := idempotency.Open(cmd.Context(), e.cfg, pool)
			if err != nil {
				return err
			}
			e.closers = append(e.closers, closeStore)

			removed, err := store.Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired key(s) from %s\n", removed, e.cfg.Idempotency.Backend)
			return nil
		},
	})

	return cmd
}
