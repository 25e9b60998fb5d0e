package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/price-truth/internal/db"
	"github.com/sells-group/price-truth/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply store schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		switch cfg.Store.Driver {
		case "sqlite":
			dsn := cfg.Store.DatabaseURL
			if dsn == "" {
				dsn = "price-truth.db"
			}
			st, err := store.NewSQLite(dsn)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return err
			}
		default:
			pool, err := db.NewPool(ctx, cfg.Store.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := store.MigratePostgres(ctx, pool); err != nil {
				return err
			}
		}

		zap.L().Info("migrations applied", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
