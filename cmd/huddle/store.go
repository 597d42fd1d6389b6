package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rallyhq/huddle/internal/config"
	"github.com/rallyhq/huddle/internal/store"
)

const storeConnectTimeout = 10 * time.Second

// newStore connects to the document store with a bounded timeout so a
// wrong URI fails fast instead of hanging startup.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
	defer cancel()
	return store.NewMongoStore(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance commands",
}

var dbPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Verify database connectivity and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := newStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer db.Close(cmd.Context())

		if err := db.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		fmt.Printf("ok: %s\n", cfg.Mongo.Database)
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbPingCmd)
	rootCmd.AddCommand(dbCmd)
}
