// Command qualitycheck runs the post-load integrity checks against the
// loaded billing tables and writes findings into the audit table. All checks
// and their inserts share one transaction; a failure rolls back the entire
// batch of audit rows for this run.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"billingetl/internal/config"
	"billingetl/internal/db"
	"billingetl/internal/quality"
)

func run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Printf("Connecting to a database at '%s'", cfg.DBHost+":"+cfg.DBPort)
	d, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer d.Close(ctx)

	tx, err := d.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if _, err := quality.Run(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func main() {
	cfg := config.Load()
	if err := run(context.Background(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
