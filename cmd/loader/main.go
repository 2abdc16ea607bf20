// Command loader moves the billing CSV exports into their destination tables.
// Each table is loaded in its own transaction with optional truncation and
// the identity-insert override, so pre-assigned key values survive verbatim.
//
// Configuration comes from the environment (optionally a .env file) with
// flag overrides; see internal/config. On any failure the error is printed
// to stderr and the process exits non-zero.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"billingetl/internal/config"
	"billingetl/internal/db"
	"billingetl/internal/domain"
	"billingetl/internal/loader"
)

func run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	dsn := cfg.DatabaseURL()
	log.Printf("Connecting to a database at '%s'", cfg.DBHost+":"+cfg.DBPort)

	d, err := db.Open(ctx, cfg.DBDriver, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer d.Close(ctx)

	for _, src := range domain.Sources(cfg.DataDir) {
		if _, err := loader.InsertFile(ctx, d, src.File, cfg.Encoding, src.Table, domain.Schema, cfg.TruncateTables); err != nil {
			return err
		}
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
