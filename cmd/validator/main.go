// Command validator reads the three billing CSV exports, cross-references
// them in memory, and prints a summary of referential and business-rule
// violations. It needs no database; it is typically run before loading.
package main

import (
	"fmt"
	"log"
	"os"

	"billingetl/internal/config"
	"billingetl/internal/csvutil"
	"billingetl/internal/validator"
)

func run(cfg *config.Config) error {
	log.Printf("Starting data validation...")

	invoices, err := csvutil.Read(cfg.DataDir+"/invoices.csv", cfg.Encoding)
	if err != nil {
		return err
	}
	log.Printf("Read %d rows from '%s/invoices.csv'", invoices.Len(), cfg.DataDir)

	positions, err := csvutil.Read(cfg.DataDir+"/positions.csv", cfg.Encoding)
	if err != nil {
		return err
	}
	log.Printf("Read %d rows from '%s/positions.csv'", positions.Len(), cfg.DataDir)

	customers, err := csvutil.Read(cfg.DataDir+"/customers.csv", cfg.Encoding)
	if err != nil {
		return err
	}
	log.Printf("Read %d rows from '%s/customers.csv'", customers.Len(), cfg.DataDir)

	log.Printf("Performing validation checks...")
	issues, err := validator.Run(invoices, positions, customers)
	if err != nil {
		return err
	}
	validator.PrintIssues(os.Stdout, issues, cfg.TopIssues)
	return nil
}

func main() {
	cfg := config.Load()
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
