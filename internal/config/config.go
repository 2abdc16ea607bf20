// Package config centralizes process configuration for the batch jobs. All
// tunables live outside the code and are sourced from command-line flags with
// environment-variable fallbacks. A .env file in the working directory is
// loaded best-effort before the environment is read, matching how operators
// run the jobs locally.
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg := config.LoadFromArgs(fs, getenv, []string{"-truncate=false"})
package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all process configuration. All fields are plain values so the
// struct can be copied freely after construction; no ambient globals.
type Config struct {
	// DB describes the target database. DSN, when set, wins over the
	// discrete parts.
	DBDriver   string // "mssql" or "postgres"
	DSN        string // full DSN; optional
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Input handling.
	DataDir  string // directory holding positions.csv, invoices.csv, customers.csv
	Encoding string // text encoding of the CSV files

	// Job tunables.
	TruncateTables bool // truncate each destination table before loading
	TopIssues      int  // how many validator issues to print
}

// LoadFromArgs builds a Config by defining flags on fs, wiring each flag to
// an environment-variable fallback via getenv, and then parsing args.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) *Config {
	cfg := &Config{}

	envOr := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	intEnvOr := func(k string, d int) int {
		if v := getenv(k); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
		return d
	}
	boolEnvOr := func(k string, d bool) bool {
		if v := strings.ToLower(getenv(k)); v != "" {
			switch v {
			case "1", "true", "yes", "on":
				return true
			case "0", "false", "no", "off":
				return false
			}
		}
		return d
	}

	fs.StringVar(&cfg.DBDriver, "db_driver", envOr("DB_DRIVER", "mssql"), "Database driver: 'mssql' or 'postgres'.")
	fs.StringVar(&cfg.DSN, "dsn", getenv("DB_DSN"), "Full DSN (overrides discrete DB_* parts).")
	fs.StringVar(&cfg.DBUser, "db_user", getenv("DB_USER"), "DB user")
	fs.StringVar(&cfg.DBPassword, "db_password", getenv("DB_PASSWORD"), "DB password")
	fs.StringVar(&cfg.DBHost, "db_host", getenv("DB_HOST"), "DB host")
	fs.StringVar(&cfg.DBPort, "db_port", getenv("DB_PORT"), "DB port")
	fs.StringVar(&cfg.DBName, "db_name", envOr("DB_NAME", "ImagoTest"), "DB name")

	fs.StringVar(&cfg.DataDir, "data_dir", envOr("DATA_DIR", "data"), "Directory with the source CSV files")
	fs.StringVar(&cfg.Encoding, "encoding", envOr("DATA_ENCODING", "iso-8859-1"), "Text encoding of the CSV files")

	fs.BoolVar(&cfg.TruncateTables, "truncate", boolEnvOr("TRUNCATE_TABLES", true), "Truncate destination tables before loading")
	fs.IntVar(&cfg.TopIssues, "top_issues", intEnvOr("TOP_ISSUES", 10), "Max validator issues to print")

	if args == nil {
		args = []string{}
	}
	_ = fs.Parse(args)
	return cfg
}

// Load is the production entry point. It loads .env best-effort, wires the
// loader to the process flag set, reads os.Getenv, and parses os.Args[1:].
func Load() *Config {
	_ = godotenv.Load()
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}

// Validate reports missing required connection settings. Absence of any
// required value is a fatal startup error for the database-backed jobs; the
// discrete parts are only required when no full DSN is given.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mssql", "postgres":
	default:
		return fmt.Errorf("unsupported db_driver %q (want mssql or postgres)", c.DBDriver)
	}
	if c.DSN != "" {
		return nil
	}
	var missing []string
	for _, kv := range []struct{ k, v string }{
		{"DB_USER", c.DBUser},
		{"DB_PASSWORD", c.DBPassword},
		{"DB_HOST", c.DBHost},
		{"DB_PORT", c.DBPort},
	} {
		if kv.v == "" {
			missing = append(missing, kv.k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment values: %s", strings.Join(missing, ", "))
	}
	return nil
}

// DatabaseURL returns the DSN to connect with: the explicit DSN when set,
// otherwise one built from the discrete parts for the configured driver.
func (c *Config) DatabaseURL() string {
	if c.DSN != "" {
		return c.DSN
	}
	scheme := "sqlserver"
	if c.DBDriver == "postgres" {
		scheme = "postgres"
	}
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   c.DBHost + ":" + c.DBPort,
	}
	if c.DBDriver == "postgres" {
		u.Path = "/" + c.DBName
	} else {
		u.RawQuery = url.Values{"database": []string{c.DBName}}.Encode()
	}
	return u.String()
}
