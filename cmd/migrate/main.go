package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	_ "github.com/lib/pq"

	"github.com/saviobatista/eco-flight/internal/db/migrations"
	"github.com/saviobatista/eco-flight/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{Level: os.Getenv("LOG_LEVEL"), Format: os.Getenv("LOG_FORMAT")})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), os.Args[1:], os.Stderr, log); err != nil {
		log.Error("Migration failed", logger.Error(err))
		os.Exit(1)
	}
}

type options struct {
	dbURL    string
	rollback bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(output)

	opts := &options{}
	fs.StringVar(&opts.dbURL, "db", os.Getenv("DB_CONN_STR"), "Database connection string (defaults to DB_CONN_STR)")
	fs.BoolVar(&opts.rollback, "rollback", false, "Rollback the last migration")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.dbURL == "" {
		return nil, fmt.Errorf("database connection string is required (-db or DB_CONN_STR)")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, output io.Writer, log *logger.Logger) error {
	opts, err := parseFlags(args, output)
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", opts.dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return migrate(ctx, migrations.New(db).WithLogger(log), opts.rollback)
}

func migrate(ctx context.Context, m *migrations.Migrator, rollback bool) error {
	if rollback {
		return m.Rollback(ctx, migrations.All())
	}
	return m.Migrate(ctx, migrations.All())
}
