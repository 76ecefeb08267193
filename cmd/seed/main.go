package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/saviobatista/eco-flight/internal/config"
	"github.com/saviobatista/eco-flight/internal/db"
	"github.com/saviobatista/eco-flight/internal/nats"
	"github.com/saviobatista/eco-flight/internal/redis"
	"github.com/saviobatista/eco-flight/internal/refdata"
	"github.com/saviobatista/eco-flight/internal/types"
	"github.com/saviobatista/eco-flight/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stderr, log); err != nil {
		log.Error("Seeding failed", logger.Error(err))
		os.Exit(1)
	}
}

// writer stores a full reference data set in one backend
type writer struct {
	name  string
	write func(ctx context.Context, data *types.ReferenceData) error
	close func()
}

// publisher announces a rewritten backend
type publisher interface {
	PublishRefdataUpdated(update *types.RefdataUpdate) error
}

func parseTargets(args []string, output io.Writer) ([]string, error) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(output)
	targets := fs.String("targets", "postgres,redis", "Comma separated backends to seed (postgres, redis)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var out []string
	seen := make(map[string]bool)
	for _, t := range strings.Split(*targets, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		if t != config.SourcePostgres && t != config.SourceRedis {
			return nil, fmt.Errorf("%w: %s", refdata.ErrUnknownSource, t)
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one target is required")
	}
	return out, nil
}

func run(ctx context.Context, cfg *config.Config, args []string, output io.Writer, log *logger.Logger) error {
	targets, err := parseTargets(args, output)
	if err != nil {
		return err
	}

	source := &refdata.FileSource{
		Dir:           cfg.DataDir,
		AirportsFile:  cfg.AirportsFile,
		EmissionsFile: cfg.EmissionsFile,
		FuelFile:      cfg.FuelFile,
		FuelSheet:     cfg.FuelSheet,
		Strict:        true,
		Logger:        log,
	}
	data, err := source.Load(ctx)
	if err != nil {
		return err
	}

	writers, err := openWriters(cfg, targets)
	if err != nil {
		return err
	}
	defer func() {
		for _, w := range writers {
			w.close()
		}
	}()

	var pub publisher
	if cfg.NATSURL != "" {
		nc, err := nats.New(cfg.NATSURL, nats.WithLogger(log))
		if err != nil {
			return err
		}
		defer nc.Close()
		pub = nc
	}

	return seed(ctx, data, writers, pub, log)
}

func openWriters(cfg *config.Config, targets []string) ([]writer, error) {
	var writers []writer
	closeAll := func() {
		for _, w := range writers {
			w.close()
		}
	}

	for _, target := range targets {
		switch target {
		case config.SourcePostgres:
			if cfg.DBConnStr == "" {
				closeAll()
				return nil, fmt.Errorf("DB_CONN_STR is required to seed postgres")
			}
			client, err := db.New(cfg.DBConnStr)
			if err != nil {
				closeAll()
				return nil, fmt.Errorf("failed to open database: %w", err)
			}
			writers = append(writers, writer{
				name:  target,
				write: client.ReplaceReferenceData,
				close: func() { _ = client.Close() },
			})
		case config.SourceRedis:
			if cfg.RedisAddr == "" {
				closeAll()
				return nil, fmt.Errorf("REDIS_ADDR is required to seed redis")
			}
			client, err := redis.New(cfg.RedisAddr)
			if err != nil {
				closeAll()
				return nil, err
			}
			writers = append(writers, writer{
				name:  target,
				write: client.StoreReferenceData,
				close: func() { _ = client.Close() },
			})
		}
	}
	return writers, nil
}

// seed writes data to every backend and announces each successful write
func seed(ctx context.Context, data *types.ReferenceData, writers []writer, pub publisher, log *logger.Logger) error {
	for _, w := range writers {
		if err := w.write(ctx, data); err != nil {
			return fmt.Errorf("failed to seed %s: %w", w.name, err)
		}
		log.Info("Seeded reference data",
			logger.String("target", w.name),
			logger.Int("airports", len(data.Airports)),
			logger.Int("emission_factors", len(data.EmissionFactors)),
			logger.Int("fuel_records", len(data.FuelRecords)),
		)

		if pub == nil {
			continue
		}
		update := &types.RefdataUpdate{
			Target:          w.name,
			Airports:        len(data.Airports),
			EmissionFactors: len(data.EmissionFactors),
			FuelRecords:     len(data.FuelRecords),
			UpdatedAt:       time.Now().UTC(),
		}
		if err := pub.PublishRefdataUpdated(update); err != nil {
			log.Warn("Failed to publish reference data update", logger.String("target", w.name), logger.Error(err))
		}
	}
	return nil
}
