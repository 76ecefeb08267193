package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saviobatista/eco-flight/internal/api"
	"github.com/saviobatista/eco-flight/internal/config"
	"github.com/saviobatista/eco-flight/internal/db"
	"github.com/saviobatista/eco-flight/internal/emissions"
	"github.com/saviobatista/eco-flight/internal/nats"
	"github.com/saviobatista/eco-flight/internal/redis"
	"github.com/saviobatista/eco-flight/internal/refdata"
	"github.com/saviobatista/eco-flight/internal/service"
	"github.com/saviobatista/eco-flight/internal/stats"
	"github.com/saviobatista/eco-flight/internal/storage"
	"github.com/saviobatista/eco-flight/internal/types"
	"github.com/saviobatista/eco-flight/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

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

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// run serves until ctx is done, then shuts down gracefully
func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	source, closeSource, err := newSource(cfg, log)
	if err != nil {
		return err
	}
	defer closeSource()

	st := stats.New()
	svc := service.New(source, st, log, emissions.WithWorkers(cfg.EvalWorkers))
	if err := svc.Reload(ctx); err != nil {
		return err
	}

	if cfg.JournalDir != "" {
		journal := storage.New(cfg.JournalDir, log)
		if err := journal.Start(); err != nil {
			return err
		}
		defer func() {
			if err := journal.Stop(); err != nil {
				log.Warn("Failed to close search journal", logger.Error(err))
			}
		}()
		svc.WithRecorder(journal)
	}

	if cfg.NATSURL != "" {
		nc, err := startNATS(ctx, cfg, svc, log)
		if err != nil {
			return err
		}
		defer nc.Close()
	}

	if cfg.StatsIntervalSeconds > 0 {
		go st.StartReporting(ctx, time.Duration(cfg.StatsIntervalSeconds)*time.Second, log.Named("stats"))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(svc, cfg.CORSAllowedOrigins, log).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

// newSource builds the configured reference data source and its cleanup
func newSource(cfg *config.Config, log *logger.Logger) (refdata.Source, func(), error) {
	switch cfg.RefdataSource {
	case config.SourceFile:
		return &refdata.FileSource{
			Dir:           cfg.DataDir,
			AirportsFile:  cfg.AirportsFile,
			EmissionsFile: cfg.EmissionsFile,
			FuelFile:      cfg.FuelFile,
			FuelSheet:     cfg.FuelSheet,
			Strict:        cfg.RefdataStrict,
			Logger:        log,
		}, func() {}, nil
	case config.SourcePostgres:
		client, err := db.New(cfg.DBConnStr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return &refdata.StoreSource{Store: client}, func() { _ = client.Close() }, nil
	case config.SourceRedis:
		client, err := redis.New(cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return &refdata.SnapshotSource{Store: client}, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", refdata.ErrUnknownSource, cfg.RefdataSource)
	}
}

// startNATS serves searches over NATS and reloads on reference data updates
func startNATS(ctx context.Context, cfg *config.Config, svc *service.Service, log *logger.Logger) (*nats.Client, error) {
	nc, err := nats.New(cfg.NATSURL, nats.WithLogger(log))
	if err != nil {
		return nil, err
	}

	if _, err := nc.ServeSearch(svc.Search); err != nil {
		nc.Close()
		return nil, err
	}

	_, err = nc.SubscribeRefdataUpdated(func(update *types.RefdataUpdate) {
		if !shouldReload(cfg.RefdataSource, update) {
			return
		}
		if err := svc.Reload(ctx); err != nil {
			log.Warn("Failed to reload reference data", logger.String("target", update.Target), logger.Error(err))
		}
	})
	if err != nil {
		nc.Close()
		return nil, err
	}

	log.Info("NATS transport started", logger.String("subject", nats.SubjectEcoSearch))
	return nc, nil
}

// shouldReload reports whether an update rewrote the store this server reads from
func shouldReload(source string, update *types.RefdataUpdate) bool {
	return update != nil && source != config.SourceFile && update.Target == source
}
