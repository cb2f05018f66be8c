package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/config"
	"github.com/Veraticus/tally/internal/events"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/report"
	"github.com/Veraticus/tally/internal/service"
	"github.com/Veraticus/tally/internal/storage"
)

// app bundles everything a command needs to work on the ledger.
type app struct {
	cfg       *config.Config
	store     *storage.SQLiteStorage
	ledger    *ledger.Ledger
	reporter  *report.Reporter
	publisher service.Publisher
}

// appOptions selects the optional collaborators a command wants.
type appOptions struct {
	events bool
}

// initStorage opens and migrates the configured database.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	if err := cfg.Database.EnsureDir(); err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// loadConfig resolves the configuration bound to the global viper instance.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// openApp loads the configuration and builds the ledger and reporter on top
// of the migrated database. Callers must Close the result.
func openApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Report.Location()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var publisher service.Publisher = events.Nop{}
	if opts.events && cfg.AMQP.URL != "" {
		p, err := events.Dial(ctx, events.Config{
			URL:        cfg.AMQP.URL,
			Exchange:   cfg.AMQP.Exchange,
			RoutingKey: cfg.AMQP.RoutingKey,
			Retry: common.RetryOptions{
				MaxAttempts:  5,
				InitialDelay: 500 * time.Millisecond,
				MaxDelay:     10 * time.Second,
				Multiplier:   2,
			},
		})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		slog.Info("Publishing ledger events", "exchange", cfg.AMQP.Exchange, "routing_key", cfg.AMQP.RoutingKey)
		publisher = p
	}

	return &app{
		cfg:   cfg,
		store: store,
		ledger: ledger.NewWithConfig(store,
			ledger.Config{EditWindow: cfg.Ledger.EditWindow},
			ledger.WithPublisher(publisher)),
		reporter:  report.New(store, report.WithLocation(loc)),
		publisher: publisher,
	}, nil
}

// Close releases the broker connection and the database.
func (a *app) Close() {
	if err := a.publisher.Close(); err != nil {
		slog.Warn("Failed to close event publisher", "error", err)
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}
