package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bnema/kol-credits/internal/adapters/metrics"
	"github.com/bnema/kol-credits/internal/adapters/notify"
	statusadapter "github.com/bnema/kol-credits/internal/adapters/render/status"
	sqlitestore "github.com/bnema/kol-credits/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/kol-credits/internal/adapters/repo/toml"
	"github.com/bnema/kol-credits/internal/application"
	"github.com/bnema/kol-credits/internal/config"
	"github.com/bnema/kol-credits/internal/domain"
	"github.com/bnema/kol-credits/internal/ports"
	"github.com/joho/godotenv"
)

type app struct {
	config         config.Config
	logger         *slog.Logger
	metrics        *metrics.Metrics
	ledger         *application.Ledger
	meter          *application.Meter
	permissions    *application.Permissions
	contacts       *application.ContactGate
	statusRenderer func([]application.Status, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
	closers        []io.Closer
}

func wireApp() (*app, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	v, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("wire config: %w", err)
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return nil, fmt.Errorf("wire config: %w", err)
	}

	logger := newLogger(cfg.Log, os.Stderr)

	var (
		accounts ports.CreditAccountRepository
		contacts ports.ContactRepository
		closers  []io.Closer
	)
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		store, err := sqlitestore.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("wire sqlite store: %w", err)
		}
		accounts, contacts = store, store
		closers = append(closers, store)
	default:
		accountRepo, err := tomlrepo.NewRepository(v)
		if err != nil {
			return nil, fmt.Errorf("wire account repository: %w", err)
		}
		contactRepo, err := tomlrepo.NewContactRepository(v)
		if err != nil {
			return nil, fmt.Errorf("wire contact repository: %w", err)
		}
		accounts, contacts = accountRepo, contactRepo
	}

	m := metrics.New()
	clock := ports.SystemClock{}
	ledger := application.NewLedger(
		accounts,
		m.Notifier(notify.NewLogNotifier(logger)),
		clock,
		domain.NewResetClock(cfg.Location),
		logger,
	)

	return &app{
		config:         cfg,
		logger:         logger,
		metrics:        m,
		ledger:         ledger,
		meter:          application.NewMeter(ledger),
		permissions:    application.NewPermissions(ledger),
		contacts:       application.NewContactGate(ledger, contacts),
		statusRenderer: statusadapter.Render,
		now:            clock.Now,
		closers:        closers,
	}, nil
}

func (a *app) Close() error {
	var firstErr error
	for _, closer := range a.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
