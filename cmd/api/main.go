package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/chromabet/backend/internal/api"
	"github.com/chromabet/backend/internal/infra/logging"
	"github.com/chromabet/backend/internal/infra/metrics"
	"github.com/chromabet/backend/internal/infra/pgutils"
	"github.com/chromabet/backend/internal/ledger"
	"github.com/chromabet/backend/internal/ledger/memory"
	"github.com/chromabet/backend/internal/ledger/postgres"
	"github.com/chromabet/backend/internal/services/account"
	"github.com/chromabet/backend/internal/services/game"
	"github.com/chromabet/backend/internal/services/wallet"
	"github.com/chromabet/backend/pkg/envconf"
	"github.com/chromabet/backend/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.Setup(cfg.LogFormat, cfg.LogLevel)

	sq := shutdownqueue.New()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := sq.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Store ---
	store, err := openStore(ctx, cfg, sq)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	m := metrics.New()

	// --- Services ---
	accountSrv := account.New(store, cfg.DemoUsername)

	user, err := accountSrv.Ensure(ctx, cfg.DemoBalance)
	if err != nil {
		return fmt.Errorf("ensure demo user: %w", err)
	}

	slog.Info("demo user ready", "id", user.ID, "username", user.Username, "balance", user.Balance)

	gameSrv := game.New(store, game.NewRandomSource(), m)
	walletSrv := wallet.New(store, m)

	// --- HTTP server ---
	h := api.NewHandler(accountSrv, gameSrv, walletSrv)
	srv := api.NewServer(cfg.Port, h, m)

	sq.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port, "store", cfg.StoreBackend)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; the deferred queue drain will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}

func openStore(ctx context.Context, cfg *apiConfig, sq *shutdownqueue.Queue) (ledger.Store, error) {
	switch cfg.StoreBackend {
	case backendMemory:
		return memory.New(), nil

	case backendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("PG_DSN is required for the postgres backend")
		}

		db, err := pgutils.OpenDB(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}

		sq.Add(func(context.Context) error {
			slog.Info("Close database pool")

			return db.Close()
		})

		return postgres.New(db), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
