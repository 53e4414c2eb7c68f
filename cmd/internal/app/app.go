// Package app wires the herd server runtime: config, logging, stores, and HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"herd/cmd/internal/metrics"
	"herd/cmd/internal/operators"
	"herd/cmd/internal/records"
	"herd/cmd/security/password"
)

// App is the herd server runtime. It owns the DB pool (if any) and the HTTP wiring.
type App struct {
	cfg Config
	log Logger

	pool *pgxpool.Pool

	records   records.Store
	operators operators.Store
	authn     *operators.Authenticator
	metrics   *metrics.Metrics
	cattle    *cattleHandler
}

// New constructs a fully wired App. With no HERD_DATABASE_URL the in-memory stores are
// used.
func New(ctx context.Context, cfg Config, pwCfg password.Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	a := &App{cfg: cfg, log: log, metrics: metrics.New()}

	if err := a.openStores(ctx); err != nil {
		return nil, err
	}

	verifier := password.NewVerifier(pwCfg, log, password.WithObserver(a.metrics))
	authn, err := operators.NewAuthenticator(a.operators, verifier, pwCfg, log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.authn = authn

	if err := a.bootstrapOperator(ctx, pwCfg); err != nil {
		a.close()
		return nil, err
	}

	a.cattle = &cattleHandler{
		store:   a.records,
		planner: records.NewPlanner(a.records, log, records.WithSearchObserver(a.metrics)),
		log:     log,
		maxBody: nonZeroInt64(cfg.MaxBodyBytes, 64<<10),
	}
	return a, nil
}

// openStores decides between Postgres-backed persistence and the in-memory dev stores.
func (a *App) openStores(ctx context.Context) error {
	if a.cfg.DatabaseURL == "" {
		a.log.Info("db.disabled.inmemory_store")
		a.records = records.NewInMemoryStore()
		a.operators = operators.NewInMemoryStore()
		return nil
	}

	pool, err := NewDBPool(ctx, a.cfg)
	if err != nil {
		return err
	}

	// The app owns the pool; the stores only borrow it.
	recStore, err := records.NewPostgresStore(pool, records.WithSchema(a.cfg.DBSchema))
	if err != nil {
		pool.Close()
		return err
	}
	opStore, err := operators.NewPostgresStore(pool, operators.WithSchema(a.cfg.DBSchema))
	if err != nil {
		pool.Close()
		return err
	}

	a.pool = pool
	a.records = recStore
	a.operators = opStore
	a.log.Info("db.enabled.postgres_store", "schema", a.cfg.DBSchema)
	return nil
}

func (a *App) bootstrapOperator(ctx context.Context, pwCfg password.Config) error {
	if a.cfg.BootstrapUsername == "" {
		return nil
	}
	hash, err := pwCfg.Hash(a.cfg.BootstrapPassword)
	if err != nil {
		return err
	}
	op, created, err := a.operators.CreateOperator(ctx, a.cfg.BootstrapUsername, hash)
	if err != nil {
		return err
	}
	a.log.Info("operators.bootstrap", "operator_id", op.ID, "created", created)
	return nil
}

// Handler returns the complete HTTP handler of the app.
func (a *App) Handler() http.Handler { return a.routes() }

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.routes(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.pool != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

func (a *App) close() {
	if a.records != nil {
		if err := a.records.Close(); err != nil {
			a.log.Error("store.close.fail", "err", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt64(v, def int64) int64 {
	if v <= 0 {
		return def
	}
	return v
}
