package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/eleven-am/tasks/internal/api"
	"github.com/eleven-am/tasks/internal/config"
	"github.com/eleven-am/tasks/internal/database"
	"github.com/eleven-am/tasks/internal/logger"
	"github.com/eleven-am/tasks/internal/metrics"
	"github.com/eleven-am/tasks/internal/orm"
	"github.com/eleven-am/tasks/internal/schema"
	"github.com/eleven-am/tasks/internal/store"
)

const startupTimeout = 30 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		addr     string
		createDB bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Connect to the database, create any missing tables and serve the API
until SIGINT or SIGTERM, then drain in-flight requests and exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if createDB {
				cfg.Database.CreateIfMissing = true
			}
			if !opts.debug {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8000)")
	cmd.Flags().BoolVar(&createDB, "create-db", false, "create the database if it does not exist")

	return cmd
}

// connect opens the pool described by cfg, creating the database first when asked to
func connect(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database URL is required: set %s, database.url in tasks.yaml, or --url", config.EnvDatabaseURL)
	}

	if cfg.Database.CreateIfMissing {
		if err := database.EnsureDatabaseExists(ctx, cfg.Database.URL); err != nil {
			return nil, err
		}
	}

	dbCfg := database.NewDBConfig(cfg.Database.URL)
	dbCfg.MaxOpenConns = cfg.Database.MaxOpenConns
	dbCfg.MaxIdleConns = cfg.Database.MaxIdleConns
	dbCfg.ConnMaxLifetime = cfg.Database.ConnMaxLifetime

	return dbCfg.Connect(ctx)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	db, err := connect(startCtx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New()
	st, err := store.New(db, store.WithMiddleware(
		orm.LoggingMiddleware(logger.DB()),
		orm.MetricsMiddleware(m),
	))
	if err != nil {
		return err
	}

	if err := schema.Ensure(startCtx, db, st.Tables()...); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	server := api.New(st, api.WithPinger(db), api.WithMetrics(m))
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return serve(ctx, srv, cfg.Server.ShutdownTimeout)
}

// serve runs srv until ctx is done, then shuts it down within timeout
func serve(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	log := logger.CLI()
	errCh := make(chan error, 1)

	go func() {
		log.Info("Listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down", "timeout", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
