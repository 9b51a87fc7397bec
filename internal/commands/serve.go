package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/groupsplit/internal/config"
	"github.com/mmynk/groupsplit/internal/events"
	"github.com/mmynk/groupsplit/internal/metrics"
	"github.com/mmynk/groupsplit/internal/middleware"
	"github.com/mmynk/groupsplit/internal/service"
	"github.com/mmynk/groupsplit/internal/storage/sqlstore"
	"github.com/mmynk/groupsplit/pkg/api/apiconnect"
	"github.com/mmynk/groupsplit/pkg/logging"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Connect API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a groupsplit.yaml file")

	return cmd
}

func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logging.SetupWithLevel(logging.ParseLevel(cfg.Log.Level))

	store, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Database.Driver)

	publisher, err := newPublisher(cfg)
	if err != nil {
		slog.Error("Failed to connect to event broker", "error", err)
		return err
	}
	defer publisher.Close()

	m := metrics.New()
	srv := &http.Server{
		Addr: cfg.Addr(),
		// Wrap with h2c for HTTP/2 without TLS (required for Connect)
		Handler:           h2c.NewHandler(newRouter(store, m, publisher), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(cfg *config.Config) (*sqlstore.Store, error) {
	driver, dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	if driver == sqlstore.DriverSQLite {
		return sqlstore.NewSQLite(dsn)
	}
	return sqlstore.New(driver, dsn)
}

func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.Events.AMQPURL == "" {
		return events.Nop{}, nil
	}
	p, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
	if err != nil {
		return nil, err
	}
	slog.Info("Publishing change events", "exchange", cfg.Events.Exchange)
	return p, nil
}

// newRouter mounts both Connect services plus health and metrics endpoints.
func newRouter(store *sqlstore.Store, m *metrics.Metrics, publisher events.Publisher) http.Handler {
	interceptors := connect.WithInterceptors(
		middleware.LoggingInterceptor(),
		middleware.MetricsInterceptor(m),
	)
	opts := []service.Option{service.WithMetrics(m), service.WithPublisher(publisher)}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS)

	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(service.NewGroupService(store, opts...), interceptors)
	r.Mount(groupPath, groupHandler)

	expensePath, expenseHandler := apiconnect.NewExpenseServiceHandler(service.NewExpenseService(store, opts...), interceptors)
	r.Mount(expensePath, expenseHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.DB().PingContext(ctx); err != nil {
			slog.ErrorContext(ctx, "Health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	return r
}
