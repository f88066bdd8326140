// Package app wires the fulfillment service together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rpstreef/screencloud-challenge/internal/domain/allocation"
	"github.com/rpstreef/screencloud-challenge/internal/domain/order"
	"github.com/rpstreef/screencloud-challenge/internal/domain/shipping"
	"github.com/rpstreef/screencloud-challenge/internal/domain/warehouse"
	"github.com/rpstreef/screencloud-challenge/internal/handler"
	"github.com/rpstreef/screencloud-challenge/internal/storage/memory"
	"github.com/rpstreef/screencloud-challenge/internal/storage/postgres"
	"github.com/rpstreef/screencloud-challenge/internal/storage/seed"
	"github.com/rpstreef/screencloud-challenge/pkg/health"
	"github.com/rpstreef/screencloud-challenge/pkg/httpmiddleware"
)

// storage bundles the collaborators of the order service.
type storage struct {
	warehouses warehouse.Repository
	orders     order.Repository
	tx         order.Transactor
	close      func()
}

// openStorage connects the configured storage driver and registers its
// readiness checks.
func openStorage(ctx context.Context, lg *zap.Logger, cfg *Config, healthSvc *health.Health) (*storage, error) {
	switch cfg.Storage {
	case StorageMemory:
		ws, err := seed.Default()
		if err != nil {
			return nil, errors.Wrap(err, "load default warehouses")
		}
		lg.Info("Using in-memory storage", zap.Int("warehouses", len(ws)))
		store := memory.New(ws...)
		return &storage{warehouses: store, orders: store, tx: store, close: func() {}}, nil

	case StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		healthSvc.Add(health.Readiness, "postgres", 5*time.Second, health.PingCheck(pool))
		return &storage{
			warehouses: postgres.NewWarehouseRepository(pool),
			orders:     postgres.NewOrderRepository(pool),
			tx:         postgres.NewTransactor(pool, cfg.Tx.MaxRetries, cfg.Tx.RetryBase),
			close:      pool.Close,
		}, nil

	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Storage)
	}
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
	)

	healthSvc := health.New()
	healthSvc.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))

	store, err := openStorage(ctx, lg, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer store.close()

	orderService, err := newOrderService(cfg, store, m)
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           newHTTPHandler(ctx, cfg, m, healthSvc, orderService, store.warehouses),
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Graceful shutdown: stop advertising readiness, drain, then stop.
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		defer healthSvc.Stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}

// newOrderService builds the fulfillment engine over store.
func newOrderService(cfg *Config, store *storage, tel httpmiddleware.Telemetry) (*order.Service, error) {
	p, err := cfg.Product.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build product")
	}
	rate, err := cfg.Shipping.Rate()
	if err != nil {
		return nil, errors.Wrap(err, "shipping rate")
	}
	return order.NewService(
		p,
		allocation.New(shipping.NewCalculator(rate)),
		order.NewValidator(cfg.Fulfillment.MaxShippingPercent),
		store.warehouses,
		store.orders,
		store.tx,
		order.WithTracerProvider(tel.TracerProvider()),
		order.WithMeterProvider(tel.MeterProvider()),
	), nil
}

// newHTTPHandler builds the routing table and the middleware chain.
func newHTTPHandler(
	ctx context.Context,
	cfg *Config,
	tel httpmiddleware.Telemetry,
	healthSvc *health.Health,
	orderService *order.Service,
	warehouses warehouse.Repository,
) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	handler.NewHandler(orderService, warehouses).Register(mux)

	routeFinder := httpmiddleware.MakeRouteFinder(mux)
	return httpmiddleware.Wrap(mux,
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowCredentials: cfg.CORS.AllowCredentials,
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader, "Location"},
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.Instrument("fulfillment-api", routeFinder, tel),
		httpmiddleware.LogRequests(routeFinder),
		httpmiddleware.Labeler(routeFinder),
	)
}
