package app

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/worksgraph/internal/data/graph"
	"github.com/yungbote/worksgraph/internal/http"
	httpH "github.com/yungbote/worksgraph/internal/http/handlers"
	"github.com/yungbote/worksgraph/internal/observability"
	"github.com/yungbote/worksgraph/internal/platform/logger"
	"github.com/yungbote/worksgraph/internal/platform/redisbus"
	"github.com/yungbote/worksgraph/internal/query"
)

// App is the long-running query server: one graph connection, one snapshot
// store, an HTTP surface and an optional change-bus listener.
type App struct {
	Log    *logger.Logger
	Cfg    Config
	Graph  graph.WorkStore
	Bus    redisbus.Bus
	Works  *query.Store
	Server *http.Server

	otelShutdown func(context.Context) error
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &App{Log: log, Cfg: cfg}
	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)

	a.Graph, err = openGraph(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init graph store: %w", err)
	}
	a.Bus, err = openBus(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Works = query.NewStore(a.Graph, log)
	log.Info("Loading works snapshot...")
	if err := a.Works.Reload(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}

	a.Server = http.NewServer(http.ServerConfig{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		Router: http.RouterConfig{
			Log:           log,
			ServiceName:   cfg.Otel.ServiceName,
			AllowOrigins:  cfg.HTTP.AllowOrigins,
			HealthHandler: httpH.NewHealthHandler(),
			WorksHandler:  httpH.NewWorksHandler(log, a.Works),
		},
	})
	return a, nil
}

// Run serves HTTP and, when a bus is configured, reloads the snapshot on
// every change event. It returns when ctx is cancelled or either loop fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTP.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), a.Cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.Log.Info("HTTP server shutting down")
		return a.Server.Shutdown(sctx)
	})
	if a.Bus != nil {
		g.Go(func() error {
			return a.Bus.Listen(gctx, func(ev redisbus.Event) {
				if ev.Kind != redisbus.KindWorksChanged {
					return
				}
				a.Log.Info("change event received", "source", ev.Source, "succeeded", ev.Succeeded)
				_ = a.Works.Reload(gctx)
			})
		})
	}
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx := context.Background()
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("close change bus", "error", err)
		}
	}
	if a.Graph != nil {
		if err := a.Graph.Close(ctx); err != nil {
			a.Log.Warn("close graph store", "error", err)
		}
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
