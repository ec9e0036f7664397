// Package web serves the dashboard over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/attpc/daqdash/web/assets"
	"github.com/attpc/daqdash/web/routes"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

const DefaultPort = 8000

type Config struct {
	Port int
	// StaticDir is where collectstatic put the assets. The embedded copy is
	// served when it is empty or missing.
	StaticDir string
	Dev       bool
}

func disableCacheInDevMode(dev bool, next http.Handler) http.Handler {
	if !dev {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// BuildRouter wires the dashboard routes.
func BuildRouter(handler *routes.ServerHandler, cfg Config) http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if handler.Options.Stylesheet == "" {
		handler.Options.Stylesheet = assets.Path("style.css")
	}

	if handler.Options.Script == "" {
		handler.Options.Script = assets.Path(assets.DatastarBundle)
	}

	r.Handle("/static/*", disableCacheInDevMode(cfg.Dev, assets.Handler(cfg.StaticDir)))
	r.Get("/", handler.DashboardHandle)
	r.Get("/panels/{panel}/updates", handler.PanelUpdates)
	r.Post("/controls/refresh", handler.ControlsRefresh)
	r.Get("/healthz", handler.Health)

	return r
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, handler *routes.ServerHandler, cfg Config) error {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	addr := fmt.Sprintf(":%d", cfg.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", addr, err)
	}

	return serveListener(ctx, listener, BuildRouter(handler, cfg))
}

func serveListener(ctx context.Context, listener net.Listener, h http.Handler) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: h,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Serving dashboard", "addr", listener.Addr().String())

	eg.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Debug("Shutting down dashboard server")

		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
