package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/metalagman/orgarhythm/internal/config"
	"github.com/metalagman/orgarhythm/internal/db"
	"github.com/metalagman/orgarhythm/internal/task"
	"github.com/metalagman/orgarhythm/internal/web"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the read-only web view",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			app := fx.New(serveOptions(cfg, fmt.Sprintf(":%d", cfg.Server.Port)), fx.NopLogger)
			if err := app.Start(cmd.Context()); err != nil {
				return fmt.Errorf("start server: %w", err)
			}

			select {
			case sig := <-app.Wait():
				log.Info().Interface("signal", sig.Signal).Msg("shutting down")
			case <-cmd.Context().Done():
			}

			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.Stop(stopCtx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on (overrides server.port)")
	return cmd
}

// listener is the running HTTP server and its bound address.
type listener struct {
	server *http.Server
	addr   net.Addr
}

// Addr returns the bound address once the app has started.
func (l *listener) Addr() net.Addr {
	return l.addr
}

// serveOptions wires the database, task store, web handlers and HTTP
// listener for serving on addr.
func serveOptions(cfg config.Config, addr string) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			newDatabase,
			fx.Annotate(task.NewStore, fx.As(new(task.Source))),
			newWebServer,
			func(lc fx.Lifecycle, srv *web.Server) *listener {
				return newListener(lc, srv, addr)
			},
		),
		fx.Invoke(func(*listener) {}),
	)
}

func newDatabase(lc fx.Lifecycle, cfg config.Config) (*sql.DB, error) {
	conn, err := db.Open(context.Background(), cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return conn.Close()
		},
	})
	return conn, nil
}

func newWebServer(source task.Source, cfg config.Config) (*web.Server, error) {
	return web.NewServer(source, cfg.GraphOptions(), cfg.Calendar())
}

func newListener(lc fx.Lifecycle, srv *web.Server, addr string) *listener {
	l := &listener{server: &http.Server{
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var lcfg net.ListenConfig
			ln, err := lcfg.Listen(ctx, "tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			l.addr = ln.Addr()
			log.Info().Msgf("serving on http://%s", ln.Addr())
			go func() {
				if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("http server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return l.server.Shutdown(ctx)
		},
	})
	return l
}
