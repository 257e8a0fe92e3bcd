package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphlayout/pkg/server"
)

// shutdownTimeout bounds how long in-flight requests may run after an
// interrupt.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP layout API",
		Long: `Run the HTTP layout API.

Endpoints:
  GET  /healthz          liveness and build information
  GET  /v1/algorithms    available layout algorithms
  POST /v1/layout        {"graph": ..., "options": ...} -> laid-out graph
  GET  /v1/layout/stream websocket: same request, progress events, then the result
  POST /v1/render        graph document -> SVG (?format=dot|png|pdf)

Layout defaults come from the [layout] section of the config file. With the
redis or mongo cache backend, several servers share their results.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, \":8080\")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe serves the API until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	cfg := c.Config.Server
	if addr != "" {
		cfg.Addr = addr
	}

	runner := c.newRunner(ctx, noCache)
	defer runner.Close()

	srv := server.New(runner, c.Logger, c.Config.Layout)
	httpSrv := server.NewHTTPServer(cfg, srv.Handler())

	l, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	cacheBackend := c.Config.Cache.Backend
	if noCache {
		cacheBackend = "disabled"
	}
	printSuccess("Listening on %s", StyleLink.Render("http://"+l.Addr().String()))
	printKeyValue("cache", cacheBackend)
	printKeyValue("algorithm", orDefault(c.Config.Layout.Algorithm, "by graph kind"))
	printNewline()

	if err := server.Serve(ctx, httpSrv, l, shutdownTimeout); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	c.Logger.Info("server stopped")
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
