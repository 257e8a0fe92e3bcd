// Package cli implements the graphlayout command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphlayout/pkg/buildinfo"
	"github.com/matzehuels/graphlayout/pkg/cache"
	"github.com/matzehuels/graphlayout/pkg/config"
	"github.com/matzehuels/graphlayout/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the binary name used in help text and suggested commands.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and the built-in
// configuration. The configuration file is read when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "graphlayout places the nodes of state and rule graphs",
		Long: `graphlayout computes positions for the nodes of state spaces, control
flow graphs and rule graphs.

Two algorithms are available: "forest" arranges trees top-down from their
roots, "spring" relaxes a force-directed simulation. Results are written
back into the graph document and cached, so a repeated run is instant.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/graphlayout/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache. A
// cache that cannot be reached is logged and replaced by no caching.
func (c *CLI) newRunner(ctx context.Context, noCache bool) *pipeline.Runner {
	store := c.openCache(ctx, noCache)
	runner := pipeline.NewRunner(store, cache.KeyerFor(c.Config.Cache), c.Logger)
	if ttl := c.Config.Cache.TTL.Duration; ttl > 0 {
		runner.TTL = ttl
	}
	return runner
}

func (c *CLI) openCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	store, err := cache.Open(ctx, c.Config)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", c.Config.Cache.Backend, "error", err)
		return cache.NewNullCache()
	}
	return store
}

// layoutOptions merges command-line options with the [layout] section of
// the configuration file. Flags win.
func (c *CLI) layoutOptions(opts pipeline.Options) pipeline.Options {
	opts.ApplyConfig(c.Config.Layout)
	opts.Logger = c.Logger
	return opts
}
