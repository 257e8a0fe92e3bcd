package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/layout"
	"github.com/matzehuels/graphlayout/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output     string
		layoutFile string
		printTable bool
		noCache    bool
		follow     bool
		opts       pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute node positions for a graph document",
		Long: `Compute node positions for a graph document.

The positions are written back into a copy of the document. Pinned nodes
keep their place, grayed nodes are positioned but do not push others, and
hidden nodes are left alone.

Without -a, state spaces and control flow graphs use the forest layout and
everything else uses the spring layout.

Results are cached, so laying out the same document with the same options
again is instant. Use --refresh to recompute.

With --follow the layout is recomputed every time the input file changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := c.newLayoutSession(cmd.Context(), noCache)
			defer sess.Close()
			run := func(ctx context.Context) error {
				return c.runLayout(ctx, args[0], c.layoutOptions(opts), output, layoutFile, printTable, sess)
			}
			if follow {
				return c.followInput(cmd.Context(), args[0], run)
			}
			return run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&layoutFile, "layout-file", "", "also write the layout document (positions and statistics) to this file")
	cmd.Flags().BoolVar(&printTable, "print", false, "print a table of node positions")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even if a cached layout exists")
	cmd.Flags().BoolVar(&opts.Incremental, "incremental", false, "only place nodes that were never laid out")
	cmd.Flags().BoolVar(&follow, "follow", false, "recompute whenever the input file changes")
	addLayoutFlags(cmd, &opts)

	return cmd
}

// addLayoutFlags registers the algorithm flags shared by layout and watch.
func addLayoutFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", "", "layout algorithm: "+strings.Join(layout.Names(), ", ")+" (default: by graph kind)")
	cmd.Flags().StringArrayVar(&opts.Roots, "root", nil, "suggested forest root (repeatable; default: the start state)")
	cmd.Flags().Float64Var(&opts.Rigidity, "rigidity", 0, fmt.Sprintf("spring stiffness (default %g)", layout.DefaultRigidity))
	cmd.Flags().DurationVar(&opts.Timeout.Duration, "timeout", 0, fmt.Sprintf("spring time limit (default %s)", layout.DefaultTimeout))
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, fmt.Sprintf("random seed for the spring layout (default %d)", layout.DefaultSeed))
	cmd.Flags().BoolVar(&opts.RecordShift, "record-shift", false, "translate edge points along with their nodes")

	_ = cmd.RegisterFlagCompletionFunc("algorithm", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return layout.Names(), cobra.ShellCompDirectiveNoFileComp
	})
}

// layoutSession keeps one runner and one model across the reruns of a
// followed input, so each pass sees the previous one: pinned nodes moved
// in the file are recorded as shifts, and forest roots stay in place.
type layoutSession struct {
	runner *pipeline.Runner
	logger *log.Logger

	model  *graph.Model
	source graph.Graph // input document the model reflects
}

func (c *CLI) newLayoutSession(ctx context.Context, noCache bool) *layoutSession {
	return &layoutSession{runner: c.newRunner(ctx, noCache), logger: c.Logger}
}

// load returns the model for g: the current one with the edits since the
// last load applied, or a new one when the edits cannot be applied.
func (s *layoutSession) load(g graph.Graph) (*graph.Model, error) {
	if s.model != nil {
		err := s.model.Reconcile(s.source, g)
		if err == nil {
			s.source = g
			return s.model, nil
		}
		if !apperr.Is(err, apperr.ErrCodeUnsupported) {
			return nil, err
		}
		s.logger.Debug("input restructured, starting a new model", "reason", err)
		s.runner.Forget(s.model)
	}
	m, err := graph.NewModel(g)
	if err != nil {
		return nil, err
	}
	s.model, s.source = m, g
	return m, nil
}

func (s *layoutSession) Close() error {
	return s.runner.Close()
}

// runLayout loads the graph, lays it out and writes the result.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output, layoutFile string, printTable bool, sess *layoutSession) error {
	prog := newProgress(c.Logger)
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	prog.done("read graph", "nodes", len(g.Nodes), "edges", len(g.Edges))

	m, err := sess.load(g)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	spinner := newSpinner(ctx, "Computing layout...")
	opts.Progress = func(p layout.Progress) {
		spinner.SetMessage("Relaxing · iteration %d · damper %.2f", p.Iteration, p.Damper)
	}
	spinner.Start()

	res, err := sess.runner.LayoutModel(ctx, m, opts)
	if err != nil {
		if ctx.Err() != nil {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("layout %s: %w", input, err)
	}
	spinner.Stop()

	outputPath := output
	if outputPath == "" {
		outputPath = defaultOutput(input, ".layout.json")
	}
	if err := graph.WriteGraphFile(res.Graph, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	if layoutFile != "" {
		if err := graph.WriteLayoutFile(res.Layout, layoutFile); err != nil {
			return fmt.Errorf("write layout %s: %w", layoutFile, err)
		}
		printFile(layoutFile)
	}
	printStats(res.Stats, len(res.Graph.Edges), res.CacheHit)
	if printTable {
		fmt.Println(positionTable(res.Graph))
	}
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}

// defaultOutput derives an output path from input by replacing its
// extension with suffix.
func defaultOutput(input, suffix string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}
