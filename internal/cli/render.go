package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/pipeline"
	"github.com/matzehuels/graphlayout/pkg/render"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output   string
		format   string
		relayout bool
		noCache  bool
		follow   bool
		opts     pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Draw a laid-out graph as SVG, DOT, PNG or PDF",
		Long: `Draw a laid-out graph as SVG, DOT, PNG or PDF.

Nodes are drawn where the document places them; nothing is moved. Run
'layout' first, or pass --layout to lay the graph out before drawing.

The format is taken from -f, or from the extension of -o. PNG and PDF
output needs rsvg-convert on the PATH. With --follow the graph is drawn
again every time the input file changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFormat(format, output)
			if err != nil {
				return err
			}
			if output == "" {
				output = defaultOutput(args[0], "."+f)
			}
			var lo *pipeline.Options
			if relayout {
				o := c.layoutOptions(opts)
				lo = &o
			}
			run := func(ctx context.Context) error {
				return c.runRender(ctx, args[0], output, f, lo, noCache)
			}
			if follow {
				return c.followInput(cmd.Context(), args[0], run)
			}
			return run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: "+strings.Join(render.Formats, ", "))
	cmd.Flags().BoolVar(&relayout, "layout", false, "lay the graph out before rendering")
	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", "", "layout algorithm for --layout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&follow, "follow", false, "render again whenever the input file changes")

	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return render.Formats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// resolveFormat picks the output format from the flag, then the output
// extension, then svg.
func resolveFormat(format, output string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
		if !slices.Contains(render.Formats, format) {
			format = render.FormatSVG
		}
	}
	if !slices.Contains(render.Formats, format) {
		return "", fmt.Errorf("invalid format %q (must be one of: %s)", format, strings.Join(render.Formats, ", "))
	}
	return format, nil
}

// runRender draws the graph in input, optionally laying it out first.
func (c *CLI) runRender(ctx context.Context, input, output, format string, opts *pipeline.Options, noCache bool) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner := c.newRunner(ctx, noCache)
	defer runner.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", format))
	spinner.Start()

	if opts != nil {
		res, err := runner.Layout(ctx, g, *opts)
		if err != nil {
			spinner.StopWithError("Layout failed")
			return fmt.Errorf("layout %s: %w", input, err)
		}
		g = res.Graph
	}

	data, cached, err := runner.Render(ctx, g, format)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render %s: %w", input, err)
	}
	spinner.Stop()

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	status := styleComputed.Render(iconFresh)
	if cached {
		status = styleCached.Render(iconCached)
	}
	printSuccess("Rendered %s %s", strings.ToUpper(format), status)
	printFile(output)
	printDetail("%d bytes", len(data))
	return nil
}
