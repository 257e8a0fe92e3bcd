package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/layout"
	"github.com/matzehuels/graphlayout/pkg/pipeline"
)

// progressInterval limits how often relaxation updates reach the TUI.
const progressInterval = 50 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		output string
		opts   pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "watch [graph.json]",
		Short: "Follow a layout pass live in the terminal",
		Long: `Follow a layout pass live in the terminal.

Shows the damper, iteration count and largest node motion while the spring
layout relaxes, then the final positions. The cache is never consulted, but
the result is stored. Press q to stop early.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("algorithm") {
				opts.Algorithm = layout.AlgorithmSpring
			}
			o := c.layoutOptions(opts)
			o.Refresh = true
			return c.runWatch(cmd.Context(), args[0], o, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the laid-out graph to this file")
	addLayoutFlags(cmd, &opts)

	return cmd
}

// runWatch runs one pass on a live model and renders its progress.
func (c *CLI) runWatch(ctx context.Context, input string, opts pipeline.Options, output string) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	m, err := graph.NewModel(g)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The TUI owns the terminal; log lines would tear it.
	quiet := log.New(io.Discard)
	runner := c.newRunner(runCtx, false)
	runner.Logger = quiet
	opts.Logger = quiet
	defer runner.Close()

	p := tea.NewProgram(NewWatchModel(input, cancel), tea.WithContext(ctx))

	m.Subscribe(func(ch graph.Change) { p.Send(changeMsg(ch)) })
	opts.Progress = layout.Throttle(progressInterval, func(pr layout.Progress) { p.Send(progressMsg(pr)) })

	go func() {
		res, err := runner.LayoutModel(runCtx, m, opts)
		p.Send(doneMsg{result: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("watch: %w", err)
	}

	wm := final.(WatchModel)
	switch {
	case wm.Err != nil:
		return fmt.Errorf("layout %s: %w", input, wm.Err)
	case wm.Result == nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		printWarning("Stopped before the layout finished")
		return nil
	}

	if output != "" {
		if err := graph.WriteGraphFile(wm.Result.Graph, output); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
		printSuccess("Layout complete")
		printFile(output)
	}
	return nil
}
