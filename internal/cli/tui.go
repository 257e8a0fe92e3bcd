package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/layout"
	"github.com/matzehuels/graphlayout/pkg/pipeline"
)

// Watch styles
var (
	watchLabelStyle = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	watchBarStyle   = lipgloss.NewStyle().Foreground(colorCyan)
	watchTrackStyle = lipgloss.NewStyle().Foreground(colorDim)
)

const damperBarWidth = 30

// =============================================================================
// Messages
// =============================================================================

// progressMsg carries a relaxation update from the layouter.
type progressMsg layout.Progress

// changeMsg carries a model change, such as the committed pass.
type changeMsg graph.Change

// doneMsg ends the run.
type doneMsg struct {
	result *pipeline.Result
	err    error
}

// =============================================================================
// WatchModel - Live view of a layout pass
// =============================================================================

// WatchModel is the bubbletea model of the watch command. It shows the
// damper, iteration count and largest motion while the spring layout
// relaxes, then the final positions.
type WatchModel struct {
	Title    string
	Progress layout.Progress
	Commits  int // Layout changes seen on the model
	Moved    int // Nodes moved by the last change
	Result   *pipeline.Result
	Err      error
	Done     bool

	cancel func()
}

// NewWatchModel creates a model for a run on the graph named title. cancel
// is called when the user quits before the run finishes.
func NewWatchModel(title string, cancel func()) WatchModel {
	if cancel == nil {
		cancel = func() {}
	}
	return WatchModel{Title: title, cancel: cancel, Progress: layout.Progress{Damper: 1}}
}

func (m WatchModel) Init() tea.Cmd {
	return nil
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		}
	case progressMsg:
		m.Progress = layout.Progress(msg)
	case changeMsg:
		if msg.Layout {
			m.Commits++
			m.Moved = len(msg.Nodes)
		}
	case doneMsg:
		m.Done = true
		m.Result = msg.result
		m.Err = msg.err
		if m.Err != nil {
			return m, tea.Quit
		}
		if s := m.Result.Stats; s.Iterations > 0 {
			m.Progress.Iteration = s.Iterations
			m.Progress.Damper = s.Damper
		}
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(appName+" watch") + " " + StyleDim.Render(m.Title) + "\n\n")

	b.WriteString(watchLabelStyle.Render("damper") + " " + damperBar(m.Progress.Damper) +
		" " + StyleValue.Render(fmt.Sprintf("%.3f", m.Progress.Damper)) + "\n")
	b.WriteString(watchLabelStyle.Render("iterations") + " " + StyleValue.Render(fmt.Sprintf("%d", m.Progress.Iteration)) + "\n")
	b.WriteString(watchLabelStyle.Render("max motion") + " " + StyleValue.Render(fmt.Sprintf("%.2f", m.Progress.MaxMotion)) + "\n")
	b.WriteString(watchLabelStyle.Render("elapsed") + " " + StyleValue.Render(m.Progress.Elapsed.Round(time.Millisecond).String()) + "\n")
	if m.Commits > 0 {
		b.WriteString(watchLabelStyle.Render("committed") + " " + StyleValue.Render(fmt.Sprintf("%d nodes", m.Moved)) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + m.Err.Error() + "\n")
	case m.Done:
		b.WriteString(styleIconSuccess.Render(iconSuccess) + " " + m.summary() + "\n")
		b.WriteString(positionTable(m.Result.Graph) + "\n")
		b.WriteString(StyleDim.Render("q to quit") + "\n")
	default:
		b.WriteString(StyleDim.Render("relaxing... q to stop") + "\n")
	}

	return b.String()
}

func (m WatchModel) summary() string {
	s := m.Result.Stats
	switch {
	case m.Result.CacheHit:
		return fmt.Sprintf("%s layout from cache", s.Algorithm)
	case s.Algorithm != layout.AlgorithmSpring:
		return fmt.Sprintf("%s layout placed %d nodes", s.Algorithm, s.Nodes)
	case s.Converged:
		return fmt.Sprintf("converged after %d iterations", s.Iterations)
	default:
		return fmt.Sprintf("stopped at the time limit after %d iterations", s.Iterations)
	}
}

// damperBar draws d in [0, 1] as a horizontal bar.
func damperBar(d float64) string {
	n := int(d*damperBarWidth + 0.5)
	n = max(0, min(damperBarWidth, n))
	return watchBarStyle.Render(strings.Repeat("█", n)) + watchTrackStyle.Render(strings.Repeat("░", damperBarWidth-n))
}
