// Package watch refreshes a rendered view on a fixed interval until the user
// stops it.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"gcphcp/internal/color"
	"gcphcp/pkg/logging"
)

// DefaultInterval is the polling interval when none is given.
const DefaultInterval = 5 * time.Second

// RenderFunc fetches fresh data and renders it.
type RenderFunc func(ctx context.Context) (string, error)

type resultMsg struct {
	view string
	err  error
	at   time.Time
}

type pollMsg struct{}

// Model is the bubbletea model of the watch view.
type Model struct {
	ctx      context.Context
	render   RenderFunc
	interval time.Duration
	spinner  spinner.Model

	view     string
	err      error
	updated  time.Time
	loading  bool
	quitting bool
}

// NewModel returns a model polling render every interval.
func NewModel(ctx context.Context, render RenderFunc, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = color.KeyStyle
	return Model{
		ctx:      ctx,
		render:   render,
		interval: interval,
		spinner:  s,
		loading:  true,
	}
}

func (m Model) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		view, err := m.render(m.ctx)
		return resultMsg{view: view, err: err, at: time.Now()}
	}
}

// Init starts the spinner and the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

// Update handles key presses, fetch results and poll ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case resultMsg:
		m.loading = false
		m.updated = msg.at
		if msg.err != nil {
			// Keep the last good view on screen.
			m.err = msg.err
			logging.Debug("Watch", "Refresh failed: %v", msg.err)
		} else {
			m.err = nil
			m.view = msg.view
		}
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg {
			return pollMsg{}
		})

	case pollMsg:
		m.loading = true
		return m, m.fetchCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the header, the latest view and any refresh error.
func (m Model) View() string {
	if m.quitting {
		return color.WarningStyle.Render("Status monitoring stopped.") + "\n"
	}

	var b strings.Builder
	b.WriteString(color.KeyStyle.Render("Watching cluster status (press q or Ctrl+C to stop)"))
	b.WriteString("\n")

	status := "Last update: never"
	if !m.updated.IsZero() {
		status = "Last update: " + m.updated.UTC().Format("2006-01-02 15:04:05") + " UTC"
	}
	if m.loading {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(color.DimStyle.Render(status))
	b.WriteString("\n\n")

	if m.view != "" {
		b.WriteString(m.view)
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(color.ErrorStyle.Render("Refresh failed: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(color.DimStyle.Render(fmt.Sprintf("Refreshing every %s", m.interval)))
	b.WriteString("\n")
	return b.String()
}

// Run shows the watch view full screen until the user quits or ctx is done.
func Run(ctx context.Context, render RenderFunc, interval time.Duration, out io.Writer) error {
	p := tea.NewProgram(NewModel(ctx, render, interval),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithOutput(out),
	)
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil || errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("watch view failed: %w", err)
	}
	return nil
}

// Poll calls fn now and then every interval until ctx is done or fn fails.
// It is the plain-output counterpart of Run for structured formats.
func Poll(ctx context.Context, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := fn(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
