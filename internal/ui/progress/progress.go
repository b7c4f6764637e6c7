// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package progress shows the state of a streaming query while fragments
// arrive. A Reporter is the consumer end of a fragment channel: it drains
// the channel until the producer closes it.
package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/howto/internal/ui/styles"
	"github.com/jeranaias/howto/internal/util"
)

// ErrInterrupted is returned when the user interrupts the display before the
// stream ends.
var ErrInterrupted = errors.New("interrupted")

// Reporter consumes the fragments of one query.
type Reporter interface {
	// Run returns once fragments is closed, ctx is done, or the display
	// fails. A non-nil error means the reporter stopped consuming early.
	Run(ctx context.Context, fragments <-chan string) error
}

// =============================================================================
// SILENT
// =============================================================================

// Silent drains fragments without output. Used when stderr is not a terminal.
type Silent struct{}

// Run implements Reporter.
func (Silent) Run(ctx context.Context, fragments <-chan string) error {
	for {
		select {
		case _, ok := <-fragments:
			if !ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// =============================================================================
// SPINNER
// =============================================================================

// Spinner renders "Connecting..." until the first fragment, then
// "Working (N tokens)..." where N counts fragments. The line is cleared
// when the stream ends.
type Spinner struct {
	out  io.Writer
	opts []tea.ProgramOption
}

// NewSpinner creates a spinner drawing to out, normally stderr.
func NewSpinner(out io.Writer, opts ...tea.ProgramOption) *Spinner {
	return &Spinner{out: out, opts: opts}
}

// fragmentMsg reports one received fragment.
type fragmentMsg struct{}

// doneMsg reports that the fragment channel was closed.
type doneMsg struct{}

// Run implements Reporter.
func (s *Spinner) Run(ctx context.Context, fragments <-chan string) error {
	opts := append([]tea.ProgramOption{
		tea.WithOutput(s.out),
		tea.WithInput(nil),
	}, s.opts...)
	p := tea.NewProgram(newModel(), opts...)

	stop := make(chan struct{})
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for {
			select {
			case _, ok := <-fragments:
				if !ok {
					p.Send(doneMsg{})
					return
				}
				p.Send(fragmentMsg{})
			case <-ctx.Done():
				p.Quit()
				return
			case <-stop:
				return
			}
		}
	}()

	final, err := p.Run()
	close(stop)
	<-forwarded

	if err != nil {
		return err
	}
	if m, ok := final.(model); ok && m.finished {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return ErrInterrupted
}

// =============================================================================
// BUBBLE TEA MODEL
// =============================================================================

type model struct {
	spinner  spinner.Model
	tokens   int
	width    int
	started  time.Time
	finished bool
}

func newModel() model {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(styles.Purple)
	return model{spinner: s, started: time.Now()}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fragmentMsg:
		m.tokens++
		return m, nil

	case doneMsg:
		m.finished = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Status returns the text shown next to the spinner.
func (m model) Status() string {
	if m.tokens == 0 {
		return "Connecting..."
	}
	return fmt.Sprintf("Working (%d tokens)...", m.tokens)
}

func (m model) View() string {
	if m.finished {
		return ""
	}
	status := m.Status()
	if m.width > 0 {
		// frame and separator take two columns
		status = util.FitWidth(status, m.width-2)
	}
	return m.spinner.View() + " " + lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(status)
}
