package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/kol-credits/internal/application"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const sweepSpinnerLabel = "Sweeping expired credit packages"

type sweepProgressMsg struct {
	done  int
	total int
}

type sweepFinishedMsg struct {
	err error
}

type sweepSpinnerModel struct {
	spinner  spinner.Model
	progress sweepProgressMsg
	finished bool
	err      error
}

func newSweepSpinnerModel() sweepSpinnerModel {
	return sweepSpinnerModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("214"))),
		),
	}
}

func (m sweepSpinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m sweepSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sweepProgressMsg:
		m.progress = msg
		return m, nil
	case sweepFinishedMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m sweepSpinnerModel) View() string {
	if m.finished {
		return ""
	}
	if m.progress.total == 0 {
		return fmt.Sprintf("%s %s...", m.spinner.View(), sweepSpinnerLabel)
	}

	return fmt.Sprintf("%s %s... %d/%d accounts", m.spinner.View(), sweepSpinnerLabel, m.progress.done, m.progress.total)
}

// runSweepSpinner runs sweep in the background and draws its per-account progress on output
// until it returns.
func runSweepSpinner(ctx context.Context, output io.Writer, sweep func(context.Context, application.SweepProgress) error) error {
	program := tea.NewProgram(
		newSweepSpinnerModel(),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	go func() {
		err := sweep(ctx, func(done, total int) {
			program.Send(sweepProgressMsg{done: done, total: total})
		})
		program.Send(sweepFinishedMsg{err: err})
	}()

	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("sweep progress: %w", err)
	}

	model, ok := final.(sweepSpinnerModel)
	if !ok {
		return fmt.Errorf("sweep progress: unexpected model %T", final)
	}

	return model.err
}
