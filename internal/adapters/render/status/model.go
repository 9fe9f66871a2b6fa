package status

import (
	"errors"
	"io"

	"github.com/bnema/kol-credits/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("status: program finished with an unexpected model")

// balancesRenderedMsg carries the finished view back into the program.
type balancesRenderedMsg string

type balanceModel struct {
	balances []application.Status
	opts     RenderOptions
	view     string
}

func (m balanceModel) Init() tea.Cmd {
	balances, opts := m.balances, m.opts
	return func() tea.Msg {
		return balancesRenderedMsg(renderView(balances, opts, newStyles()))
	}
}

func (m balanceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	rendered, ok := msg.(balancesRenderedMsg)
	if !ok {
		return m, nil
	}

	m.view = string(rendered)
	return m, tea.Quit
}

func (m balanceModel) View() string {
	return m.view
}

// Render draws the balance summary for every account and returns it as a string.
func Render(balances []application.Status, opts RenderOptions) (string, error) {
	program := tea.NewProgram(
		balanceModel{balances: balances, opts: opts},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	final, err := program.Run()
	if err != nil {
		return "", err
	}

	done, ok := final.(balanceModel)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return done.view, nil
}
