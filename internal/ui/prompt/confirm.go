package prompt

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/brancher/internal/ui/styles"
)

// ConfirmResult holds the answer to a yes/no question.
type ConfirmResult struct {
	Confirmed bool
	Cancelled bool
}

type confirmModel struct {
	question   string
	defaultYes bool
	answered   bool
	result     ConfirmResult
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) answer(yes, cancelled bool) (tea.Model, tea.Cmd) {
	m.answered = true
	m.result = ConfirmResult{Confirmed: yes, Cancelled: cancelled}
	return m, tea.Quit
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		return m.answer(true, false)
	case "n", "N":
		return m.answer(false, false)
	case "enter":
		return m.answer(m.defaultYes, false)
	case "ctrl+c", "esc", "q":
		return m.answer(false, true)
	}
	return m, nil
}

func (m confirmModel) hint() string {
	if m.defaultYes {
		return "[Y/n]"
	}
	return "[y/N]"
}

func (m confirmModel) View() tea.View {
	if m.answered {
		return tea.NewView("")
	}
	return tea.NewView(m.question + " " + styles.MutedStyle.Render(m.hint()) + " ")
}

// Confirm asks a yes/no question on stderr. Enter picks defaultYes;
// escape or ctrl+c cancel.
func Confirm(ctx context.Context, question string, defaultYes bool) (ConfirmResult, error) {
	final, err := run(ctx, confirmModel{question: question, defaultYes: defaultYes})
	if err != nil {
		return ConfirmResult{}, err
	}
	return final.(confirmModel).result, nil
}
