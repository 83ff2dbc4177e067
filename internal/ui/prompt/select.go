package prompt

import (
	"context"
	"os"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"

	"github.com/raphi011/brancher/internal/ui/styles"
)

// SelectResult holds the chosen option. Index is -1 when cancelled.
type SelectResult struct {
	Value     string
	Index     int
	Cancelled bool
}

type selectKeys struct {
	Up, Down, Pick, Cancel key.Binding
}

func (k selectKeys) ShortHelp() []key.Binding { return []key.Binding{k.Up, k.Down, k.Pick, k.Cancel} }
func (k selectKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var defaultSelectKeys = selectKeys{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Pick:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter/1-9", "choose")),
	Cancel: key.NewBinding(key.WithKeys("esc", "ctrl+c", "q"), key.WithHelp("esc", "cancel")),
}

// selectModel is a short numbered menu. Digits choose directly.
type selectModel struct {
	question  string
	options   []string
	cursor    int
	keys      selectKeys
	help      help.Model
	done      bool
	cancelled bool
}

func newSelectModel(question string, options []string) selectModel {
	return selectModel{question: question, options: options, keys: defaultSelectKeys, help: help.New()}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	press, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(press, m.keys.Cancel):
		m.done, m.cancelled = true, true
		return m, tea.Quit
	case key.Matches(press, m.keys.Pick):
		m.done = true
		return m, tea.Quit
	case key.Matches(press, m.keys.Up):
		m.cursor = (m.cursor + len(m.options) - 1) % len(m.options)
	case key.Matches(press, m.keys.Down):
		m.cursor = (m.cursor + 1) % len(m.options)
	default:
		if n, err := strconv.Atoi(press.String()); err == nil && n >= 1 && n <= len(m.options) {
			m.cursor = n - 1
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m selectModel) View() tea.View {
	if m.done {
		return tea.NewView("")
	}
	var b strings.Builder
	b.WriteString(styles.Bold.Render(m.question))
	b.WriteByte('\n')
	for i, opt := range m.options {
		line := strconv.Itoa(i+1) + ". " + opt
		if i == m.cursor {
			b.WriteString(styles.AccentStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteByte('\n')
	}
	b.WriteString(m.help.View(m.keys))
	b.WriteByte('\n')
	return tea.NewView(b.String())
}

func (m selectModel) result() SelectResult {
	if m.cancelled || m.cursor >= len(m.options) {
		return SelectResult{Index: -1, Cancelled: true}
	}
	return SelectResult{Value: m.options[m.cursor], Index: m.cursor}
}

// Select asks the user to pick one of options on stderr.
func Select(ctx context.Context, question string, options []string) (SelectResult, error) {
	if len(options) == 0 {
		return SelectResult{Index: -1, Cancelled: true}, nil
	}
	final, err := run(ctx, newSelectModel(question, options))
	if err != nil {
		return SelectResult{}, err
	}
	return final.(selectModel).result(), nil
}

// run renders on stderr so stdout stays clean for piped output.
func run(ctx context.Context, model tea.Model) (tea.Model, error) {
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithOutput(os.Stderr),
		tea.WithColorProfile(colorprofile.Detect(os.Stderr, os.Environ())),
	)
	return p.Run()
}
