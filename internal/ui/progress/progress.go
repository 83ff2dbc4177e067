// Package progress shows a progress bar on stderr while a command walks
// the target repositories.
package progress

import (
	"fmt"
	"os"
	"sync"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/brancher/internal/ui/styles"
)

// stepMsg advances the bar to the repository being processed.
type stepMsg struct {
	current int
	repo    string
}

type model struct {
	bar     progress.Model
	label   string
	total   int
	current int
	repo    string
	steps   <-chan stepMsg
}

func (m model) Init() tea.Cmd {
	return m.wait()
}

func (m model) wait() tea.Cmd {
	return func() tea.Msg {
		step, ok := <-m.steps
		if !ok {
			return tea.Quit()
		}
		return step
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stepMsg:
		m.current, m.repo = msg.current, msg.repo
		return m, m.wait()
	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.bar, cmd = m.bar.Update(msg)
	return m, cmd
}

func (m model) View() tea.View {
	return tea.NewView(m.line())
}

// line renders "[bar] 2/5 Comparing in api".
func (m model) line() string {
	percent := 0.0
	if m.total > 0 {
		percent = float64(m.current) / float64(m.total)
	}
	text := fmt.Sprintf("%s %d/%d %s", m.bar.ViewAs(percent), m.current, m.total, m.label)
	if m.repo != "" {
		text += " in " + m.repo
	}
	return text
}

// Bar tracks a fixed number of repositories. The zero value and a Bar
// created with enabled false ignore every call.
type Bar struct {
	mu      sync.Mutex
	program *tea.Program
	steps   chan stepMsg
	done    chan struct{}
	current int
}

// Start shows a bar for total repositories. Without enabled nothing is
// drawn, so callers need no terminal checks of their own.
func Start(label string, total int, enabled bool) *Bar {
	b := &Bar{}
	if !enabled || total < 2 {
		return b
	}

	b.steps = make(chan stepMsg, 8)
	b.done = make(chan struct{})
	m := model{
		bar: progress.New(
			progress.WithWidth(30),
			progress.WithoutPercentage(),
			progress.WithColors(styles.Primary, styles.Accent),
		),
		label: label,
		total: total,
		steps: b.steps,
	}

	b.program = tea.NewProgram(m, tea.WithoutSignalHandler(), tea.WithOutput(os.Stderr))
	go func() {
		_, _ = b.program.Run()
		close(b.done)
	}()
	return b
}

// Step marks the start of work on repo.
func (b *Bar) Step(repo string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current++
	if b.steps == nil {
		return
	}
	select {
	case b.steps <- stepMsg{current: b.current, repo: repo}:
	default:
		// A dropped frame is corrected by the next step.
	}
}

// Stop removes the bar. It is safe to call more than once.
func (b *Bar) Stop() {
	b.mu.Lock()
	if b.steps == nil {
		b.mu.Unlock()
		return
	}
	close(b.steps)
	b.steps = nil
	b.mu.Unlock()

	select {
	case <-b.done:
	case <-time.After(500 * time.Millisecond):
		b.program.Quit()
	}
	fmt.Fprint(os.Stderr, "\r\033[K")
}

// Current returns how many steps were started.
func (b *Bar) Current() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
