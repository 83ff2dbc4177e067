package prompt

import (
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

// viewText returns the plain text a model's view was built from.
func viewText(v tea.View) string {
	if s, ok := v.Content.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}

func keyPress(key string) tea.KeyPressMsg {
	switch key {
	case "ctrl+c":
		return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	}
	return tea.KeyPressMsg{Code: rune(key[0]), Text: key}
}

func TestConfirmModel_Answers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key        string
		defaultYes bool
		want       ConfirmResult
	}{
		{"y", false, ConfirmResult{Confirmed: true}},
		{"Y", false, ConfirmResult{Confirmed: true}},
		{"n", true, ConfirmResult{}},
		{"enter", false, ConfirmResult{}},
		{"enter", true, ConfirmResult{Confirmed: true}},
		{"esc", true, ConfirmResult{Cancelled: true}},
		{"ctrl+c", false, ConfirmResult{Cancelled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			updated, cmd := confirmModel{question: "Roll back?", defaultYes: tt.defaultYes}.Update(keyPress(tt.key))
			m := updated.(confirmModel)
			if !m.answered || cmd == nil {
				t.Fatalf("%s did not answer", tt.key)
			}
			if m.result != tt.want {
				t.Errorf("result = %+v, want %+v", m.result, tt.want)
			}
		})
	}
}

func TestConfirmModel_IgnoresOtherKeys(t *testing.T) {
	t.Parallel()

	updated, cmd := confirmModel{question: "Roll back?"}.Update(keyPress("x"))
	if updated.(confirmModel).answered || cmd != nil {
		t.Error("unrelated key answered the question")
	}
}

func TestConfirmModel_View(t *testing.T) {
	t.Parallel()

	if got := ansi.Strip(viewText(confirmModel{question: "Roll back?", defaultYes: true}.View())); !strings.HasPrefix(got, "Roll back? [Y/n]") {
		t.Errorf("view = %q", got)
	}
	if got := ansi.Strip(viewText(confirmModel{question: "Delete?"}.View())); !strings.HasPrefix(got, "Delete? [y/N]") {
		t.Errorf("view = %q", got)
	}
	if got := viewText((confirmModel{answered: true}).View()); got != "" {
		t.Errorf("answered view = %q, want empty", got)
	}
}
