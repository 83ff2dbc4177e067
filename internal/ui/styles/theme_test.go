package styles

import (
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"
)

func TestSelectTheme(t *testing.T) {
	dark := func() bool { return true }
	light := func() bool { return false }

	tests := []struct {
		name    string
		profile colorprofile.Profile
		isDark  func() bool
		want    Theme
	}{
		{"no tty", colorprofile.NoTTY, dark, NoneTheme},
		{"ansi dark", colorprofile.ANSI, dark, DefaultTheme},
		{"truecolor dark", colorprofile.TrueColor, dark, DefaultTheme},
		{"ansi256 light", colorprofile.ANSI256, light, LightTheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectTheme(tt.profile, tt.isDark)
			if got.Primary != tt.want.Primary || got.Error != tt.want.Error {
				t.Errorf("selectTheme() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	Apply(LightTheme)
	defer Apply(DefaultTheme)

	if Current().Primary != LightTheme.Primary {
		t.Errorf("Current().Primary = %v", Current().Primary)
	}
	if Primary != LightTheme.Primary || Warning != LightTheme.Warning {
		t.Error("color variables not updated")
	}
	if SuccessStyle.GetForeground() != LightTheme.Success {
		t.Error("SuccessStyle not rebuilt")
	}
}

func TestApply_None(t *testing.T) {
	Apply(NoneTheme)
	defer Apply(DefaultTheme)

	if _, ok := Accent.(lipgloss.NoColor); !ok {
		t.Errorf("Accent = %T, want NoColor", Accent)
	}
}
