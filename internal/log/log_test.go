package log

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
)

func TestLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		verbose bool
		quiet   bool
		want    string
	}{
		{"default", false, false, "warning: w\nerror: e\n"},
		{"verbose", true, false, "debug: d\nwarning: w\nerror: e\n"},
		{"quiet keeps errors", false, true, "error: e\n"},
		{"quiet wins over verbose", true, true, "error: e\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			l := New(&buf, tt.verbose, tt.quiet)
			l.Debug("d")
			l.Warn("w")
			l.Error("e")
			if got := ansi.Strip(buf.String()); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
			if l.IsVerbose() != (tt.verbose && !tt.quiet) {
				t.Errorf("IsVerbose() = %v", l.IsVerbose())
			}
		})
	}
}

func TestKeyvals(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, false, false).Warn("skipping repository",
		"repo", "api", "err", errors.New("not a git repository"), "files", 2, "empty", "", "orphan")

	want := `warning: skipping repository repo=api err="not a git repository" files=2 empty=""` + "\n"
	if got := ansi.Strip(buf.String()); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestCommand(t *testing.T) {
	t.Parallel()

	t.Run("verbose", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		done := New(&buf, true, false).Command("/src/api", "git", "checkout", "feature")
		done(1234 * time.Microsecond)
		if got := ansi.Strip(buf.String()); got != "[/src/api] $ git checkout feature (1ms)\n" {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("no dir", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		New(&buf, true, false).Command("", "git")(0)
		if got := ansi.Strip(buf.String()); !strings.HasPrefix(got, "$ git (") {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("silent unless verbose", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		New(&buf, false, false).Command("/src/api", "git", "status")(time.Second)
		New(&buf, true, true).Command("/src/api", "git", "status")(time.Second)
		if buf.Len() != 0 {
			t.Errorf("wrote %q", buf.String())
		}
	})
}

func TestPrintf(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, false, false).Printf("Running hook %q in %s\n", "setup", "api")
	New(&buf, false, true).Printf("hidden")
	if got := buf.String(); got != "Running hook \"setup\" in api\n" {
		t.Errorf("output = %q", got)
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	l := New(&bytes.Buffer{}, true, false)
	if FromContext(WithLogger(context.Background(), l)) != l {
		t.Error("FromContext did not return the attached logger")
	}

	fallback := FromContext(context.Background())
	fallback.Error("goes nowhere")
	if fallback.IsVerbose() {
		t.Error("fallback logger should not be verbose")
	}
}
