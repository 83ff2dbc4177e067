package output

import (
	"bytes"
	"context"
	"os"
	"testing"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if got := FromContext(WithPrinter(context.Background(), &buf)).Writer(); got != &buf {
		t.Error("FromContext did not return the attached writer")
	}
	if got := FromContext(context.Background()).Writer(); got != os.Stdout {
		t.Error("FromContext should fall back to stdout")
	}
}

func TestPrinter_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := New(&buf)
	p.Print("api", " ")
	p.Printf("%s:%d", "web", 2)
	p.Println()

	if got := buf.String(); got != "api web:2\n" {
		t.Errorf("output = %q", got)
	}
}

func TestPrinter_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := New(&buf).JSON([]struct {
		Repo   string `json:"repo"`
		Branch string `json:"branch,omitempty"`
	}{{Repo: "api", Branch: "main"}, {Repo: "web"}})
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	want := `[
  {
    "repo": "api",
    "branch": "main"
  },
  {
    "repo": "web"
  }
]
`
	if got := buf.String(); got != want {
		t.Errorf("JSON output =\n%s\nwant\n%s", got, want)
	}
}

func TestPrinter_JSONError(t *testing.T) {
	t.Parallel()

	if err := New(&bytes.Buffer{}).JSON(make(chan int)); err == nil {
		t.Error("expected error for unsupported type")
	}
}
