// Package output writes command results to stdout. Diagnostics go through
// the log package to stderr, so results can be piped while progress and
// warnings stay on the terminal.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Printer writes rendered tables, reports and JSON documents.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

type printerKey struct{}

// WithPrinter returns a context carrying a Printer for w.
func WithPrinter(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, printerKey{}, New(w))
}

// FromContext returns the Printer attached to ctx, or one for os.Stdout.
func FromContext(ctx context.Context) *Printer {
	if p, ok := ctx.Value(printerKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stdout)
}

func (p *Printer) Print(a ...any)                 { fmt.Fprint(p.w, a...) }
func (p *Printer) Printf(format string, a ...any) { fmt.Fprintf(p.w, format, a...) }
func (p *Printer) Println(a ...any)               { fmt.Fprintln(p.w, a...) }

// JSON writes v as an indented JSON document followed by a newline.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Writer returns the destination, for renderers that take an io.Writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}
