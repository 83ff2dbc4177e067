// Package log writes diagnostics to stderr. Command results never go
// through it; see the output package.
package log

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/raphi011/brancher/internal/ui/styles"
)

type level int

const (
	levelDebug level = iota
	levelWarn
	levelError
)

func (lv level) prefix() string {
	switch lv {
	case levelDebug:
		return styles.MutedStyle.Render("debug:")
	case levelWarn:
		return styles.WarningStyle.Render("warning:")
	default:
		return styles.ErrorStyle.Render("error:")
	}
}

// Logger is the diagnostics sink of one command invocation.
type Logger struct {
	out     io.Writer
	verbose bool
	quiet   bool
}

// New returns a Logger writing to out. quiet silences everything but
// Error and wins over verbose.
func New(out io.Writer, verbose, quiet bool) *Logger {
	return &Logger{out: out, verbose: verbose, quiet: quiet}
}

type loggerKey struct{}

func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the Logger attached to ctx, or one that discards.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l
	}
	return New(io.Discard, false, false)
}

// IsVerbose reports whether Debug and Command output is shown.
func (l *Logger) IsVerbose() bool {
	return l.verbose && !l.quiet
}

// Printf writes progress text such as hook announcements unless quiet.
func (l *Logger) Printf(format string, args ...any) {
	if !l.quiet {
		fmt.Fprintf(l.out, format, args...)
	}
}

// Command echoes an external command in verbose mode. Call the returned
// func with its run time to finish the line.
func (l *Logger) Command(dir, name string, args ...string) func(time.Duration) {
	if !l.IsVerbose() {
		return func(time.Duration) {}
	}
	var b strings.Builder
	if dir != "" {
		fmt.Fprintf(&b, "[%s] ", dir)
	}
	b.WriteString("$ ")
	b.WriteString(strings.Join(append([]string{name}, args...), " "))
	io.WriteString(l.out, b.String())

	return func(d time.Duration) {
		fmt.Fprintln(l.out, " "+styles.MutedStyle.Render("("+d.Round(time.Millisecond).String()+")"))
	}
}

// Debug logs in verbose mode.
func (l *Logger) Debug(msg string, keyvals ...any) {
	if l.IsVerbose() {
		l.log(levelDebug, msg, keyvals)
	}
}

func (l *Logger) Warn(msg string, keyvals ...any) {
	if !l.quiet {
		l.log(levelWarn, msg, keyvals)
	}
}

// Error is shown even when quiet. It reports state on disk the user has to
// act on, such as a failed rollback.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.log(levelError, msg, keyvals)
}

// log writes "level: msg k=v ...". A trailing key without a value is dropped;
// values containing spaces are quoted.
func (l *Logger) log(lv level, msg string, keyvals []any) {
	var b strings.Builder
	b.WriteString(lv.prefix())
	b.WriteByte(' ')
	b.WriteString(msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, " %v=%s", keyvals[i], formatValue(keyvals[i+1]))
	}
	fmt.Fprintln(l.out, b.String())
}

func formatValue(v any) string {
	var s string
	switch v := v.(type) {
	case error:
		s = v.Error()
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"") {
		return strconv.Quote(s)
	}
	return s
}
