package styles

// Symbols marks the outcome of an operation in one repository.
type Symbols struct {
	Done       string
	UpToDate   string
	Conflict   string
	Failed     string
	RolledBack string
	Skipped    string
	Pending    string
}

var unicodeSymbols = Symbols{
	Done:       "✓",
	UpToDate:   "=",
	Conflict:   "⚠",
	Failed:     "✗",
	RolledBack: "↺",
	Skipped:    "-",
	Pending:    "·",
}

var asciiSymbols = Symbols{
	Done:       "+",
	UpToDate:   "=",
	Conflict:   "!",
	Failed:     "x",
	RolledBack: "<",
	Skipped:    "-",
	Pending:    ".",
}

var currentSymbols = unicodeSymbols

// SetASCII switches to symbols that render on any terminal.
func SetASCII(enabled bool) {
	if enabled {
		currentSymbols = asciiSymbols
	} else {
		currentSymbols = unicodeSymbols
	}
}

// CurrentSymbols returns the current symbol set
func CurrentSymbols() Symbols {
	return currentSymbols
}
