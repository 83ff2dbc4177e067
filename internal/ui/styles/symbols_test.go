package styles

import "testing"

func TestSetASCII(t *testing.T) {
	SetASCII(true)
	if got := CurrentSymbols().Done; got != "+" {
		t.Errorf("ASCII Done = %q", got)
	}

	SetASCII(false)
	if got := CurrentSymbols().Done; got != "✓" {
		t.Errorf("Done = %q", got)
	}
}

func TestSymbolsDistinct(t *testing.T) {
	for _, s := range []Symbols{unicodeSymbols, asciiSymbols} {
		all := []string{s.Done, s.UpToDate, s.Conflict, s.Failed, s.RolledBack, s.Skipped, s.Pending}
		seen := map[string]bool{}
		for _, sym := range all {
			if sym == "" {
				t.Errorf("empty symbol in %+v", s)
			}
			if seen[sym] {
				t.Errorf("duplicate symbol %q in %+v", sym, s)
			}
			seen[sym] = true
		}
	}
}
