package repo

import "strings"

// minHashLen is the length of a full SHA-1 object id. SHA-256 ids are longer.
const minHashLen = 40

// Hash is a full hex object id.
type Hash string

// ParseHash returns the hash held in s, which may carry surrounding whitespace.
// Returns false unless s is at least 40 hex characters.
func ParseHash(s string) (Hash, bool) {
	s = strings.TrimSpace(s)
	if len(s) < minHashLen {
		return "", false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return "", false
		}
	}
	return Hash(strings.ToLower(s)), true
}

// String returns the full hex form.
func (h Hash) String() string {
	return string(h)
}

// Short returns the 7 character abbreviation.
func (h Hash) Short() string {
	if len(h) <= 7 {
		return string(h)
	}
	return string(h[:7])
}

// IsZero reports whether the hash is unset.
func (h Hash) IsZero() bool {
	return h == ""
}
