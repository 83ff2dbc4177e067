package repo

import (
	"os"
	"strings"
)

// HeadInfo is the parsed content of HEAD: a symbolic target ref when
// IsBranch is set, a raw hash otherwise. The zero value means HEAD could
// not be read.
type HeadInfo struct {
	Content  string
	IsBranch bool
}

// Valid reports whether HEAD was parsed.
func (h HeadInfo) Valid() bool {
	return h.Content != ""
}

// parseHead classifies the content of a HEAD file.
func parseHead(content string) (HeadInfo, bool) {
	content = strings.TrimSpace(content)
	if h, ok := ParseHash(content); ok {
		return HeadInfo{Content: h.String()}, true
	}
	if target, ok := symbolicTarget(content); ok {
		return HeadInfo{Content: target, IsBranch: true}, true
	}
	return HeadInfo{}, false
}

// readHead reads and parses HEAD. Failures are reported as an anomaly.
func readHead(path string) (HeadInfo, *Anomaly) {
	content, err := os.ReadFile(path)
	if err != nil {
		return HeadInfo{}, &Anomaly{Kind: InvalidHead, Detail: err.Error()}
	}
	head, ok := parseHead(string(content))
	if !ok {
		return HeadInfo{}, &Anomaly{Kind: InvalidHead, Detail: "invalid format: " + strings.TrimSpace(string(content))}
	}
	return head, nil
}
