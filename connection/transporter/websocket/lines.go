package websocket

import (
	"iter"
	"strings"
)

// ProtocolLines yields the trimmed, non-empty lines of a single frame's payload.
// A frame may carry any number of protocol lines, including none.
func ProtocolLines(payload string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for line := range strings.Lines(payload) {
			if line = strings.TrimSpace(line); line == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}
