package retrieval

import (
	"strings"
)

// NoHistory is rendered when a session has no previous exchanges
const NoHistory = "No history"

// History is a bounded queue of conversation lines ("User: ..." and
// "Assistant: ..."). It belongs to one session and is not safe for
// concurrent use.
type History struct {
	limit   int
	entries []string
}

// NewHistory creates a history that keeps at most limit entries
func NewHistory(limit int) *History {
	if limit < 0 {
		limit = 0
	}
	return &History{limit: limit}
}

// Append records one exchange and trims the queue
func (h *History) Append(question, answer string) {
	h.entries = append(h.entries, "User: "+question, "Assistant: "+answer)
	h.Trim()
}

// Trim drops the oldest entries beyond the limit
func (h *History) Trim() {
	if len(h.entries) > h.limit {
		kept := make([]string, h.limit)
		copy(kept, h.entries[len(h.entries)-h.limit:])
		h.entries = kept
	}
}

// Render joins the last n entries with newlines, or returns NoHistory
func (h *History) Render(n int) string {
	if len(h.entries) == 0 || n <= 0 {
		return NoHistory
	}
	start := len(h.entries) - n
	if start < 0 {
		start = 0
	}
	return strings.Join(h.entries[start:], "\n")
}

// Entries returns a copy of the queued entries, oldest first
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of queued entries
func (h *History) Len() int {
	return len(h.entries)
}

// Clear empties the queue
func (h *History) Clear() {
	h.entries = nil
}
