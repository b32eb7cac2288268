package transcript

import (
	"strings"

	"github.com/stewardlabs/steward/internal/stt"
)

// State holds the accumulated transcript for one connection: the append-only
// history of merged window texts, plus the most recent window's timestamped
// segments kept only as merge context for the next window.
//
// State is owned by a single connection's goroutine for its whole lifetime
// and is discarded when the connection closes; nothing is shared across
// connections and nothing is persisted.
type State struct {
	history  []string
	segments []stt.TimedSegment
}

// NewState creates empty per-connection transcript state.
func NewState() *State {
	return &State{}
}

// AppendWindow records the merged text of one processed window. History only
// ever grows; earlier entries are never rewritten.
func (s *State) AppendWindow(merged string) {
	if merged == "" {
		return
	}
	s.history = append(s.history, merged)
}

// FullTranscript returns the accumulated conversation text, space-joined in
// window order. This is what the analysis service receives on every call.
func (s *State) FullTranscript() string {
	return strings.Join(s.history, " ")
}

// windowCount returns how many windows have contributed to the history.
func (s *State) windowCount() int {
	return len(s.history)
}

// SetSegments replaces the merge context with the latest window's segments.
func (s *State) SetSegments(segments []stt.TimedSegment) {
	s.segments = segments
}

// Segments returns the previous window's segments for the next merge.
func (s *State) Segments() []stt.TimedSegment {
	return s.segments
}
